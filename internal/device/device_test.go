package device

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAffinity(t *testing.T) {
	tests := []struct {
		in      string
		want    Affinity
		wantErr bool
	}{
		{in: "", want: HostAffinity},
		{in: "host", want: HostAffinity},
		{in: "accel", want: Affinity{Kind: Accel}},
		{in: "accel:0", want: Affinity{Kind: Accel, Ordinal: 0}},
		{in: "accel:3", want: Affinity{Kind: Accel, Ordinal: 3}},
		{in: "accel:-1", wantErr: true},
		{in: "accel:x", wantErr: true},
		{in: "gpu:0", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseAffinity(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestHostStreamRunsInline(t *testing.T) {
	p := NewProvider()
	defer p.Close()
	s := p.Host()

	ran := false
	s.Enqueue("inline", func() error {
		ran = true
		return nil
	})
	assert.True(t, ran, "host stream work must complete before Enqueue returns")
	assert.NoError(t, s.Synchronize())
}

func TestAccelStreamPreservesLaunchOrder(t *testing.T) {
	p := NewProvider()
	defer p.Close()
	s := p.Stream(Affinity{Kind: Accel})

	var order []int
	for i := 0; i < 100; i++ {
		i := i
		s.Enqueue("ordered", func() error {
			order = append(order, i)
			return nil
		})
	}
	require.NoError(t, s.Synchronize())

	require.Len(t, order, 100)
	for i, got := range order {
		assert.Equal(t, i, got)
	}
}

func TestStreamErrorIsStickyAndFirstWins(t *testing.T) {
	p := NewProvider()
	defer p.Close()
	s := p.Stream(Affinity{Kind: Accel})

	s.Enqueue("ok", func() error { return nil })
	s.Enqueue("boom", func() error { return errors.New("boom") })
	s.Enqueue("later", func() error { return errors.New("later") })

	err := s.Synchronize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `op "boom"`)

	// A synchronize consumes the error; the stream is usable again.
	assert.NoError(t, s.Synchronize())
}

func TestEventCrossStreamWaitSuspendsOnlyConsumer(t *testing.T) {
	p := NewProvider()
	defer p.Close()
	producer := p.Stream(Affinity{Kind: Accel, Ordinal: 0})
	consumer := p.Stream(Affinity{Kind: Accel, Ordinal: 1})

	release := make(chan struct{})
	var produced atomic.Bool
	producer.Enqueue("produce", func() error {
		<-release
		produced.Store(true)
		return nil
	})

	ev := NewEvent(Affinity{Kind: Accel, Ordinal: 0})
	producer.Record(ev)

	var sawProduced atomic.Bool
	consumer.Wait(ev)
	consumer.Enqueue("consume", func() error {
		sawProduced.Store(produced.Load())
		return nil
	})

	// The wait is issued and the host is not blocked.
	assert.False(t, sawProduced.Load())
	close(release)

	require.NoError(t, consumer.Synchronize())
	assert.True(t, sawProduced.Load(), "consumer must observe producer's effects")
	require.NoError(t, producer.Synchronize())
}

func TestHostWaitBlocksUntilEventFires(t *testing.T) {
	p := NewProvider()
	defer p.Close()
	producer := p.Stream(Affinity{Kind: Accel})

	producer.Enqueue("slow", func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	ev := NewEvent(Affinity{Kind: Accel})
	producer.Record(ev)
	require.True(t, ev.Outstanding())

	p.Host().Wait(ev)
	assert.False(t, ev.Outstanding(), "host wait clears the outstanding flag")
}

func TestHostEventWaitIsNoop(t *testing.T) {
	p := NewProvider()
	defer p.Close()

	ev := NewEvent(HostAffinity)
	p.Host().Record(ev)
	assert.True(t, ev.Recorded())
	assert.False(t, ev.Outstanding(), "host events never require a final sync")

	// Waiting anywhere on a host event returns immediately.
	p.Stream(Affinity{Kind: Accel}).Wait(ev)
	p.Host().Wait(ev)
}

func TestEventDoubleRecordPanics(t *testing.T) {
	p := NewProvider()
	defer p.Close()
	s := p.Stream(Affinity{Kind: Accel})

	ev := NewEvent(Affinity{Kind: Accel})
	s.Record(ev)
	assert.Panics(t, func() { s.Record(ev) })
}

func TestEventWaitBeforeRecordPanics(t *testing.T) {
	p := NewProvider()
	defer p.Close()
	ev := NewEvent(Affinity{Kind: Accel})
	assert.Panics(t, func() { p.Host().Wait(ev) })
}

func TestEventResetAllowsReuse(t *testing.T) {
	p := NewProvider()
	defer p.Close()
	s := p.Stream(Affinity{Kind: Accel})

	ev := NewEvent(Affinity{Kind: Accel})
	s.Record(ev)
	p.Host().Wait(ev)

	ev.Reset()
	assert.False(t, ev.Recorded())
	s.Record(ev)
	p.Host().Wait(ev)
}

func TestProviderSharesStreamPerAffinity(t *testing.T) {
	p := NewProvider()
	defer p.Close()

	a := p.Stream(Affinity{Kind: Accel, Ordinal: 2})
	b := p.Stream(Affinity{Kind: Accel, Ordinal: 2})
	assert.Same(t, a, b)

	c := p.Stream(Affinity{Kind: Accel, Ordinal: 3})
	assert.NotSame(t, a, c)
}

func TestAsyncRunNesting(t *testing.T) {
	ctx := context.Background()
	assert.False(t, InAsyncRun(ctx), "fresh context is outermost")

	inner := EnterAsyncRun(ctx)
	assert.True(t, InAsyncRun(inner), "entered context is nested")
	assert.True(t, InAsyncRun(EnterAsyncRun(inner)), "re-entering stays nested")

	assert.False(t, InAsyncRun(ctx), "sibling contexts do not see each other's runs")
}

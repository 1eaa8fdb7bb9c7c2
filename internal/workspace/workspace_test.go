package workspace

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobRoundTrip(t *testing.T) {
	ws := New()

	b := ws.CreateBlob("a")
	require.NotNil(t, b)
	assert.False(t, b.IsSet())

	b.Set(42)
	got, ok := ws.GetBlob("a").Get()
	require.True(t, ok)
	assert.Equal(t, 42, got)

	// Overwrite in place: same cell, new value.
	b.Set("hello")
	got, ok = ws.GetBlob("a").Get()
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestCreateBlobIsIdempotent(t *testing.T) {
	ws := New()
	first := ws.CreateBlob("a")
	first.Set(1)

	second := ws.CreateBlob("a")
	assert.Same(t, first, second)
	got, ok := second.Get()
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestGetBlobMiss(t *testing.T) {
	ws := New()
	assert.Nil(t, ws.GetBlob("missing"))
	assert.False(t, ws.HasBlob("missing"))
}

func TestChildFallsBackToParent(t *testing.T) {
	parent := New()
	parent.CreateBlob("shared").Set("from-parent")

	child := parent.NewChild()
	require.True(t, child.HasBlob("shared"))

	got, ok := child.GetBlob("shared").Get()
	require.True(t, ok)
	assert.Equal(t, "from-parent", got)

	// Unset names miss through the whole chain.
	assert.Nil(t, child.GetBlob("nope"))
}

func TestChildCreationShadowsParent(t *testing.T) {
	parent := New()
	parent.CreateBlob("x").Set("parent")

	child := parent.NewChild()
	child.CreateBlob("x").Set("child")

	got, _ := child.GetBlob("x").Get()
	assert.Equal(t, "child", got)

	// The parent's cell is untouched.
	got, _ = parent.GetBlob("x").Get()
	assert.Equal(t, "parent", got)
}

func TestWritesInChildVisibleThroughParentCell(t *testing.T) {
	parent := New()
	parent.CreateBlob("counter").Set(0)

	// A child that does not create the blob writes through to the parent's
	// cell. This is how cross-iteration state is shared explicitly.
	child := parent.NewChild()
	child.GetBlob("counter").Set(1)

	got, _ := parent.GetBlob("counter").Get()
	assert.Equal(t, 1, got)
}

func TestBlobsAndLocalBlobs(t *testing.T) {
	parent := New()
	parent.CreateBlob("a")
	parent.CreateBlob("b")

	child := parent.NewChild()
	child.CreateBlob("b")
	child.CreateBlob("c")

	assert.Equal(t, []string{"b", "c"}, child.LocalBlobs())
	assert.Equal(t, []string{"a", "b", "c"}, child.Blobs())
	assert.Equal(t, []string{"a", "b"}, parent.Blobs())
}

func TestConcurrentCreateAndSet(t *testing.T) {
	ws := New()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("blob-%d", i%8)
			ws.CreateBlob(name).Set(i)
		}(i)
	}
	wg.Wait()

	assert.Len(t, ws.LocalBlobs(), 8)
	for _, name := range ws.LocalBlobs() {
		assert.True(t, ws.GetBlob(name).IsSet())
	}
}

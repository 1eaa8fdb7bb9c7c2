package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/gridplan/internal/app"
	"github.com/vk/gridplan/internal/operator"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunPlanTest provides a standardized harness for running plan integration
// tests with a default background context.
func RunPlanTest(t *testing.T, files map[string]string, extraOps ...func(*operator.Registry)) *HarnessResult {
	t.Helper()
	return RunPlanTestWithContext(context.Background(), t, files, extraOps...)
}

// RunPlanTestWithContext writes the given plan files into a temporary
// directory, builds an App over them, and runs the plan to completion,
// capturing logs and the final error.
func RunPlanTestWithContext(ctx context.Context, t *testing.T, files map[string]string, extraOps ...func(*operator.Registry)) *HarnessResult {
	t.Helper()

	planDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(planDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	appConfig := &app.Config{
		PlanPath:  planDir,
		LogLevel:  "debug",
		LogFormat: "text",
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(ctx, logBuffer, appConfig, extraOps...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(ctx)
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}

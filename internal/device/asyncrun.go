package device

import "context"

// asyncRunKey marks contexts that are already inside an asynchronous
// network run.
type asyncRunKey struct{}

// EnterAsyncRun returns a context marked as being inside an asynchronous
// network run. The marker travels with the call tree, so only a network
// genuinely launched from inside another run (an operator running a
// sub-network) counts as nested; concurrent top-level runs do not see each
// other.
func EnterAsyncRun(ctx context.Context) context.Context {
	return context.WithValue(ctx, asyncRunKey{}, true)
}

// InAsyncRun reports whether ctx is already inside an asynchronous network
// run. A run entered with a context for which this is false is the
// outermost one and must perform the final host synchronization before
// returning.
func InAsyncRun(ctx context.Context) bool {
	nested, _ := ctx.Value(asyncRunKey{}).(bool)
	return nested
}

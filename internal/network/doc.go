// Package network groups operators into runnable networks.
//
// Two implementations are registered: "simple" runs its operators
// sequentially on the calling goroutine, and "async" schedules chains of
// operators onto device streams with event-based cross-chain
// synchronization. Both are constructed from the same Definition and share
// the Network contract, so execution steps treat them uniformly.
package network

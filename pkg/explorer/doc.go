// Package explorer drives lazy expansion of a taxonomy tree.
//
// A [Session] owns the hierarchy store for the selected root, a [Controller]
// that turns clicks into fetches or expand/collapse flips, and the
// reconciler that diffs consecutive scenes:
//
//	s := explorer.New(client, explorer.Options{Logger: logger})
//	frame, err := s.Select(ctx, "http://data.15926.org/dm/Thing")
//	frame = s.Click(ctx, frame.Scene.Nodes[1].ID)
//
// Each click yields a [Frame]: the [Outcome] of the click, the full scene
// for the visible tree and the patch against the previous scene.
//
// # Failure Handling
//
// Fetch failures never surface as errors from Click. The node stays
// unfetched, the failure is logged and the outcome is
// [OutcomeFetchFailed]; clicking again retries.
//
// # Concurrency
//
// Toggles may run from several goroutines. Concurrent toggles of the same
// unfetched node share one fetch. No lock is held while a fetch is in
// flight.
package explorer

// Package snapshot persists encoded node trees.
//
// A snapshot is a FrameSnapshot frame from package protocol: the cycle
// number and the full tree. Stores are keyed by session and cycle, and
// every save also updates the session's latest key, so a reconnecting
// consumer can fetch the newest tree and resume from the next patches frame:
//
//	store := snapshot.NewMemoryStore()
//	// or
//	store := snapshot.NewS3Store(s3.NewFromConfig(cfg), "bucket", "trees/")
//
//	err := snapshot.SaveTree(ctx, store, "session-1", 4, tree)
//	sf, err := snapshot.LoadLatest(ctx, store, "session-1")
//
// Custom widget nodes have no wire form, so trees containing them cannot
// be saved.
package snapshot

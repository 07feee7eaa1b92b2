// Package server keeps a live tree in step with a sequence of node trees
// and streams every cycle to remote consumers.
//
// # Sessions
//
// A Session owns a document, the live tree rendered into it and the node
// tree of the current cycle. Update diffs the next tree against the current
// one, patches the live tree and broadcasts the patch list as a
// protocol.PatchesFrame. A snapshot of each cycle is written to the
// configured snapshot.Store.
//
// # Subscribers
//
// Each websocket subscriber runs two goroutines:
//   - readLoop: decodes event frames and hands them to HandleEvent
//   - writeLoop: writes queued frames and heartbeat pings
//
// A subscriber starts from a snapshot frame and applies every patches frame
// to the tree it holds. One that reconnects with ?cycle=N is replayed the
// buffered frames after N when PatchHistory still has them. A subscriber
// whose send queue fills up is disconnected.
//
// # Events
//
// Event frames address live nodes by pre-order index. HandleEvent
// dispatches the event through the node's listeners, and the messages they
// produce are passed to the session dispatch function.
//
// # HTTP
//
// Server.Handler routes the page, the websocket, the snapshot, metrics and
// the optional advance hook with chi.
package server

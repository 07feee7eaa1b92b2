// Package protocol implements the binary wire format used to ship node
// trees, patch lists and events between a session server and its remote
// consumers.
//
// # Wire Format
//
// Every message is a frame:
//
//	┌─────────────┬──────────────────────┬─────────────────────┐
//	│ Frame Type  │ Payload Length       │ Payload             │
//	│ (1 byte)    │ (uvarint)            │ (length bytes)      │
//	└─────────────┴──────────────────────┴─────────────────────┘
//
// # Frame Types
//
//   - FrameSnapshot (0x01): cycle number and the full node tree
//   - FramePatches (0x02): cycle number and the patch list from the previous cycle
//   - FrameEvent (0x03): target pre-order index, event type, JSON payload
//   - FrameError (0x04): registry code, message, fatal flag
//
// # Encoding
//
//   - Varint: protobuf-style unsigned integers
//   - ZigZag: signed integers (insert positions, prop ints)
//   - Length-prefixed: strings and byte arrays
//   - Maps: written with sorted keys, so encoding is deterministic
//
// # Nodes
//
// Tagged and thunk nodes travel as markers carrying the tagger or view name,
// so a decoded tree has the same pre-order indices as the sender's tree and
// patch indices stay valid. Tagger functions, view functions and event
// decoders do not travel: decoded taggers are the identity, and decoded
// handlers yield the raw event payload. Custom nodes are rejected with E202.
//
// # Patches
//
// Each patch is written as kind, index and a kind-specific payload. A reorder
// starts with a table of its entries; inserts and moves refer to entries by
// table position so the decoded move and insert share one *vdom.Entry, which
// is how the live patcher pairs them.
//
// A remote consumer holds its own tree: it starts from a FrameSnapshot and
// applies each FramePatches frame to the tree of the previous cycle. Patch
// indices address the old tree, so the consumer advances its copy with
// vdom.Patched after patching its live nodes.
//
// # Limits
//
// Decoding bounds string sizes, collection counts and nesting depth so that
// hostile input cannot force large allocations or deep recursion.
package protocol

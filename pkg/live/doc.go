// Package live renders virtual nodes into a dom.Document and applies
// patches produced by vdom.Diff to the result.
//
// # Rendering
//
// Render builds a detached subtree from a VNode. Thunks are forced, tagged
// subtrees open an event context holding their tagger chain, and custom
// nodes delegate to their widget.
//
//	doc := dom.NewDocument()
//	root := live.Render(doc, view(model), func(msg any, sync bool) {
//	    model = update(msg, model)
//	})
//
// # Patching
//
// Apply takes the live root, the node tree it was rendered from and the
// patch list, and returns the new root:
//
//	next := view(model)
//	root = live.Apply(root, prev, vdom.Diff(prev, next), dispatch)
//	prev = next
//
// Patches are first bound to their live targets in one indexed walk of the
// old tree, then applied in order. Keyed reorders detach moving nodes,
// patch them and reinsert them without re-rendering.
//
// # Events
//
// Every listener installed by this package decodes the event with its
// handler, honors the stop and prevent flags, and walks up the chain of
// event contexts applying each tagger before the root dispatch function
// receives the message. Events that fail to decode are dropped.
//
// Virtualize converts an existing live tree into a VNode so that
// server-rendered markup can be adopted without a redraw.
package live

// Package vdom provides the virtual node model and the differ.
//
// A VNode describes one position of a rendered tree: text, element, keyed
// element, custom widget, tagged subtree or memoized thunk. Nodes are built
// fresh each render cycle and compared with Diff, which produces patches
// addressed by the pre-order index of their target in the old tree.
//
// # Core Types
//
// VNode is the closed variant, discriminated by Kind. Fact is one raw
// attribute-like entry; Organize groups facts into Facts by category.
// Handler pairs a HandlerKind with a Decoder.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1("Title"),
//	    P(Text("Content")),
//	    OnClick(Save{}),
//	)
//
// Keyed lists use Keyed and K:
//
//	Keyed("ul", nil,
//	    K("a", Li("A")),
//	    K("b", Li("B")),
//	)
//
// # Diffing
//
// Diff compares two trees and returns []Patch. Plain children are compared
// by position; keyed children are reconciled with a one-element lookahead
// that detects swaps, insertions and removals, and turns a removal and an
// insertion of the same key into a move. Lazy thunks are skipped when their
// view and arguments are unchanged.
//
// Patches are unresolved: they carry no reference to a live node. The live
// package resolves and applies them. Patched applies them to the old node
// tree instead, for consumers that only see patch lists.
package vdom

// Package vtree is a virtual tree reconciliation engine.
//
// Applications describe their interface as an immutable tree of virtual
// nodes (package vdom). The engine renders that tree into a live document
// (package dom), computes an index-addressed patch list between two
// successive trees, and applies the patches to the live document with as
// few mutations as possible. Keyed children are reordered without being
// re-rendered, memoized subtrees are skipped when their arguments are
// unchanged, and messages produced by event listeners pass through the
// taggers of every enclosing mapped subtree before reaching the dispatch
// function.
//
//	engine := vtree.New(
//	    vtree.WithLogger(logger),
//	    vtree.WithMetrics(vtree.NewMetrics()),
//	)
//
//	doc := dom.NewDocument()
//	root := engine.Render(ctx, doc, view(model), dispatch)
//
//	next := view(model)
//	root, _ = engine.Update(ctx, root, prev, next, dispatch)
//	prev = next
//
// Package protocol ships trees and patch lists over the wire, package
// render serializes live trees to HTML, and package server streams cycles
// to websocket subscribers.
package vtree

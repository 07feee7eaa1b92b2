// Package dom provides the live tree that reconciliation mutates.
//
// A Document creates Nodes and owns the event context table. Nodes form a
// mutable tree with DOM-like operations: child list edits, attributes,
// namespaced attributes, properties, inline styles and event listeners.
//
// # Event Contexts
//
// Live nodes never point back into the event wiring that dispatches their
// messages. Instead a node stores an EventRef, a handle into its Document's
// context table. The table entries are opaque to this package; the live
// renderer stores tagger chains there.
//
//	doc := dom.NewDocument()
//	ul := doc.CreateElement("ul")
//	li := doc.CreateElement("li")
//	li.AppendChild(doc.CreateTextNode("first"))
//	ul.AppendChild(li)
//
// A Document is not safe for concurrent use. Callers serialize access.
package dom

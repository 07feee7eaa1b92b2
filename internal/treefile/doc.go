// Package treefile loads node trees from tree documents.
//
// YAML and JSON documents share one schema:
//
//	tag: div
//	attrs: {id: counter}
//	styles: {color: red}
//	props: {value: ""}
//	events: {click: increment}
//	children:
//	  - tag: ul
//	    keyed: true
//	    children:
//	      - {key: a, tag: li, children: [{text: A}]}
//	      - {key: b, tag: li, children: [{text: B}]}
//	  - map: row
//	    child: {tag: button, events: {click: remove}}
//	  - text: done
//
// HTML documents are parsed and virtualized; only attributes survive.
package treefile

package live

import (
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Virtualize builds a node tree mirroring an existing live tree, typically
// one parsed from server-rendered markup, so the first client render can be
// applied as a diff instead of a full replacement.
//
// Attributes become attribute facts. Properties, styles and listeners are
// not recovered. Nodes other than elements and text become empty text.
func Virtualize(n *dom.Node) *vdom.VNode {
	switch n.Type {
	case dom.TextNode:
		return vdom.Text(n.Data)
	case dom.ElementNode:
	default:
		return vdom.Text("")
	}

	var facts []vdom.Fact
	for _, key := range n.AttributeNames() {
		value, _ := n.Attribute(key)
		facts = append(facts, vdom.Attribute(key, value))
	}
	for _, key := range n.AttributeNSNames() {
		a, _ := n.AttributeNS(key)
		facts = append(facts, vdom.AttributeNS(a.Namespace, key, a.Value))
	}

	var kids []*vdom.VNode
	for _, c := range n.Children() {
		kids = append(kids, Virtualize(c))
	}
	return vdom.NodeNS(n.Namespace, n.Tag, facts, kids)
}

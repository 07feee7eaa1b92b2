package dom

import "sort"

// NodeType is the live node discriminator.
type NodeType uint8

const (
	ElementNode NodeType = iota + 1 // <div>, <li>, ...
	TextNode                        // character data
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	default:
		return "Unknown"
	}
}

// NSAttr is a namespaced attribute value.
type NSAttr struct {
	Namespace string
	Value     string
}

// Node is a live tree node.
type Node struct {
	Type      NodeType
	Tag       string // element tag name
	Namespace string // element namespace URI, empty for HTML
	Data      string // text content for TextNode

	// EventRef links this node to an event context in its Document.
	EventRef EventRef

	doc       *Document
	parent    *Node
	children  []*Node
	attrs     map[string]string
	nsAttrs   map[string]NSAttr
	props     map[string]any
	style     map[string]string
	listeners map[string]*registration
}

// Document returns the document that created the node.
func (n *Node) Document() *Document { return n.doc }

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child list. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// ChildAt returns the i-th child, or nil when out of range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// IndexOf returns the position of child in n, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// AppendChild appends child, detaching it from its current parent first.
func (n *Node) AppendChild(child *Node) *Node {
	child.detach()
	child.parent = n
	n.children = append(n.children, child)
	n.doc.mutated()
	return child
}

// AppendChildren appends all nodes as a single mutation.
func (n *Node) AppendChildren(nodes ...*Node) {
	if len(nodes) == 0 {
		return
	}
	for _, c := range nodes {
		c.detach()
		c.parent = n
	}
	n.children = append(n.children, nodes...)
	n.doc.mutated()
}

// InsertBefore inserts child before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) *Node {
	if ref == nil {
		return n.AppendChild(child)
	}
	child.detach()
	i := n.IndexOf(ref)
	if i < 0 {
		return n.AppendChild(child)
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	child.parent = n
	n.doc.mutated()
	return child
}

// RemoveChild removes child from n. It is a no-op when child is not a child of n.
func (n *Node) RemoveChild(child *Node) *Node {
	if child == nil || child.parent != n {
		return child
	}
	child.detach()
	n.doc.mutated()
	return child
}

// ReplaceChild puts next in the position of old.
func (n *Node) ReplaceChild(next, old *Node) *Node {
	i := n.IndexOf(old)
	if i < 0 || next == old {
		return old
	}
	next.detach()
	// detaching next may have shifted old
	i = n.IndexOf(old)
	n.children[i] = next
	next.parent = n
	old.parent = nil
	n.doc.mutated()
	return old
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// ReplaceData replaces the character data of a text node.
func (n *Node) ReplaceData(data string) {
	n.Data = data
	n.doc.mutated()
}

// Attribute returns a plain attribute value.
func (n *Node) Attribute(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// SetAttribute sets a plain attribute.
func (n *Node) SetAttribute(key, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
	n.doc.mutated()
}

// RemoveAttribute removes a plain attribute.
func (n *Node) RemoveAttribute(key string) {
	if _, ok := n.attrs[key]; ok {
		delete(n.attrs, key)
		n.doc.mutated()
	}
}

// AttributeNames returns the plain attribute names in sorted order.
func (n *Node) AttributeNames() []string {
	return sortedKeys(n.attrs)
}

// AttributeNS returns a namespaced attribute.
func (n *Node) AttributeNS(key string) (NSAttr, bool) {
	v, ok := n.nsAttrs[key]
	return v, ok
}

// SetAttributeNS sets a namespaced attribute.
func (n *Node) SetAttributeNS(namespace, key, value string) {
	if n.nsAttrs == nil {
		n.nsAttrs = make(map[string]NSAttr)
	}
	n.nsAttrs[key] = NSAttr{Namespace: namespace, Value: value}
	n.doc.mutated()
}

// RemoveAttributeNS removes a namespaced attribute.
func (n *Node) RemoveAttributeNS(namespace, key string) {
	if a, ok := n.nsAttrs[key]; ok && a.Namespace == namespace {
		delete(n.nsAttrs, key)
		n.doc.mutated()
	}
}

// AttributeNSNames returns the namespaced attribute names in sorted order.
func (n *Node) AttributeNSNames() []string {
	return sortedKeys(n.nsAttrs)
}

// Property returns a live property.
func (n *Node) Property(key string) (any, bool) {
	v, ok := n.props[key]
	return v, ok
}

// SetProperty assigns a live property. A nil value clears it.
func (n *Node) SetProperty(key string, value any) {
	if value == nil {
		if _, ok := n.props[key]; ok {
			delete(n.props, key)
			n.doc.mutated()
		}
		return
	}
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[key] = value
	n.doc.mutated()
}

// PropertyNames returns the property names in sorted order.
func (n *Node) PropertyNames() []string {
	return sortedKeys(n.props)
}

// Style returns an inline style property.
func (n *Node) Style(key string) (string, bool) {
	v, ok := n.style[key]
	return v, ok
}

// SetStyle assigns an inline style property. An empty value clears it.
func (n *Node) SetStyle(key, value string) {
	if value == "" {
		if _, ok := n.style[key]; ok {
			delete(n.style, key)
			n.doc.mutated()
		}
		return
	}
	if n.style == nil {
		n.style = make(map[string]string)
	}
	n.style[key] = value
	n.doc.mutated()
}

// StyleNames returns the style property names in sorted order.
func (n *Node) StyleNames() []string {
	return sortedKeys(n.style)
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Data
	}
	var s string
	for _, c := range n.children {
		s += c.TextContent()
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

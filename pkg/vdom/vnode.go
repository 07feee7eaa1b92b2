package vdom

import "github.com/vango-dev/vtree/pkg/dom"

// VKind is the node type discriminator.
type VKind uint8

const (
	KindText    VKind = iota // Plain text node
	KindElement              // <div>, <button>, etc.
	KindKeyed                // Element whose children carry identity keys
	KindCustom               // Widget managing its own live node
	KindTagged               // Subtree whose messages pass through a tagger
	KindThunk                // Memoized subtree
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindElement:
		return "Element"
	case KindKeyed:
		return "Keyed"
	case KindCustom:
		return "Custom"
	case KindTagged:
		return "Tagged"
	case KindThunk:
		return "Thunk"
	default:
		return "Unknown"
	}
}

// VNode is the virtual node. Which fields are meaningful depends on Kind.
// Nodes are immutable once built; the only exception is the cache cell of
// a thunk.
type VNode struct {
	Kind      VKind
	Text      string       // KindText
	Tag       string       // KindElement, KindKeyed
	Namespace string       // KindElement, KindKeyed
	Facts     *Facts       // KindElement, KindKeyed, KindCustom
	Children  []*VNode     // KindElement
	Keyed     []KeyedChild // KindKeyed

	// Descendants is the number of nodes below this one. Set at construction.
	Descendants int

	Tagger *Tagger // KindTagged
	Child  *VNode  // KindTagged

	State  any    // KindCustom
	Widget Widget // KindCustom

	View  *View // KindThunk
	Args  []any // KindThunk
	cache *VNode
}

// KeyedChild pairs a child with its identity key.
type KeyedChild struct {
	Key  string
	Node *VNode
}

// Tagger transforms messages leaving a subtree. Taggers are compared by
// pointer, so create them once and reuse them across renders.
type Tagger struct {
	name string
	fn   func(any) any
}

// NewTagger creates a tagger with a stable identity.
func NewTagger(name string, fn func(any) any) *Tagger {
	return &Tagger{name: name, fn: fn}
}

// Name returns the tagger's debug name.
func (t *Tagger) Name() string { return t.name }

// Tag applies the tagger to msg.
func (t *Tagger) Tag(msg any) any { return t.fn(msg) }

// View is the identity of a memoized view function. Views are compared by
// pointer; arguments are compared by deep equality.
type View struct {
	name string
	fn   func(args ...any) *VNode
}

// NewView creates a view with a stable identity.
func NewView(name string, fn func(args ...any) *VNode) *View {
	return &View{name: name, fn: fn}
}

// Name returns the view's debug name.
func (v *View) Name() string { return v.name }

// Widget is implemented by custom nodes that render and patch their own live
// representation. Widgets are compared by identity, so implementations
// should be comparable (typically pointers).
type Widget interface {
	Render(doc *dom.Document, state any) *dom.Node
	Diff(oldState, newState any) CustomPatch
}

// CustomPatch mutates a custom node's live representation and returns the
// (possibly replaced) node.
type CustomPatch func(n *dom.Node) *dom.Node

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{Kind: KindText, Text: content}
}

// Node creates an element node.
func Node(tag string, facts []Fact, children []*VNode) *VNode {
	return NodeNS("", tag, facts, children)
}

// NodeNS creates an element node in the given namespace.
func NodeNS(namespace, tag string, facts []Fact, children []*VNode) *VNode {
	count := len(children)
	for _, c := range children {
		count += c.Descendants
	}
	return &VNode{
		Kind:        KindElement,
		Tag:         tag,
		Namespace:   namespace,
		Facts:       Organize(facts),
		Children:    children,
		Descendants: count,
	}
}

// KeyedNode creates an element whose children carry identity keys.
func KeyedNode(tag string, facts []Fact, children []KeyedChild) *VNode {
	return KeyedNodeNS("", tag, facts, children)
}

// KeyedNodeNS creates a keyed element in the given namespace.
func KeyedNodeNS(namespace, tag string, facts []Fact, children []KeyedChild) *VNode {
	count := len(children)
	for _, c := range children {
		count += c.Node.Descendants
	}
	return &VNode{
		Kind:        KindKeyed,
		Tag:         tag,
		Namespace:   namespace,
		Facts:       Organize(facts),
		Keyed:       children,
		Descendants: count,
	}
}

// Custom creates a node whose live representation is managed by widget.
func Custom(facts []Fact, state any, widget Widget) *VNode {
	return &VNode{
		Kind:   KindCustom,
		Facts:  Organize(facts),
		State:  state,
		Widget: widget,
	}
}

// Map wraps node so that messages produced inside it pass through tagger.
func Map(tagger *Tagger, node *VNode) *VNode {
	return &VNode{
		Kind:        KindTagged,
		Tagger:      tagger,
		Child:       node,
		Descendants: 1 + node.Descendants,
	}
}

// Lazy creates a memoized subtree. The view is only called when the node is
// rendered, or diffed against a thunk with a different view or arguments.
func Lazy(view *View, args ...any) *VNode {
	return &VNode{Kind: KindThunk, View: view, Args: args}
}

// Force returns the thunk's child, materializing it on first use.
func (v *VNode) Force() *VNode {
	if v.cache == nil {
		v.cache = v.View.fn(v.Args...)
	}
	return v.cache
}

// Cached returns the thunk's child without materializing it.
func (v *VNode) Cached() *VNode {
	return v.cache
}

// Size returns 1 + Descendants: the number of traversal indices the node occupies.
func (v *VNode) Size() int {
	return 1 + v.Descendants
}

// Key returns the key of the i-th keyed child.
func (v *VNode) Key(i int) string {
	return v.Keyed[i].Key
}

// ChildNodes returns the children of an element or keyed element in order.
func (v *VNode) ChildNodes() []*VNode {
	switch v.Kind {
	case KindElement:
		return v.Children
	case KindKeyed:
		nodes := make([]*VNode, len(v.Keyed))
		for i, c := range v.Keyed {
			nodes[i] = c.Node
		}
		return nodes
	default:
		return nil
	}
}

// dekey converts a keyed element into a plain element with the same facts
// and descendant count.
func dekey(keyed *VNode) *VNode {
	return &VNode{
		Kind:        KindElement,
		Tag:         keyed.Tag,
		Namespace:   keyed.Namespace,
		Facts:       keyed.Facts,
		Children:    keyed.ChildNodes(),
		Descendants: keyed.Descendants,
	}
}

package treefile

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Node is one node of a tree document. Exactly one of Text, Tag or Map is
// set.
type Node struct {
	Text *string `yaml:"text,omitempty" json:"text,omitempty"`

	Tag      string            `yaml:"tag,omitempty" json:"tag,omitempty"`
	NS       string            `yaml:"ns,omitempty" json:"ns,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	AttrsNS  map[string]NSAttr `yaml:"attrsNS,omitempty" json:"attrsNS,omitempty"`
	Styles   map[string]string `yaml:"styles,omitempty" json:"styles,omitempty"`
	Props    map[string]any    `yaml:"props,omitempty" json:"props,omitempty"`
	Events   map[string]Event  `yaml:"events,omitempty" json:"events,omitempty"`
	Children []*Node           `yaml:"children,omitempty" json:"children,omitempty"`
	Keyed    bool              `yaml:"keyed,omitempty" json:"keyed,omitempty"`

	// Key identifies a child of a keyed parent.
	Key string `yaml:"key,omitempty" json:"key,omitempty"`

	// Map names the tagger wrapping Child.
	Map   string `yaml:"map,omitempty" json:"map,omitempty"`
	Child *Node  `yaml:"child,omitempty" json:"child,omitempty"`

	line, column int
}

// NSAttr is a namespaced attribute value.
type NSAttr struct {
	NS    string `yaml:"ns" json:"ns"`
	Value string `yaml:"value" json:"value"`
}

// Event describes a handler. In its short form it is just the message:
//
//	events:
//	  click: increment
//
// The long form picks the handler kind, or decodes the message from the
// event payload:
//
//	events:
//	  input: {path: [target, value]}
//	  submit: {message: save, preventDefault: true}
type Event struct {
	Message         any      `yaml:"message,omitempty" json:"message,omitempty"`
	Path            []string `yaml:"path,omitempty" json:"path,omitempty"`
	StopPropagation bool     `yaml:"stopPropagation,omitempty" json:"stopPropagation,omitempty"`
	PreventDefault  bool     `yaml:"preventDefault,omitempty" json:"preventDefault,omitempty"`
}

type plainNode Node

type plainEvent Event

// UnmarshalYAML records the node position for error reports.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if err := value.Decode((*plainNode)(n)); err != nil {
		return err
	}
	n.line, n.column = value.Line, value.Column
	return nil
}

// UnmarshalYAML accepts a scalar or sequence as the short form.
func (e *Event) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return value.Decode(&e.Message)
	}
	return value.Decode((*plainEvent)(e))
}

// UnmarshalJSON accepts any non-object value as the short form.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw.(map[string]any); !ok {
		e.Message = raw
		return nil
	}
	return json.Unmarshal(data, (*plainEvent)(e))
}

// TaggedMsg is the message produced through a mapped subtree.
type TaggedMsg struct {
	Tagger string
	Msg    any
}

// Loader converts tree documents to node trees. Taggers are interned by
// name, so two documents loaded by one Loader diff without retag patches
// where they use the same names.
type Loader struct {
	mu      sync.Mutex
	taggers map[string]*vdom.Tagger
}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{taggers: make(map[string]*vdom.Tagger)}
}

// Tagger returns the tagger interned under name. It wraps messages in a
// TaggedMsg.
func (l *Loader) Tagger(name string) *vdom.Tagger {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.taggers[name]
	if !ok {
		t = vdom.NewTagger(name, func(msg any) any { return TaggedMsg{Tagger: name, Msg: msg} })
		l.taggers[name] = t
	}
	return t
}

// Build converts a document node to a node tree. file, when set, is used in
// error locations.
func (l *Loader) Build(n *Node, file string) (*vdom.VNode, error) {
	set := 0
	if n.Text != nil {
		set++
	}
	if n.Tag != "" {
		set++
	}
	if n.Map != "" {
		set++
	}
	if set != 1 {
		return nil, invalid(n, file, "a node must have exactly one of text, tag or map",
			"tag: p\nchildren:\n  - text: hello")
	}

	switch {
	case n.Text != nil:
		return vdom.Text(*n.Text), nil
	case n.Map != "":
		if n.Child == nil {
			return nil, invalid(n, file, fmt.Sprintf("map %q has no child", n.Map),
				"map: "+n.Map+"\nchild:\n  tag: li")
		}
		child, err := l.Build(n.Child, file)
		if err != nil {
			return nil, err
		}
		return vdom.Map(l.Tagger(n.Map), child), nil
	}

	facts := n.facts()
	if n.Keyed {
		kids := make([]vdom.KeyedChild, 0, len(n.Children))
		for _, c := range n.Children {
			if c.Key == "" {
				return nil, invalid(c, file, fmt.Sprintf("child of keyed <%s> has no key", n.Tag),
					"tag: "+n.Tag+"\nkeyed: true\nchildren:\n  - key: a\n    tag: li")
			}
			node, err := l.Build(c, file)
			if err != nil {
				return nil, err
			}
			kids = append(kids, vdom.K(c.Key, node))
		}
		return vdom.KeyedNodeNS(n.NS, n.Tag, facts, kids), nil
	}

	kids := make([]*vdom.VNode, 0, len(n.Children))
	for _, c := range n.Children {
		node, err := l.Build(c, file)
		if err != nil {
			return nil, err
		}
		kids = append(kids, node)
	}
	return vdom.NodeNS(n.NS, n.Tag, facts, kids), nil
}

// facts lists the node's facts in a stable order.
func (n *Node) facts() []vdom.Fact {
	var facts []vdom.Fact
	for _, k := range sortedKeys(n.Attrs) {
		facts = append(facts, vdom.Attribute(k, n.Attrs[k]))
	}
	for _, k := range sortedKeys(n.AttrsNS) {
		a := n.AttrsNS[k]
		facts = append(facts, vdom.AttributeNS(a.NS, k, a.Value))
	}
	for _, k := range sortedKeys(n.Styles) {
		facts = append(facts, vdom.Style(k, n.Styles[k]))
	}
	for _, k := range sortedKeys(n.Props) {
		facts = append(facts, vdom.Property(k, n.Props[k]))
	}
	for _, k := range sortedKeys(n.Events) {
		facts = append(facts, vdom.On(k, n.Events[k].handler()))
	}
	return facts
}

func (e Event) handler() vdom.Handler {
	var d vdom.Decoder = vdom.Succeed(e.Message)
	if len(e.Path) > 0 {
		d = vdom.At(e.Path...)
	}
	switch {
	case e.StopPropagation && e.PreventDefault:
		return vdom.Handler{Kind: vdom.CustomHandler, Decoder: vdom.WithFlags(d, true, true)}
	case e.StopPropagation:
		return vdom.Handler{Kind: vdom.MayStopPropagation, Decoder: vdom.WithFlags(d, true, false)}
	case e.PreventDefault:
		return vdom.Handler{Kind: vdom.MayPreventDefault, Decoder: vdom.WithFlags(d, false, true)}
	default:
		return vdom.Handler{Kind: vdom.Normal, Decoder: d}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func invalid(n *Node, file, detail, example string) error {
	err := errors.New("E302").WithDetail(detail).WithExample(example)
	if file != "" && n.line > 0 {
		err = err.WithLocation(file, n.line, n.column)
	}
	return err
}

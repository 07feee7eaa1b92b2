package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// El creates an element from variadic arguments.
// Arguments can be: nil, Fact, []Fact, *VNode, []*VNode, string.
func El(tag string, args ...any) *VNode {
	facts, children := splitArgs(args)
	return Node(tag, facts, children)
}

// ElNS creates a namespaced element from variadic arguments.
func ElNS(namespace, tag string, args ...any) *VNode {
	facts, children := splitArgs(args)
	return NodeNS(namespace, tag, facts, children)
}

// Keyed creates a keyed element. Keyed children come after the facts.
func Keyed(tag string, facts []Fact, children ...KeyedChild) *VNode {
	return KeyedNode(tag, facts, children)
}

// K pairs a child with its identity key.
func K(key string, node *VNode) KeyedChild {
	return KeyedChild{Key: key, Node: node}
}

func splitArgs(args []any) ([]Fact, []*VNode) {
	var facts []Fact
	var children []*VNode
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional facts and children)
			continue
		case Fact:
			if !v.IsEmpty() {
				facts = append(facts, v)
			}
		case []Fact:
			facts = append(facts, v...)
		case *VNode:
			if v != nil {
				children = append(children, v)
			}
		case []*VNode:
			for _, c := range v {
				if c != nil {
					children = append(children, c)
				}
			}
		case string:
			children = append(children, Text(v))
		}
	}
	return facts, children
}

// Content sectioning elements

func Header(args ...any) *VNode  { return El("header", args...) }
func Footer(args ...any) *VNode  { return El("footer", args...) }
func Main(args ...any) *VNode    { return El("main", args...) }
func Nav(args ...any) *VNode     { return El("nav", args...) }
func Section(args ...any) *VNode { return El("section", args...) }
func Article(args ...any) *VNode { return El("article", args...) }
func Aside(args ...any) *VNode   { return El("aside", args...) }
func H1(args ...any) *VNode      { return El("h1", args...) }
func H2(args ...any) *VNode      { return El("h2", args...) }
func H3(args ...any) *VNode      { return El("h3", args...) }

// Text content elements

func Div(args ...any) *VNode  { return El("div", args...) }
func P(args ...any) *VNode    { return El("p", args...) }
func Span(args ...any) *VNode { return El("span", args...) }
func Pre(args ...any) *VNode  { return El("pre", args...) }
func Ul(args ...any) *VNode   { return El("ul", args...) }
func Ol(args ...any) *VNode   { return El("ol", args...) }
func Li(args ...any) *VNode   { return El("li", args...) }
func Hr(args ...any) *VNode   { return El("hr", args...) }

// Inline text semantics

func A(args ...any) *VNode      { return El("a", args...) }
func Strong(args ...any) *VNode { return El("strong", args...) }
func Em(args ...any) *VNode     { return El("em", args...) }
func Code(args ...any) *VNode   { return El("code", args...) }
func Br(args ...any) *VNode     { return El("br", args...) }

// Forms

func Form(args ...any) *VNode     { return El("form", args...) }
func Input(args ...any) *VNode    { return El("input", args...) }
func Button(args ...any) *VNode   { return El("button", args...) }
func Label(args ...any) *VNode    { return El("label", args...) }
func Select(args ...any) *VNode   { return El("select", args...) }
func Option(args ...any) *VNode   { return El("option", args...) }
func Textarea(args ...any) *VNode { return El("textarea", args...) }

// Tables

func Table(args ...any) *VNode { return El("table", args...) }
func Tbody(args ...any) *VNode { return El("tbody", args...) }
func Tr(args ...any) *VNode    { return El("tr", args...) }
func Td(args ...any) *VNode    { return El("td", args...) }
func Th(args ...any) *VNode    { return El("th", args...) }

// SVG

func Svg(args ...any) *VNode    { return ElNS(NamespaceSVG, "svg", args...) }
func Circle(args ...any) *VNode { return ElNS(NamespaceSVG, "circle", args...) }
func Path(args ...any) *VNode   { return ElNS(NamespaceSVG, "path", args...) }
func Use(args ...any) *VNode    { return ElNS(NamespaceSVG, "use", args...) }

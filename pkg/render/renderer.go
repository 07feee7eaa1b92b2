package render

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"

	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables pretty-printed HTML output with indentation.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// Minify runs the output through an HTML minifier. It takes precedence
	// over Pretty.
	Minify bool
}

// Renderer serializes live trees to HTML.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	if config.Minify {
		config.Pretty = false
	}
	return &Renderer{config: config}
}

// RenderToString renders a live tree to an HTML string.
func (r *Renderer) RenderToString(n *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter writes a live tree to w.
func (r *Renderer) RenderToWriter(w io.Writer, n *dom.Node) error {
	if !r.config.Minify {
		return r.renderNode(w, n, 0)
	}
	var buf bytes.Buffer
	if err := r.renderNode(&buf, n, 0); err != nil {
		return err
	}
	return minifier().Minify("text/html", w, &buf)
}

var (
	minifierOnce sync.Once
	sharedMin    *minify.M
)

func minifier() *minify.M {
	minifierOnce.Do(func() {
		sharedMin = minify.New()
		sharedMin.Add("text/html", &mhtml.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
	})
	return sharedMin
}

func (r *Renderer) renderNode(w io.Writer, n *dom.Node, depth int) error {
	if n == nil {
		return nil
	}
	switch n.Type {
	case dom.TextNode:
		_, err := io.WriteString(w, html.EscapeString(n.Data))
		return err
	case dom.ElementNode:
		return r.renderElement(w, n, depth)
	default:
		return fmt.Errorf("render: unknown node type %d", n.Type)
	}
}

func (r *Renderer) renderElement(w io.Writer, n *dom.Node, depth int) error {
	pretty := r.config.Pretty
	if pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "<"+n.Tag); err != nil {
		return err
	}
	for _, a := range attributes(n) {
		var err error
		if a.boolean {
			_, err = io.WriteString(w, " "+a.name)
		} else {
			_, err = fmt.Fprintf(w, ` %s="%s"`, a.name, html.EscapeString(a.value))
		}
		if err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if n.Namespace == "" && vdom.IsVoidElement(n.Tag) {
		if pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	block := pretty && hasElementChild(n) && !inlineElements[n.Tag]
	if block {
		io.WriteString(w, "\n")
	}
	for _, c := range n.Children() {
		if block && c.Type == dom.TextNode {
			if strings.TrimSpace(c.Data) == "" {
				continue
			}
			r.writeIndent(w, depth+1)
		}
		if err := r.renderNode(w, c, depth+1); err != nil {
			return err
		}
		if block && c.Type == dom.TextNode {
			io.WriteString(w, "\n")
		}
	}
	if block {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "</"+n.Tag+">"); err != nil {
		return err
	}
	if pretty {
		io.WriteString(w, "\n")
	}
	return nil
}

type attr struct {
	name    string
	value   string
	boolean bool
}

// attributes merges the element's attributes, namespaced attributes, style
// map and reflected properties into one sorted list. Properties win over
// attributes of the same name.
func attributes(n *dom.Node) []attr {
	byName := make(map[string]attr)

	for _, key := range n.AttributeNames() {
		v, _ := n.Attribute(key)
		byName[key] = attr{name: key, value: v}
	}
	for _, key := range n.AttributeNSNames() {
		a, _ := n.AttributeNS(key)
		name := qualifiedName(a.Namespace, key)
		byName[name] = attr{name: name, value: a.Value}
	}
	if names := n.StyleNames(); len(names) > 0 {
		decls := make([]string, len(names))
		for i, key := range names {
			v, _ := n.Style(key)
			decls[i] = key + ": " + v
		}
		byName["style"] = attr{name: "style", value: strings.Join(decls, "; ")}
	}
	for _, key := range n.PropertyNames() {
		v, _ := n.Property(key)
		name := propertyAttr(key)
		switch v := v.(type) {
		case bool:
			if v {
				byName[name] = attr{name: name, boolean: true}
			} else {
				delete(byName, name)
			}
		case string:
			byName[name] = attr{name: name, value: v}
		default:
			byName[name] = attr{name: name, value: fmt.Sprint(v)}
		}
	}

	out := make([]attr, 0, len(byName))
	for _, a := range byName {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func propertyAttr(key string) string {
	switch key {
	case "className":
		return "class"
	case "htmlFor":
		return "for"
	default:
		return strings.ToLower(key)
	}
}

// qualifiedName restores the conventional prefix of a namespaced attribute
// whose key was stored without one.
func qualifiedName(namespace, key string) string {
	if strings.Contains(key, ":") {
		return key
	}
	switch namespace {
	case dom.NamespaceXLink:
		return "xlink:" + key
	case dom.NamespaceXML:
		return "xml:" + key
	case dom.NamespaceXMLNS:
		if key == "xmlns" {
			return key
		}
		return "xmlns:" + key
	default:
		return key
	}
}

func hasElementChild(n *dom.Node) bool {
	for _, c := range n.Children() {
		if c.Type == dom.ElementNode {
			return true
		}
	}
	return false
}

// inlineElements stay on one line in pretty output.
var inlineElements = map[string]bool{
	"a":      true,
	"abbr":   true,
	"b":      true,
	"br":     true,
	"code":   true,
	"em":     true,
	"i":      true,
	"label":  true,
	"small":  true,
	"span":   true,
	"strong": true,
	"sub":    true,
	"sup":    true,
	"time":   true,
}

func (r *Renderer) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(r.config.Indent, depth))
}

package dom

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Namespace URIs used by parsed markup.
const (
	NamespaceSVG    = "http://www.w3.org/2000/svg"
	NamespaceMathML = "http://www.w3.org/1998/Math/MathML"
	NamespaceXLink  = "http://www.w3.org/1999/xlink"
	NamespaceXML    = "http://www.w3.org/XML/1998/namespace"
	NamespaceXMLNS  = "http://www.w3.org/2000/xmlns/"
)

// ErrNoRoot is returned by ParseHTML when the markup has no element.
var ErrNoRoot = errors.New("dom: markup contains no root element")

// ParseFragment parses markup in a <body> context and returns the top-level
// nodes. Comments and other non-content nodes become empty text nodes so the
// live tree keeps one node per markup node.
func ParseFragment(doc *Document, r io.Reader) ([]*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(parsed))
	for _, p := range parsed {
		nodes = append(nodes, convert(doc, p))
	}
	return nodes, nil
}

// ParseHTML parses markup and returns its single root element, ignoring
// whitespace-only text around it.
func ParseHTML(doc *Document, r io.Reader) (*Node, error) {
	nodes, err := ParseFragment(doc, r)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == ElementNode {
			return n, nil
		}
	}
	return nil, ErrNoRoot
}

func convert(doc *Document, p *html.Node) *Node {
	switch p.Type {
	case html.TextNode:
		return doc.CreateTextNode(p.Data)
	case html.ElementNode:
	default:
		return doc.CreateTextNode("")
	}

	var n *Node
	if ns := namespaceURI(p.Namespace); ns != "" {
		n = doc.CreateElementNS(ns, p.Data)
	} else {
		n = doc.CreateElement(p.Data)
	}
	for _, a := range p.Attr {
		if a.Namespace != "" {
			n.SetAttributeNS(namespaceURI(a.Namespace), a.Key, a.Val)
			continue
		}
		n.SetAttribute(a.Key, a.Val)
	}
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		// Skip inter-element whitespace that the renderer never produces.
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" && hasElementSibling(c) {
			continue
		}
		n.AppendChild(convert(doc, c))
	}
	return n
}

func hasElementSibling(c *html.Node) bool {
	for s := c.Parent.FirstChild; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return true
		}
	}
	return false
}

func namespaceURI(short string) string {
	switch short {
	case "":
		return ""
	case "svg":
		return NamespaceSVG
	case "math":
		return NamespaceMathML
	case "xlink":
		return NamespaceXLink
	case "xml":
		return NamespaceXML
	case "xmlns":
		return NamespaceXMLNS
	default:
		return short
	}
}

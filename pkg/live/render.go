package live

import (
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Render materializes node as a detached live subtree of doc. Events raised
// inside it are decoded, tagged and handed to dispatch.
func Render(doc *dom.Document, node *vdom.VNode, dispatch Dispatch) *dom.Node {
	return render(doc, node, rootContext(doc, dispatch))
}

func render(doc *dom.Document, v *vdom.VNode, ctx dom.EventRef) *dom.Node {
	switch v.Kind {
	case vdom.KindThunk:
		return render(doc, v.Force(), ctx)

	case vdom.KindText:
		return doc.CreateTextNode(v.Text)

	case vdom.KindTagged:
		taggers, sub := vdom.TaggerChain(v)
		ref := doc.NewEventContext(&eventContext{taggers: taggers, parent: ctx})
		n := render(doc, sub, ref)
		n.EventRef = ref
		return n

	case vdom.KindCustom:
		n := v.Widget.Render(doc, v.State)
		applyFacts(n, ctx, v.Facts)
		return n
	}

	var n *dom.Node
	if v.Namespace != "" {
		n = doc.CreateElementNS(v.Namespace, v.Tag)
	} else {
		n = doc.CreateElement(v.Tag)
	}
	applyFacts(n, ctx, v.Facts)

	kids := v.ChildNodes()
	if len(kids) == 0 {
		return n
	}
	rendered := make([]*dom.Node, len(kids))
	for i, kid := range kids {
		rendered[i] = render(doc, kid, ctx)
	}
	n.AppendChildren(rendered...)
	return n
}

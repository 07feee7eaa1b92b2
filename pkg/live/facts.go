package live

import (
	"reflect"

	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// applyFacts installs a full fact set on a freshly rendered node.
func applyFacts(n *dom.Node, ctx dom.EventRef, f *vdom.Facts) {
	if f == nil {
		return
	}
	for key, value := range f.Styles {
		n.SetStyle(key, value)
	}
	for key, h := range f.Events {
		setEvent(n, ctx, key, &h)
	}
	for key, value := range f.Attrs {
		n.SetAttribute(key, value)
	}
	for key, a := range f.AttrsNS {
		n.SetAttributeNS(a.Namespace, key, a.Value)
	}
	for key, value := range f.Props {
		setProp(n, key, value)
	}
}

// applyFactsDiff applies a change set produced by vdom.DiffFacts.
func applyFactsDiff(n *dom.Node, ctx dom.EventRef, d *vdom.FactsDiff) {
	if d.Empty() {
		return
	}
	for key, value := range d.Styles {
		n.SetStyle(key, value)
	}
	for key, h := range d.Events {
		setEvent(n, ctx, key, h)
	}
	for key, value := range d.Attrs {
		if value == nil {
			n.RemoveAttribute(key)
			continue
		}
		n.SetAttribute(key, *value)
	}
	for key, a := range d.AttrsNS {
		if a.Value == nil {
			n.RemoveAttributeNS(a.Namespace, key)
			continue
		}
		n.SetAttributeNS(a.Namespace, key, *a.Value)
	}
	for key, value := range d.Props {
		setProp(n, key, value)
	}
	for key, clear := range d.RemovedProps {
		setProp(n, key, clear)
	}
}

// setProp assigns a property. value and checked are only written when the
// live value differs, so user edits in progress are not clobbered by an
// identical assignment.
func setProp(n *dom.Node, key string, value any) {
	if key == "value" || key == "checked" {
		if cur, ok := n.Property(key); ok && reflect.DeepEqual(cur, value) {
			return
		}
	}
	n.SetProperty(key, value)
}

// setEvent installs, updates or (for a nil handler) removes the listener for
// key. A listener whose handler kind is unchanged is updated in place.
func setEvent(n *dom.Node, ctx dom.EventRef, key string, h *vdom.Handler) {
	old, _ := n.Listener(key).(*listener)
	if h == nil {
		n.RemoveEventListener(key)
		return
	}
	if old != nil {
		if old.handler.Kind == h.Kind {
			old.handler = *h
			return
		}
		n.RemoveEventListener(key)
	}
	l := &listener{doc: n.Document(), ctx: ctx, handler: *h}
	n.AddEventListener(key, l, dom.ListenerOptions{Passive: h.Kind.Passive()})
}

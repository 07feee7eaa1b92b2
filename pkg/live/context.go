package live

import (
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Dispatch receives decoded event messages. sync is true when the handler
// stopped propagation, which callers may take as a hint to process the
// message before the next frame.
type Dispatch func(msg any, sync bool)

// rootRef is the first context slot of a document, reserved for the root
// dispatch function.
const rootRef dom.EventRef = 1

// eventContext is one entry of a document's context table. The root entry
// carries the dispatch function; every other entry carries a tagger chain
// and the handle of its enclosing context.
type eventContext struct {
	taggers  []*vdom.Tagger // outermost first
	parent   dom.EventRef
	dispatch Dispatch
}

// rootContext returns the document's root context, creating it on first
// use, and points it at dispatch. The context table of a document rendered
// by this package must not be shared with other owners.
func rootContext(doc *dom.Document, dispatch Dispatch) dom.EventRef {
	if c := contextOf(doc, rootRef); c != nil {
		c.dispatch = dispatch
		return rootRef
	}
	return doc.NewEventContext(&eventContext{dispatch: dispatch})
}

func contextOf(doc *dom.Document, ref dom.EventRef) *eventContext {
	c, _ := doc.EventContext(ref).(*eventContext)
	return c
}

// listener is the live event listener installed for a handler fact. The
// handler is swapped in place when a diff changes it without changing its
// kind.
type listener struct {
	doc     *dom.Document
	ctx     dom.EventRef
	handler vdom.Handler
}

// HandleEvent implements dom.EventListener.
func (l *listener) HandleEvent(e *dom.Event) {
	out, err := l.handler.Decode(e.Value)
	if err != nil {
		// Undecodable events are dropped.
		return
	}
	if out.StopPropagation {
		e.StopPropagation()
	}
	if out.PreventDefault {
		e.PreventDefault()
	}

	msg := out.Message
	for ref := l.ctx; ; {
		c := contextOf(l.doc, ref)
		if c == nil {
			return
		}
		if c.dispatch != nil {
			c.dispatch(msg, out.StopPropagation)
			return
		}
		for i := len(c.taggers) - 1; i >= 0; i-- {
			msg = c.taggers[i].Tag(msg)
		}
		ref = c.parent
	}
}

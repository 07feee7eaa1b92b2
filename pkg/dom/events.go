package dom

// Event is delivered to listeners by DispatchEvent.
type Event struct {
	Type  string
	Value any // event payload handed to decoders

	target    *Node
	current   *Node
	stopped   bool
	prevented bool
}

// NewEvent creates an event of the given type carrying value.
func NewEvent(typ string, value any) *Event {
	return &Event{Type: typ, Value: value}
}

// Target returns the node the event was dispatched on.
func (e *Event) Target() *Node { return e.target }

// CurrentTarget returns the node whose listener is running.
func (e *Event) CurrentTarget() *Node { return e.current }

// StopPropagation prevents the event from reaching ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// PreventDefault marks the default action as cancelled.
func (e *Event) PreventDefault() { e.prevented = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// EventListener handles events.
type EventListener interface {
	HandleEvent(*Event)
}

// ListenerFunc adapts a function to EventListener.
type ListenerFunc func(*Event)

// HandleEvent implements EventListener.
func (f ListenerFunc) HandleEvent(e *Event) { f(e) }

// ListenerOptions are hints recorded with a listener.
type ListenerOptions struct {
	// Passive listeners promise never to call PreventDefault.
	Passive bool
}

type registration struct {
	listener EventListener
	options  ListenerOptions
}

// AddEventListener registers l for events named typ, replacing any listener
// already registered under that name.
func (n *Node) AddEventListener(typ string, l EventListener, opts ListenerOptions) {
	if n.listeners == nil {
		n.listeners = make(map[string]*registration)
	}
	n.listeners[typ] = &registration{listener: l, options: opts}
	n.doc.mutated()
}

// RemoveEventListener removes the listener registered for typ.
func (n *Node) RemoveEventListener(typ string) {
	if _, ok := n.listeners[typ]; ok {
		delete(n.listeners, typ)
		n.doc.mutated()
	}
}

// Listener returns the listener registered for typ, or nil.
func (n *Node) Listener(typ string) EventListener {
	if r := n.listeners[typ]; r != nil {
		return r.listener
	}
	return nil
}

// ListenerOptions returns the options recorded for typ.
func (n *Node) ListenerOptions(typ string) (ListenerOptions, bool) {
	if r := n.listeners[typ]; r != nil {
		return r.options, true
	}
	return ListenerOptions{}, false
}

// ListenerNames returns the event names with a registered listener, sorted.
func (n *Node) ListenerNames() []string {
	return sortedKeys(n.listeners)
}

// DispatchEvent delivers e to n and then to each ancestor until propagation
// stops. It returns false when a listener prevented the default action.
func (n *Node) DispatchEvent(e *Event) bool {
	e.target = n
	for cur := n; cur != nil && !e.stopped; cur = cur.parent {
		r := cur.listeners[e.Type]
		if r == nil {
			continue
		}
		e.current = cur
		r.listener.HandleEvent(e)
	}
	e.current = nil
	return !e.prevented
}

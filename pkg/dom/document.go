package dom

// EventRef is a handle into a Document's event context table.
// The zero value means "no context". Handles are never reused, so a
// released handle held by a detached listener resolves to nothing.
type EventRef uint64

// Document creates live nodes and owns the event context table.
type Document struct {
	contexts  map[EventRef]any
	lastRef   EventRef
	mutations uint64
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{contexts: make(map[EventRef]any)}
}

// CreateElement creates an element node in the default namespace.
func (d *Document) CreateElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag, doc: d}
}

// CreateElementNS creates an element node in the given namespace.
func (d *Document) CreateElementNS(namespace, tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag, Namespace: namespace, doc: d}
}

// CreateTextNode creates a text node.
func (d *Document) CreateTextNode(data string) *Node {
	return &Node{Type: TextNode, Data: data, doc: d}
}

// NewEventContext stores v in the context table and returns its handle.
func (d *Document) NewEventContext(v any) EventRef {
	d.lastRef++
	d.contexts[d.lastRef] = v
	return d.lastRef
}

// EventContext returns the value stored under ref, or nil.
func (d *Document) EventContext(ref EventRef) any {
	return d.contexts[ref]
}

// SetEventContext replaces the value stored under ref. Released or unknown
// handles are ignored.
func (d *Document) SetEventContext(ref EventRef, v any) {
	if _, ok := d.contexts[ref]; ok {
		d.contexts[ref] = v
	}
}

// ReleaseEventContext drops the value stored under ref.
func (d *Document) ReleaseEventContext(ref EventRef) {
	delete(d.contexts, ref)
}

// EventContexts returns the number of live context entries.
func (d *Document) EventContexts() int {
	return len(d.contexts)
}

// Mutations returns the number of mutations applied to nodes of this document.
func (d *Document) Mutations() uint64 {
	return d.mutations
}

func (d *Document) mutated() {
	if d != nil {
		d.mutations++
	}
}

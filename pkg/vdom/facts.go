package vdom

// FactKind categorizes a raw fact.
type FactKind uint8

const (
	FactEvent  FactKind = iota // event handler
	FactStyle                  // inline style property
	FactProp                   // live node property assignment
	FactAttr                   // plain attribute
	FactAttrNS                 // namespaced attribute
)

// String returns the string representation of the FactKind.
func (k FactKind) String() string {
	switch k {
	case FactEvent:
		return "Event"
	case FactStyle:
		return "Style"
	case FactProp:
		return "Prop"
	case FactAttr:
		return "Attr"
	case FactAttrNS:
		return "AttrNS"
	default:
		return "Unknown"
	}
}

// Fact is one raw attribute-like entry declared on a node.
type Fact struct {
	Kind      FactKind
	Key       string
	Value     any    // string for styles and attributes, Handler for events
	Namespace string // FactAttrNS only
}

// IsEmpty returns true if this is an empty fact.
func (f Fact) IsEmpty() bool {
	return f.Key == ""
}

// NSAttr is a namespaced attribute value.
type NSAttr struct {
	Namespace string
	Value     string
}

// Facts is a node's facts grouped by category.
type Facts struct {
	Events  map[string]Handler
	Styles  map[string]string
	Props   map[string]any
	Attrs   map[string]string
	AttrsNS map[string]NSAttr
}

// Len returns the total number of entries across all categories.
func (f *Facts) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Events) + len(f.Styles) + len(f.Props) + len(f.Attrs) + len(f.AttrsNS)
}

// Names of the additive class fact.
const (
	classAttr = "class"
	classProp = "className"
)

// Organize groups raw facts by category. Later entries win, except that
// repeated class declarations are joined with a space.
func Organize(list []Fact) *Facts {
	facts := &Facts{}
	for _, f := range list {
		if f.IsEmpty() {
			continue
		}
		switch f.Kind {
		case FactEvent:
			h, ok := f.Value.(Handler)
			if !ok {
				continue
			}
			if facts.Events == nil {
				facts.Events = make(map[string]Handler)
			}
			facts.Events[f.Key] = h

		case FactStyle:
			if facts.Styles == nil {
				facts.Styles = make(map[string]string)
			}
			facts.Styles[f.Key] = valueString(f.Value)

		case FactProp:
			if facts.Props == nil {
				facts.Props = make(map[string]any)
			}
			if f.Key == classProp {
				addClass(facts.Props, f.Key, valueString(f.Value))
				continue
			}
			facts.Props[f.Key] = f.Value

		case FactAttr:
			if facts.Attrs == nil {
				facts.Attrs = make(map[string]string)
			}
			if f.Key == classAttr {
				addClass(facts.Attrs, f.Key, valueString(f.Value))
				continue
			}
			facts.Attrs[f.Key] = valueString(f.Value)

		case FactAttrNS:
			if facts.AttrsNS == nil {
				facts.AttrsNS = make(map[string]NSAttr)
			}
			facts.AttrsNS[f.Key] = NSAttr{Namespace: f.Namespace, Value: valueString(f.Value)}
		}
	}
	return facts
}

func addClass[V any](m map[string]V, key, class string) {
	var merged any = class
	if existing, ok := m[key]; ok {
		if s, ok := any(existing).(string); ok && s != "" {
			merged = s + " " + class
		}
	}
	m[key] = merged.(V)
}

package vdom

import "reflect"

// FactsDiff is the per-category change set between two Facts.
// Removals are encoded as the category's cleared value, except for props,
// which keep removals apart from changes in RemovedProps.
type FactsDiff struct {
	Events  map[string]*Handler     // nil detaches the listener
	Styles  map[string]string       // "" clears the property
	Props   map[string]any          // added or changed props
	Attrs   map[string]*string      // nil removes the attribute
	AttrsNS map[string]NSAttrChange // nil Value removes the attribute

	// RemovedProps maps each removed prop to the value the live node is
	// reset to: "" for string props, nil (delete) for the rest.
	RemovedProps map[string]any
}

// NSAttrChange is a namespaced attribute change.
type NSAttrChange struct {
	Namespace string
	Value     *string
}

// Empty reports whether the diff changes nothing.
func (d *FactsDiff) Empty() bool {
	return d == nil || len(d.Events)+len(d.Styles)+len(d.Props)+len(d.Attrs)+len(d.AttrsNS)+len(d.RemovedProps) == 0
}

// DiffFacts compares two fact sets. It returns nil when they are equivalent.
func DiffFacts(prev, next *Facts) *FactsDiff {
	if prev == nil {
		prev = &Facts{}
	}
	if next == nil {
		next = &Facts{}
	}
	d := &FactsDiff{
		Events:  diffEvents(prev.Events, next.Events),
		Styles:  diffStyles(prev.Styles, next.Styles),
		Attrs:   diffAttrs(prev.Attrs, next.Attrs),
		AttrsNS: diffAttrsNS(prev.AttrsNS, next.AttrsNS),
	}
	d.Props, d.RemovedProps = diffProps(prev.Props, next.Props)
	if d.Empty() {
		return nil
	}
	return d
}

func diffEvents(prev, next map[string]Handler) map[string]*Handler {
	var out map[string]*Handler
	set := func(k string, h *Handler) {
		if out == nil {
			out = make(map[string]*Handler)
		}
		out[k] = h
	}
	for k, p := range prev {
		n, ok := next[k]
		if !ok {
			set(k, nil)
			continue
		}
		if !p.Equal(n) {
			set(k, &n)
		}
	}
	for k, n := range next {
		if _, ok := prev[k]; !ok {
			set(k, &n)
		}
	}
	return out
}

func diffStyles(prev, next map[string]string) map[string]string {
	var out map[string]string
	set := func(k, v string) {
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}
	for k, p := range prev {
		n, ok := next[k]
		if !ok {
			set(k, "")
			continue
		}
		if p != n {
			set(k, n)
		}
	}
	for k, n := range next {
		if _, ok := prev[k]; !ok {
			set(k, n)
		}
	}
	return out
}

func diffProps(prev, next map[string]any) (changed, removed map[string]any) {
	set := func(m *map[string]any, k string, v any) {
		if *m == nil {
			*m = make(map[string]any)
		}
		(*m)[k] = v
	}
	for k, p := range prev {
		n, ok := next[k]
		if !ok {
			var clear any
			if _, isString := p.(string); isString {
				clear = ""
			}
			set(&removed, k, clear)
			continue
		}
		if !propsEqual(p, n) {
			set(&changed, k, n)
		}
	}
	for k, n := range next {
		if _, ok := prev[k]; !ok {
			set(&changed, k, n)
		}
	}
	return changed, removed
}

func diffAttrs(prev, next map[string]string) map[string]*string {
	var out map[string]*string
	set := func(k string, v *string) {
		if out == nil {
			out = make(map[string]*string)
		}
		out[k] = v
	}
	for k, p := range prev {
		n, ok := next[k]
		if !ok {
			set(k, nil)
			continue
		}
		if p != n {
			set(k, &n)
		}
	}
	for k, n := range next {
		if _, ok := prev[k]; !ok {
			set(k, &n)
		}
	}
	return out
}

func diffAttrsNS(prev, next map[string]NSAttr) map[string]NSAttrChange {
	var out map[string]NSAttrChange
	set := func(k string, v NSAttrChange) {
		if out == nil {
			out = make(map[string]NSAttrChange)
		}
		out[k] = v
	}
	for k, p := range prev {
		n, ok := next[k]
		if !ok {
			set(k, NSAttrChange{Namespace: p.Namespace})
			continue
		}
		if p != n {
			v := n.Value
			set(k, NSAttrChange{Namespace: n.Namespace, Value: &v})
		}
	}
	for k, n := range next {
		if _, ok := prev[k]; !ok {
			v := n.Value
			set(k, NSAttrChange{Namespace: n.Namespace, Value: &v})
		}
	}
	return out
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case nil:
		return b == nil
	}
	// Fallback to reflect for complex types
	return reflect.DeepEqual(a, b)
}

package vdom

import (
	"fmt"
	"strings"

	"github.com/vango-dev/vtree/internal/errors"
)

// Patched returns the node tree that results from applying patches, as
// produced by Diff(old, next), to old. old is not modified; unchanged
// subtrees are shared with the result.
//
// The result has the shape of next: the same kinds, tags, facts, children
// and descendant counts, so it can stand in for next as the old tree of the
// following cycle. Remote consumers use it to follow a session from patch
// lists alone. Two things cannot be recovered from patches: thunks keep the
// view and arguments of old around their patched child, and custom nodes
// keep their old state.
//
// Patched returns engine error E102 when a patch index falls outside old.
func Patched(old *VNode, patches []Patch) (*VNode, error) {
	return patchNode(old, patches, 0)
}

// patchNode applies ps, whose indices all lie in [index, index+v.Descendants]
// in non-decreasing order, to v.
func patchNode(v *VNode, ps []Patch, index int) (*VNode, error) {
	if len(ps) == 0 {
		return v, nil
	}

	n := 0
	for n < len(ps) && ps[n].Index == index {
		n++
	}
	own, rest := ps[:n], ps[n:]

	for i := range own {
		if own[i].Kind == PatchRedraw {
			return own[i].Node, nil
		}
	}

	switch v.Kind {
	case KindTagged:
		return patchTagged(v, own, rest, index)
	case KindThunk:
		return patchThunk(v, own, rest, index)
	case KindText:
		if len(rest) > 0 {
			return nil, unresolved(rest[0])
		}
		out := v
		for _, p := range own {
			if p.Kind == PatchText {
				out = Text(p.Text)
			}
		}
		return out, nil
	case KindElement, KindKeyed:
		return patchElement(v, own, rest, index)
	default:
		// Custom widgets patch their own live node; only facts are tracked.
		if len(rest) > 0 {
			return nil, unresolved(rest[0])
		}
		facts := v.Facts
		for _, p := range own {
			if p.Kind == PatchFacts {
				facts = patchFacts(facts, p.Facts)
			}
		}
		if facts == v.Facts {
			return v, nil
		}
		out := *v
		out.Facts = facts
		return &out, nil
	}
}

func patchTagged(v *VNode, own, rest []Patch, index int) (*VNode, error) {
	taggers, sub := TaggerChain(v)
	for _, p := range own {
		if p.Kind == PatchRetag {
			taggers = p.Taggers
		}
	}
	// The chain's child sits one index below its outermost tagger.
	next, err := patchNode(sub, rest, index+1)
	if err != nil {
		return nil, err
	}
	out := next
	for i := len(taggers) - 1; i >= 0; i-- {
		out = Map(taggers[i], out)
	}
	return out, nil
}

func patchThunk(v *VNode, own, rest []Patch, index int) (*VNode, error) {
	if len(rest) > 0 {
		return nil, unresolved(rest[0])
	}
	child := v.Force()
	for _, p := range own {
		if p.Kind != PatchThunk {
			continue
		}
		next, err := patchNode(child, p.Patches, 0)
		if err != nil {
			return nil, err
		}
		child = next
	}
	return &VNode{Kind: KindThunk, View: v.View, Args: v.Args, cache: child}, nil
}

func patchElement(v *VNode, own, rest []Patch, index int) (*VNode, error) {
	kind := v.Kind
	facts := v.Facts
	kids := append([]*VNode(nil), v.ChildNodes()...)
	var keys []string
	if kind == KindKeyed {
		keys = make([]string, len(v.Keyed))
		for i, c := range v.Keyed {
			keys[i] = c.Key
		}
	}

	// Children patches address the old children, so they go first.
	low := index
	i := 0
	for j, kid := range kids {
		low++
		high := low + kid.Descendants
		k := i
		for k < len(rest) && rest[k].Index <= high {
			k++
		}
		if k > i {
			next, err := patchNode(kid, rest[i:k], low)
			if err != nil {
				return nil, err
			}
			kids[j] = next
		}
		i = k
		low = high
	}
	if i < len(rest) {
		return nil, unresolved(rest[i])
	}

	for _, p := range own {
		switch p.Kind {
		case PatchFacts:
			facts = patchFacts(facts, p.Facts)
		case PatchRemoveLast:
			if p.Start > len(kids) {
				return nil, unresolved(p)
			}
			kids, kind, keys = kids[:p.Start], KindElement, nil
		case PatchAppend:
			if p.Start > len(kids) || p.Start > len(p.Children) {
				return nil, unresolved(p)
			}
			kids = append(kids[:p.Start:p.Start], p.Children[p.Start:]...)
			kind, keys = KindElement, nil
		case PatchReorder:
			if kind != KindKeyed {
				return nil, unresolved(p)
			}
			keyed, err := patchKeyed(v.Keyed, p.Reorder, index)
			if err != nil {
				return nil, err
			}
			kids = make([]*VNode, len(keyed))
			keys = make([]string, len(keyed))
			for j, c := range keyed {
				kids[j], keys[j] = c.Node, c.Key
			}
		case PatchCustom, PatchText, PatchRetag, PatchThunk, PatchRemove:
			return nil, unresolved(p)
		}
	}

	out := &VNode{
		Kind:      kind,
		Tag:       v.Tag,
		Namespace: v.Namespace,
		Facts:     facts,
	}
	out.Descendants = len(kids)
	for _, kid := range kids {
		out.Descendants += kid.Descendants
	}
	if kind == KindKeyed {
		out.Keyed = make([]KeyedChild, len(kids))
		for j, kid := range kids {
			out.Keyed[j] = KeyedChild{Key: keys[j], Node: kid}
		}
	} else {
		out.Children = kids
	}
	return out, nil
}

// patchKeyed rebuilds a keyed child list the way the live patcher reorders
// live children: in-place diffs and removals first, then inserts, then end
// inserts.
func patchKeyed(old []KeyedChild, r *Reorder, index int) ([]KeyedChild, error) {
	local := r.Patches
	moved := make(map[*Entry]*VNode)
	kept := make([]KeyedChild, 0, len(old)+len(r.Inserts)+len(r.EndInserts))

	low := index
	i := 0
	for _, c := range old {
		low++
		high := low + c.Node.Descendants
		k := i
		for k < len(local) && local[k].Index <= high {
			k++
		}
		ps := local[i:k]
		i = k

		if len(ps) > 0 && ps[0].Kind == PatchRemove && ps[0].Index == low {
			if len(ps) > 1 {
				return nil, unresolved(ps[1])
			}
			if m := ps[0].Move; m != nil {
				node, err := patchNode(c.Node, m.Patches, low)
				if err != nil {
					return nil, err
				}
				moved[m.Entry] = node
			}
		} else {
			node, err := patchNode(c.Node, ps, low)
			if err != nil {
				return nil, err
			}
			kept = append(kept, KeyedChild{Key: c.Key, Node: node})
		}
		low = high
	}
	if i < len(local) {
		return nil, unresolved(local[i])
	}

	entry := func(e *Entry) (KeyedChild, error) {
		if e.State == EntryMoved {
			if node := moved[e]; node != nil {
				return KeyedChild{Key: entryKey(e), Node: node}, nil
			}
		}
		if e.Node == nil {
			return KeyedChild{}, errors.New("E102").WithDetail(fmt.Sprintf("insert of %q has no node", e.Key))
		}
		return KeyedChild{Key: entryKey(e), Node: e.Node}, nil
	}

	for _, in := range r.Inserts {
		c, err := entry(in.Entry)
		if err != nil {
			return nil, err
		}
		at := min(max(in.Index, 0), len(kept))
		kept = append(kept, KeyedChild{})
		copy(kept[at+1:], kept[at:])
		kept[at] = c
	}
	for _, in := range r.EndInserts {
		c, err := entry(in.Entry)
		if err != nil {
			return nil, err
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// entryKey strips the suffixes the reconciler adds to duplicate keys.
func entryKey(e *Entry) string {
	if i := strings.Index(e.Key, dupSuffix); i >= 0 {
		return e.Key[:i]
	}
	return e.Key
}

// patchFacts applies a facts diff with the same clearing rules the live
// patcher uses.
func patchFacts(f *Facts, d *FactsDiff) *Facts {
	if d.Empty() {
		return f
	}
	if f == nil {
		f = &Facts{}
	}
	return &Facts{
		Events:  patchMap(f.Events, d.Events, setHandler),
		Styles:  patchMap(f.Styles, d.Styles, setStyle),
		Props:   patchMap(patchMap(f.Props, d.Props, setProp), d.RemovedProps, removeProp),
		Attrs:   patchMap(f.Attrs, d.Attrs, setAttr),
		AttrsNS: patchMap(f.AttrsNS, d.AttrsNS, setAttrNS),
	}
}

func setHandler(h *Handler) (Handler, bool) {
	if h == nil {
		return Handler{}, false
	}
	return *h, true
}

func setStyle(s string) (string, bool) { return s, s != "" }

func setProp(v any) (any, bool) { return v, true }

func removeProp(any) (any, bool) { return nil, false }

func setAttr(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func setAttrNS(c NSAttrChange) (NSAttr, bool) {
	if c.Value == nil {
		return NSAttr{}, false
	}
	return NSAttr{Namespace: c.Namespace, Value: *c.Value}, true
}

// patchMap copies m with the changes in d applied. set reports false for a
// change that deletes the key.
func patchMap[V, C any](m map[string]V, d map[string]C, set func(C) (V, bool)) map[string]V {
	if len(d) == 0 {
		return m
	}
	out := make(map[string]V, len(m)+len(d))
	for k, v := range m {
		out[k] = v
	}
	for k, c := range d {
		if v, ok := set(c); ok {
			out[k] = v
		} else {
			delete(out, k)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func unresolved(p Patch) error {
	return errors.New("E102").WithDetail(fmt.Sprintf("%s patch at index %d", p.Kind, p.Index))
}

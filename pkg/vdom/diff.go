package vdom

import "reflect"

// Diff compares two VNode trees and returns the patches needed to transform
// prev into next. Patch indices address nodes of prev in pre-order, with
// prev itself at index 0. Diff never touches a live tree; the only side
// effect is filling the cache of thunks in next.
func Diff(prev, next *VNode) []Patch {
	var patches []Patch
	diff(prev, next, &patches, 0)
	return patches
}

// diff recursively compares nodes and appends patches.
func diff(x, y *VNode, patches *[]Patch, index int) {
	if x == y {
		return
	}

	if x.Kind != y.Kind {
		// A keyed list that became a plain list keeps its children.
		if x.Kind == KindKeyed && y.Kind == KindElement {
			x = dekey(x)
		} else {
			push(patches, Patch{Kind: PatchRedraw, Index: index, Node: y})
			return
		}
	}

	switch y.Kind {
	case KindThunk:
		diffThunk(x, y, patches, index)

	case KindTagged:
		diffTagged(x, y, patches, index)

	case KindText:
		if x.Text != y.Text {
			push(patches, Patch{Kind: PatchText, Index: index, Text: y.Text})
		}

	case KindElement:
		if diffNodes(x, y, patches, index) {
			diffKids(x, y, patches, index)
		}

	case KindKeyed:
		if diffNodes(x, y, patches, index) {
			diffKeyedKids(x, y, patches, index)
		}

	case KindCustom:
		if !sameWidget(x.Widget, y.Widget) {
			push(patches, Patch{Kind: PatchRedraw, Index: index, Node: y})
			return
		}
		if fd := DiffFacts(x.Facts, y.Facts); fd != nil {
			push(patches, Patch{Kind: PatchFacts, Index: index, Facts: fd})
		}
		if cp := y.Widget.Diff(x.State, y.State); cp != nil {
			push(patches, Patch{Kind: PatchCustom, Index: index, Custom: cp})
		}
	}
}

func push(patches *[]Patch, p Patch) {
	*patches = append(*patches, p)
}

// diffThunk reuses the old child when the view and arguments are unchanged.
// An old thunk that was never materialized is redrawn.
func diffThunk(x, y *VNode, patches *[]Patch, index int) {
	if x.View == y.View && argsEqual(x.Args, y.Args) {
		y.cache = x.cache
		return
	}
	old := x.Cached()
	if old == nil {
		push(patches, Patch{Kind: PatchRedraw, Index: index, Node: y})
		return
	}
	var sub []Patch
	diff(old, y.Force(), &sub, 0)
	if len(sub) > 0 {
		push(patches, Patch{Kind: PatchThunk, Index: index, Patches: sub})
	}
}

func argsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// diffTagged collapses nested taggers on both sides before comparing.
func diffTagged(x, y *VNode, patches *[]Patch, index int) {
	xTaggers, xSub := TaggerChain(x)
	yTaggers, ySub := TaggerChain(y)

	if len(xTaggers) != len(yTaggers) {
		push(patches, Patch{Kind: PatchRedraw, Index: index, Node: y})
		return
	}
	for i := range xTaggers {
		if xTaggers[i] != yTaggers[i] {
			push(patches, Patch{Kind: PatchRetag, Index: index, Taggers: yTaggers})
			break
		}
	}

	diff(xSub, ySub, patches, index+1)
}

// TaggerChain unwraps consecutive Tagged nodes, returning the taggers
// outermost first and the first non-Tagged descendant.
func TaggerChain(v *VNode) ([]*Tagger, *VNode) {
	var chain []*Tagger
	for v.Kind == KindTagged {
		chain = append(chain, v.Tagger)
		v = v.Child
	}
	return chain, v
}

// diffNodes handles the element header: tag, namespace and facts. It
// reports whether the children should be compared.
func diffNodes(x, y *VNode, patches *[]Patch, index int) bool {
	if x.Tag != y.Tag || x.Namespace != y.Namespace {
		push(patches, Patch{Kind: PatchRedraw, Index: index, Node: y})
		return false
	}
	if fd := DiffFacts(x.Facts, y.Facts); fd != nil {
		push(patches, Patch{Kind: PatchFacts, Index: index, Facts: fd})
	}
	return true
}

// diffKids compares unkeyed children by position.
func diffKids(xParent, yParent *VNode, patches *[]Patch, index int) {
	xKids := xParent.Children
	yKids := yParent.Children
	xLen, yLen := len(xKids), len(yKids)

	switch {
	case xLen > yLen:
		push(patches, Patch{Kind: PatchRemoveLast, Index: index, Start: yLen, Count: xLen - yLen})
	case xLen < yLen:
		push(patches, Patch{Kind: PatchAppend, Index: index, Start: xLen, Children: yKids})
	}

	for i := 0; i < min(xLen, yLen); i++ {
		index++
		diff(xKids[i], yKids[i], patches, index)
		index += xKids[i].Descendants
	}
}

// sameWidget compares widget identities. Non-comparable widgets are never
// the same.
func sameWidget(a, b Widget) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

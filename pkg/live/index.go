package live

import (
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// resolvedPatch is a patch bound to its live target and the event context
// in effect there. sub holds the bound nested patches of Thunk, Reorder and
// moving Remove patches.
type resolvedPatch struct {
	*vdom.Patch
	target *dom.Node
	ctx    dom.EventRef
	sub    []resolvedPatch
}

func bind(patches []vdom.Patch) []resolvedPatch {
	out := make([]resolvedPatch, len(patches))
	for i := range patches {
		out[i].Patch = &patches[i]
	}
	return out
}

// resolve binds patches, computed against old, to the nodes of the live tree
// rooted at root. Nodes are located in a single walk that descends only into
// subtrees whose index range contains the next pending patch.
func (p *patcher) resolve(root *dom.Node, old *vdom.VNode, patches []vdom.Patch, ctx dom.EventRef) []resolvedPatch {
	bound := bind(patches)
	p.walk(root, old, bound, 0, 0, old.Descendants, ctx)
	return bound
}

// walk resolves ps[i:] below node, which occupies index low and whose
// descendants end at high. It returns the position of the first patch it
// could not place.
func (p *patcher) walk(node *dom.Node, v *vdom.VNode, ps []resolvedPatch, i, low, high int, ctx dom.EventRef) int {
	if i >= len(ps) {
		return i
	}
	index := ps[i].Index

	for index == low {
		rp := &ps[i]
		rp.target, rp.ctx = node, ctx

		switch rp.Kind {
		case vdom.PatchThunk:
			rp.sub = p.resolve(node, v.Cached(), rp.Patches, ctx)

		case vdom.PatchReorder:
			rp.sub = bind(rp.Reorder.Patches)
			p.walk(node, v, rp.sub, 0, low, high, ctx)

		case vdom.PatchRemove:
			if rp.Move != nil {
				p.moved[rp.Move.Entry] = node
				rp.sub = bind(rp.Move.Patches)
				p.walk(node, v, rp.sub, 0, low, high, ctx)
			}
		}

		i++
		if i >= len(ps) {
			return i
		}
		index = ps[i].Index
		if index > high {
			return i
		}
	}

	if v.Kind == vdom.KindTagged {
		_, sub := vdom.TaggerChain(v)
		return p.walk(node, sub, ps, i, low+1, high, node.EventRef)
	}

	for j, kid := range v.ChildNodes() {
		low++
		nextLow := low + kid.Descendants
		if low <= index && index <= nextLow {
			child := node.ChildAt(j)
			if child == nil {
				return i
			}
			i = p.walk(child, kid, ps, i, low, nextLow, ctx)
			if i >= len(ps) {
				return i
			}
			index = ps[i].Index
			if index > high {
				return i
			}
		}
		low = nextLow
	}
	return i
}

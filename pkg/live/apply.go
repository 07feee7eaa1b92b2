package live

import (
	"fmt"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// patcher carries the state of one Apply call.
type patcher struct {
	doc *dom.Document

	// moved maps a moving keyed entry to its live node, detached and
	// patched once its Remove patch has been applied.
	moved map[*vdom.Entry]*dom.Node
}

// Apply mutates the live tree rendered from old so that it matches the tree
// patches were computed for. It returns the root, which differs from the
// argument when the root itself was redrawn.
//
// Apply panics with engine error E101 on a patch kind it does not know and
// E102 when a patch index does not resolve to a live node.
func Apply(root *dom.Node, old *vdom.VNode, patches []vdom.Patch, dispatch Dispatch) *dom.Node {
	if len(patches) == 0 {
		return root
	}
	doc := root.Document()
	p := &patcher{doc: doc, moved: make(map[*vdom.Entry]*dom.Node)}
	bound := p.resolve(root, old, patches, rootContext(doc, dispatch))
	return p.applyPatches(root, bound)
}

func (p *patcher) applyPatches(root *dom.Node, ps []resolvedPatch) *dom.Node {
	for i := range ps {
		rp := &ps[i]
		if rp.target == nil {
			panic(errors.New("E102").WithDetail(fmt.Sprintf("%s patch at index %d", rp.Kind, rp.Index)))
		}
		next := p.applyPatch(rp.target, rp)
		if rp.target == root {
			root = next
		}
	}
	return root
}

func (p *patcher) applyPatch(n *dom.Node, rp *resolvedPatch) *dom.Node {
	switch rp.Kind {
	case vdom.PatchRedraw:
		return p.redraw(n, rp.Node, rp.ctx)

	case vdom.PatchFacts:
		applyFactsDiff(n, rp.ctx, rp.Facts)
		return n

	case vdom.PatchText:
		n.ReplaceData(rp.Text)
		return n

	case vdom.PatchThunk:
		return p.applyPatches(n, rp.sub)

	case vdom.PatchRetag:
		if c := contextOf(p.doc, n.EventRef); n.EventRef != 0 && c != nil && c.dispatch == nil {
			c.taggers = rp.Taggers
			return n
		}
		n.EventRef = p.doc.NewEventContext(&eventContext{taggers: rp.Taggers, parent: rp.ctx})
		return n

	case vdom.PatchRemoveLast:
		for i := 0; i < rp.Count; i++ {
			kid := n.ChildAt(rp.Start)
			n.RemoveChild(kid)
			p.release(kid, 0)
		}
		return n

	case vdom.PatchAppend:
		kids := rp.Children[rp.Start:]
		rendered := make([]*dom.Node, len(kids))
		for i, kid := range kids {
			rendered[i] = render(p.doc, kid, rp.ctx)
		}
		n.AppendChildren(rendered...)
		return n

	case vdom.PatchRemove:
		return p.remove(n, rp)

	case vdom.PatchReorder:
		return p.reorder(n, rp)

	case vdom.PatchCustom:
		next := rp.Custom(n)
		if parent := n.Parent(); parent != nil && next != n {
			parent.ReplaceChild(next, n)
		}
		return next

	default:
		panic(errors.New("E101").WithDetail(fmt.Sprintf("kind %d at index %d", rp.Kind, rp.Index)))
	}
}

// redraw replaces n with a fresh rendering of v. When v is the child of a
// tagged node, n carries that node's context (ctx) and the new node keeps it.
func (p *patcher) redraw(n *dom.Node, v *vdom.VNode, ctx dom.EventRef) *dom.Node {
	next := render(p.doc, v, ctx)
	if next.EventRef == 0 && n.EventRef == ctx {
		next.EventRef = n.EventRef
	}
	if parent := n.Parent(); parent != nil && next != n {
		parent.ReplaceChild(next, n)
	}
	p.release(n, next.EventRef)
	return next
}

// release drops the event contexts opened inside a detached subtree, except
// keep, which the replacement node carries on.
func (p *patcher) release(n *dom.Node, keep dom.EventRef) {
	dom.Walk(n, func(c *dom.Node) bool {
		if c.EventRef != 0 && c.EventRef != keep && c.EventRef != rootRef {
			p.doc.ReleaseEventContext(c.EventRef)
		}
		return true
	})
}

func (p *patcher) remove(n *dom.Node, rp *resolvedPatch) *dom.Node {
	if rp.Move == nil {
		n.Remove()
		p.release(n, 0)
		return n
	}
	entry := rp.Move.Entry
	// Nodes bound for the end are detached by the enclosing reorder.
	if entry.Index >= 0 {
		n.Remove()
	}
	p.moved[entry] = p.applyPatches(n, rp.sub)
	return n
}

func (p *patcher) reorder(n *dom.Node, rp *resolvedPatch) *dom.Node {
	r := rp.Reorder

	for _, in := range r.EndInserts {
		if in.Entry.State != vdom.EntryMoved {
			continue
		}
		if m := p.moved[in.Entry]; m != nil {
			m.Remove()
		}
	}

	p.applyPatches(n, rp.sub)

	for _, in := range r.Inserts {
		n.InsertBefore(p.entryNode(in.Entry, rp.ctx), n.ChildAt(in.Index))
	}

	if len(r.EndInserts) > 0 {
		end := make([]*dom.Node, len(r.EndInserts))
		for i, in := range r.EndInserts {
			end[i] = p.entryNode(in.Entry, rp.ctx)
		}
		n.AppendChildren(end...)
	}
	return n
}

// entryNode returns the live node for an inserted entry: the relocated node
// of a move, or a fresh rendering.
func (p *patcher) entryNode(e *vdom.Entry, ctx dom.EventRef) *dom.Node {
	if e.State == vdom.EntryMoved {
		if m := p.moved[e]; m != nil {
			return m
		}
	}
	return render(p.doc, e.Node, ctx)
}

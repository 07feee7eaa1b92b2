package vdom

// PatchKind is the type of patch operation.
type PatchKind uint8

const (
	PatchRedraw     PatchKind = iota // Replace the subtree with Node
	PatchThunk                       // Apply Patches below a thunk
	PatchRetag                       // Replace the tagger chain
	PatchText                        // Replace text content
	PatchFacts                       // Apply a facts diff
	PatchRemoveLast                  // Remove Count children starting at Start
	PatchAppend                      // Append Children[Start:]
	PatchReorder                     // Keyed children reorder
	PatchRemove                      // Remove (or relocate) one keyed child
	PatchCustom                      // Delegate to a widget's patch function
)

// String returns the string representation of the PatchKind.
func (k PatchKind) String() string {
	switch k {
	case PatchRedraw:
		return "Redraw"
	case PatchThunk:
		return "Thunk"
	case PatchRetag:
		return "Retag"
	case PatchText:
		return "Text"
	case PatchFacts:
		return "Facts"
	case PatchRemoveLast:
		return "RemoveLast"
	case PatchAppend:
		return "Append"
	case PatchReorder:
		return "Reorder"
	case PatchRemove:
		return "Remove"
	case PatchCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Patch is one addressed mutation produced by Diff. Index is the pre-order
// position of the target in the old tree. Which payload fields are set
// depends on Kind. Patches are not resolved against a live tree; that is
// the live package's job.
type Patch struct {
	Kind  PatchKind
	Index int

	Node     *VNode      // Redraw
	Patches  []Patch     // Thunk: nested patches relative to the thunk child
	Taggers  []*Tagger   // Retag: outermost first
	Text     string      // Text
	Facts    *FactsDiff  // Facts
	Start    int         // RemoveLast, Append
	Count    int         // RemoveLast
	Children []*VNode    // Append: the full new child list
	Reorder  *Reorder    // Reorder
	Move     *Move       // Remove: nil for a plain removal
	Custom   CustomPatch // Custom
}

// Reorder is the payload of a keyed reorder.
type Reorder struct {
	// Patches holds the in-place diffs and removals, in index order.
	Patches []Patch
	// Inserts are applied after Patches, in order.
	Inserts []Insert
	// EndInserts are appended after Inserts, in order.
	EndInserts []Insert
}

// Insert places an entry's node at a position of the new child list.
// Index is -1 for end inserts.
type Insert struct {
	Index int
	Entry *Entry
}

// Move is the payload of a removal matched with an insertion of the same
// key: the live node is kept, patched and relocated.
type Move struct {
	Patches []Patch
	Entry   *Entry
}

// EntryState tracks a key through the keyed reconciler.
type EntryState uint8

const (
	EntryInserted EntryState = iota // new node to render
	EntryRemoved                    // old node to remove
	EntryMoved                      // removal and insertion matched
)

// String returns the string representation of the EntryState.
func (s EntryState) String() string {
	switch s {
	case EntryInserted:
		return "Inserted"
	case EntryRemoved:
		return "Removed"
	case EntryMoved:
		return "Moved"
	default:
		return "Unknown"
	}
}

// Entry is the record the keyed reconciler keeps per key.
type Entry struct {
	Key   string
	State EntryState
	// Node is the new node for inserts, the old node for removals.
	Node *VNode
	// Index is the new position for inserts (-1 for end inserts) and the
	// old traversal index for removals.
	Index int

	removal int // position of the removal patch in the local list
}

// Count returns the number of patches including nested ones.
func Count(patches []Patch) int {
	n := 0
	for i := range patches {
		n++
		p := &patches[i]
		switch p.Kind {
		case PatchThunk:
			n += Count(p.Patches)
		case PatchReorder:
			n += Count(p.Reorder.Patches)
		case PatchRemove:
			if p.Move != nil {
				n += Count(p.Move.Patches)
			}
		}
	}
	return n
}

// CountByKind tallies patches by kind, including nested ones.
func CountByKind(patches []Patch) map[PatchKind]int {
	counts := make(map[PatchKind]int)
	var walk func([]Patch)
	walk = func(ps []Patch) {
		for i := range ps {
			p := &ps[i]
			counts[p.Kind]++
			switch p.Kind {
			case PatchThunk:
				walk(p.Patches)
			case PatchReorder:
				walk(p.Reorder.Patches)
			case PatchRemove:
				if p.Move != nil {
					walk(p.Move.Patches)
				}
			}
		}
	}
	walk(patches)
	return counts
}

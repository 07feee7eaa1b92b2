package vdom

// dupSuffix is appended to a key that is already in use by an active entry.
const dupSuffix = "_vtreeDUP"

// keyedDiff holds the working state of one keyed reconciliation.
type keyedDiff struct {
	local      []Patch
	changes    map[string]*Entry
	inserts    []Insert
	endInserts []Insert
}

// diffKeyedKids reconciles keyed children with a single forward pass and a
// one-element lookahead. Removals and insertions of the same key become
// moves. The result is one PatchReorder at the parent's index.
func diffKeyedKids(xParent, yParent *VNode, patches *[]Patch, rootIndex int) {
	kd := &keyedDiff{changes: make(map[string]*Entry)}

	xKids := xParent.Keyed
	yKids := yParent.Keyed
	xLen, yLen := len(xKids), len(yKids)
	xIndex, yIndex := 0, 0
	index := rootIndex

scan:
	for xIndex < xLen && yIndex < yLen {
		x, y := xKids[xIndex], yKids[yIndex]

		if x.Key == y.Key {
			index++
			diff(x.Node, y.Node, &kd.local, index)
			index += x.Node.Descendants
			xIndex++
			yIndex++
			continue
		}

		var xNext, yNext *KeyedChild
		var oldMatch, newMatch bool
		if xIndex+1 < xLen {
			xNext = &xKids[xIndex+1]
			oldMatch = y.Key == xNext.Key
		}
		if yIndex+1 < yLen {
			yNext = &yKids[yIndex+1]
			newMatch = x.Key == yNext.Key
		}

		switch {
		case oldMatch && newMatch:
			// Swap: x moves after y.
			index++
			diff(x.Node, yNext.Node, &kd.local, index)
			kd.insert(y.Key, y.Node, yIndex)
			index += x.Node.Descendants
			index++
			kd.remove(xNext.Key, xNext.Node, index)
			index += xNext.Node.Descendants
			xIndex += 2
			yIndex += 2

		case newMatch:
			index++
			kd.insert(y.Key, y.Node, yIndex)
			diff(x.Node, yNext.Node, &kd.local, index)
			index += x.Node.Descendants
			xIndex++
			yIndex += 2

		case oldMatch:
			index++
			kd.remove(x.Key, x.Node, index)
			index += x.Node.Descendants
			index++
			diff(xNext.Node, y.Node, &kd.local, index)
			index += xNext.Node.Descendants
			xIndex += 2
			yIndex++

		case xNext != nil && yNext != nil && xNext.Key == yNext.Key:
			index++
			kd.remove(x.Key, x.Node, index)
			kd.insert(y.Key, y.Node, yIndex)
			index += x.Node.Descendants
			index++
			diff(xNext.Node, yNext.Node, &kd.local, index)
			index += xNext.Node.Descendants
			xIndex += 2
			yIndex += 2

		default:
			break scan
		}
	}

	for ; xIndex < xLen; xIndex++ {
		index++
		x := xKids[xIndex]
		kd.remove(x.Key, x.Node, index)
		index += x.Node.Descendants
	}
	for ; yIndex < yLen; yIndex++ {
		y := yKids[yIndex]
		kd.insertEnd(y.Key, y.Node)
	}

	if len(kd.local) > 0 || len(kd.inserts) > 0 || len(kd.endInserts) > 0 {
		push(patches, Patch{
			Kind:  PatchReorder,
			Index: rootIndex,
			Reorder: &Reorder{
				Patches:    kd.local,
				Inserts:    kd.inserts,
				EndInserts: kd.endInserts,
			},
		})
	}
}

func (kd *keyedDiff) insert(key string, node *VNode, yIndex int) {
	kd.inserts = kd.addInsert(key, node, yIndex, kd.inserts)
}

func (kd *keyedDiff) insertEnd(key string, node *VNode) {
	kd.endInserts = kd.addInsert(key, node, -1, kd.endInserts)
}

// addInsert records an insertion of key at yIndex, or upgrades an earlier
// removal of the same key into a move.
func (kd *keyedDiff) addInsert(key string, node *VNode, yIndex int, list []Insert) []Insert {
	for {
		entry, ok := kd.changes[key]
		if !ok {
			entry = &Entry{Key: key, State: EntryInserted, Node: node, Index: yIndex}
			kd.changes[key] = entry
			return append(list, Insert{Index: yIndex, Entry: entry})
		}

		if entry.State == EntryRemoved {
			entry.State = EntryMoved
			var sub []Patch
			diff(entry.Node, node, &sub, entry.Index)
			entry.Index = yIndex
			kd.local[entry.removal].Move = &Move{Patches: sub, Entry: entry}
			return append(list, Insert{Index: yIndex, Entry: entry})
		}

		key += dupSuffix
	}
}

// remove records a removal of key at the old traversal index, or completes
// an earlier insertion of the same key as a move.
func (kd *keyedDiff) remove(key string, node *VNode, index int) {
	for {
		entry, ok := kd.changes[key]
		if !ok {
			kd.changes[key] = &Entry{
				Key:     key,
				State:   EntryRemoved,
				Node:    node,
				Index:   index,
				removal: len(kd.local),
			}
			push(&kd.local, Patch{Kind: PatchRemove, Index: index})
			return
		}

		if entry.State == EntryInserted {
			entry.State = EntryMoved
			var sub []Patch
			diff(node, entry.Node, &sub, index)
			push(&kd.local, Patch{
				Kind:  PatchRemove,
				Index: index,
				Move:  &Move{Patches: sub, Entry: entry},
			})
			return
		}

		key += dupSuffix
	}
}

package protocol

import (
	"errors"
	"fmt"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Patch errors.
var (
	ErrInvalidPatch = errors.New("protocol: invalid patch kind")
	ErrUnknownEntry = errors.New("protocol: reorder entry not in table")
)

// PatchesFrame is the payload of a FramePatches frame: the patches that
// turn the tree of cycle Cycle-1 into the tree of cycle Cycle.
type PatchesFrame struct {
	Cycle   uint64
	Patches []vdom.Patch
}

// Encode writes the payload and wraps it in a frame.
func (pf *PatchesFrame) Encode() (*Frame, error) {
	e := NewEncoder()
	e.WriteUvarint(pf.Cycle)
	if err := EncodePatches(e, pf.Patches); err != nil {
		return nil, err
	}
	return NewFrame(FramePatches, e.Bytes()), nil
}

// DecodePatchesFrame decodes a FramePatches payload.
func DecodePatchesFrame(payload []byte) (*PatchesFrame, error) {
	d := NewDecoder(payload)
	cycle, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	patches, err := DecodePatches(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, fmt.Errorf("protocol: %d trailing bytes after patches", d.Remaining())
	}
	return &PatchesFrame{Cycle: cycle, Patches: patches}, nil
}

// EncodePatches writes a patch list.
//
// Entries of a reorder are written once in a table ahead of its patches
// and referenced by position from inserts and moves, so a decoded move and
// its insert share the same *vdom.Entry. Custom patches cannot be encoded.
func EncodePatches(e *Encoder, patches []vdom.Patch) error {
	return encodePatches(e, patches, nil)
}

// entryTable numbers the entries of one reorder.
type entryTable map[*vdom.Entry]int

func encodePatches(e *Encoder, patches []vdom.Patch, table entryTable) error {
	e.WriteInt(len(patches))
	for i := range patches {
		if err := encodePatch(e, &patches[i], table); err != nil {
			return err
		}
	}
	return nil
}

func encodePatch(e *Encoder, p *vdom.Patch, table entryTable) error {
	e.WriteByte(byte(p.Kind))
	e.WriteInt(p.Index)

	switch p.Kind {
	case vdom.PatchRedraw:
		return EncodeNode(e, p.Node)

	case vdom.PatchThunk:
		return encodePatches(e, p.Patches, nil)

	case vdom.PatchRetag:
		e.WriteInt(len(p.Taggers))
		for _, t := range p.Taggers {
			e.WriteString(t.Name())
		}

	case vdom.PatchText:
		e.WriteString(p.Text)

	case vdom.PatchFacts:
		encodeFactsDiff(e, p.Facts)

	case vdom.PatchRemoveLast:
		e.WriteInt(p.Start)
		e.WriteInt(p.Count)

	case vdom.PatchAppend:
		e.WriteInt(p.Start)
		e.WriteInt(len(p.Children))
		for _, kid := range p.Children {
			if err := EncodeNode(e, kid); err != nil {
				return err
			}
		}

	case vdom.PatchReorder:
		return encodeReorder(e, p.Reorder)

	case vdom.PatchRemove:
		e.WriteBool(p.Move != nil)
		if p.Move == nil {
			return nil
		}
		id, ok := table[p.Move.Entry]
		if !ok {
			return ErrUnknownEntry
		}
		e.WriteInt(id)
		return encodePatches(e, p.Move.Patches, nil)

	case vdom.PatchCustom:
		return verrors.New("E202").WithDetail("custom patches have no wire form")

	default:
		return ErrInvalidPatch
	}
	return nil
}

func encodeReorder(e *Encoder, r *vdom.Reorder) error {
	table := make(entryTable)
	var entries []*vdom.Entry
	for _, list := range [][]vdom.Insert{r.Inserts, r.EndInserts} {
		for _, ins := range list {
			if _, ok := table[ins.Entry]; ok {
				continue
			}
			table[ins.Entry] = len(entries)
			entries = append(entries, ins.Entry)
		}
	}

	e.WriteInt(len(entries))
	for _, entry := range entries {
		e.WriteString(entry.Key)
		e.WriteByte(byte(entry.State))
		e.WriteSvarint(int64(entry.Index))
		e.WriteBool(entry.Node != nil)
		if entry.Node != nil {
			if err := EncodeNode(e, entry.Node); err != nil {
				return err
			}
		}
	}

	if err := encodePatches(e, r.Patches, table); err != nil {
		return err
	}
	for _, list := range [][]vdom.Insert{r.Inserts, r.EndInserts} {
		e.WriteInt(len(list))
		for _, ins := range list {
			e.WriteSvarint(int64(ins.Index))
			e.WriteInt(table[ins.Entry])
		}
	}
	return nil
}

func encodeFactsDiff(e *Encoder, fd *vdom.FactsDiff) {
	if fd == nil {
		fd = &vdom.FactsDiff{}
	}

	e.WriteInt(len(fd.Events))
	for _, k := range sortedKeys(fd.Events) {
		h := fd.Events[k]
		e.WriteString(k)
		e.WriteBool(h != nil)
		if h != nil {
			e.WriteByte(byte(h.Kind))
		}
	}

	e.WriteInt(len(fd.Styles))
	for _, k := range sortedKeys(fd.Styles) {
		e.WriteString(k)
		e.WriteString(fd.Styles[k])
	}

	for _, props := range []map[string]any{fd.Props, fd.RemovedProps} {
		e.WriteInt(len(props))
		for _, k := range sortedKeys(props) {
			e.WriteString(k)
			encodeValue(e, props[k])
		}
	}

	e.WriteInt(len(fd.Attrs))
	for _, k := range sortedKeys(fd.Attrs) {
		v := fd.Attrs[k]
		e.WriteString(k)
		e.WriteBool(v != nil)
		if v != nil {
			e.WriteString(*v)
		}
	}

	e.WriteInt(len(fd.AttrsNS))
	for _, k := range sortedKeys(fd.AttrsNS) {
		c := fd.AttrsNS[k]
		e.WriteString(k)
		e.WriteString(c.Namespace)
		e.WriteBool(c.Value != nil)
		if c.Value != nil {
			e.WriteString(*c.Value)
		}
	}
}

// DecodePatches reads a patch list written by EncodePatches.
func DecodePatches(d *Decoder) ([]vdom.Patch, error) {
	return decodePatches(d, nil, newDepthContext(MaxPatchDepth))
}

func decodePatches(d *Decoder, table []*vdom.Entry, depth *depthContext) ([]vdom.Patch, error) {
	if err := depth.enter(); err != nil {
		return nil, err
	}
	defer depth.leave()

	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	patches := make([]vdom.Patch, count)
	for i := range patches {
		if err := decodePatch(d, &patches[i], table, depth); err != nil {
			return nil, err
		}
	}
	return patches, nil
}

func decodePatch(d *Decoder, p *vdom.Patch, table []*vdom.Entry, depth *depthContext) error {
	kind, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Kind = vdom.PatchKind(kind)
	if p.Index, err = d.ReadInt(); err != nil {
		return err
	}

	switch p.Kind {
	case vdom.PatchRedraw:
		p.Node, err = DecodeNode(d)
		return err

	case vdom.PatchThunk:
		p.Patches, err = decodePatches(d, nil, depth)
		return err

	case vdom.PatchRetag:
		n, err := d.ReadCollectionCount()
		if err != nil {
			return err
		}
		p.Taggers = make([]*vdom.Tagger, n)
		for i := range p.Taggers {
			name, err := d.ReadString()
			if err != nil {
				return err
			}
			p.Taggers[i] = vdom.NewTagger(name, identity)
		}

	case vdom.PatchText:
		p.Text, err = d.ReadString()
		return err

	case vdom.PatchFacts:
		p.Facts, err = decodeFactsDiff(d)
		return err

	case vdom.PatchRemoveLast:
		if p.Start, err = d.ReadInt(); err != nil {
			return err
		}
		p.Count, err = d.ReadInt()
		return err

	case vdom.PatchAppend:
		if p.Start, err = d.ReadInt(); err != nil {
			return err
		}
		n, err := d.ReadCollectionCount()
		if err != nil {
			return err
		}
		p.Children = make([]*vdom.VNode, n)
		for i := range p.Children {
			if p.Children[i], err = DecodeNode(d); err != nil {
				return err
			}
		}

	case vdom.PatchReorder:
		p.Reorder, err = decodeReorder(d, depth)
		return err

	case vdom.PatchRemove:
		moved, err := d.ReadBool()
		if err != nil || !moved {
			return err
		}
		entry, err := lookupEntry(d, table)
		if err != nil {
			return err
		}
		p.Move = &vdom.Move{Entry: entry}
		p.Move.Patches, err = decodePatches(d, nil, depth)
		return err

	default:
		return ErrInvalidPatch
	}
	return nil
}

func lookupEntry(d *Decoder, table []*vdom.Entry) (*vdom.Entry, error) {
	id, err := d.ReadInt()
	if err != nil {
		return nil, err
	}
	if id >= len(table) {
		return nil, ErrUnknownEntry
	}
	return table[id], nil
}

func decodeReorder(d *Decoder, depth *depthContext) (*vdom.Reorder, error) {
	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	table := make([]*vdom.Entry, n)
	for i := range table {
		entry := &vdom.Entry{}
		if entry.Key, err = d.ReadString(); err != nil {
			return nil, err
		}
		state, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		if state > byte(vdom.EntryMoved) {
			return nil, fmt.Errorf("protocol: invalid entry state %d", state)
		}
		entry.State = vdom.EntryState(state)
		index, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		entry.Index = int(index)
		hasNode, err := d.ReadBool()
		if err != nil {
			return nil, err
		}
		if hasNode {
			if entry.Node, err = DecodeNode(d); err != nil {
				return nil, err
			}
		}
		table[i] = entry
	}

	r := &vdom.Reorder{}
	if r.Patches, err = decodePatches(d, table, depth); err != nil {
		return nil, err
	}
	if r.Inserts, err = decodeInserts(d, table); err != nil {
		return nil, err
	}
	if r.EndInserts, err = decodeInserts(d, table); err != nil {
		return nil, err
	}
	return r, nil
}

func decodeInserts(d *Decoder, table []*vdom.Entry) ([]vdom.Insert, error) {
	n, err := d.ReadCollectionCount()
	if err != nil || n == 0 {
		return nil, err
	}
	inserts := make([]vdom.Insert, n)
	for i := range inserts {
		index, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		if index < -1 || index > MaxCollectionCount {
			return nil, fmt.Errorf("protocol: invalid insert index %d", index)
		}
		inserts[i].Index = int(index)
		if inserts[i].Entry, err = lookupEntry(d, table); err != nil {
			return nil, err
		}
	}
	return inserts, nil
}

func decodeFactsDiff(d *Decoder) (*vdom.FactsDiff, error) {
	fd := &vdom.FactsDiff{}

	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		present, err := d.ReadBool()
		if err != nil {
			return nil, err
		}
		var h *vdom.Handler
		if present {
			decoded, err := decodeHandler(d)
			if err != nil {
				return nil, err
			}
			h = &decoded
		}
		if fd.Events == nil {
			fd.Events = make(map[string]*vdom.Handler, n)
		}
		fd.Events[k] = h
	}

	if n, err = d.ReadCollectionCount(); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		if fd.Styles == nil {
			fd.Styles = make(map[string]string, n)
		}
		fd.Styles[k] = v
	}

	if fd.Props, err = decodeProps(d); err != nil {
		return nil, err
	}
	if fd.RemovedProps, err = decodeProps(d); err != nil {
		return nil, err
	}

	if n, err = d.ReadCollectionCount(); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := readOptionalString(d)
		if err != nil {
			return nil, err
		}
		if fd.Attrs == nil {
			fd.Attrs = make(map[string]*string, n)
		}
		fd.Attrs[k] = v
	}

	if n, err = d.ReadCollectionCount(); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		var c vdom.NSAttrChange
		if c.Namespace, err = d.ReadString(); err != nil {
			return nil, err
		}
		if c.Value, err = readOptionalString(d); err != nil {
			return nil, err
		}
		if fd.AttrsNS == nil {
			fd.AttrsNS = make(map[string]vdom.NSAttrChange, n)
		}
		fd.AttrsNS[k] = c
	}
	return fd, nil
}

func readOptionalString(d *Decoder) (*string, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	s, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeProps(d *Decoder) (map[string]any, error) {
	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	var props map[string]any
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(d)
		if err != nil {
			return nil, err
		}
		if props == nil {
			props = make(map[string]any, n)
		}
		props[k] = v
	}
	return props, nil
}

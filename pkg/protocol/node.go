package protocol

import (
	"errors"
	"fmt"
	"math"
	"sort"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Node tags on the wire.
const (
	nodeText    byte = 0x01
	nodeElement byte = 0x02
	nodeKeyed   byte = 0x03
	nodeTagged  byte = 0x04
	nodeThunk   byte = 0x05
)

// Prop value tags on the wire.
const (
	valueNull   byte = 0x00
	valueString byte = 0x01
	valueBool   byte = 0x02
	valueInt    byte = 0x03
	valueFloat  byte = 0x04
)

// ErrInvalidNode is returned when a node tag is unknown.
var ErrInvalidNode = errors.New("protocol: invalid node tag")

// EncodeNode writes a node tree.
//
// Taggers and thunks are kept as markers so the decoded tree has the same
// pre-order indices as v. Thunks are forced. Custom nodes cannot be encoded.
func EncodeNode(e *Encoder, v *vdom.VNode) error {
	switch v.Kind {
	case vdom.KindText:
		e.WriteByte(nodeText)
		e.WriteString(v.Text)

	case vdom.KindElement:
		e.WriteByte(nodeElement)
		e.WriteString(v.Tag)
		e.WriteString(v.Namespace)
		encodeFacts(e, v.Facts)
		e.WriteInt(len(v.Children))
		for _, kid := range v.Children {
			if err := EncodeNode(e, kid); err != nil {
				return err
			}
		}

	case vdom.KindKeyed:
		e.WriteByte(nodeKeyed)
		e.WriteString(v.Tag)
		e.WriteString(v.Namespace)
		encodeFacts(e, v.Facts)
		e.WriteInt(len(v.Keyed))
		for _, kid := range v.Keyed {
			e.WriteString(kid.Key)
			if err := EncodeNode(e, kid.Node); err != nil {
				return err
			}
		}

	case vdom.KindTagged:
		e.WriteByte(nodeTagged)
		e.WriteString(v.Tagger.Name())
		return EncodeNode(e, v.Child)

	case vdom.KindThunk:
		e.WriteByte(nodeThunk)
		e.WriteString(v.View.Name())
		return EncodeNode(e, v.Force())

	case vdom.KindCustom:
		return verrors.New("E202")

	default:
		return fmt.Errorf("protocol: unknown node kind %d", v.Kind)
	}
	return nil
}

// DecodeNode reads a node tree written by EncodeNode.
func DecodeNode(d *Decoder) (*vdom.VNode, error) {
	return decodeNode(d, newDepthContext(MaxNodeDepth))
}

func decodeNode(d *Decoder, depth *depthContext) (*vdom.VNode, error) {
	if err := depth.enter(); err != nil {
		return nil, err
	}
	defer depth.leave()

	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case nodeText:
		text, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return vdom.Text(text), nil

	case nodeElement:
		name, ns, facts, err := decodeElementHeader(d)
		if err != nil {
			return nil, err
		}
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		kids := make([]*vdom.VNode, count)
		for i := range kids {
			if kids[i], err = decodeNode(d, depth); err != nil {
				return nil, err
			}
		}
		node := vdom.NodeNS(ns, name, nil, kids)
		node.Facts = facts
		return node, nil

	case nodeKeyed:
		name, ns, facts, err := decodeElementHeader(d)
		if err != nil {
			return nil, err
		}
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		kids := make([]vdom.KeyedChild, count)
		for i := range kids {
			if kids[i].Key, err = d.ReadString(); err != nil {
				return nil, err
			}
			if kids[i].Node, err = decodeNode(d, depth); err != nil {
				return nil, err
			}
		}
		node := vdom.KeyedNodeNS(ns, name, nil, kids)
		node.Facts = facts
		return node, nil

	case nodeTagged:
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		child, err := decodeNode(d, depth)
		if err != nil {
			return nil, err
		}
		return vdom.Map(vdom.NewTagger(name, identity), child), nil

	case nodeThunk:
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		child, err := decodeNode(d, depth)
		if err != nil {
			return nil, err
		}
		thunk := vdom.Lazy(vdom.NewView(name, func(...any) *vdom.VNode { return child }))
		thunk.Force()
		return thunk, nil

	default:
		return nil, ErrInvalidNode
	}
}

func identity(msg any) any { return msg }

func decodeElementHeader(d *Decoder) (tag, ns string, facts *vdom.Facts, err error) {
	if tag, err = d.ReadString(); err != nil {
		return
	}
	if ns, err = d.ReadString(); err != nil {
		return
	}
	facts, err = decodeFacts(d)
	return
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeFacts(e *Encoder, f *vdom.Facts) {
	if f == nil {
		f = &vdom.Facts{}
	}

	e.WriteInt(len(f.Events))
	for _, k := range sortedKeys(f.Events) {
		e.WriteString(k)
		e.WriteByte(byte(f.Events[k].Kind))
	}

	e.WriteInt(len(f.Styles))
	for _, k := range sortedKeys(f.Styles) {
		e.WriteString(k)
		e.WriteString(f.Styles[k])
	}

	e.WriteInt(len(f.Props))
	for _, k := range sortedKeys(f.Props) {
		e.WriteString(k)
		encodeValue(e, f.Props[k])
	}

	e.WriteInt(len(f.Attrs))
	for _, k := range sortedKeys(f.Attrs) {
		e.WriteString(k)
		e.WriteString(f.Attrs[k])
	}

	e.WriteInt(len(f.AttrsNS))
	for _, k := range sortedKeys(f.AttrsNS) {
		a := f.AttrsNS[k]
		e.WriteString(k)
		e.WriteString(a.Namespace)
		e.WriteString(a.Value)
	}
}

func decodeFacts(d *Decoder) (*vdom.Facts, error) {
	f := &vdom.Facts{}

	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		h, err := decodeHandler(d)
		if err != nil {
			return nil, err
		}
		if f.Events == nil {
			f.Events = make(map[string]vdom.Handler, n)
		}
		f.Events[k] = h
	}

	if f.Styles, err = decodeStringMap(d); err != nil {
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
		v, err := decodeValue(d)
		if err != nil {
			return nil, err
		}
		if f.Props == nil {
			f.Props = make(map[string]any, n)
		}
		f.Props[k] = v
	}

	if f.Attrs, err = decodeStringMap(d); err != nil {
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
		var a vdom.NSAttr
		if a.Namespace, err = d.ReadString(); err != nil {
			return nil, err
		}
		if a.Value, err = d.ReadString(); err != nil {
			return nil, err
		}
		if f.AttrsNS == nil {
			f.AttrsNS = make(map[string]vdom.NSAttr, n)
		}
		f.AttrsNS[k] = a
	}
	return f, nil
}

func decodeStringMap(d *Decoder) (map[string]string, error) {
	n, err := d.ReadCollectionCount()
	if err != nil || n == 0 {
		return nil, err
	}
	m := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		if m[k], err = d.ReadString(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// decodeHandler reads a handler kind. Decoders do not travel: a decoded
// handler yields the raw event payload as its message.
func decodeHandler(d *Decoder) (vdom.Handler, error) {
	b, err := d.ReadByte()
	if err != nil {
		return vdom.Handler{}, err
	}
	kind := vdom.HandlerKind(b)
	switch kind {
	case vdom.Normal:
		return vdom.Handler{Kind: kind, Decoder: vdom.At()}, nil
	case vdom.MayStopPropagation, vdom.MayPreventDefault, vdom.CustomHandler:
		return vdom.Handler{Kind: kind, Decoder: vdom.WithFlags(vdom.At(), false, false)}, nil
	default:
		return vdom.Handler{}, fmt.Errorf("protocol: invalid handler kind %d", b)
	}
}

func encodeValue(e *Encoder, v any) {
	switch x := v.(type) {
	case nil:
		e.WriteByte(valueNull)
	case string:
		e.WriteByte(valueString)
		e.WriteString(x)
	case bool:
		e.WriteByte(valueBool)
		e.WriteBool(x)
	case int:
		encodeInt(e, int64(x))
	case int32:
		encodeInt(e, int64(x))
	case int64:
		encodeInt(e, x)
	case float32:
		e.WriteByte(valueFloat)
		e.WriteFloat64(float64(x))
	case float64:
		e.WriteByte(valueFloat)
		e.WriteFloat64(x)
	default:
		e.WriteByte(valueString)
		e.WriteString(fmt.Sprint(x))
	}
}

// encodeInt writes ints that do not fit in 32 bits as floats.
func encodeInt(e *Encoder, v int64) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		e.WriteByte(valueFloat)
		e.WriteFloat64(float64(v))
		return
	}
	e.WriteByte(valueInt)
	e.WriteSvarint(v)
}

func decodeValue(d *Decoder) (any, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case valueNull:
		return nil, nil
	case valueString:
		return d.ReadString()
	case valueBool:
		return d.ReadBool()
	case valueInt:
		v, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, ErrIntOverflow
		}
		return int(v), nil
	case valueFloat:
		return d.ReadFloat64()
	default:
		return nil, fmt.Errorf("protocol: invalid value tag %d", tag)
	}
}

// SnapshotFrame is the payload of a FrameSnapshot frame: the full tree of
// cycle Cycle.
type SnapshotFrame struct {
	Cycle uint64
	Node  *vdom.VNode
}

// Encode writes the payload and wraps it in a frame.
func (sf *SnapshotFrame) Encode() (*Frame, error) {
	e := NewEncoder()
	e.WriteUvarint(sf.Cycle)
	if err := EncodeNode(e, sf.Node); err != nil {
		return nil, err
	}
	return NewFrame(FrameSnapshot, e.Bytes()), nil
}

// DecodeSnapshotFrame decodes a FrameSnapshot payload.
func DecodeSnapshotFrame(payload []byte) (*SnapshotFrame, error) {
	d := NewDecoder(payload)
	cycle, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	node, err := DecodeNode(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, fmt.Errorf("protocol: %d trailing bytes after node", d.Remaining())
	}
	return &SnapshotFrame{Cycle: cycle, Node: node}, nil
}

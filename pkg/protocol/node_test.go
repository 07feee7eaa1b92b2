package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func sampleTree() *vdom.VNode {
	row := vdom.NewView("row", func(args ...any) *vdom.VNode {
		return vdom.Li(vdom.Textf("row %v", args[0]))
	})
	wrap := vdom.NewTagger("wrap", func(msg any) any { return msg })

	return vdom.Div(
		vdom.ID("app"),
		vdom.Class("a", "b"),
		vdom.Style("color", "red"),
		vdom.Value("typed"),
		vdom.Checked(true),
		vdom.OnClick("clicked"),
		vdom.OnSubmit("sent"),
		vdom.H1("Title"),
		vdom.Keyed("ul", nil,
			vdom.K("x", vdom.Li("x")),
			vdom.K("y", vdom.Lazy(row, 1)),
		),
		vdom.Map(wrap, vdom.Span("inner")),
		vdom.Svg(vdom.Use(vdom.XLinkHref("#icon"))),
	)
}

func encodeNode(t *testing.T, v *vdom.VNode) []byte {
	t.Helper()
	e := NewEncoder()
	if err := EncodeNode(e, v); err != nil {
		t.Fatalf("EncodeNode: %v", err)
	}
	return append([]byte(nil), e.Bytes()...)
}

func TestNodeRoundTrip(t *testing.T) {
	tree := sampleTree()
	data := encodeNode(t, tree)

	got, err := DecodeNode(NewDecoder(data))
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}

	if again := encodeNode(t, got); !bytes.Equal(again, data) {
		t.Error("re-encoding the decoded tree gives different bytes")
	}
	if got.Descendants != tree.Descendants {
		t.Errorf("Descendants = %d, want %d", got.Descendants, tree.Descendants)
	}

	opts := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Events"
	}, cmp.Ignore())
	if diff := cmp.Diff(tree.Facts, got.Facts, opts); diff != "" {
		t.Errorf("facts mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeEncodingDeterministic(t *testing.T) {
	a := encodeNode(t, sampleTree())
	for i := 0; i < 10; i++ {
		if b := encodeNode(t, sampleTree()); !bytes.Equal(a, b) {
			t.Fatal("encoding differs between runs")
		}
	}
}

func TestNodeMarkersKeepIndices(t *testing.T) {
	tree := sampleTree()
	got, err := DecodeNode(NewDecoder(encodeNode(t, tree)))
	if err != nil {
		t.Fatal(err)
	}

	tagged := got.Children[2]
	if tagged.Kind != vdom.KindTagged || tagged.Tagger.Name() != "wrap" {
		t.Fatalf("child 2 = %v, want tagged wrap", tagged.Kind)
	}
	if msg := tagged.Tagger.Tag("m"); msg != "m" {
		t.Errorf("decoded tagger changed message to %v", msg)
	}

	thunk := got.Children[1].Keyed[1].Node
	if thunk.Kind != vdom.KindThunk || thunk.View.Name() != "row" {
		t.Fatalf("keyed child y = %v, want thunk row", thunk.Kind)
	}
	if thunk.Descendants != 0 {
		t.Errorf("thunk Descendants = %d, want 0", thunk.Descendants)
	}
	if thunk.Cached() == nil || thunk.Cached().Children[0].Text != "row 1" {
		t.Error("decoded thunk should carry its forced child")
	}
}

func TestNodeHandlers(t *testing.T) {
	got, err := DecodeNode(NewDecoder(encodeNode(t, sampleTree())))
	if err != nil {
		t.Fatal(err)
	}

	payload := map[string]any{"x": 1}

	click := got.Facts.Events["click"]
	if click.Kind != vdom.Normal {
		t.Errorf("click kind = %v", click.Kind)
	}
	out, err := click.Decode(payload)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(any(payload), out.Message); diff != "" {
		t.Errorf("click message (-want +got):\n%s", diff)
	}

	submit := got.Facts.Events["submit"]
	if submit.Kind != vdom.MayPreventDefault {
		t.Errorf("submit kind = %v", submit.Kind)
	}
	out, err = submit.Decode(payload)
	if err != nil {
		t.Fatal(err)
	}
	if out.PreventDefault || out.StopPropagation {
		t.Error("decoded handlers should not carry flags")
	}
}

func TestNodePropValues(t *testing.T) {
	type custom struct{ N int }
	node := vdom.Div(
		vdom.Property("s", "str"),
		vdom.Property("b", false),
		vdom.Property("i", -42),
		vdom.Property("i32", int32(7)),
		vdom.Property("big", int64(1)<<40),
		vdom.Property("f", 1.5),
		vdom.Property("nil", nil),
		vdom.Property("other", custom{N: 3}),
	)

	got, err := DecodeNode(NewDecoder(encodeNode(t, node)))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"s":     "str",
		"b":     false,
		"i":     -42,
		"i32":   7,
		"big":   float64(int64(1) << 40),
		"f":     1.5,
		"nil":   nil,
		"other": "{3}",
	}
	if diff := cmp.Diff(want, got.Facts.Props); diff != "" {
		t.Errorf("props mismatch (-want +got):\n%s", diff)
	}
}

type opaqueWidget struct{}

func (*opaqueWidget) Render(doc *dom.Document, state any) *dom.Node {
	return doc.CreateTextNode("")
}

func (*opaqueWidget) Diff(oldState, newState any) vdom.CustomPatch { return nil }

func TestEncodeCustomNode(t *testing.T) {
	node := vdom.Div(vdom.Custom(nil, 1, &opaqueWidget{}))
	err := EncodeNode(NewEncoder(), node)
	if !verrors.Is(err, "E202") {
		t.Errorf("err = %v, want E202", err)
	}
}

func TestDecodeNodeErrors(t *testing.T) {
	deep := NewEncoder()
	for i := 0; i <= MaxNodeDepth; i++ {
		deep.WriteByte(nodeTagged)
		deep.WriteString("t")
	}
	deep.WriteByte(nodeText)
	deep.WriteString("leaf")

	valid := encodeNode(t, sampleTree())

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"unknown tag", []byte{0x7F}, ErrInvalidNode},
		{"too deep", deep.Bytes(), ErrMaxDepthExceeded},
		{"truncated", valid[:len(valid)/2], nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeNode(NewDecoder(tc.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSnapshotFrame(t *testing.T) {
	sf := &SnapshotFrame{Cycle: 7, Node: sampleTree()}
	frame, err := sf.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if frame.Type != FrameSnapshot {
		t.Fatalf("frame type = %v", frame.Type)
	}

	decoded, err := DecodeFrame(frame.Encode())
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeSnapshotFrame(decoded.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cycle != 7 {
		t.Errorf("Cycle = %d, want 7", got.Cycle)
	}
	if !bytes.Equal(encodeNode(t, got.Node), encodeNode(t, sf.Node)) {
		t.Error("snapshot tree differs after round trip")
	}
}

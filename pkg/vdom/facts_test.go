package vdom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOrganize(t *testing.T) {
	click := Handler{Kind: Normal, Decoder: Succeed("clicked")}

	facts := Organize([]Fact{
		ID("main"),
		Class("a"),
		Class("b c"),
		Style("color", "red"),
		Property("value", "hello"),
		Property("className", "x"),
		Property("className", "y"),
		AttributeNS(NamespaceXLink, "xlink:href", "#a"),
		On("click", click),
		Attribute("tabindex", 3),
		ID("override"),
		{},
	})

	want := &Facts{
		Events:  map[string]Handler{"click": click},
		Styles:  map[string]string{"color": "red"},
		Props:   map[string]any{"value": "hello", "className": "x y"},
		Attrs:   map[string]string{"id": "override", "class": "a b c", "tabindex": "3"},
		AttrsNS: map[string]NSAttr{"xlink:href": {Namespace: NamespaceXLink, Value: "#a"}},
	}

	if diff := cmp.Diff(want, facts, cmp.Comparer(func(a, b Handler) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("Organize() mismatch (-want +got):\n%s", diff)
	}
	if facts.Len() != 8 {
		t.Errorf("Len() = %d, want 8", facts.Len())
	}
}

func TestOrganizeEmpty(t *testing.T) {
	facts := Organize(nil)
	if facts == nil || facts.Len() != 0 {
		t.Errorf("Organize(nil) = %+v, want empty facts", facts)
	}
	var nilFacts *Facts
	if nilFacts.Len() != 0 {
		t.Error("nil Facts should have Len() 0")
	}
}

func TestClassList(t *testing.T) {
	f := ClassList(map[string]bool{"active": true, "done": false, "big": true})
	if f.Value != "active big" {
		t.Errorf("ClassList value = %q, want %q", f.Value, "active big")
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"s", "s"},
		{true, "true"},
		{false, "false"},
		{12, "12"},
		{int64(-3), "-3"},
		{1.5, "1.5"},
		{nil, ""},
		{[]int{1}, "[1]"},
	}
	for _, tt := range tests {
		if got := valueString(tt.in); got != tt.want {
			t.Errorf("valueString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDiffFacts(t *testing.T) {
	str := func(s string) *string { return &s }
	click := Handler{Kind: Normal, Decoder: Succeed("a")}
	clickB := Handler{Kind: Normal, Decoder: Succeed("b")}

	tests := []struct {
		name string
		prev []Fact
		next []Fact
		want *FactsDiff
	}{
		{
			name: "equal",
			prev: []Fact{Class("a"), Style("color", "red"), On("click", click)},
			next: []Fact{Class("a"), Style("color", "red"), On("click", Handler{Kind: Normal, Decoder: Succeed("a")})},
			want: nil,
		},
		{
			name: "class only",
			prev: []Fact{Class("a"), Style("color", "red")},
			next: []Fact{Class("a", "b"), Style("color", "red")},
			want: &FactsDiff{Attrs: map[string]*string{"class": str("a b")}},
		},
		{
			name: "removals",
			prev: []Fact{ID("x"), Style("color", "red"), Property("value", "v"), Property("hidden", true), On("click", click), AttributeNS(NamespaceXLink, "xlink:href", "#a")},
			next: nil,
			want: &FactsDiff{
				Events:  map[string]*Handler{"click": nil},
				Styles:  map[string]string{"color": ""},
				Attrs:   map[string]*string{"id": nil},
				AttrsNS: map[string]NSAttrChange{"xlink:href": {Namespace: NamespaceXLink}},

				RemovedProps: map[string]any{"value": "", "hidden": nil},
			},
		},
		{
			name: "additions and changes",
			prev: []Fact{On("click", click), Style("color", "red")},
			next: []Fact{On("click", clickB), Style("color", "blue"), Checked(true)},
			want: &FactsDiff{
				Events: map[string]*Handler{"click": &clickB},
				Styles: map[string]string{"color": "blue"},
				Props:  map[string]any{"checked": true},
			},
		},
	}

	opts := cmp.Comparer(func(a, b Handler) bool { return a.Equal(b) })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffFacts(Organize(tt.prev), Organize(tt.next))
			if diff := cmp.Diff(tt.want, got, opts); diff != "" {
				t.Errorf("DiffFacts() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffFactsKindChange(t *testing.T) {
	prev := Organize([]Fact{On("submit", Handler{Kind: Normal, Decoder: Succeed("go")})})
	next := Organize([]Fact{OnSubmit("go")})

	d := DiffFacts(prev, next)
	if d == nil || d.Events["submit"] == nil {
		t.Fatalf("DiffFacts() = %+v, want a submit change", d)
	}
	if d.Events["submit"].Kind != MayPreventDefault {
		t.Errorf("Kind = %v, want MayPreventDefault", d.Events["submit"].Kind)
	}
}

func TestFactsDiffEmpty(t *testing.T) {
	var d *FactsDiff
	if !d.Empty() {
		t.Error("nil FactsDiff should be empty")
	}
	if !(&FactsDiff{}).Empty() {
		t.Error("zero FactsDiff should be empty")
	}
}

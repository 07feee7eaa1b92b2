package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func build(v *vdom.VNode) *dom.Node {
	return live.Render(dom.NewDocument(), v, nil)
}

func TestRenderToString(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	tests := []struct {
		name string
		node *vdom.VNode
		want string
	}{
		{
			name: "text",
			node: vdom.Text("Hello, World!"),
			want: "Hello, World!",
		},
		{
			name: "text escaping",
			node: vdom.Text("<script>alert('xss')</script>"),
			want: "&lt;script&gt;alert(&#39;xss&#39;)&lt;/script&gt;",
		},
		{
			name: "element",
			node: vdom.Div(vdom.Class("container"), vdom.H1("Title"), vdom.P("Content")),
			want: `<div class="container"><h1>Title</h1><p>Content</p></div>`,
		},
		{
			name: "sorted attributes",
			node: vdom.A(vdom.TitleAttr("t"), vdom.Href("/x"), vdom.ID("link")),
			want: `<a href="/x" id="link" title="t"></a>`,
		},
		{
			name: "attribute escaping",
			node: vdom.Div(vdom.Data("json", `{"a":"<b>"}`)),
			want: `<div data-json="{&#34;a&#34;:&#34;&lt;b&gt;&#34;}"></div>`,
		},
		{
			name: "void input",
			node: vdom.Input(vdom.Type("text"), vdom.Name("email")),
			want: `<input name="email" type="text">`,
		},
		{
			name: "void br",
			node: vdom.P("a", vdom.Br(), "b"),
			want: `<p>a<br>b</p>`,
		},
		{
			name: "styles",
			node: vdom.Div(vdom.Style("margin", "0"), vdom.Style("color", "red")),
			want: `<div style="color: red; margin: 0"></div>`,
		},
		{
			name: "reflected properties",
			node: vdom.Input(vdom.Value("typed"), vdom.Checked(true), vdom.Disabled(false)),
			want: `<input checked value="typed">`,
		},
		{
			name: "listeners are not rendered",
			node: vdom.Button(vdom.OnClick("x"), "Go"),
			want: `<button>Go</button>`,
		},
		{
			name: "namespaced attribute",
			node: vdom.ElNS(vdom.NamespaceSVG, "use", vdom.XLinkHref("#icon")),
			want: `<use xlink:href="#icon"></use>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderer.RenderToString(build(tt.node))
			if err != nil {
				t.Fatalf("RenderToString() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RenderToString() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderParsedNamespacedAttribute(t *testing.T) {
	root, err := dom.ParseHTML(dom.NewDocument(), strings.NewReader(`<svg><use xlink:href="#i"></use></svg>`))
	if err != nil {
		t.Fatal(err)
	}
	got, err := NewRenderer(RendererConfig{}).RenderToString(root)
	if err != nil {
		t.Fatal(err)
	}
	if want := `<svg><use xlink:href="#i"></use></svg>`; got != want {
		t.Errorf("RenderToString() = %q, want %q", got, want)
	}
}

func TestRenderPretty(t *testing.T) {
	renderer := NewRenderer(RendererConfig{Pretty: true})
	node := vdom.Div(vdom.Class("card"),
		vdom.H1("Title"),
		vdom.Ul(vdom.Li("a"), vdom.Li(vdom.Span("b"))),
	)

	got, err := renderer.RenderToString(build(node))
	if err != nil {
		t.Fatalf("RenderToString() error = %v", err)
	}
	want := `<div class="card">
  <h1>Title</h1>
  <ul>
    <li>a</li>
    <li>
      <span>b</span>
    </li>
  </ul>
</div>
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pretty output mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderMinify(t *testing.T) {
	renderer := NewRenderer(RendererConfig{Minify: true, Pretty: true})
	node := vdom.Div(vdom.Class("card"), vdom.P("one"), vdom.P("two"))

	got, err := renderer.RenderToString(build(node))
	if err != nil {
		t.Fatalf("RenderToString() error = %v", err)
	}
	if strings.Contains(got, "\n") {
		t.Errorf("minified output contains newlines: %q", got)
	}
	if !strings.Contains(got, "<p>one</p><p>two</p>") {
		t.Errorf("minified output lost content: %q", got)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})
	node := vdom.Section(vdom.ID("s"),
		vdom.H2("Heading"),
		vdom.P(vdom.Class("lead"), "Some ", vdom.Span("text")),
		vdom.Ul(vdom.Li("1"), vdom.Li("2")),
	)

	first, err := renderer.RenderToString(build(node))
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := dom.ParseHTML(dom.NewDocument(), strings.NewReader(first))
	if err != nil {
		t.Fatal(err)
	}
	second, err := renderer.RenderToString(parsed)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("render/parse/render mismatch (-first +second):\n%s", diff)
	}
}

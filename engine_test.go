package vtree

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace/noop"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func newTestEngine(t *testing.T) (*Engine, *Metrics, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	e := New(
		WithLogger(logger),
		WithMetrics(m),
		WithTracer(noop.NewTracerProvider().Tracer("test")),
	)
	return e, m, &logs
}

func html(t *testing.T, n *dom.Node) string {
	t.Helper()
	out, err := render.NewRenderer(render.RendererConfig{}).RenderToString(n)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func todo(items ...string) *vdom.VNode {
	kids := make([]vdom.KeyedChild, len(items))
	for i, item := range items {
		kids[i] = vdom.K(item, vdom.Li(item))
	}
	return vdom.Div(vdom.H1("Todo"), vdom.Keyed("ul", nil, kids...))
}

func TestNewDefaults(t *testing.T) {
	e := New()
	if e.Logger() != slog.Default() {
		t.Error("default logger should be slog.Default()")
	}
	if e.tracer == nil {
		t.Error("default tracer should be set")
	}
	if e.metrics != nil {
		t.Error("metrics should be off by default")
	}
}

func TestEngineUpdate(t *testing.T) {
	ctx := context.Background()
	e, m, logs := newTestEngine(t)

	prev := todo("a", "b", "c")
	next := todo("c", "a", "b", "d")

	doc := dom.NewDocument()
	root := e.Render(ctx, doc, prev, nil)
	root, patches := e.Update(ctx, root, prev, next, nil)

	if len(patches) == 0 {
		t.Fatal("expected patches")
	}
	if got, want := html(t, root), html(t, e.Render(ctx, dom.NewDocument(), next, nil)); got != want {
		t.Errorf("after Update = %s, want %s", got, want)
	}

	if got := testutil.ToFloat64(m.cycles); got != 1 {
		t.Errorf("cycles = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.renders); got != 2 {
		t.Errorf("renders = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.patches.WithLabelValues("Reorder")); got != 1 {
		t.Errorf("reorder patches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.mutations); got == 0 {
		t.Error("mutations should be counted")
	}
	if got := testutil.CollectAndCount(m.diffDuration); got != 1 {
		t.Errorf("diff duration series = %d", got)
	}

	for _, want := range []string{"msg=diff", "msg=apply", "mutations="} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("logs missing %q:\n%s", want, logs.String())
		}
	}
}

func TestEngineWithoutMetrics(t *testing.T) {
	ctx := context.Background()
	e := New(WithTracer(noop.NewTracerProvider().Tracer("test")))

	prev := vdom.P("a")
	next := vdom.P("b")
	root := e.Render(ctx, dom.NewDocument(), prev, nil)
	root, _ = e.Update(ctx, root, prev, next, nil)

	if root.TextContent() != "b" {
		t.Errorf("text = %q", root.TextContent())
	}
}

func TestEngineApplyPanicsOnUnknownPatch(t *testing.T) {
	ctx := context.Background()
	e, _, logs := newTestEngine(t)

	prev := vdom.P("a")
	root := e.Render(ctx, dom.NewDocument(), prev, nil)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !verrors.Is(err, "E101") {
			t.Fatalf("recovered %v, want E101", r)
		}
		for _, want := range []string{"apply failed", "E101 Unknown patch kind"} {
			if !strings.Contains(logs.String(), want) {
				t.Errorf("log is missing %q:\n%s", want, logs.String())
			}
		}
	}()
	e.Apply(ctx, root, prev, []vdom.Patch{{Kind: vdom.PatchKind(200)}}, nil)
}

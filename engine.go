package vtree

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Default tracer name.
const defaultTracerName = "vtree"

// Engine runs render, diff and apply cycles with logging, metrics and
// tracing around the pure algorithms in packages vdom and live.
//
// An Engine holds no tree state and is safe for concurrent use; serializing
// cycles on one live tree is the caller's job.
type Engine struct {
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records engine metrics into m. Default: none.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the tracer. Default: the "vtree" tracer of the global
// OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(defaultTracerName)
	}
	return e
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Render builds a live tree for node in doc.
func (e *Engine) Render(ctx context.Context, doc *dom.Document, node *vdom.VNode, dispatch live.Dispatch) *dom.Node {
	_, span := e.tracer.Start(ctx, "vtree.render",
		trace.WithAttributes(attribute.Int("vtree.nodes", node.Size())))
	defer span.End()

	root := live.Render(doc, node, dispatch)
	if e.metrics != nil {
		e.metrics.renders.Inc()
	}
	return root
}

// Diff computes the patches that turn prev into next.
func (e *Engine) Diff(ctx context.Context, prev, next *vdom.VNode) []vdom.Patch {
	_, span := e.tracer.Start(ctx, "vtree.diff")
	defer span.End()

	start := time.Now()
	patches := vdom.Diff(prev, next)
	elapsed := time.Since(start)

	count := vdom.Count(patches)
	span.SetAttributes(attribute.Int("vtree.patches", count))
	if e.metrics != nil {
		e.metrics.diffDuration.Observe(elapsed.Seconds())
		e.metrics.recordPatches(patches)
	}
	e.logger.Debug("diff", "patches", count, "duration", elapsed)
	return patches
}

// Apply applies patches to the live tree rendered from old and returns the
// new root.
//
// A patch that does not fit the live tree is a programming error: Apply
// records it on the span and logs it, then re-panics.
func (e *Engine) Apply(ctx context.Context, root *dom.Node, old *vdom.VNode, patches []vdom.Patch, dispatch live.Dispatch) *dom.Node {
	_, span := e.tracer.Start(ctx, "vtree.apply",
		trace.WithAttributes(attribute.Int("vtree.patches", len(patches))))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("apply: %v", r)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.logger.Error("apply failed", verrors.Attr(err))
			panic(r)
		}
	}()

	doc := root.Document()
	before := doc.Mutations()
	start := time.Now()
	next := live.Apply(root, old, patches, dispatch)
	elapsed := time.Since(start)
	mutations := doc.Mutations() - before

	span.SetAttributes(attribute.Int64("vtree.mutations", int64(mutations)))
	if e.metrics != nil {
		e.metrics.applyDuration.Observe(elapsed.Seconds())
		e.metrics.mutations.Add(float64(mutations))
	}
	e.logger.Debug("apply", "patches", len(patches), "mutations", mutations, "duration", elapsed)
	return next
}

// Update runs one cycle: it diffs prev against next and applies the result
// to root, returning the new root and the patches.
func (e *Engine) Update(ctx context.Context, root *dom.Node, prev, next *vdom.VNode, dispatch live.Dispatch) (*dom.Node, []vdom.Patch) {
	ctx, span := e.tracer.Start(ctx, "vtree.update")
	defer span.End()

	patches := e.Diff(ctx, prev, next)
	root = e.Apply(ctx, root, prev, patches, dispatch)
	if e.metrics != nil {
		e.metrics.cycles.Inc()
	}
	return root, patches
}

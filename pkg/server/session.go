package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vtree"
	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("server: session closed")

// Session owns one live tree and the node tree it was last patched to.
//
// Cycles, events and subscriber changes are serialized by the session
// mutex, so patches are applied and broadcast in cycle order. Snapshots are
// written outside it, under persistMu; the latest key never moves back to an
// older cycle.
type Session struct {
	id       string
	engine   *vtree.Engine
	store    snapshot.Store
	config   *Config
	logger   *slog.Logger
	metrics  *Metrics
	dispatch live.Dispatch
	upgrader websocket.Upgrader
	renderer *render.Renderer
	history  *PatchHistory

	mu      sync.Mutex
	doc     *dom.Document
	root    *dom.Node
	tree    *vdom.VNode
	cycle   uint64
	pending []message
	subs    map[*subscriber]struct{}
	closed  bool

	persistMu sync.Mutex
	persisted uint64
}

type message struct {
	msg  any
	sync bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithEngine sets the engine running the session cycles.
// Default: vtree.New() with the session logger.
func WithEngine(e *vtree.Engine) SessionOption {
	return func(s *Session) {
		s.engine = e
	}
}

// WithStore persists a snapshot of every cycle to store.
func WithStore(store snapshot.Store) SessionOption {
	return func(s *Session) {
		s.store = store
	}
}

// WithConfig sets the session configuration. Unset fields keep their
// defaults.
func WithConfig(cfg *Config) SessionOption {
	return func(s *Session) {
		s.config = cfg
	}
}

// WithLogger sets the session logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics records server metrics into m.
func WithMetrics(m *Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithDispatch receives the messages produced by handled events.
func WithDispatch(fn live.Dispatch) SessionOption {
	return func(s *Session) {
		s.dispatch = fn
	}
}

// NewSession renders initial into a fresh document and returns a session
// at cycle 0.
func NewSession(ctx context.Context, id string, initial *vdom.VNode, opts ...SessionOption) *Session {
	s := &Session{
		id:   id,
		doc:  dom.NewDocument(),
		tree: initial,
		subs: make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.config = s.config.withDefaults()
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "server", "session_id", id)
	if s.engine == nil {
		s.engine = vtree.New(vtree.WithLogger(s.logger))
	}
	s.history = NewPatchHistory(s.config.MaxPatchHistory)
	s.renderer = render.NewRenderer(render.RendererConfig{})
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  s.config.ReadBufferSize,
		WriteBufferSize: s.config.WriteBufferSize,
		CheckOrigin:     s.config.CheckOrigin,
	}

	s.root = s.engine.Render(ctx, s.doc, initial, s.collect)
	s.persist(ctx, 0, initial)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Cycle returns the current cycle.
func (s *Session) Cycle() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle
}

// Tree returns the node tree of the current cycle.
func (s *Session) Tree() *vdom.VNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Subscribers returns the number of connected subscribers.
func (s *Session) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Update moves the session to next: it diffs against the current tree,
// patches the live tree, broadcasts the patches frame and persists a
// snapshot. It returns the new cycle.
//
// A tree that has no wire form is still applied locally; subscribers are
// then sent a fatal error and disconnected, and the encode error is
// returned.
func (s *Session) Update(ctx context.Context, next *vdom.VNode) (uint64, error) {
	cycle, err := s.update(ctx, next)
	if err == nil {
		s.persist(ctx, cycle, next)
	}
	return cycle, err
}

func (s *Session) update(ctx context.Context, next *vdom.VNode) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.cycle, ErrSessionClosed
	}

	root, patches := s.engine.Update(ctx, s.root, s.tree, next, s.collect)
	s.root, s.tree = root, next
	s.cycle++

	frame, err := (&protocol.PatchesFrame{Cycle: s.cycle, Patches: patches}).Encode()
	if err != nil {
		s.logger.Warn("patches not encodable", "cycle", s.cycle, verrors.Attr(err))
		s.history.Clear()
		s.disconnectAll(fatalFrame(err))
		return s.cycle, err
	}
	data := frame.Encode()
	s.history.Add(s.cycle, data)
	s.broadcast(data)

	s.logger.Debug("cycle", "cycle", s.cycle, "patches", len(patches), "subscribers", len(s.subs))
	return s.cycle, nil
}

// HandleEvent dispatches ev to the live node at its pre-order target index.
// Messages produced by the node's listeners are passed to the session
// dispatch function after the session lock is released, so the dispatch
// function may call Update.
func (s *Session) HandleEvent(ev *protocol.Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	target := dom.NodeAt(s.root, ev.Target)
	if target == nil {
		s.mu.Unlock()
		s.metrics.event("not_found")
		return verrors.New("E204").WithDetail(fmt.Sprintf("no node at index %d for %q", ev.Target, ev.Type))
	}
	target.DispatchEvent(dom.NewEvent(ev.Type, ev.Payload))
	msgs := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.metrics.event("dispatched")
	if s.dispatch != nil {
		for _, m := range msgs {
			s.dispatch(m.msg, m.sync)
		}
	}
	return nil
}

// collect is the root dispatch of the live tree. Listeners only run inside
// HandleEvent, which holds the session lock.
func (s *Session) collect(msg any, sync bool) {
	s.pending = append(s.pending, message{msg: msg, sync: sync})
}

// Snapshot returns the encoded snapshot frame of the current cycle.
func (s *Session) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotFrame()
}

func (s *Session) snapshotFrame() ([]byte, error) {
	frame, err := (&protocol.SnapshotFrame{Cycle: s.cycle, Node: s.tree}).Encode()
	if err != nil {
		return nil, err
	}
	return frame.Encode(), nil
}

// RenderPage writes the current live tree as a complete HTML page whose
// socket URL is socketURL.
func (s *Session) RenderPage(w io.Writer, socketURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.RenderPage(w, render.PageData{
		Body:      s.root,
		Title:     s.config.Title,
		SocketURL: socketURL,
		Cycle:     s.cycle,
	})
}

// Close disconnects every subscriber. Later updates and events fail with
// ErrSessionClosed. The store is not closed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.disconnectAll(nil)
}

// persist saves node as the snapshot of cycle. Callers must not hold s.mu.
func (s *Session) persist(ctx context.Context, cycle uint64, node *vdom.VNode) {
	if s.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	var err error
	if cycle < s.persisted {
		err = snapshot.SaveCycle(ctx, s.store, s.id, cycle, node)
	} else {
		err = snapshot.SaveTree(ctx, s.store, s.id, cycle, node)
		s.persisted = cycle
	}
	if err != nil {
		s.logger.Warn("snapshot failed", "cycle", cycle, verrors.Attr(err))
	}
}

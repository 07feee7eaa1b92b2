package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// counter renders as div(0) > button(1) > "+"(2), span(3) > text(4).
func counter(n int) *vdom.VNode {
	return vdom.Div(
		vdom.ID("counter"),
		vdom.Button(vdom.OnClick("inc"), "+"),
		vdom.Span(vdom.Textf("%d", n)),
	)
}

func html(t *testing.T, n *dom.Node) string {
	t.Helper()
	out, err := render.NewRenderer(render.RendererConfig{}).RenderToString(n)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

type widget struct{}

func (widget) Render(doc *dom.Document, state any) *dom.Node { return doc.CreateTextNode("w") }

func (widget) Diff(oldState, newState any) vdom.CustomPatch { return nil }

type failingStore struct{ snapshot.Store }

func (failingStore) Save(ctx context.Context, key string, data []byte) error {
	return errors.New("disk full")
}

func TestNewSession(t *testing.T) {
	store := snapshot.NewMemoryStore()
	s := NewSession(context.Background(), "s1", counter(0), WithLogger(testLogger()), WithStore(store))

	if s.ID() != "s1" || s.Cycle() != 0 {
		t.Errorf("ID, Cycle = %q, %d", s.ID(), s.Cycle())
	}
	if s.Subscribers() != 0 {
		t.Errorf("Subscribers = %d", s.Subscribers())
	}

	snap, err := snapshot.LoadTree(context.Background(), store, snapshot.Key("s1", 0))
	if err != nil {
		t.Fatalf("initial snapshot: %v", err)
	}
	if snap.Cycle != 0 {
		t.Errorf("snapshot cycle = %d", snap.Cycle)
	}
}

func TestSessionUpdate(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	s := NewSession(ctx, "s1", counter(0), WithLogger(testLogger()), WithStore(store))

	for i := 1; i <= 3; i++ {
		cycle, err := s.Update(ctx, counter(i))
		if err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
		if cycle != uint64(i) {
			t.Errorf("cycle = %d, want %d", cycle, i)
		}
	}

	var page bytes.Buffer
	if err := s.RenderPage(&page, PathSocket); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(page.Bytes(), []byte("<span>3</span>")) {
		t.Errorf("page does not show the last cycle:\n%s", page.String())
	}

	latest, err := snapshot.LoadLatest(ctx, store, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Cycle != 3 {
		t.Errorf("latest snapshot cycle = %d, want 3", latest.Cycle)
	}
	if got := len(store.Keys("s1/")); got != 5 {
		t.Errorf("stored %d keys, want 4 cycles and latest", got)
	}
	if s.history.MaxCycle() != 3 || s.history.Count() != 3 {
		t.Errorf("history holds cycles up to %d (%d frames)", s.history.MaxCycle(), s.history.Count())
	}
}

func TestSessionUpdatePersistFailure(t *testing.T) {
	ctx := context.Background()
	s := NewSession(ctx, "s1", counter(0), WithLogger(testLogger()), WithStore(failingStore{}))

	if _, err := s.Update(ctx, counter(1)); err != nil {
		t.Errorf("Update should not fail on snapshot errors: %v", err)
	}
	if s.Cycle() != 1 {
		t.Errorf("Cycle = %d", s.Cycle())
	}
}

// gatedStore holds every Save while gated until release is closed.
type gatedStore struct {
	*snapshot.MemoryStore
	gated   atomic.Bool
	entered chan string
	release chan struct{}
}

func (g *gatedStore) Save(ctx context.Context, key string, data []byte) error {
	if g.gated.Load() {
		g.entered <- key
		<-g.release
	}
	return g.MemoryStore.Save(ctx, key, data)
}

func TestSessionPersistOutsideLock(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{
		MemoryStore: snapshot.NewMemoryStore(),
		entered:     make(chan string),
		release:     make(chan struct{}),
	}
	s := NewSession(ctx, "s1", counter(0), WithLogger(testLogger()), WithStore(store))
	store.gated.Store(true)

	done := make(chan error, 1)
	go func() {
		_, err := s.Update(ctx, counter(1))
		done <- err
	}()
	if key := <-store.entered; key != snapshot.Key("s1", 1) {
		t.Errorf("first save to %q", key)
	}

	free := make(chan uint64, 1)
	go func() {
		if err := s.HandleEvent(&protocol.Event{Target: 1, Type: "click"}); err != nil {
			t.Errorf("HandleEvent: %v", err)
		}
		if _, err := s.Snapshot(); err != nil {
			t.Errorf("Snapshot: %v", err)
		}
		free <- s.Cycle()
	}()
	select {
	case cycle := <-free:
		if cycle != 1 {
			t.Errorf("Cycle = %d while persisting, want 1", cycle)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session blocked while a snapshot was written")
	}

	store.gated.Store(false)
	close(store.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	latest, err := snapshot.LoadLatest(ctx, store, "s1")
	if err != nil || latest.Cycle != 1 {
		t.Errorf("latest = %+v, %v", latest, err)
	}
}

func TestSessionPersistOrder(t *testing.T) {
	ctx := context.Background()
	store := snapshot.NewMemoryStore()
	s := NewSession(ctx, "s1", counter(0), WithLogger(testLogger()), WithStore(store))

	// cycle 2 finishing its write after cycle 3
	s.persist(ctx, 3, counter(3))
	s.persist(ctx, 2, counter(2))

	latest, err := snapshot.LoadLatest(ctx, store, "s1")
	if err != nil || latest.Cycle != 3 {
		t.Errorf("latest = %+v, %v", latest, err)
	}
	if snap, err := snapshot.LoadTree(ctx, store, snapshot.Key("s1", 2)); err != nil || snap.Cycle != 2 {
		t.Errorf("cycle 2 = %+v, %v", snap, err)
	}
}

func TestSessionUpdateNotEncodable(t *testing.T) {
	ctx := context.Background()
	s := NewSession(ctx, "s1", counter(0), WithLogger(testLogger()))
	s.history.Add(0, []byte{1})

	next := vdom.Div(vdom.Custom(nil, 1, widget{}))
	cycle, err := s.Update(ctx, next)
	if !verrors.Is(err, "E202") {
		t.Fatalf("err = %v, want E202", err)
	}
	if cycle != 1 || s.Tree() != next {
		t.Error("the live tree should still move to the new cycle")
	}
	if s.history.Count() != 0 {
		t.Error("history should be cleared")
	}
	if _, err := s.Snapshot(); !verrors.Is(err, "E202") {
		t.Errorf("Snapshot err = %v, want E202", err)
	}
}

func TestSessionHandleEvent(t *testing.T) {
	ctx := context.Background()

	var (
		mu   sync.Mutex
		msgs []any
		s    *Session
	)
	s = NewSession(ctx, "s1", counter(0),
		WithLogger(testLogger()),
		WithDispatch(func(msg any, sync bool) {
			mu.Lock()
			msgs = append(msgs, msg)
			n := len(msgs)
			mu.Unlock()
			// dispatch may start the next cycle
			if _, err := s.Update(ctx, counter(n)); err != nil {
				t.Errorf("Update from dispatch: %v", err)
			}
		}),
	)

	if err := s.HandleEvent(&protocol.Event{Target: 1, Type: "click"}); err != nil {
		t.Fatal(err)
	}
	if err := s.HandleEvent(&protocol.Event{Target: 2, Type: "click"}); err != nil {
		t.Fatal(err) // bubbles from the text node to the button
	}

	mu.Lock()
	defer mu.Unlock()
	if len(msgs) != 2 || msgs[0] != "inc" || msgs[1] != "inc" {
		t.Errorf("messages = %v", msgs)
	}
	if s.Cycle() != 2 {
		t.Errorf("Cycle = %d, want 2", s.Cycle())
	}
}

func TestSessionHandleEventErrors(t *testing.T) {
	s := NewSession(context.Background(), "s1", counter(0), WithLogger(testLogger()))

	err := s.HandleEvent(&protocol.Event{Target: 99, Type: "click"})
	if !verrors.Is(err, "E204") {
		t.Errorf("err = %v, want E204", err)
	}

	// no listener for this type: not an error
	if err := s.HandleEvent(&protocol.Event{Target: 1, Type: "keydown"}); err != nil {
		t.Errorf("unhandled type: %v", err)
	}
}

func TestSessionClose(t *testing.T) {
	ctx := context.Background()
	s := NewSession(ctx, "s1", counter(0), WithLogger(testLogger()))
	s.Close()
	s.Close()

	if _, err := s.Update(ctx, counter(1)); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Update err = %v", err)
	}
	if err := s.HandleEvent(&protocol.Event{Target: 1, Type: "click"}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("HandleEvent err = %v", err)
	}
}

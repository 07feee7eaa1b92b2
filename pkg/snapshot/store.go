package snapshot

import (
	"context"
	"fmt"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Store defines the interface for snapshot persistence backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save persists data under key, overwriting any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Load retrieves the data saved under key. A missing key yields an
	// E511 error.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Key returns the store key of a session's tree at cycle.
func Key(session string, cycle uint64) string {
	return fmt.Sprintf("%s/%010d", session, cycle)
}

// LatestKey returns the store key of a session's newest tree.
func LatestKey(session string) string {
	return session + "/latest"
}

// SaveTree encodes node as a snapshot frame and saves it under both the
// cycle key and the latest key of session.
func SaveTree(ctx context.Context, s Store, session string, cycle uint64, node *vdom.VNode) error {
	return saveTree(ctx, s, cycle, node, Key(session, cycle), LatestKey(session))
}

// SaveCycle saves node under the cycle key only, leaving the latest key to
// a newer cycle.
func SaveCycle(ctx context.Context, s Store, session string, cycle uint64, node *vdom.VNode) error {
	return saveTree(ctx, s, cycle, node, Key(session, cycle))
}

func saveTree(ctx context.Context, s Store, cycle uint64, node *vdom.VNode, keys ...string) error {
	frame, err := (&protocol.SnapshotFrame{Cycle: cycle, Node: node}).Encode()
	if err != nil {
		return err
	}
	data := frame.Encode()
	for _, key := range keys {
		if err := s.Save(ctx, key, data); err != nil {
			return verrors.FromError(err, "E510").WithDetail("key " + key)
		}
	}
	return nil
}

// LoadTree loads and decodes the snapshot saved under key.
func LoadTree(ctx context.Context, s Store, key string) (*protocol.SnapshotFrame, error) {
	data, err := s.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		return nil, verrors.New("E201").Wrap(err)
	}
	if frame.Type != protocol.FrameSnapshot {
		return nil, verrors.New("E201").WithDetail("expected a snapshot frame, got " + frame.Type.String())
	}
	sf, err := protocol.DecodeSnapshotFrame(frame.Payload)
	if err != nil {
		return nil, verrors.New("E201").Wrap(err)
	}
	return sf, nil
}

// LoadLatest loads the newest snapshot of session.
func LoadLatest(ctx context.Context, s Store, session string) (*protocol.SnapshotFrame, error) {
	return LoadTree(ctx, s, LatestKey(session))
}

func notFound(key string) error {
	return verrors.New("E511").WithDetail("no snapshot under " + key)
}

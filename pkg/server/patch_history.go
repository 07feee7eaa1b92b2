package server

import (
	"sync"
	"time"
)

// PatchHistoryEntry stores a broadcast patches frame for replay.
type PatchHistoryEntry struct {
	Cycle  uint64    // Cycle the frame moves a subscriber to
	Frame  []byte    // Encoded FramePatches
	SentAt time.Time // When the frame was broadcast
}

// PatchHistory is a thread-safe ring buffer of recent patches frames.
//
// A subscriber reconnecting with the last cycle it applied is sent the
// missing frames instead of a fresh snapshot, as long as they are still in
// the buffer. The oldest frames are overwritten when the buffer is full.
type PatchHistory struct {
	mu       sync.RWMutex
	entries  []*PatchHistoryEntry
	head     int    // Next write position
	count    int    // Current number of entries
	capacity int    // Max entries
	minCycle uint64 // Lowest cycle in buffer
	maxCycle uint64 // Highest cycle in buffer
}

// NewPatchHistory creates a patch history holding up to capacity frames.
func NewPatchHistory(capacity int) *PatchHistory {
	if capacity <= 0 {
		capacity = DefaultConfig().MaxPatchHistory
	}
	return &PatchHistory{
		entries:  make([]*PatchHistoryEntry, capacity),
		capacity: capacity,
	}
}

// Add stores the frame that moves subscribers to cycle. Cycles must be added
// in increasing order. The frame bytes are copied.
func (h *PatchHistory) Add(cycle uint64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = &PatchHistoryEntry{
		Cycle:  cycle,
		Frame:  append([]byte(nil), frame...),
		SentAt: time.Now(),
	}
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}

	h.maxCycle = cycle
	if h.count == 1 {
		h.minCycle = cycle
	} else if h.count == h.capacity {
		// head now points at the oldest entry
		if oldest := h.entries[h.head]; oldest != nil {
			h.minCycle = oldest.Cycle
		}
	}
}

// Frames returns the frames for cycles (after, to], oldest first.
// It returns nil if any cycle in the range is missing.
func (h *PatchHistory) Frames(after, to uint64) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 || after+1 < h.minCycle || to > h.maxCycle || after >= to {
		return nil
	}

	byCycle := make(map[uint64][]byte, h.count)
	for i := 0; i < h.count; i++ {
		idx := (h.head - h.count + i + h.capacity) % h.capacity
		if e := h.entries[idx]; e != nil {
			byCycle[e.Cycle] = e.Frame
		}
	}

	frames := make([][]byte, 0, to-after)
	for c := after + 1; c <= to; c++ {
		frame, ok := byCycle[c]
		if !ok {
			return nil
		}
		frames = append(frames, frame)
	}
	return frames
}

// CanRecover reports whether every frame after cycle is still buffered.
func (h *PatchHistory) CanRecover(cycle uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return false
	}
	return cycle+1 >= h.minCycle && cycle < h.maxCycle
}

// MinCycle returns the oldest buffered cycle.
func (h *PatchHistory) MinCycle() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.minCycle
}

// MaxCycle returns the newest buffered cycle.
func (h *PatchHistory) MaxCycle() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maxCycle
}

// Count returns the number of buffered frames.
func (h *PatchHistory) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Clear removes all entries.
func (h *PatchHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.entries {
		h.entries[i] = nil
	}
	h.head = 0
	h.count = 0
	h.minCycle = 0
	h.maxCycle = 0
}

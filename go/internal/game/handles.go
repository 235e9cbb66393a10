package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Handle references a loaded asset held by the HandleRegistry. It stays valid
// until released.
type Handle struct {
	ID   string `json:"id"`
	Ref  string `json:"ref"`
	Size int    `json:"size"`
}

// HandleRegistry is the arena owning every loaded asset. Each Acquire must be
// matched by exactly one Release.
type HandleRegistry struct {
	mu     sync.Mutex
	live   map[string][]byte
	closed bool
}

// NewHandleRegistry creates an empty registry
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{
		live: make(map[string][]byte),
	}
}

// Acquire stores data and returns the handle that owns it.
func (r *HandleRegistry) Acquire(ref string, data []byte) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Handle{}, ErrRegistryClosed
	}

	h := Handle{
		ID:   "blob:" + uuid.New().String(),
		Ref:  ref,
		Size: len(data),
	}
	r.live[h.ID] = data
	return h, nil
}

// Release frees the asset behind h. Releasing twice is an error.
func (r *HandleRegistry) Release(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live[h.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrHandleNotLive, h.ID)
	}
	delete(r.live, h.ID)
	return nil
}

// Bytes returns the asset behind a live handle.
func (r *HandleRegistry) Bytes(h Handle) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.live[h.ID]
	return data, ok
}

// Live returns the number of handles not yet released.
func (r *HandleRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// ReleaseAll frees every live handle and returns how many there were.
func (r *HandleRegistry) ReleaseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.live)
	clear(r.live)
	return n
}

// Close releases everything and refuses further acquisitions.
func (r *HandleRegistry) Close() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.live)
	clear(r.live)
	r.closed = true
	return n
}

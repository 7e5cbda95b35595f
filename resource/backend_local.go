package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed = errors.New("resource backend closed")
	ErrFull   = errors.New("resource backend full")
)

// A handle packs a slot number in the low bits and the slot's generation in
// the high bits. Freed slots are reused with the next generation, so a stale
// handle no longer resolves.
const (
	slotBits = 24
	slotMask = 1<<slotBits - 1
	maxSlots = slotMask - 1
)

func makeHandle(slot int, gen uint8) Handle {
	return Handle(gen)<<slotBits | Handle(slot)
}

// LocalBackend is an in-memory backend. Freed slots are reused under a new
// generation.
type LocalBackend struct {
	entries  []entry
	freeList []int
	live     int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value any
	kind  Kind
	gen   uint8
	valid bool
}

// NewLocalBackend creates an empty backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 16),
		freeList: make([]int, 0, 8),
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(kind Kind, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	if len(b.freeList) > 0 {
		slot := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		e := &b.entries[slot-1]
		*e = entry{kind: kind, value: value, gen: e.gen, valid: true}
		b.live++
		return makeHandle(slot, e.gen), nil
	}

	if len(b.entries) >= maxSlots {
		return 0, ErrFull
	}
	b.entries = append(b.entries, entry{kind: kind, value: value, valid: true})
	b.live++
	return makeHandle(len(b.entries), 0), nil
}

// lookup returns the entry for handle. Callers hold mu.
func (b *LocalBackend) lookup(handle Handle) (*entry, bool) {
	slot := int(handle & slotMask)
	if slot == 0 || slot > len(b.entries) {
		return nil, false
	}
	e := &b.entries[slot-1]
	if !e.valid || e.gen != uint8(handle>>slotBits) {
		return nil, false
	}
	return e, true
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Kind returns the kind the handle was issued with.
func (b *LocalBackend) Kind(handle Handle) (Kind, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle)
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// Drop removes an entry and returns its value.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.lookup(handle)
	if !ok {
		return nil, false
	}

	value := e.value
	*e = entry{gen: e.gen + 1}
	b.live--
	b.freeList = append(b.freeList, int(handle&slotMask))
	return value, true
}

// Close drops every entry, calling Drop on values that implement Dropper.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if !b.entries[i].valid {
			continue
		}
		if d, ok := b.entries[i].value.(Dropper); ok {
			d.Drop()
		}
	}

	b.entries = nil
	b.freeList = nil
	b.live = 0
	return nil
}

// Len returns the number of live entries.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// Each iterates over live entries in handle order until fn returns false.
func (b *LocalBackend) Each(fn func(Handle, Kind, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid && !fn(makeHandle(i+1, e.gen), e.kind, e.value) {
			return
		}
	}
}

var _ Backend = (*LocalBackend)(nil)

package refs

import (
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Handle is an opaque reference to an engine value in a table.
// Handle 0 is reserved and always invalid. A handle packs a slot index and a
// generation counter so a stale handle never resolves to a recycled slot.
type Handle int32

const (
	indexBits = 20
	indexMask = (1 << indexBits) - 1
	genBits   = 11
	genMask   = (1 << genBits) - 1

	// MaxLive is the number of simultaneously live references a table
	// supports, bounded by the index width of Handle.
	MaxLive = indexMask - 1
)

func makeHandle(idx int, gen uint32) Handle {
	return Handle(int32(gen&genMask)<<indexBits | int32(idx+1))
}

func splitHandle(h Handle) (idx int, gen uint32, ok bool) {
	if h <= 0 {
		return 0, 0, false
	}
	idx = int(h&indexMask) - 1
	gen = uint32(h>>indexBits) & genMask
	return idx, gen, idx >= 0
}

// Event types for reference lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRetained
	EventReleased
	EventDropped
)

// Event represents a reference lifecycle event.
type Event struct {
	Value  lua.LValue
	Handle Handle
	Count  uint32
	Type   EventType
}

// Observer receives notifications about reference lifecycle events.
type Observer interface {
	OnRefEvent(Event)
}

type entry struct {
	value lua.LValue
	count uint32
	gen   uint32
	valid bool
}

// Table is a ref-counted arena of engine values indexed by
// generation-checked handles. Holding the value in the table pins it for the
// engine's collector; dropping the last reference unpins it.
type Table struct {
	entries   []entry
	freeList  []int
	observers []Observer
	mu        sync.RWMutex
	closed    bool
}

// NewTable creates an empty reference table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]int, 0, 16),
	}
}

// Create stores a value with an initial count of one and returns its handle.
// Returns 0 when the table is closed or full.
func (t *Table) Create(v lua.LValue) Handle {
	t.mu.Lock()

	if t.closed {
		t.mu.Unlock()
		return 0
	}

	var idx int
	if n := len(t.freeList); n > 0 {
		idx = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		gen := t.entries[idx].gen
		t.entries[idx] = entry{value: v, count: 1, gen: gen, valid: true}
	} else {
		if len(t.entries) >= MaxLive {
			t.mu.Unlock()
			return 0
		}
		idx = len(t.entries)
		t.entries = append(t.entries, entry{value: v, count: 1, valid: true})
	}

	h := makeHandle(idx, t.entries[idx].gen)
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Value: v, Count: 1})
	return h
}

// Get retrieves a value by handle. A handle with a stale generation or a
// drained count resolves to nothing.
func (t *Table) Get(h Handle) (lua.LValue, bool) {
	idx, gen, ok := splitHandle(h)
	if !ok {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if idx >= len(t.entries) {
		return nil, false
	}
	e := t.entries[idx]
	if !e.valid || e.gen&genMask != gen {
		return nil, false
	}
	return e.value, true
}

// Retain increments the reference count and returns the (equivalent) handle.
// Returns false if the handle is invalid.
func (t *Table) Retain(h Handle) (Handle, bool) {
	idx, gen, ok := splitHandle(h)
	if !ok {
		return 0, false
	}

	t.mu.Lock()
	if idx >= len(t.entries) {
		t.mu.Unlock()
		return 0, false
	}
	e := &t.entries[idx]
	if !e.valid || e.gen&genMask != gen {
		t.mu.Unlock()
		return 0, false
	}
	e.count++
	v, c := e.value, e.count
	t.mu.Unlock()

	t.notify(Event{Type: EventRetained, Handle: h, Value: v, Count: c})
	return h, true
}

// Release decrements the reference count. When the count reaches zero the
// slot is freed, its generation bumped, and the value becomes eligible for
// collection. Returns false if the handle is invalid.
func (t *Table) Release(h Handle) bool {
	idx, gen, ok := splitHandle(h)
	if !ok {
		return false
	}

	t.mu.Lock()
	if idx >= len(t.entries) {
		t.mu.Unlock()
		return false
	}
	e := &t.entries[idx]
	if !e.valid || e.gen&genMask != gen {
		t.mu.Unlock()
		return false
	}

	e.count--
	if e.count > 0 {
		v, c := e.value, e.count
		t.mu.Unlock()
		t.notify(Event{Type: EventReleased, Handle: h, Value: v, Count: c})
		return true
	}

	v := e.value
	e.valid = false
	e.value = nil
	e.gen++
	// A saturated generation would wrap and let a long-held stale handle
	// alias the slot's next occupant; retire the slot instead of reusing it.
	if e.gen <= genMask {
		t.freeList = append(t.freeList, idx)
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventReleased, Handle: h, Value: v, Count: 0})
	t.notify(Event{Type: EventDropped, Handle: h, Value: v, Count: 0})
	return true
}

// Count returns the current reference count for a handle.
func (t *Table) Count(h Handle) (uint32, bool) {
	idx, gen, ok := splitHandle(h)
	if !ok {
		return 0, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if idx >= len(t.entries) {
		return 0, false
	}
	e := t.entries[idx]
	if !e.valid || e.gen&genMask != gen {
		return 0, false
	}
	return e.count, true
}

// Len returns the number of live references.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for i := range t.entries {
		if t.entries[i].valid {
			count++
		}
	}
	return count
}

// Each iterates over all live references.
func (t *Table) Each(fn func(Handle, lua.LValue) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.entries {
		if e := t.entries[i]; e.valid {
			if !fn(makeHandle(i, e.gen), e.value) {
				break
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close drops all references and stops accepting operations.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	for i := range t.entries {
		if t.entries[i].valid {
			t.entries[i].valid = false
			t.entries[i].value = nil
		}
	}
	t.entries = nil
	t.freeList = nil
	return nil
}

func (t *Table) notify(e Event) {
	t.mu.RLock()
	obs := t.observers
	t.mu.RUnlock()
	for _, o := range obs {
		o.OnRefEvent(e)
	}
}

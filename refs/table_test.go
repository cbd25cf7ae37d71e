package refs

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnRefEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := table.Create(lua.LString("callable"))
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	v, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if v != lua.LString("callable") {
		t.Fatalf("Expected interned value, got %v", v)
	}

	if c, _ := table.Count(h); c != 1 {
		t.Fatalf("Fresh handle count = %d, want 1", c)
	}

	if !table.Release(h) {
		t.Fatal("Release failed")
	}
	if table.Len() != 0 {
		t.Fatal("Expected empty table after final release")
	}
}

func TestTable_RefCountDiscipline(t *testing.T) {
	table := NewTable()
	h := table.Create(lua.LNumber(1))

	// Net count 3: create + 2 retains.
	if _, ok := table.Retain(h); !ok {
		t.Fatal("Retain failed")
	}
	if _, ok := table.Retain(h); !ok {
		t.Fatal("Retain failed")
	}

	for i := 0; i < 2; i++ {
		if !table.Release(h) {
			t.Fatalf("Release %d failed", i)
		}
		if _, ok := table.Get(h); !ok {
			t.Fatalf("Handle should stay valid while count > 0 (release %d)", i)
		}
	}

	if !table.Release(h) {
		t.Fatal("Final release failed")
	}

	// Count reached zero: every further use must fail.
	if _, ok := table.Get(h); ok {
		t.Fatal("Get after final release should fail")
	}
	if _, ok := table.Retain(h); ok {
		t.Fatal("Retain after final release should fail")
	}
	if table.Release(h) {
		t.Fatal("Release after final release should fail")
	}
}

func TestTable_GenerationGuard(t *testing.T) {
	table := NewTable()

	stale := table.Create(lua.LString("old"))
	table.Release(stale)

	// The freed slot is recycled with a bumped generation.
	fresh := table.Create(lua.LString("new"))
	if fresh == stale {
		t.Fatal("Recycled slot must not reissue the stale handle")
	}

	if _, ok := table.Get(stale); ok {
		t.Fatal("Stale handle must not resolve to the slot's next occupant")
	}
	if v, ok := table.Get(fresh); !ok || v != lua.LString("new") {
		t.Fatalf("Fresh handle should resolve, got %v, %v", v, ok)
	}
}

func TestTable_GenerationNeverWraps(t *testing.T) {
	table := NewTable()

	stale := table.Create(lua.LNumber(0))
	table.Release(stale)

	// Churn one logical slot far past the generation field width. Every
	// handle must stay unique; a wrap would reissue an old handle value.
	seen := map[Handle]struct{}{stale: {}}
	for i := 0; i < 3*(genMask+1); i++ {
		h := table.Create(lua.LNumber(i))
		if h == 0 {
			t.Fatalf("Create failed at cycle %d", i)
		}
		if _, dup := seen[h]; dup {
			t.Fatalf("Handle %d reissued at cycle %d", h, i)
		}
		seen[h] = struct{}{}
		table.Release(h)
	}

	if _, ok := table.Get(stale); ok {
		t.Fatal("Stale handle resolved after heavy slot churn")
	}
}

func TestTable_InvalidHandles(t *testing.T) {
	table := NewTable()
	table.Create(lua.LNumber(7))

	for _, h := range []Handle{0, -1, 1 << 30} {
		if _, ok := table.Get(h); ok {
			t.Errorf("Get(%d) should fail", h)
		}
		if _, ok := table.Retain(h); ok {
			t.Errorf("Retain(%d) should fail", h)
		}
		if table.Release(h) {
			t.Errorf("Release(%d) should fail", h)
		}
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Create(lua.LNumber(1))
	table.Retain(h)
	table.Release(h)
	table.Release(h)

	want := []EventType{EventCreated, EventRetained, EventReleased, EventReleased, EventDropped}
	if len(obs.events) != len(want) {
		t.Fatalf("Got %d events, want %d", len(obs.events), len(want))
	}
	for i, e := range obs.events {
		if e.Type != want[i] {
			t.Errorf("Event %d type = %v, want %v", i, e.Type, want[i])
		}
	}

	table.Unsubscribe(obs)
	table.Create(lua.LNumber(2))
	if len(obs.events) != len(want) {
		t.Error("Unsubscribed observer still notified")
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	h := table.Create(lua.LNumber(1))

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := table.Close(); err != nil {
		t.Fatalf("Second close should be a no-op: %v", err)
	}

	if _, ok := table.Get(h); ok {
		t.Fatal("Get after close should fail")
	}
	if table.Create(lua.LNumber(2)) != 0 {
		t.Fatal("Create after close should return 0")
	}
}

func TestTable_SlotReuse(t *testing.T) {
	table := NewTable()

	handles := make([]Handle, 100)
	for i := range handles {
		handles[i] = table.Create(lua.LNumber(i))
	}
	for _, h := range handles {
		table.Release(h)
	}
	if table.Len() != 0 {
		t.Fatalf("Len = %d after releasing all", table.Len())
	}

	// Slots are recycled rather than growing the arena.
	again := make([]Handle, 100)
	for i := range again {
		again[i] = table.Create(lua.LNumber(i))
		if again[i] == 0 {
			t.Fatal("Create failed on recycled slot")
		}
	}
	if table.Len() != 100 {
		t.Fatalf("Len = %d, want 100", table.Len())
	}
}

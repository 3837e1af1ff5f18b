package core

import "testing"

type recordingSystem struct {
	name     string
	priority int
	log      *[]string
}

func (s *recordingSystem) Update(w *World, dt float64) {
	*s.log = append(*s.log, s.name)
}

func (s *recordingSystem) Priority() int { return s.priority }

func TestSpawnAssignsFreshIDs(t *testing.T) {
	w := NewWorld(20)
	a := w.Spawn()
	b := w.Spawn()
	if a == b {
		t.Fatalf("Spawn returned duplicate id %d", a)
	}
	if !w.Exists(a) || !w.Exists(b) {
		t.Fatal("spawned entities should exist")
	}

	// IDs stay unique even after the first entity is gone.
	w.Destroy(a)
	w.Tick(0.05)
	c := w.Spawn()
	if c == a || c == b {
		t.Fatalf("id %d reused after removal", c)
	}
}

func TestQueryMatchesAllTypes(t *testing.T) {
	w := NewWorld(20)

	full := w.Spawn()
	w.Attach(full, &Position{X: 1})
	w.Attach(full, &Health{Current: 10, Max: 10})

	posOnly := w.Spawn()
	w.Attach(posOnly, &Position{X: 2})

	got := w.Query(CompPosition, CompHealth)
	if len(got) != 1 || got[0] != full {
		t.Fatalf("Query(CompPosition, CompHealth) = %v, want [%d]", got, full)
	}
	if got := w.Query(CompPosition); len(got) != 2 {
		t.Fatalf("Query(CompPosition) = %v, want both entities", got)
	}
}

func TestQueryFollowsCreationOrder(t *testing.T) {
	w := NewWorld(20)
	var want []EntityID
	for i := 0; i < 8; i++ {
		id := w.Spawn()
		w.Attach(id, &Position{})
		want = append(want, id)
	}

	for run := 0; run < 5; run++ {
		got := w.Query(CompPosition)
		if len(got) != len(want) {
			t.Fatalf("run %d: got %d ids, want %d", run, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("run %d: Query order %v, want %v", run, got, want)
			}
		}
	}

	// Removing from the middle keeps the rest in order.
	w.Destroy(want[3])
	w.Tick(0.05)
	got := w.Query(CompPosition)
	want = append(want[:3], want[4:]...)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("after removal: Query order %v, want %v", got, want)
		}
	}
}

func TestDestroyIsDeferredToEndOfTick(t *testing.T) {
	w := NewWorld(20)
	id := w.Spawn()
	w.Attach(id, &Position{})

	w.Destroy(id)
	if !w.Exists(id) {
		t.Fatal("entity should survive until the tick ends")
	}
	if got := w.Query(CompPosition); len(got) != 1 {
		t.Fatalf("Query before flush = %v, want the doomed entity", got)
	}

	w.Tick(0.05)
	if w.Exists(id) {
		t.Fatal("entity should be gone after the tick")
	}
	if got := w.Query(CompPosition); len(got) != 0 {
		t.Fatalf("Query after flush = %v, want empty", got)
	}
}

func TestSystemsRunInPriorityOrder(t *testing.T) {
	w := NewWorld(20)
	var log []string
	w.AddSystem(&recordingSystem{name: "late", priority: 50, log: &log})
	w.AddSystem(&recordingSystem{name: "early", priority: 5, log: &log})
	w.AddSystem(&recordingSystem{name: "mid", priority: 20, log: &log})

	w.Tick(0.05)

	want := []string{"early", "mid", "late"}
	if len(log) != len(want) {
		t.Fatalf("ran %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("ran %v, want %v", log, want)
		}
	}
}

func TestDetachRemovesComponent(t *testing.T) {
	w := NewWorld(20)
	id := w.Spawn()
	w.Attach(id, &Position{})
	w.Attach(id, &Mover{Speed: 3})

	w.Detach(id, CompMover)
	if w.Has(id, CompMover) {
		t.Fatal("mover should be detached")
	}
	if w.Get(id, CompMover) != nil {
		t.Fatal("Get after Detach should return nil")
	}
	if !w.Has(id, CompPosition) {
		t.Fatal("other components should be untouched")
	}
}

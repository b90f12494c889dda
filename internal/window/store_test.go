package window

import (
	"sync"
	"testing"
	"time"
)

func ts(i int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second)
}

func TestStore_AppendAndSnapshot(t *testing.T) {
	s := NewStore(10)

	s.Append("AAPL", 100.5, 1000, ts(0))
	s.Append("AAPL", 101.0, 2000, ts(1))

	snap := s.Snapshot("AAPL")
	if len(snap) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(snap))
	}
	if snap[0].Price != 100.5 || snap[1].Price != 101.0 {
		t.Fatalf("wrong order: got %v, %v", snap[0].Price, snap[1].Price)
	}
	if snap[0].Volume != 1000 {
		t.Fatalf("expected volume=1000, got %d", snap[0].Volume)
	}
}

func TestStore_UnknownSymbolEmpty(t *testing.T) {
	s := NewStore(10)

	if snap := s.Snapshot("NOPE"); len(snap) != 0 {
		t.Fatalf("unknown symbol should yield empty window, got %d samples", len(snap))
	}
	if s.Len("NOPE") != 0 {
		t.Fatal("unknown symbol should have len 0")
	}
	if _, ok := s.Last("NOPE"); ok {
		t.Fatal("unknown symbol should have no last sample")
	}
}

func TestStore_FIFOEviction(t *testing.T) {
	const capacity = 20
	s := NewStore(capacity)

	// N+5 appends: the first 5 must be evicted, the rest kept in order.
	for i := 0; i < capacity+5; i++ {
		s.Append("X", float64(i), 1, ts(i))
	}

	snap := s.Snapshot("X")
	if len(snap) != capacity {
		t.Fatalf("expected len=%d after overflow, got %d", capacity, len(snap))
	}
	for i, sample := range snap {
		want := float64(i + 5)
		if sample.Price != want {
			t.Fatalf("index %d: expected price=%v, got %v", i, want, sample.Price)
		}
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := NewStore(4)
	s.Append("Y", 1.0, 1, ts(0))

	snap := s.Snapshot("Y")
	snap[0].Price = 999.0

	again := s.Snapshot("Y")
	if again[0].Price != 1.0 {
		t.Fatalf("mutating a snapshot leaked into the store: got %v", again[0].Price)
	}
}

func TestStore_Release(t *testing.T) {
	s := NewStore(4)
	s.Append("Z", 1.0, 1, ts(0))
	s.Release("Z")

	if len(s.Snapshot("Z")) != 0 {
		t.Fatal("released symbol should have an empty window")
	}
	if len(s.Symbols()) != 0 {
		t.Fatalf("expected no symbols after release, got %v", s.Symbols())
	}

	// Releasing an unknown symbol is a no-op.
	s.Release("NOPE")
}

func TestStore_Last(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		s.Append("L", float64(100+i), 1, ts(i))
	}
	last, ok := s.Last("L")
	if !ok || last.Price != 104 {
		t.Fatalf("expected last price=104, got %v ok=%v", last.Price, ok)
	}
}

func TestStore_ConcurrentAppendSnapshot(t *testing.T) {
	const iterations = 5000
	s := NewStore(50)

	var wg sync.WaitGroup
	wg.Add(3)

	// Writer on AAPL.
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			s.Append("AAPL", float64(i), 1, ts(i))
		}
	}()

	// Writer on a second symbol — must never be disturbed.
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			s.Append("GOOGL", float64(i), 1, ts(i))
		}
	}()

	// Reader taking snapshots while appends continue.
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			snap := s.Snapshot("AAPL")
			// A snapshot must always be internally ordered.
			for j := 1; j < len(snap); j++ {
				if snap[j].Price < snap[j-1].Price {
					t.Errorf("snapshot out of order at %d: %v < %v", j, snap[j].Price, snap[j-1].Price)
					return
				}
			}
		}
	}()

	wg.Wait()

	if s.Len("AAPL") != 50 || s.Len("GOOGL") != 50 {
		t.Fatalf("expected both windows at capacity, got %d / %d", s.Len("AAPL"), s.Len("GOOGL"))
	}
}

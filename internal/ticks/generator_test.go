package ticks

import "testing"

func TestGenerator_WalkStaysBounded(t *testing.T) {
	g := NewGenerator(42)

	base := 182.50 // AAPL seed
	for i := 0; i < 10_000; i++ {
		s := g.Next("AAPL")
		if s.Price < base*0.5 || s.Price > base*2 {
			t.Fatalf("tick %d escaped bounds: %v", i, s.Price)
		}
		if s.Volume < 500 || s.Volume >= 10000 {
			t.Fatalf("tick %d volume out of range: %d", i, s.Volume)
		}
	}
}

func TestGenerator_UnknownSymbolSeeded(t *testing.T) {
	g := NewGenerator(1)

	s := g.Next("XXXX")
	if s.Price <= 0 {
		t.Fatalf("unknown symbol should still produce a price, got %v", s.Price)
	}

	found := false
	for _, info := range g.Catalog() {
		if info.Symbol == "XXXX" {
			found = true
		}
	}
	if !found {
		t.Fatal("unknown symbol should join the catalog after first use")
	}
}

func TestGenerator_CatalogOrderStable(t *testing.T) {
	g := NewGenerator(7)

	first := g.Catalog()
	if len(first) == 0 || first[0].Symbol != "AAPL" {
		t.Fatalf("expected AAPL first in seed order, got %+v", first)
	}

	g.Next("TSLA")
	second := g.Catalog()
	if len(second) != len(first) {
		t.Fatalf("known symbol must not duplicate catalog entries: %d vs %d", len(second), len(first))
	}
}

func TestGenerator_TimestampsNonDecreasing(t *testing.T) {
	g := NewGenerator(3)

	prev := g.Next("AAPL").TS
	for i := 0; i < 100; i++ {
		cur := g.Next("AAPL").TS
		if cur.Before(prev) {
			t.Fatalf("timestamp went backwards: %v < %v", cur, prev)
		}
		prev = cur
	}
}

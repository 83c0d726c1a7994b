package rtree

import "testing"

func TestInsertAndSearch(t *testing.T) {
	tr := New()
	tr.Insert(Box{0, 0, 10, 10}, "a")
	tr.Insert(Box{20, 20, 30, 30}, "b")
	tr.Insert(Box{5, 5, 15, 15}, "c")

	got := tr.Search(Box{0, 0, 6, 6})
	if len(got) != 2 {
		t.Fatalf("Search found %d items, want 2 (a and c)", len(got))
	}
}

func TestSearchPoint(t *testing.T) {
	tr := New()
	tr.Insert(Box{0, 0, 10, 10}, "a")
	tr.Insert(Box{100, 100, 110, 110}, "b")

	got := tr.SearchPoint(5, 5)
	if len(got) != 1 || got[0].Value != "a" {
		t.Fatalf("SearchPoint(5,5) = %v, want [a]", got)
	}
	if got := tr.SearchPoint(500, 500); len(got) != 0 {
		t.Fatalf("SearchPoint(500,500) = %v, want empty", got)
	}
}

func TestCollides(t *testing.T) {
	tr := New()
	tr.Insert(Box{0, 0, 10, 10}, "a")

	if !tr.Collides(Box{5, 5, 20, 20}) {
		t.Error("expected overlap to be detected")
	}
	if tr.Collides(Box{100, 100, 110, 110}) {
		t.Error("expected no overlap for a disjoint box")
	}
}

func TestClear(t *testing.T) {
	tr := New()
	tr.Insert(Box{0, 0, 10, 10}, "a")
	tr.Clear()
	if tr.Collides(Box{0, 0, 10, 10}) {
		t.Error("expected empty tree after Clear")
	}
}

func TestInsertManyTriggersSplits(t *testing.T) {
	tr := New()
	for i := 0; i < 200; i++ {
		x := float64(i)
		tr.Insert(Box{x, x, x + 1, x + 1}, i)
	}
	got := tr.Search(Box{0, 0, 200, 200})
	if len(got) != 200 {
		t.Fatalf("Search after many inserts found %d items, want 200", len(got))
	}
}

func TestBulkLoad(t *testing.T) {
	items := make([]Item, 0, 100)
	for i := 0; i < 100; i++ {
		x := float64(i)
		items = append(items, Item{Box: Box{x, x, x + 1, x + 1}, Value: i})
	}
	tr := BulkLoad(items)
	got := tr.Search(Box{0, 0, 100, 100})
	if len(got) != 100 {
		t.Fatalf("Search after BulkLoad found %d items, want 100", len(got))
	}
	if !tr.Collides(Box{50, 50, 51, 51}) {
		t.Error("expected bulk-loaded tree to report collision for an inserted box")
	}
}

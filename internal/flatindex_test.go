package internal

import (
	"errors"
	"testing"
)

func TestFlatIndexSearchBeforeBuild(t *testing.T) {
	idx := NewFlatIndex()

	_, err := idx.Search([]float32{1, 0}, 3)
	if !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("got %v, want ErrIndexNotReady", err)
	}
}

func TestFlatIndexBuildDimensionMismatch(t *testing.T) {
	idx := NewFlatIndex()

	err := idx.Build([][]float32{{1, 0}, {1, 0, 0}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestFlatIndexQueryDimensionMismatch(t *testing.T) {
	idx := NewFlatIndex()
	if err := idx.Build([][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("build: %v", err)
	}

	_, err := idx.Search([]float32{1, 0, 0}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestFlatIndexRanking(t *testing.T) {
	// Unit vectors at known angles to the query (1, 0).
	idx := NewFlatIndex()
	err := idx.Build([][]float32{
		{0, 1},         // orthogonal
		{1, 0},         // identical
		{0.707, 0.707}, // 45 degrees
		{-1, 0},        // opposite
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	wantOrder := []int{1, 2, 0, 3}
	if len(hits) != len(wantOrder) {
		t.Fatalf("got %d hits, want %d", len(hits), len(wantOrder))
	}
	for i, want := range wantOrder {
		if hits[i].Ordinal != want {
			t.Errorf("rank %d = ordinal %d, want %d", i, hits[i].Ordinal, want)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("scores not descending at rank %d: %f > %f", i, hits[i].Score, hits[i-1].Score)
		}
	}
}

func TestFlatIndexTieBreakByOrdinal(t *testing.T) {
	// Duplicate vectors score identically; earlier ordinal must win.
	idx := NewFlatIndex()
	err := idx.Build([][]float32{
		{0, 1},
		{1, 0},
		{1, 0},
		{1, 0},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	want := []int{1, 2, 3}
	for i, w := range want {
		if hits[i].Ordinal != w {
			t.Errorf("rank %d = ordinal %d, want %d", i, hits[i].Ordinal, w)
		}
	}
}

func TestFlatIndexTopKPrefix(t *testing.T) {
	idx := NewFlatIndex()
	vectors := [][]float32{
		{0.9, 0.1}, {0.1, 0.9}, {0.5, 0.5}, {0.8, 0.2}, {0.3, 0.7},
	}
	if err := idx.Build(vectors); err != nil {
		t.Fatalf("build: %v", err)
	}

	query := []float32{1, 0}
	small, err := idx.Search(query, 2)
	if err != nil {
		t.Fatalf("search k=2: %v", err)
	}
	big, err := idx.Search(query, 4)
	if err != nil {
		t.Fatalf("search k=4: %v", err)
	}

	for i := range small {
		if small[i] != big[i] {
			t.Errorf("rank %d differs between k=2 and k=4: %+v vs %+v", i, small[i], big[i])
		}
	}
}

func TestFlatIndexKLargerThanSet(t *testing.T) {
	idx := NewFlatIndex()
	if err := idx.Build([][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("build: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
}

func TestFlatIndexRebuildReplaces(t *testing.T) {
	idx := NewFlatIndex()
	if err := idx.Build([][]float32{{1, 0}, {0, 1}, {1, 1}}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if err := idx.Build([][]float32{{0, 1}}); err != nil {
		t.Fatalf("second build: %v", err)
	}

	if idx.Len() != 1 {
		t.Fatalf("index holds %d vectors after rebuild, want 1", idx.Len())
	}

	hits, err := idx.Search([]float32{0, 1}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Ordinal != 0 {
		t.Fatalf("hits after rebuild = %+v, want single ordinal 0", hits)
	}
}

func TestFlatIndexNormalizesOnBuild(t *testing.T) {
	// The same direction at different magnitudes must score equally.
	idx := NewFlatIndex()
	if err := idx.Build([][]float32{{2, 0}, {100, 0}}); err != nil {
		t.Fatalf("build: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if hits[0].Score != hits[1].Score {
		t.Errorf("scores differ for same direction: %f vs %f", hits[0].Score, hits[1].Score)
	}
	// Equal scores: the tie-break picks the lower ordinal.
	if hits[0].Ordinal != 0 {
		t.Errorf("tie broken to ordinal %d, want 0", hits[0].Ordinal)
	}
}

func TestFlatIndexEmptyBuild(t *testing.T) {
	idx := NewFlatIndex()
	if err := idx.Build(nil); err == nil {
		t.Fatal("expected error building from zero vectors")
	}
}

package timeline

import (
	"errors"
	"sync"
	"testing"
)

func appendAll(t *testing.T, s *Store, segs []Segment) {
	t.Helper()
	for _, seg := range segs {
		if err := s.Append(seg); err != nil {
			t.Fatalf("append %d: %v", seg.Index, err)
		}
	}
}

func TestStore_AppendOrdering(t *testing.T) {
	t.Parallel()

	s := NewStore()
	appendAll(t, s, []Segment{
		{Index: 0, SourceStart: 0, SourceEnd: 2, SourceText: "a"},
		{Index: 1, SourceStart: 2, SourceEnd: 4, SourceText: "b"},
	})

	if err := s.Append(Segment{Index: 1, SourceStart: 4, SourceEnd: 5}); !errors.Is(err, ErrOrdering) {
		t.Fatalf("duplicate index: want ErrOrdering, got %v", err)
	}
	if err := s.Append(Segment{Index: 2, SourceStart: 1, SourceEnd: 5}); !errors.Is(err, ErrOrdering) {
		t.Fatalf("decreasing start: want ErrOrdering, got %v", err)
	}
}

func TestStore_AppendClampsOverlap(t *testing.T) {
	t.Parallel()

	s := NewStore()
	appendAll(t, s, []Segment{
		{Index: 0, SourceStart: 0, SourceEnd: 2.5, SourceText: "a"},
		{Index: 1, SourceStart: 2.2, SourceEnd: 4, SourceText: "b"},
	})

	segs := s.Segments()
	if segs[1].SourceStart != 2.5 {
		t.Fatalf("expected overlap clamped to 2.5, got %.3f", segs[1].SourceStart)
	}

	s2 := NewStore()
	if err := s2.Append(Segment{Index: 0, SourceStart: -0.3, SourceEnd: 1, SourceText: "a"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := s2.Segments()[0].SourceStart; got != 0 {
		t.Fatalf("expected negative start clamped to 0, got %.3f", got)
	}
}

func TestStore_FillsAreWriteOnce(t *testing.T) {
	t.Parallel()

	s := NewStore()
	appendAll(t, s, []Segment{{Index: 0, SourceStart: 0, SourceEnd: 2, SourceText: "a"}})

	if err := s.FillTranslation(7, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown index: want ErrNotFound, got %v", err)
	}
	if err := s.FillClip(0, "c.wav", 1); !errors.Is(err, ErrOrdering) {
		t.Fatalf("clip before translation: want ErrOrdering, got %v", err)
	}
	if err := s.FillTranslation(0, "x"); err != nil {
		t.Fatalf("fill translation: %v", err)
	}
	if err := s.FillTranslation(0, "y"); !errors.Is(err, ErrAlreadySet) {
		t.Fatalf("second translation: want ErrAlreadySet, got %v", err)
	}
	if err := s.FillClip(0, "c.wav", 1.5); err != nil {
		t.Fatalf("fill clip: %v", err)
	}
	if err := s.FillClip(0, "d.wav", 2); !errors.Is(err, ErrAlreadySet) {
		t.Fatalf("second clip: want ErrAlreadySet, got %v", err)
	}

	seg := s.Segments()[0]
	if seg.TranslatedText != "x" || seg.ClipPath != "c.wav" || seg.ClipDuration != 1.5 {
		t.Fatalf("unexpected segment after fills: %+v", seg)
	}
}

func TestStore_SealRequiresCompleteSegments(t *testing.T) {
	t.Parallel()

	s := NewStore()
	appendAll(t, s, []Segment{
		{Index: 0, SourceStart: 0, SourceEnd: 2, SourceText: "a"},
		{Index: 1, SourceStart: 2, SourceEnd: 4, SourceText: "b"},
	})
	if err := s.FillTranslation(0, "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.FillClip(0, "c.wav", 2); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Seal(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("seal with pending segment: want ErrIncomplete, got %v", err)
	}

	if err := s.FillTranslation(1, "y"); err != nil {
		t.Fatal(err)
	}
	if err := s.FillClip(1, "d.wav", 2); err != nil {
		t.Fatal(err)
	}
	tl, err := s.Seal()
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if tl.Len() != 2 {
		t.Fatalf("expected 2 sealed segments, got %d", tl.Len())
	}
	if err := s.Append(Segment{Index: 2, SourceStart: 4, SourceEnd: 5}); !errors.Is(err, ErrOrdering) {
		t.Fatalf("append after seal: want ErrOrdering, got %v", err)
	}
}

func TestStore_ConcurrentFills(t *testing.T) {
	t.Parallel()

	s := NewStore()
	const n = 50
	for i := 0; i < n; i++ {
		if err := s.Append(Segment{Index: i, SourceStart: float64(i), SourceEnd: float64(i) + 1, SourceText: "t"}); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.FillTranslation(i, "x"); err != nil {
				t.Errorf("fill translation %d: %v", i, err)
				return
			}
			if err := s.FillClip(i, "c.wav", 1); err != nil {
				t.Errorf("fill clip %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	if _, err := s.Seal(); err != nil {
		t.Fatalf("seal after concurrent fills: %v", err)
	}
}

package timeline

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrOrdering   = errors.New("segment ordering violation")
	ErrNotFound   = errors.New("segment not found")
	ErrAlreadySet = errors.New("segment field already set")
	ErrIncomplete = errors.New("segment incomplete")
)

// State tracks how far a segment has progressed through the fill stages.
type State int

const (
	StatePending State = iota
	StateTranslated
	StateSynthesized
)

// Segment is one timestamped unit of source speech plus the artifacts derived
// from it. SourceStart/SourceEnd and ClipDuration are seconds.
type Segment struct {
	Index          int
	SourceStart    float64
	SourceEnd      float64
	SourceText     string
	TranslatedText string
	ClipPath       string
	ClipDuration   float64
	State          State
}

// Nominal returns the duration of the segment's source interval.
func (s Segment) Nominal() float64 { return s.SourceEnd - s.SourceStart }

// Store is the mutable, ordered record of transcript segments. Appends happen
// at ingestion; translation and clip fills may arrive from concurrent workers
// and are write-once. Seal produces the read-only Timeline consumed by the
// placer, mixer and subtitle formatter.
type Store struct {
	mu     sync.Mutex
	segs   []Segment
	byIdx  map[int]int
	sealed bool
}

func NewStore() *Store {
	return &Store{byIdx: make(map[int]int)}
}

// Append ingests a segment with its source fields. Indexes must be strictly
// increasing and source starts non-decreasing. Source intervals that overlap
// the previous segment are clamped rather than rejected: upstream transcribers
// occasionally emit a fraction of a second of overlap.
func (s *Store) Append(seg Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return fmt.Errorf("append segment %d: store is sealed: %w", seg.Index, ErrOrdering)
	}
	if seg.SourceStart < 0 {
		seg.SourceStart = 0
	}
	if n := len(s.segs); n > 0 {
		prev := s.segs[n-1]
		if seg.Index <= prev.Index {
			return fmt.Errorf("append segment %d after %d: %w", seg.Index, prev.Index, ErrOrdering)
		}
		if seg.SourceStart < prev.SourceStart {
			return fmt.Errorf("append segment %d: source start %.3f before previous %.3f: %w",
				seg.Index, seg.SourceStart, prev.SourceStart, ErrOrdering)
		}
		if seg.SourceStart < prev.SourceEnd {
			seg.SourceStart = prev.SourceEnd
		}
	}
	if seg.SourceEnd < seg.SourceStart {
		seg.SourceEnd = seg.SourceStart
	}
	seg.State = StatePending
	seg.TranslatedText = ""
	seg.ClipPath = ""
	seg.ClipDuration = 0
	s.byIdx[seg.Index] = len(s.segs)
	s.segs = append(s.segs, seg)
	return nil
}

// FillTranslation sets the translated text for a segment. Write-once: a
// second fill fails instead of overwriting, so a retried upstream call cannot
// silently clobber a completed segment.
func (s *Store) FillTranslation(index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byIdx[index]
	if !ok {
		return fmt.Errorf("fill translation for segment %d: %w", index, ErrNotFound)
	}
	if s.segs[i].State != StatePending {
		return fmt.Errorf("fill translation for segment %d: %w", index, ErrAlreadySet)
	}
	s.segs[i].TranslatedText = text
	s.segs[i].State = StateTranslated
	return nil
}

// FillClip records the rendered clip and its measured duration for a segment.
// The segment must already be translated; synthesis consumes the translation.
func (s *Store) FillClip(index int, path string, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byIdx[index]
	if !ok {
		return fmt.Errorf("fill clip for segment %d: %w", index, ErrNotFound)
	}
	switch s.segs[i].State {
	case StatePending:
		return fmt.Errorf("fill clip for segment %d before translation: %w", index, ErrOrdering)
	case StateSynthesized:
		return fmt.Errorf("fill clip for segment %d: %w", index, ErrAlreadySet)
	}
	s.segs[i].ClipPath = path
	s.segs[i].ClipDuration = duration
	s.segs[i].State = StateSynthesized
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segs)
}

// Segments returns a copy of the current segments in index order.
func (s *Store) Segments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Segment, len(s.segs))
	copy(out, s.segs)
	return out
}

// Seal verifies every segment is fully populated and returns the read-only
// timeline. The store refuses further appends afterwards.
func (s *Store) Seal() (*Timeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seg := range s.segs {
		if seg.State != StateSynthesized {
			return nil, fmt.Errorf("seal: segment %d in state %d: %w", seg.Index, seg.State, ErrIncomplete)
		}
	}
	s.sealed = true
	segs := make([]Segment, len(s.segs))
	copy(segs, s.segs)
	return &Timeline{segs: segs}, nil
}

// Timeline is a sealed, read-only sequence of fully populated segments.
type Timeline struct {
	segs []Segment
}

func (t *Timeline) Len() int { return len(t.segs) }

func (t *Timeline) Segment(i int) Segment { return t.segs[i] }

// Segments returns the segments in index order. Callers must not mutate the
// returned slice.
func (t *Timeline) Segments() []Segment { return t.segs }

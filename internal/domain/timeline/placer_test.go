package timeline

import (
	"math"
	"reflect"
	"testing"
)

func sealedTimeline(t *testing.T, intervals [][2]float64, clipDurs []float64) *Timeline {
	t.Helper()
	s := NewStore()
	for i, iv := range intervals {
		if err := s.Append(Segment{Index: i, SourceStart: iv[0], SourceEnd: iv[1], SourceText: "src"}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if err := s.FillTranslation(i, "dub"); err != nil {
			t.Fatal(err)
		}
		if err := s.FillClip(i, "clip.wav", clipDurs[i]); err != nil {
			t.Fatal(err)
		}
	}
	tl, err := s.Seal()
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	return tl
}

func starts(ps []Placement) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Start
	}
	return out
}

func TestPlace_NoDriftWhenClipsFit(t *testing.T) {
	t.Parallel()

	tl := sealedTimeline(t, [][2]float64{{0, 2}, {2, 4}, {4, 6}}, []float64{2, 2, 2})
	ps, warns := Place(tl, PlacerOptions{})

	if got, want := starts(ps), []float64{0, 2, 4}; !reflect.DeepEqual(got, want) {
		t.Fatalf("placed starts = %v, want %v", got, want)
	}
	for _, p := range ps {
		if p.Drift != 0 {
			t.Fatalf("unexpected drift on segment %d: %v", p.Index, p.Drift)
		}
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
}

func TestPlace_OverrunDelaysFollowingClips(t *testing.T) {
	t.Parallel()

	tl := sealedTimeline(t, [][2]float64{{0, 2}, {2, 4}, {4, 6}}, []float64{3, 2, 2})
	ps, _ := Place(tl, PlacerOptions{})

	if got, want := starts(ps), []float64{0, 3, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("placed starts = %v, want %v", got, want)
	}
	if ps[2].Drift != 1 {
		t.Fatalf("segment 2 drift = %v, want 1", ps[2].Drift)
	}
}

func TestPlace_EmptyClipPlacesSilence(t *testing.T) {
	t.Parallel()

	tl := sealedTimeline(t, [][2]float64{{0, 2}, {2, 4}, {4, 6}}, []float64{2, 0, 2})
	ps, warns := Place(tl, PlacerOptions{})

	var empty []Warning
	for _, w := range warns {
		if w.Kind == WarnEmptyClip {
			empty = append(empty, w)
		}
	}
	if len(empty) != 1 || empty[0].Index != 1 {
		t.Fatalf("expected one empty-clip warning for segment 1, got %v", warns)
	}
	if ps[1].Start != 2 || ps[1].Duration != 0 {
		t.Fatalf("segment 1 placement = %+v, want zero-length at 2", ps[1])
	}
	if ps[2].Start != 4 {
		t.Fatalf("segment 2 start = %v, want 4 (unaffected by silent slot)", ps[2].Start)
	}
}

func TestPlace_DriftAlertOnThresholdCrossing(t *testing.T) {
	t.Parallel()

	// Segment 0 overruns by 3s; everything after starts 3s late.
	tl := sealedTimeline(t, [][2]float64{{0, 2}, {2, 4}, {4, 6}}, []float64{5, 2, 2})
	ps, warns := Place(tl, PlacerOptions{DriftAlertSeconds: 2})

	var alerts []Warning
	for _, w := range warns {
		if w.Kind == WarnDriftAlert {
			alerts = append(alerts, w)
		}
	}
	if len(alerts) != 1 {
		t.Fatalf("expected a single drift alert at the crossing, got %v", alerts)
	}
	if alerts[0].Index != 1 {
		t.Fatalf("drift alert on segment %d, want 1", alerts[0].Index)
	}
	if ps[1].Drift != 3 || ps[2].Drift != 3 {
		t.Fatalf("drift = %v/%v, want 3/3", ps[1].Drift, ps[2].Drift)
	}
}

func TestPlace_Invariants(t *testing.T) {
	t.Parallel()

	// Irregular mix of overruns, underruns and gaps.
	intervals := [][2]float64{{0, 1.5}, {1.5, 3}, {5, 7}, {7, 8}, {12, 13}}
	durs := []float64{2.3, 0.8, 4.1, 0, 1.2}
	tl := sealedTimeline(t, intervals, durs)
	ps, _ := Place(tl, PlacerOptions{})

	for i, p := range ps {
		if p.Start < tl.Segment(i).SourceStart {
			t.Fatalf("segment %d placed at %.3f before its source start %.3f", i, p.Start, tl.Segment(i).SourceStart)
		}
		if i > 0 && ps[i-1].End() > p.Start+1e-9 {
			t.Fatalf("segments %d and %d overlap: %.3f > %.3f", i-1, i, ps[i-1].End(), p.Start)
		}
	}

	// Pure function of its input: a second pass must agree exactly.
	again, _ := Place(tl, PlacerOptions{})
	if !reflect.DeepEqual(ps, again) {
		t.Fatalf("placement is not idempotent:\n%v\n%v", ps, again)
	}
}

func TestTrackEnd(t *testing.T) {
	t.Parallel()

	if got := TrackEnd(nil); got != 0 {
		t.Fatalf("empty track end = %v", got)
	}
	tl := sealedTimeline(t, [][2]float64{{0, 2}, {2, 4}}, []float64{3, 2})
	ps, _ := Place(tl, PlacerOptions{})
	if got := TrackEnd(ps); math.Abs(got-5) > 1e-9 {
		t.Fatalf("track end = %v, want 5", got)
	}
}

package mix

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"vdub/internal/domain/timeline"
	"vdub/internal/wavio"
)

const testRate = 8000

func writeConst(t *testing.T, dir, name string, value int, seconds float64) string {
	t.Helper()
	n := int(seconds * testRate)
	samples := make([]int, n)
	for i := range samples {
		samples[i] = value
	}
	path := filepath.Join(dir, name)
	if err := wavio.WriteMono(path, samples, testRate); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func sealedWithClips(t *testing.T, clips []string, durs []float64) (*timeline.Timeline, []timeline.Placement) {
	t.Helper()
	s := timeline.NewStore()
	at := 0.0
	for i := range clips {
		end := at + durs[i]
		if durs[i] <= 0 {
			end = at + 1
		}
		if err := s.Append(timeline.Segment{Index: i, SourceStart: at, SourceEnd: end, SourceText: "s"}); err != nil {
			t.Fatal(err)
		}
		if err := s.FillTranslation(i, "t"); err != nil {
			t.Fatal(err)
		}
		if err := s.FillClip(i, clips[i], durs[i]); err != nil {
			t.Fatal(err)
		}
		at = end
	}
	tl, err := s.Seal()
	if err != nil {
		t.Fatal(err)
	}
	ps, _ := timeline.Place(tl, timeline.PlacerOptions{})
	return tl, ps
}

func TestBuildPlan_RejectsBadMixLevel(t *testing.T) {
	t.Parallel()

	tl, ps := sealedWithClips(t, []string{"a.wav"}, []float64{1})
	if _, err := BuildPlan(tl, ps, "orig.wav", 1.5, true, 0); !errors.Is(err, ErrMixLevel) {
		t.Fatalf("mix level 1.5: want ErrMixLevel, got %v", err)
	}
	if _, err := BuildPlan(tl, ps, "orig.wav", -0.1, true, 0); !errors.Is(err, ErrMixLevel) {
		t.Fatalf("mix level -0.1: want ErrMixLevel, got %v", err)
	}
}

func TestBuildPlan_Shape(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeConst(t, dir, "a.wav", 1000, 1)
	b := writeConst(t, dir, "b.wav", 1000, 1)
	orig := writeConst(t, dir, "orig.wav", 400, 3)

	tl, ps := sealedWithClips(t, []string{a, b}, []float64{1, 1})
	plan, err := BuildPlan(tl, ps, orig, 0.25, true, 3)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Duration != 3 {
		t.Fatalf("plan duration = %v, want video duration 3", plan.Duration)
	}
	if len(plan.Entries) != 3 {
		t.Fatalf("expected 2 clip entries + 1 overlay, got %d", len(plan.Entries))
	}
	last := plan.Entries[len(plan.Entries)-1]
	if !last.Overlay || last.Gain != 0.25 {
		t.Fatalf("expected trailing overlay entry at gain 0.25, got %+v", last)
	}

	// mixLevel 0 excludes the original entirely.
	plan0, err := BuildPlan(tl, ps, orig, 0, true, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range plan0.Entries {
		if e.Overlay {
			t.Fatalf("unexpected overlay entry with mix level 0: %+v", e)
		}
	}
}

func rms(samples []int) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestRender_OverlayRaisesEnergy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeConst(t, dir, "a.wav", 1000, 1)
	b := writeConst(t, dir, "b.wav", 1000, 1)
	orig := writeConst(t, dir, "orig.wav", 400, 2)

	tl, ps := sealedWithClips(t, []string{a, b}, []float64{1, 1})

	dry, err := BuildPlan(tl, ps, "", 0.25, false, 2)
	if err != nil {
		t.Fatal(err)
	}
	dryOut := filepath.Join(dir, "dry.wav")
	if err := Render(dry, testRate, dryOut); err != nil {
		t.Fatalf("render dry: %v", err)
	}

	wet, err := BuildPlan(tl, ps, orig, 0.25, true, 2)
	if err != nil {
		t.Fatal(err)
	}
	wetOut := filepath.Join(dir, "wet.wav")
	if err := Render(wet, testRate, wetOut); err != nil {
		t.Fatalf("render wet: %v", err)
	}

	drySamples, _, err := wavio.ReadMono(dryOut)
	if err != nil {
		t.Fatal(err)
	}
	wetSamples, _, err := wavio.ReadMono(wetOut)
	if err != nil {
		t.Fatal(err)
	}

	// Clips are constant 1000; the overlay adds 400*0.25 = 100 everywhere.
	if drySamples[testRate/2] != 1000 {
		t.Fatalf("dry sample = %d, want 1000", drySamples[testRate/2])
	}
	if wetSamples[testRate/2] != 1100 {
		t.Fatalf("wet sample = %d, want 1100 (clip + attenuated original)", wetSamples[testRate/2])
	}
	if rms(wetSamples) <= rms(drySamples) {
		t.Fatalf("overlay did not raise track energy: wet %.1f vs dry %.1f", rms(wetSamples), rms(drySamples))
	}
}

func TestRender_PadsToVideoDuration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeConst(t, dir, "a.wav", 500, 1)
	tl, ps := sealedWithClips(t, []string{a}, []float64{1})

	plan, err := BuildPlan(tl, ps, "", 0, false, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.wav")
	if err := Render(plan, testRate, out); err != nil {
		t.Fatal(err)
	}
	dur, err := wavio.Duration(out)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(dur-2.5) > 1e-3 {
		t.Fatalf("padded track duration = %v, want 2.5", dur)
	}
	samples, _, _ := wavio.ReadMono(out)
	if samples[len(samples)-1] != 0 {
		t.Fatal("expected trailing silence padding")
	}
}

func TestRender_RejectsUnnormalizedRate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "odd.wav")
	if err := wavio.WriteMono(path, make([]int, 1600), 16000); err != nil {
		t.Fatal(err)
	}
	plan := Plan{Entries: []Entry{{Source: path, Gain: 1}}, Duration: 1}
	if err := Render(plan, testRate, filepath.Join(dir, "out.wav")); err == nil {
		t.Fatal("expected error for mismatched sample rate")
	}
}

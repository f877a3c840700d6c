package timeline

import "fmt"

// WarningKind labels non-fatal diagnostics raised while assembling the output
// timeline. Warnings degrade the result; they never abort the run.
type WarningKind string

const (
	WarnEmptyClip       WarningKind = "empty_clip"
	WarnDriftAlert      WarningKind = "drift_alert"
	WarnSubtitleOverlap WarningKind = "subtitle_overlap"
)

type Warning struct {
	Kind    WarningKind
	Index   int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (segment %d): %s", w.Kind, w.Index, w.Message)
}

// Placement is the onset assigned to one segment's clip on the output track.
// Duration is the effective mixed duration: the measured clip duration, or
// zero for clips that failed synthesis.
type Placement struct {
	Index    int
	Start    float64
	Duration float64
	Drift    float64
}

// End returns the moment the placed clip finishes.
func (p Placement) End() float64 { return p.Start + p.Duration }

// PlacerOptions tunes diagnostics only; placement itself is not configurable.
type PlacerOptions struct {
	// DriftAlertSeconds is the cumulative-lag threshold past which a drift
	// alert is raised. Zero means the default of 2 seconds.
	DriftAlertSeconds float64
}

const defaultDriftAlertSeconds = 2.0

// Place assigns an onset to every clip of a sealed timeline in a single
// greedy forward pass. A clip never starts before its own source moment and
// never overlaps the previous clip; when translated speech overruns its
// nominal interval the following clips slide later and the lag is reported as
// drift. Earlier placements are never revisited and clips are never truncated,
// so the pass is O(n) and deterministic.
func Place(tl *Timeline, opts PlacerOptions) ([]Placement, []Warning) {
	threshold := opts.DriftAlertSeconds
	if threshold <= 0 {
		threshold = defaultDriftAlertSeconds
	}

	placements := make([]Placement, 0, tl.Len())
	var warnings []Warning
	cursor := 0.0
	alerting := false

	for _, seg := range tl.Segments() {
		dur := seg.ClipDuration
		if dur <= 0 {
			// Synthesis produced unusable audio; keep the slot as silence.
			dur = 0
			warnings = append(warnings, Warning{
				Kind:    WarnEmptyClip,
				Index:   seg.Index,
				Message: fmt.Sprintf("clip %s has non-positive duration %.3fs, placing silence", seg.ClipPath, seg.ClipDuration),
			})
		}

		start := seg.SourceStart
		if cursor > start {
			start = cursor
		}
		drift := start - seg.SourceStart

		if drift >= threshold && !alerting {
			warnings = append(warnings, Warning{
				Kind:    WarnDriftAlert,
				Index:   seg.Index,
				Message: fmt.Sprintf("dub is %.2fs behind the source (threshold %.2fs)", drift, threshold),
			})
		}
		alerting = drift >= threshold

		placements = append(placements, Placement{
			Index:    seg.Index,
			Start:    start,
			Duration: dur,
			Drift:    drift,
		})
		cursor = start + dur
	}
	return placements, warnings
}

// TrackEnd returns the end of the last placed clip, i.e. the minimum length
// of the mixed output track.
func TrackEnd(placements []Placement) float64 {
	if len(placements) == 0 {
		return 0
	}
	return placements[len(placements)-1].End()
}

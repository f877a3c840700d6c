// Package mix composites placed target-language clips and the optionally
// attenuated original audio into the final dub track.
package mix

import (
	"errors"
	"fmt"
	"math"

	"vdub/internal/domain/timeline"
	"vdub/internal/wavio"
)

var ErrMixLevel = errors.New("mix level out of range [0, 1]")

// Entry schedules one source file onto the output track. Placed clips are
// copied into the buffer (they are proven non-overlapping by the placer);
// Overlay entries are summed on top of whatever is already there.
type Entry struct {
	Source  string
	Onset   float64
	Gain    float64
	Overlay bool
}

// Plan is the complete, ordered recipe for rendering the output track.
type Plan struct {
	Entries []Entry
	// Duration is the output track length in seconds: the end of the last
	// placed clip, or the source video duration if that is longer.
	Duration float64
}

// BuildPlan derives the mix recipe from a sealed timeline and its placements.
// originalWav may be empty when includeOriginal is false. A mixLevel of 0
// excludes the original track even when includeOriginal is set.
func BuildPlan(
	tl *timeline.Timeline,
	placements []timeline.Placement,
	originalWav string,
	mixLevel float64,
	includeOriginal bool,
	videoDuration float64,
) (Plan, error) {
	if mixLevel < 0 || mixLevel > 1 {
		return Plan{}, fmt.Errorf("mix level %.3f: %w", mixLevel, ErrMixLevel)
	}
	if tl.Len() != len(placements) {
		return Plan{}, fmt.Errorf("timeline has %d segments but %d placements", tl.Len(), len(placements))
	}

	duration := timeline.TrackEnd(placements)
	if videoDuration > duration {
		duration = videoDuration
	}

	p := Plan{Duration: duration}
	for i, pl := range placements {
		if pl.Duration <= 0 {
			// Failed synthesis renders as silence; nothing to schedule.
			continue
		}
		p.Entries = append(p.Entries, Entry{Source: tl.Segment(i).ClipPath, Onset: pl.Start, Gain: 1.0})
	}
	// The attenuated original goes last: clips overwrite the silent buffer,
	// the original is summed on top of the whole track.
	if includeOriginal && mixLevel > 0 {
		if originalWav == "" {
			return Plan{}, errors.New("include original requested but no original audio supplied")
		}
		p.Entries = append(p.Entries, Entry{Source: originalWav, Onset: 0, Gain: mixLevel, Overlay: true})
	}
	return p, nil
}

// Render executes a plan into a mono WAV file at the given sample rate. Every
// source must already be normalized to that rate; Render refuses to resample.
func Render(plan Plan, sampleRate int, outPath string) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	total := int(math.Ceil(plan.Duration * float64(sampleRate)))
	buf := make([]int, total)

	for _, e := range plan.Entries {
		samples, rate, err := wavio.ReadMono(e.Source)
		if err != nil {
			return fmt.Errorf("mix source %s: %w", e.Source, err)
		}
		if rate != sampleRate {
			return fmt.Errorf("mix source %s: sample rate %d, want %d (clip not normalized)", e.Source, rate, sampleRate)
		}
		at := int(math.Round(e.Onset * float64(sampleRate)))
		for i, s := range samples {
			j := at + i
			if j < 0 {
				continue
			}
			if j >= total {
				break
			}
			v := int(float64(s) * e.Gain)
			if e.Overlay {
				v += buf[j]
			}
			buf[j] = clampPCM16(v)
		}
	}
	return wavio.WriteMono(outPath, buf, sampleRate)
}

func clampPCM16(v int) int {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return v
}

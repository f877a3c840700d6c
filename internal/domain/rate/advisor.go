// Package rate estimates per-segment speaking-rate multipliers so synthesized
// clips are more likely to fit their nominal source intervals. Advisory only:
// the timeline placer works from measured clip durations, not estimates.
package rate

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/text/language"
)

const (
	DefaultTolerance = 0.15
	DefaultMaxRate   = 1.3
)

// charsPerSecond holds rough speaking-rate constants per language: how many
// non-space characters a natural voice produces per second. Logographic
// scripts carry far more information per character, hence the lower values.
var charsPerSecond = map[string]float64{
	"zh": 5.2,
	"ja": 7.0,
	"ko": 6.5,
	"en": 14.0,
	"de": 13.0,
	"es": 14.5,
	"fr": 14.0,
	"ru": 12.0,
}

const fallbackCharsPerSecond = 13.0

type Advisor struct {
	tolerance float64
	maxRate   float64
	cps       float64
}

// NewAdvisor builds an advisor for the given synthesis language. Tolerance is
// the fractional overrun accepted before requesting faster speech; maxRate
// caps the multiplier, past which intelligibility degrades and the pipeline
// accepts overrun instead.
func NewAdvisor(target language.Tag, tolerance, maxRate float64) (*Advisor, error) {
	if tolerance < 0 {
		return nil, fmt.Errorf("rate tolerance %.3f must be >= 0: %w", tolerance, errInvalid)
	}
	if maxRate < 1 {
		return nil, fmt.Errorf("max rate %.3f must be >= 1: %w", maxRate, errInvalid)
	}
	base, _ := target.Base()
	cps, ok := charsPerSecond[base.String()]
	if !ok {
		cps = fallbackCharsPerSecond
	}
	return &Advisor{tolerance: tolerance, maxRate: maxRate, cps: cps}, nil
}

var errInvalid = errors.New("invalid rate advisor bounds")

// Advise returns the speaking-rate multiplier for a translated text that must
// fit a nominal interval of the given seconds. 1.0 means no adjustment. Pure
// function of its inputs.
func (a *Advisor) Advise(translated string, nominalSeconds float64) float64 {
	n := countSpoken(translated)
	if n == 0 {
		return 1.0
	}
	if nominalSeconds <= 0 {
		// Degenerate interval: nothing fits, ask for the fastest we allow.
		return a.maxRate
	}
	estimate := float64(n) / a.cps
	if estimate <= nominalSeconds*(1+a.tolerance) {
		return 1.0
	}
	mult := estimate / nominalSeconds
	if mult > a.maxRate {
		return a.maxRate
	}
	return mult
}

func countSpoken(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// Package subtitles renders a sealed timeline as a bilingual SRT file.
// Subtitle timing always uses the nominal source intervals, never the placed
// audio onsets: subtitles must stay synced to the on-screen content even when
// the dubbed audio has drifted behind it.
package subtitles

import (
	"fmt"
	"strings"
	"time"

	"vdub/internal/domain/timeline"
)

// Order controls which language appears on the first line of each entry.
type Order int

const (
	TranslatedFirst Order = iota
	SourceFirst
)

// RenderBilingualSRT produces the SRT document plus warnings for overlapping
// source intervals, which are preserved as-is; subtitle renderers tolerate
// overlap and correcting it here would desync entries from the video.
func RenderBilingualSRT(tl *timeline.Timeline, order Order) (string, []timeline.Warning) {
	var b strings.Builder
	var warnings []timeline.Warning

	prevEnd := 0.0
	for i, seg := range tl.Segments() {
		if i > 0 && seg.SourceStart < prevEnd {
			warnings = append(warnings, timeline.Warning{
				Kind:    timeline.WarnSubtitleOverlap,
				Index:   seg.Index,
				Message: fmt.Sprintf("entry starts at %.3f before previous ends at %.3f", seg.SourceStart, prevEnd),
			})
		}
		prevEnd = seg.SourceEnd

		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", srtTime(seg.SourceStart), srtTime(seg.SourceEnd))
		first, second := seg.TranslatedText, seg.SourceText
		if order == SourceFirst {
			first, second = second, first
		}
		b.WriteString(first)
		b.WriteString("\n")
		b.WriteString(second)
		b.WriteString("\n\n")
	}
	return b.String(), warnings
}

func srtTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second))
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	ms := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

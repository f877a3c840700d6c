package types

import "time"

// Transcript is the raw ASR output: ordered, timestamped source-language
// segments. Times are seconds from the start of the media.
type Transcript struct {
	Segments []TranscriptSegment `json:"segments"`
}

type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Artifacts lists the files produced by one dubbing run.
type Artifacts struct {
	VideoPath     string `json:"video"`
	DubTrackPath  string `json:"dub_track"`
	SubtitlesPath string `json:"subtitles"`
	SnapshotPath  string `json:"snapshot"`
}

// Snapshot is the serialized sealed timeline written next to the other
// artifacts for audit and debugging.
type Snapshot struct {
	RunID      string            `json:"run_id"`
	Input      string            `json:"input"`
	SourceLang string            `json:"source_lang"`
	TargetLang string            `json:"target_lang"`
	CreatedAt  time.Time         `json:"created_at"`
	Segments   []SnapshotSegment `json:"segments"`
}

type SnapshotSegment struct {
	Index          int     `json:"index"`
	SourceStart    float64 `json:"source_start"`
	SourceEnd      float64 `json:"source_end"`
	SourceText     string  `json:"source_text"`
	TranslatedText string  `json:"translated_text"`
	ClipPath       string  `json:"clip_path"`
	ClipDuration   float64 `json:"clip_duration"`
	PlacedStart    float64 `json:"placed_start"`
	Drift          float64 `json:"drift"`
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"vdub/internal/domain/mix"
	"vdub/internal/domain/rate"
	"vdub/internal/domain/subtitles"
	"vdub/internal/domain/timeline"
	"vdub/internal/ports"
	"vdub/internal/retry"
	"vdub/internal/types"
	"vdub/internal/wavio"
)

type Deps struct {
	Video ports.VideoTool
	ASR   ports.ASR
	Trans ports.Translator
	Synth ports.Synthesizer
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	InputVideo string
	RunID      string
	RunName    string
	CacheDir   string
	OutDir     string

	SourceLang string
	TargetLang string

	SampleRate      int
	MixLevel        float64
	IncludeOriginal bool
	SubtitleOrder   subtitles.Order

	SpeakingRate float64
	Advisor      *rate.Advisor

	DriftAlertSeconds float64
	Workers           int
	Retry             retry.Policy

	Logf func(format string, args ...any)
}

type Result struct {
	Artifacts types.Artifacts
	Warnings  []timeline.Warning
}

// Run drives a full dubbing pass: transcribe, translate and synthesize every
// segment, assemble the dub track, mux it back into the video and write the
// subtitle and snapshot artifacts.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	logf := in.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	srcWav := filepath.Join(in.CacheDir, "audio.wav")
	if err := u.d.Video.ExtractAudioMono16k(ctx, in.InputVideo, srcWav); err != nil {
		return Result{}, err
	}

	logf("transcribing source audio")
	tr, err := u.d.ASR.Transcribe(ctx, srcWav, in.CacheDir)
	if err != nil {
		return Result{}, err
	}

	store, err := ingest(tr, logf)
	if err != nil {
		return Result{}, err
	}
	if store.Len() == 0 {
		return Result{}, fmt.Errorf("no usable speech segments in %s", in.InputVideo)
	}
	logf("transcript: %d segments", store.Len())

	if err := u.fillSegments(ctx, in, store, logf); err != nil {
		return Result{}, err
	}

	tl, err := store.Seal()
	if err != nil {
		return Result{}, err
	}

	placements, warnings := timeline.Place(tl, timeline.PlacerOptions{DriftAlertSeconds: in.DriftAlertSeconds})
	for _, w := range warnings {
		logf("warning: %s", w)
	}

	videoDur, err := u.d.Video.ProbeDuration(ctx, in.InputVideo)
	if err != nil {
		return Result{}, err
	}

	originalWav := ""
	if in.IncludeOriginal && in.MixLevel > 0 {
		originalWav = filepath.Join(in.CacheDir, "original.wav")
		if err := u.d.Video.ExtractAudioWav(ctx, in.InputVideo, originalWav, in.SampleRate); err != nil {
			return Result{}, err
		}
	}

	plan, err := mix.BuildPlan(tl, placements, originalWav, in.MixLevel, in.IncludeOriginal, videoDur.Seconds())
	if err != nil {
		return Result{}, err
	}

	dubWav := filepath.Join(in.OutDir, "audio", in.RunName+"_dub.wav")
	if err := os.MkdirAll(filepath.Dir(dubWav), 0o755); err != nil {
		return Result{}, err
	}
	logf("rendering dub track (%.1fs at %d Hz)", plan.Duration, in.SampleRate)
	if err := mix.Render(plan, in.SampleRate, dubWav); err != nil {
		return Result{}, err
	}

	outVideo := filepath.Join(in.OutDir, "video", in.RunName+"_dub.mp4")
	if err := os.MkdirAll(filepath.Dir(outVideo), 0o755); err != nil {
		return Result{}, err
	}
	logf("muxing dubbed video")
	if err := u.d.Video.MuxDub(ctx, in.InputVideo, dubWav, outVideo); err != nil {
		return Result{}, err
	}

	srtDoc, srtWarns := subtitles.RenderBilingualSRT(tl, in.SubtitleOrder)
	warnings = append(warnings, srtWarns...)
	srtPath := filepath.Join(in.OutDir, "subtitles", in.RunName+"_bilingual.srt")
	if err := writeFile(srtPath, []byte(srtDoc)); err != nil {
		return Result{}, err
	}

	snapPath := filepath.Join(in.OutDir, "transcript", in.RunName+".json")
	if err := writeSnapshot(snapPath, in, tl, placements); err != nil {
		return Result{}, err
	}

	return Result{
		Artifacts: types.Artifacts{
			VideoPath:     outVideo,
			DubTrackPath:  dubWav,
			SubtitlesPath: srtPath,
			SnapshotPath:  snapPath,
		},
		Warnings: warnings,
	}, nil
}

// ingest populates a fresh store from the raw transcript, assigning stable
// ordinals. Blank segments (silence misdetected by the ASR) are dropped here,
// before they become units of work.
func ingest(tr types.Transcript, logf func(string, ...any)) (*timeline.Store, error) {
	store := timeline.NewStore()
	idx := 0
	for _, s := range tr.Segments {
		if s.Text == "" {
			logf("skipping blank transcript segment at %.2fs", s.Start)
			continue
		}
		err := store.Append(timeline.Segment{
			Index:       idx,
			SourceStart: s.Start,
			SourceEnd:   s.End,
			SourceText:  s.Text,
		})
		if err != nil {
			return nil, fmt.Errorf("ingest transcript: %w", err)
		}
		idx++
	}
	return store, nil
}

// fillSegments translates and synthesizes every segment with a bounded worker
// pool. External calls go through the retry policy; the first segment that
// exhausts its retries fails the whole run, since an incomplete segment can
// never be placed.
func (u Usecase) fillSegments(ctx context.Context, in Input, store *timeline.Store, logf func(string, ...any)) error {
	rawDir := filepath.Join(in.CacheDir, "tts_raw")
	clipDir := filepath.Join(in.OutDir, "tts_segments")
	for _, dir := range []string{rawDir, clipDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	workers := in.Workers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, seg := range store.Segments() {
		seg := seg
		g.Go(func() error {
			var translated string
			err := in.Retry.Do(ctx, fmt.Sprintf("translate segment %d", seg.Index), func() error {
				var err error
				translated, err = u.d.Trans.Translate(ctx, seg.SourceText)
				return err
			})
			if err != nil {
				return err
			}
			if err := store.FillTranslation(seg.Index, translated); err != nil {
				return err
			}

			speed := in.SpeakingRate
			if speed <= 0 {
				speed = 1.0
			}
			if in.Advisor != nil {
				speed *= in.Advisor.Advise(translated, seg.Nominal())
			}

			raw := filepath.Join(rawDir, fmt.Sprintf("segment_%04d.wav", seg.Index+1))
			err = in.Retry.Do(ctx, fmt.Sprintf("synthesize segment %d", seg.Index), func() error {
				return u.d.Synth.Synthesize(ctx, translated, speed, raw)
			})
			if err != nil {
				return err
			}

			clip := filepath.Join(clipDir, fmt.Sprintf("segment_%04d.wav", seg.Index+1))
			if err := u.d.Video.TranscodeWav(ctx, raw, clip, in.SampleRate); err != nil {
				return err
			}
			dur, err := wavio.Duration(clip)
			if err != nil {
				return err
			}
			if err := store.FillClip(seg.Index, clip, dur); err != nil {
				return err
			}
			logf("segment %d ready (%.2fs clip, rate %.2f)", seg.Index, dur, speed)
			return nil
		})
	}
	return g.Wait()
}

func writeSnapshot(path string, in Input, tl *timeline.Timeline, placements []timeline.Placement) error {
	snap := types.Snapshot{
		RunID:      in.RunID,
		Input:      in.InputVideo,
		SourceLang: in.SourceLang,
		TargetLang: in.TargetLang,
		CreatedAt:  time.Now().UTC(),
		Segments:   make([]types.SnapshotSegment, 0, tl.Len()),
	}
	for i, seg := range tl.Segments() {
		snap.Segments = append(snap.Segments, types.SnapshotSegment{
			Index:          seg.Index,
			SourceStart:    seg.SourceStart,
			SourceEnd:      seg.SourceEnd,
			SourceText:     seg.SourceText,
			TranslatedText: seg.TranslatedText,
			ClipPath:       seg.ClipPath,
			ClipDuration:   seg.ClipDuration,
			PlacedStart:    placements[i].Start,
			Drift:          placements[i].Drift,
		})
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return writeFile(path, b)
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

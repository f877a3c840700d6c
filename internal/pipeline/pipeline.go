package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"vdub/internal/domain/rate"
	"vdub/internal/domain/subtitles"
	"vdub/internal/ports"
	"vdub/internal/ports/adapters/ffmpeg"
	"vdub/internal/ports/adapters/openai"
	"vdub/internal/ports/adapters/whispercpp"
	"vdub/internal/retry"
	"vdub/internal/usecase"
)

func Run(ctx context.Context, cfg Config) error {
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	srcTag := language.MustParse(cfg.SourceLang)
	dstTag := language.MustParse(cfg.TargetLang)

	// adapters
	v := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	asr := whispercpp.New(cfg.Whisper.Bin, cfg.Whisper.Model, cfg.SourceLang)
	trans := openai.NewTranslator(
		cfg.Translation.APIKey,
		cfg.Translation.Model,
		cfg.translationBaseURL(),
		float32(cfg.Translation.Temperature),
		langName(srcTag),
		langName(dstTag),
	)
	synth := openai.NewSynthesizer(cfg.TTS.APIKey, cfg.TTS.Model, cfg.TTS.Voice, cfg.TTS.BaseURL)

	uc := usecase.New(usecase.Deps{
		Video: v,
		ASR:   asr,
		Trans: trans,
		Synth: synth,
	})

	advisor, err := rate.NewAdvisor(dstTag, cfg.Timing.RateTolerance, cfg.Timing.MaxSpeakingRate/cfg.Timing.SpeakingRate)
	if err != nil {
		return err
	}

	runName := cfg.RunName
	if runName == "" {
		runName = buildRunName(cfg.InputVideo, time.Now().UTC())
	} else {
		runName = normalizePathSegment(runName)
	}

	runDir := filepath.Join(cfg.OutDir, runName)
	if _, err := os.Stat(runDir); err == nil {
		if !cfg.Overwrite {
			return fmt.Errorf("%s already exists (use --overwrite to replace it)", runDir)
		}
		logf("replacing previous run: %s", runDir)
		if err := os.RemoveAll(runDir); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}

	jobID := hash(cfg.InputVideo)
	cacheDir := filepath.Join(cfg.CacheDir, "runs", jobID)
	logf("preparing workspace")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	logf("cache: %s", cacheDir)
	logf("output run dir: %s", runDir)

	order := subtitles.TranslatedFirst
	if cfg.SubtitleSourceFirst {
		order = subtitles.SourceFirst
	}

	res, err := uc.Run(ctx, usecase.Input{
		InputVideo:        cfg.InputVideo,
		RunID:             uuid.NewString(),
		RunName:           runName,
		CacheDir:          cacheDir,
		OutDir:            runDir,
		SourceLang:        langName(srcTag),
		TargetLang:        langName(dstTag),
		SampleRate:        cfg.Mix.SampleRate,
		MixLevel:          cfg.Mix.Level,
		IncludeOriginal:   cfg.Mix.IncludeOriginal,
		SubtitleOrder:     order,
		SpeakingRate:      cfg.Timing.SpeakingRate,
		Advisor:           advisor,
		DriftAlertSeconds: cfg.Timing.DriftAlertSeconds,
		Workers:           cfg.Workers,
		Retry:             retry.DefaultPolicy(),
		Logf:              logf,
	})
	if err != nil {
		return err
	}

	logf("dubbed video: %s", res.Artifacts.VideoPath)
	logf("dub track: %s", res.Artifacts.DubTrackPath)
	logf("subtitles: %s", res.Artifacts.SubtitlesPath)
	logf("snapshot: %s", res.Artifacts.SnapshotPath)
	if len(res.Warnings) > 0 {
		logf("run finished with %d warnings", len(res.Warnings))
	}
	return nil
}

// langName renders a tag as an English language name ("zh" -> "Chinese") for
// use in model prompts.
func langName(tag language.Tag) string {
	if n := display.English.Tags().Name(tag); n != "" {
		return n
	}
	return tag.String()
}

func buildRunName(inputVideo string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(inputVideo), filepath.Ext(inputVideo))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", inputVideo, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return fmt.Sprintf("%s-%s-%s", name, ts, suffix)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.Translator = (*openai.Translator)(nil)
var _ ports.Synthesizer = (*openai.Synthesizer)(nil)

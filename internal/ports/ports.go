package ports

import (
	"context"
	"time"

	"vdub/internal/types"
)

// VideoTool wraps the media toolbox (ffmpeg/ffprobe) used around the core.
type VideoTool interface {
	// ExtractAudioMono16k pulls the audio track as mono 16 kHz WAV, the
	// shape the ASR expects.
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	// ExtractAudioWav pulls the audio track as mono WAV at the given rate,
	// used as the attenuated bed under the dub.
	ExtractAudioWav(ctx context.Context, inVideo, outWav string, sampleRate int) error
	// TranscodeWav normalizes arbitrary audio to mono 16-bit PCM WAV at the
	// given rate so the mixer never has to resample.
	TranscodeWav(ctx context.Context, in, out string, sampleRate int) error
	ProbeDuration(ctx context.Context, in string) (time.Duration, error)
	// MuxDub writes a copy of the video with the dub track as its audio.
	MuxDub(ctx context.Context, inVideo, dubWav, outVideo string) error
}

// ASR produces a timestamped source-language transcript from a WAV file.
type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

// Translator converts one source-language segment into the target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Synthesizer renders target-language speech for one segment into outPath.
// speed is a speaking-rate multiplier, 1.0 meaning the voice's natural pace.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, speed float64, outPath string) error
}

package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"vdub/internal/ports/adapters/openai"
)

// ErrConfig marks configuration errors so callers can tell them apart from
// runtime failures.
var ErrConfig = errors.New("invalid config")

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"

	deepseekBaseURL = "https://api.deepseek.com/v1"
)

type WhisperConfig struct {
	Bin   string `toml:"bin"`
	Model string `toml:"model"`
}

type TranslationConfig struct {
	Provider     string   `toml:"provider"`
	Model        string   `toml:"model"`
	BaseURL      string   `toml:"base_url"`
	APIKeyEnv    string   `toml:"api_key_env"`
	Temperature  float64  `toml:"temperature"`
	AllowedHosts []string `toml:"allowed_hosts"`

	APIKey string `toml:"-"`
}

type TTSConfig struct {
	Model     string `toml:"model"`
	Voice     string `toml:"voice"`
	BaseURL   string `toml:"base_url"`
	APIKeyEnv string `toml:"api_key_env"`

	APIKey string `toml:"-"`
}

type MixConfig struct {
	// Level scales the original soundtrack kept underneath the dub, 0..1.
	Level           float64 `toml:"level"`
	IncludeOriginal bool    `toml:"include_original"`
	SampleRate      int     `toml:"sample_rate"`
}

type TimingConfig struct {
	SpeakingRate      float64 `toml:"speaking_rate"`
	MaxSpeakingRate   float64 `toml:"max_speaking_rate"`
	RateTolerance     float64 `toml:"rate_tolerance"`
	DriftAlertSeconds float64 `toml:"drift_alert_seconds"`
}

type Config struct {
	InputVideo string `toml:"-"`
	RunName    string `toml:"-"`
	Overwrite  bool   `toml:"-"`

	OutDir   string `toml:"out_dir"`
	CacheDir string `toml:"cache_dir"`

	// BCP-47 tags ("en", "zh"). Prompt wording and the speaking-rate model
	// are both derived from these.
	SourceLang string `toml:"source_lang"`
	TargetLang string `toml:"target_lang"`

	SubtitleSourceFirst bool `toml:"subtitle_source_first"`
	Workers             int  `toml:"workers"`

	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`

	Whisper     WhisperConfig     `toml:"whisper"`
	Translation TranslationConfig `toml:"translation"`
	TTS         TTSConfig         `toml:"tts"`
	Mix         MixConfig         `toml:"mix"`
	Timing      TimingConfig      `toml:"timing"`

	Logf func(format string, args ...any) `toml:"-"`
}

// Default returns the built-in configuration. A config file and flags are
// layered on top of it.
func Default() Config {
	return Config{
		OutDir:     "artifacts",
		CacheDir:   ".cache",
		SourceLang: "en",
		TargetLang: "zh",
		Workers:    4,

		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",

		Whisper: WhisperConfig{
			Bin:   ".cache/bin/whisper.cpp",
			Model: ".cache/models/ggml-base.bin",
		},
		Translation: TranslationConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.3,
		},
		TTS: TTSConfig{
			Model:     "gpt-4o-mini-tts",
			Voice:     "alloy",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Mix: MixConfig{
			Level:           0.25,
			IncludeOriginal: true,
			SampleRate:      24000,
		},
		Timing: TimingConfig{
			SpeakingRate:      1.0,
			MaxSpeakingRate:   1.3,
			RateTolerance:     0.15,
			DriftAlertSeconds: 2.0,
		},
	}
}

// Load reads a TOML config file over the defaults. A missing file is not an
// error when path points at the default location; an explicit path must
// exist.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.InputVideo == "" {
		return fmt.Errorf("%w: input video is empty", ErrConfig)
	}
	if _, err := os.Stat(c.InputVideo); err != nil {
		return fmt.Errorf("%w: stat input: %v", ErrConfig, err)
	}
	if _, err := language.Parse(c.SourceLang); err != nil {
		return fmt.Errorf("%w: source language %q: %v", ErrConfig, c.SourceLang, err)
	}
	if _, err := language.Parse(c.TargetLang); err != nil {
		return fmt.Errorf("%w: target language %q: %v", ErrConfig, c.TargetLang, err)
	}
	if c.Whisper.Model == "" {
		return fmt.Errorf("%w: whisper model path is required", ErrConfig)
	}
	switch c.Translation.Provider {
	case ProviderOpenAI, ProviderDeepSeek:
	default:
		return fmt.Errorf("%w: unknown translation provider %q", ErrConfig, c.Translation.Provider)
	}
	if c.Mix.Level < 0 || c.Mix.Level > 1 {
		return fmt.Errorf("%w: mix level %.2f outside [0, 1]", ErrConfig, c.Mix.Level)
	}
	if c.Mix.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0", ErrConfig)
	}
	if c.Timing.SpeakingRate <= 0 {
		return fmt.Errorf("%w: speaking rate must be > 0", ErrConfig)
	}
	if c.Timing.MaxSpeakingRate < c.Timing.SpeakingRate {
		return fmt.Errorf("%w: max speaking rate %.2f below speaking rate %.2f",
			ErrConfig, c.Timing.MaxSpeakingRate, c.Timing.SpeakingRate)
	}
	if c.Timing.RateTolerance < 0 {
		return fmt.Errorf("%w: rate tolerance must be >= 0", ErrConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1", ErrConfig)
	}
	if err := openai.ValidateBaseURL(c.Translation.BaseURL, c.Translation.AllowedHosts); err != nil {
		return fmt.Errorf("%w: translation base URL: %v", ErrConfig, err)
	}
	if err := openai.ValidateBaseURL(c.TTS.BaseURL, nil); err != nil {
		return fmt.Errorf("%w: tts base URL: %v", ErrConfig, err)
	}
	return nil
}

// translationBaseURL resolves the effective base URL: DeepSeek speaks the
// OpenAI wire protocol on its own endpoint.
func (c Config) translationBaseURL() string {
	if c.Translation.BaseURL != "" {
		return c.Translation.BaseURL
	}
	if c.Translation.Provider == ProviderDeepSeek {
		return deepseekBaseURL
	}
	return ""
}

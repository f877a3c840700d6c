package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"vdub/internal/pipeline"
)

const defaultConfigFile = "vdub.toml"

func run(cmd *cobra.Command, input string) error {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = defaultConfigFile
	}
	cfg, err := pipeline.Load(configPath, explicit)
	if err != nil {
		return err
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	cfg.InputVideo = absIn
	cfg.RunName, _ = flags.GetString("run-name")
	cfg.Overwrite, _ = flags.GetBool("overwrite")

	// Flags override both defaults and the config file.
	if v, _ := flags.GetString("out"); v != "" {
		cfg.OutDir = v
	}
	if v, _ := flags.GetString("source-lang"); v != "" {
		cfg.SourceLang = v
	}
	if v, _ := flags.GetString("target-lang"); v != "" {
		cfg.TargetLang = v
	}
	if v, _ := flags.GetString("whisper-model"); v != "" {
		cfg.Whisper.Model = v
	}
	if v, _ := flags.GetString("whisper-bin"); v != "" {
		cfg.Whisper.Bin = v
	}
	if v, _ := flags.GetString("translation-provider"); v != "" {
		cfg.Translation.Provider = v
	}
	if v, _ := flags.GetString("translation-model"); v != "" {
		cfg.Translation.Model = v
	}
	if v, _ := flags.GetString("translation-base-url"); v != "" {
		cfg.Translation.BaseURL = v
	}
	if v, _ := flags.GetString("translation-api-key-env"); v != "" {
		cfg.Translation.APIKeyEnv = v
	}
	if v, _ := flags.GetString("tts-model"); v != "" {
		cfg.TTS.Model = v
	}
	if v, _ := flags.GetString("tts-voice"); v != "" {
		cfg.TTS.Voice = v
	}
	if v, _ := flags.GetFloat64("speaking-rate"); v > 0 {
		cfg.Timing.SpeakingRate = v
	}
	if v, _ := flags.GetFloat64("drift-alert"); v > 0 {
		cfg.Timing.DriftAlertSeconds = v
	}
	if v, _ := flags.GetFloat64("mix-level"); v >= 0 {
		cfg.Mix.Level = v
	}
	if v, _ := flags.GetBool("no-mix"); v {
		cfg.Mix.IncludeOriginal = false
	}
	if v, _ := flags.GetBool("source-first"); v {
		cfg.SubtitleSourceFirst = true
	}
	if v, _ := flags.GetInt("sample-rate"); v > 0 {
		cfg.Mix.SampleRate = v
	}
	if v, _ := flags.GetInt("workers"); v > 0 {
		cfg.Workers = v
	}

	cfg.Translation.APIKey = os.Getenv(cfg.Translation.APIKeyEnv)
	if cfg.Translation.APIKey == "" {
		return fmt.Errorf("%s is required (set it in .env)", cfg.Translation.APIKeyEnv)
	}
	cfg.TTS.APIKey = os.Getenv(cfg.TTS.APIKeyEnv)
	if cfg.TTS.APIKey == "" {
		return fmt.Errorf("%s is required (set it in .env)", cfg.TTS.APIKeyEnv)
	}

	cfg.Logf = func(format string, args ...any) {
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	return pipeline.Run(ctx, cfg)
}

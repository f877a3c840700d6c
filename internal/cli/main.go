package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "vdub <video>",
		Short:        "Dub a video into another language with translated subtitles",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("run-name", "", "Name for this run (defaults to a timestamped name)")
	root.Flags().String("out", "", "Output directory")
	root.Flags().String("config", "", "Path to a TOML config file")
	root.Flags().Bool("overwrite", false, "Replace a previous run with the same name")
	root.Flags().String("source-lang", "", "Source language tag (e.g. en)")
	root.Flags().String("target-lang", "", "Target language tag (e.g. zh)")
	root.Flags().String("whisper-model", "", "Path to the whisper.cpp model file")
	root.Flags().String("translation-provider", "", "Translation backend (openai or deepseek)")
	root.Flags().String("translation-model", "", "Model name for the translation provider")
	root.Flags().String("tts-model", "", "Model name for speech synthesis")
	root.Flags().String("tts-voice", "", "Voice name for speech synthesis")
	root.Flags().Float64("speaking-rate", 0, "Base speaking rate for the synthesized voice")
	root.Flags().Float64("mix-level", -1, "Volume of the original soundtrack under the dub (0..1)")
	root.Flags().Bool("no-mix", false, "Drop the original soundtrack entirely")
	root.Flags().Bool("source-first", false, "Put the source line first in bilingual subtitles")
	root.Flags().Int("workers", 0, "Concurrent translation/synthesis workers")

	// Hidden tuning flags (internal)
	root.Flags().String("whisper-bin", "", "Path to the whisper.cpp binary")
	root.Flags().String("translation-base-url", "", "Custom base URL for the translation API")
	root.Flags().String("translation-api-key-env", "", "Env var holding the translation API key")
	root.Flags().Int("sample-rate", 0, "Sample rate for the dubbed audio track")
	root.Flags().Float64("drift-alert", 0, "Drift in seconds that triggers an alert")
	for _, f := range []string{"whisper-bin", "translation-base-url", "translation-api-key-env", "sample-rate", "drift-alert"} {
		_ = root.Flags().MarkHidden(f)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

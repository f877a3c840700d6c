// Package openai implements the Translator and Synthesizer ports on top of
// any OpenAI-compatible API. DeepSeek translation works through the same
// client with a custom base URL and model.
package openai

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

func newClient(apiKey, baseURL string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if u := normalizeBaseURL(baseURL); u != "" {
		cfg.BaseURL = u
	}
	return goopenai.NewClientWithConfig(cfg)
}

type Translator struct {
	client      *goopenai.Client
	model       string
	temperature float32
	sourceLang  string
	targetLang  string
}

func NewTranslator(apiKey, model, baseURL string, temperature float32, sourceLang, targetLang string) *Translator {
	return &Translator{
		client:      newClient(apiKey, baseURL),
		model:       model,
		temperature: temperature,
		sourceLang:  sourceLang,
		targetLang:  targetLang,
	}
}

func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following spoken %s into natural, colloquial %s suitable for video dubbing. "+
			"Preserve the meaning and tone. Do not add explanations or numbering.\n\n%s",
		t.sourceLang, t.targetLang, strings.TrimSpace(text),
	)

	resp, err := t.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       t.model,
		Temperature: t.temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: "You are a professional bilingual translation assistant."},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translate: empty response from %s", t.model)
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("translate: model %s returned empty text", t.model)
	}
	return out, nil
}

type Synthesizer struct {
	client *goopenai.Client
	model  string
	voice  string
}

func NewSynthesizer(apiKey, model, voice, baseURL string) *Synthesizer {
	return &Synthesizer{
		client: newClient(apiKey, baseURL),
		model:  model,
		voice:  voice,
	}
}

// Synthesize renders speech as WAV into outPath. The rendered clip is later
// normalized and measured; the speed hint only biases the synthesis.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, speed float64, outPath string) error {
	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(s.model),
		Input:          text,
		Voice:          goopenai.SpeechVoice(s.voice),
		ResponseFormat: goopenai.SpeechResponseFormatWav,
		Speed:          speed,
	})
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Close()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp); err != nil {
		f.Close()
		return fmt.Errorf("synthesize: write %s: %w", outPath, err)
	}
	return f.Close()
}

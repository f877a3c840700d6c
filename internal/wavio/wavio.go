// Package wavio reads and writes mono 16-bit PCM WAV files and measures clip
// durations. The mixer operates on these decoded sample slices directly.
package wavio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadMono decodes a WAV file into a mono sample slice and its sample rate.
// Multi-channel audio is downmixed by averaging, so a stereo clip that slipped
// past normalization still mixes correctly.
func ReadMono(path string) ([]int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("decode %s: missing format", path)
	}

	ch := buf.Format.NumChannels
	if ch <= 1 {
		return buf.Data, buf.Format.SampleRate, nil
	}
	mono := make([]int, len(buf.Data)/ch)
	for i := range mono {
		sum := 0
		for c := 0; c < ch; c++ {
			sum += buf.Data[i*ch+c]
		}
		mono[i] = sum / ch
	}
	return mono, buf.Format.SampleRate, nil
}

// WriteMono encodes samples as a mono 16-bit PCM WAV file.
func WriteMono(path string, samples []int, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	e := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := e.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := e.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return f.Close()
}

// Duration reports the measured playback length of a WAV file in seconds.
func Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	return dur.Seconds(), nil
}

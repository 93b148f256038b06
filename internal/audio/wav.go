package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV serializes float32 samples to a 16-bit PCM mono WAV file, the
// artifact format the whisper engine consumes.
func WriteWAV(path string, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, SampleRate, 16, Channels, 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: Channels,
			SampleRate:  SampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(clampSample(s) * 32767)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}

	return nil
}

// clampSample limits a sample to [-1, 1] before integer conversion.
func clampSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

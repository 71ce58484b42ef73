// Package audio decodes WAV files into the mono float PCM the detectors
// consume.
package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/RyanBlaney/affect-fusion/pkg/affect"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV opens path and decodes it with DecodeWAV.
func ReadWAV(path string) (*affect.AudioInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	return DecodeWAV(f)
}

// DecodeWAV reads an integer PCM WAV stream, downmixes it to mono and scales
// samples to [-1, 1].
func DecodeWAV(r io.ReadSeeker) (*affect.AudioInput, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("audio file is not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("WAV file has no sample rate")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	return &affect.AudioInput{
		Samples:    downmix(buf, bitDepth),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

func downmix(buf *goaudio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float64(int64(1) << (bitDepth - 1))
	// 8-bit WAV is unsigned.
	offset := 0.0
	if bitDepth == 8 {
		offset = scale
	}

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += (float64(buf.Data[i*channels+c]) - offset) / scale
		}
		out[i] = clampUnit(sum / float64(channels))
	}
	return out
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// WriteWAV encodes mono float PCM as 16-bit WAV.
func WriteWAV(w io.WriteSeeker, in *affect.AudioInput) error {
	if in == nil || in.SampleRate <= 0 {
		return fmt.Errorf("audio input needs a positive sample rate")
	}

	encoder := wav.NewEncoder(w, in.SampleRate, 16, 1, 1)

	data := make([]int, len(in.Samples))
	for i, s := range in.Samples {
		data[i] = int(clampUnit(s) * 32767.0)
	}

	err := encoder.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  in.SampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	})
	if err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Synthesized speech format.
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
)

// ErrOddPCMLength is returned for payloads that are not whole 16-bit samples.
var ErrOddPCMLength = errors.New("pcm payload has odd length")

// Buffer is decoded audio, one float32 slice per channel in [-1, 1).
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// DecodePCM16 decodes interleaved little-endian signed 16-bit samples.
func DecodePCM16(data []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid format: %d Hz, %d channels", sampleRate, channels)
	}
	if len(data)%2 != 0 {
		return nil, ErrOddPCMLength
	}

	samples := len(data) / 2
	frames := samples / channels
	buf := &Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			v := int16(binary.LittleEndian.Uint16(data[off:]))
			buf.Channels[ch][i] = float32(v) / 32768.0
		}
	}
	return buf, nil
}

// EncodeWAV renders the buffer as a 16-bit PCM WAV file.
func EncodeWAV(b *Buffer) []byte {
	channels := len(b.Channels)
	frames := b.Frames()
	dataLen := frames * channels * 2

	var out bytes.Buffer
	out.Grow(44 + dataLen)

	le := binary.LittleEndian
	out.WriteString("RIFF")
	_ = binary.Write(&out, le, uint32(36+dataLen))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	_ = binary.Write(&out, le, uint32(16))
	_ = binary.Write(&out, le, uint16(1)) // PCM
	_ = binary.Write(&out, le, uint16(channels))
	_ = binary.Write(&out, le, uint32(b.SampleRate))
	_ = binary.Write(&out, le, uint32(b.SampleRate*channels*2))
	_ = binary.Write(&out, le, uint16(channels*2))
	_ = binary.Write(&out, le, uint16(16))

	out.WriteString("data")
	_ = binary.Write(&out, le, uint32(dataLen))

	sample := make([]byte, 2)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			le.PutUint16(sample, uint16(toInt16(b.Channels[ch][i])))
			out.Write(sample)
		}
	}
	return out.Bytes()
}

func toInt16(f float32) int16 {
	v := math.Round(float64(f) * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Package audio converts the speech payloads returned by the generation
// service into playable buffers and downloadable WAV files.
package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Output format of every speech, music and sound-effect payload.
const (
	SampleRate = 24000
	Channels   = 1
)

const (
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
	wavHeaderSize  = 44
)

var (
	// ErrInvalidEncoding is returned when a transport payload is not valid base64.
	ErrInvalidEncoding = errors.New("audio: invalid transport encoding")
	// ErrTruncatedPCM is returned when PCM data does not hold a whole number of frames.
	ErrTruncatedPCM = errors.New("audio: truncated PCM data")
	// ErrInvalidFormat is returned for non-positive sample rates or channel counts.
	ErrInvalidFormat = errors.New("audio: invalid sample format")
)

// Buffer holds de-interleaved samples normalized to [-1.0, 1.0).
type Buffer struct {
	SampleRate int
	Channels   int
	Frames     int
	// Data holds one slice per channel, each Frames long.
	Data [][]float32
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames) * time.Second / time.Duration(b.SampleRate)
}

// Float32LE re-interleaves the buffer as little-endian float32 samples,
// the layout expected by the playback device.
func (b *Buffer) Float32LE() []byte {
	out := make([]byte, b.Frames*b.Channels*4)
	off := 0
	for i := 0; i < b.Frames; i++ {
		for c := 0; c < b.Channels; c++ {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(b.Data[c][i]))
			off += 4
		}
	}
	return out
}

// DecodeTransport decodes the base64 text carried in a service response
// into raw PCM bytes.
func DecodeTransport(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return data, nil
}

// DecodePCM interprets data as interleaved signed 16-bit little-endian
// samples. Each sample is divided by 32768, so -32768 maps to exactly -1.0
// and 32767 to just below 1.0.
func DecodePCM(data []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: rate=%d channels=%d", ErrInvalidFormat, sampleRate, channels)
	}
	frameSize := channels * bytesPerSample
	if len(data)%frameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrTruncatedPCM, len(data), frameSize)
	}

	frames := len(data) / frameSize
	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Frames:     frames,
		Data:       make([][]float32, channels),
	}
	for c := range buf.Data {
		buf.Data[c] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * bytesPerSample
			sample := int16(binary.LittleEndian.Uint16(data[off:]))
			buf.Data[c][i] = float32(sample) / 32768.0
		}
	}
	return buf, nil
}

// wavHeader is the canonical 44-byte RIFF/WAVE header for uncompressed PCM.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// EncodeWAV wraps 16-bit PCM bytes in a WAV container. The payload is
// copied unchanged after the header.
func EncodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: rate=%d channels=%d", ErrInvalidFormat, sampleRate, channels)
	}

	blockAlign := channels * bytesPerSample
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}

	var out bytes.Buffer
	out.Grow(wavHeaderSize + len(pcm))
	if err := binary.Write(&out, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("audio: write wav header: %w", err)
	}
	out.Write(pcm)
	return out.Bytes(), nil
}

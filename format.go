package wavstream

import (
	"fmt"
	"math"
	"time"

	"github.com/go-audio/audio"
)

// Encoding is the sample category of a Format.
type Encoding uint8

const (
	// SignedInt is integer PCM. 8-bit data is stored unsigned on disk.
	SignedInt Encoding = iota
	// Float is IEEE-754 floating point.
	Float
)

func (e Encoding) String() string {
	if e == Float {
		return "float"
	}

	return "int"
}

// Format describes the sample layout of a WAV file.
type Format struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	Encoding      Encoding
}

// Validate checks that f describes a representable WAV format.
// 32-bit signed integers validate but have no codec; see SampleFormat.
func (f Format) Validate() error {
	if f.Channels < 1 {
		return fmt.Errorf("%w: %d channels", ErrInconsistentFormat, f.Channels)
	}

	if f.SampleRate == 0 {
		return fmt.Errorf("%w: sample rate 0", ErrInconsistentFormat)
	}

	switch f.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, f.BitsPerSample)
	}

	if f.Encoding == Float && f.BitsPerSample != 32 {
		return fmt.Errorf("%w: %d-bit float", ErrUnsupportedFormat, f.BitsPerSample)
	}

	blockAlign := int(f.Channels) * f.BytesPerSample()
	if blockAlign > math.MaxUint16 {
		return fmt.Errorf("%w: block align %d overflows 16 bits", ErrInconsistentFormat, blockAlign)
	}

	if uint64(f.SampleRate)*uint64(blockAlign) > math.MaxUint32 {
		return fmt.Errorf("%w: byte rate overflows 32 bits", ErrInconsistentFormat)
	}

	return nil
}

// BytesPerSample returns the storage size of one sample.
func (f Format) BytesPerSample() int {
	return (int(f.BitsPerSample)-1)/8 + 1
}

// BlockAlign returns the number of bytes in one frame.
func (f Format) BlockAlign() uint16 {
	return uint16(int(f.Channels) * f.BytesPerSample())
}

// ByteRate returns the number of bytes per second of audio.
func (f Format) ByteRate() uint32 {
	return f.SampleRate * uint32(f.BlockAlign())
}

// SampleFormat returns the codec for f, failing with ErrUnsupportedFormat
// for combinations the codec doesn't cover.
func (f Format) SampleFormat() (SampleFormat, error) {
	switch {
	case f.Encoding == Float && f.BitsPerSample == 32:
		return Float32, nil
	case f.Encoding == SignedInt && f.BitsPerSample == 8:
		return Int8, nil
	case f.Encoding == SignedInt && f.BitsPerSample == 16:
		return Int16, nil
	case f.Encoding == SignedInt && f.BitsPerSample == 24:
		return Int24, nil
	default:
		return 0, fmt.Errorf("%w: %d-bit %s", ErrUnsupportedFormat, f.BitsPerSample, f.Encoding)
	}
}

// AudioFormat returns the go-audio view of f.
func (f Format) AudioFormat() *audio.Format {
	return &audio.Format{
		NumChannels: int(f.Channels),
		SampleRate:  int(f.SampleRate),
	}
}

// Duration returns the playing time of the given number of frames.
func (f Format) Duration(frames uint64) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}

	seconds := frames / uint64(f.SampleRate)
	rest := frames % uint64(f.SampleRate)

	return time.Duration(seconds)*time.Second + time.Duration(rest*uint64(time.Second)/uint64(f.SampleRate))
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz @ %d bits %s, %d channel(s), %d avg bytes/sec",
		f.SampleRate, f.BitsPerSample, f.Encoding, f.Channels, f.ByteRate())
}

func (f Format) formatTag() uint16 {
	if f.Encoding == Float {
		return wavFormatIEEEFloat
	}

	return wavFormatPCM
}

// fmtChunk builds the chunk written for f. A non-zero channel mask or
// extensible flag selects WAVE_FORMAT_EXTENSIBLE.
func (f Format) fmtChunk(extensible bool, channelMask uint32) *FmtChunk {
	chunk := &FmtChunk{
		FormatTag:      f.formatTag(),
		NumChannels:    f.Channels,
		SampleRate:     f.SampleRate,
		AvgBytesPerSec: f.ByteRate(),
		BlockAlign:     f.BlockAlign(),
		BitsPerSample:  f.BitsPerSample,
	}

	if extensible {
		chunk.FormatTag = wavFormatExtensible
		chunk.Extensible = &FmtExtensible{
			ValidBitsPerSample: f.BitsPerSample,
			ChannelMask:        channelMask,
			SubFormat:          makeSubFormatGUID(f.formatTag()),
		}
	}

	return chunk
}

package wavstream

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-audio/audio"
)

// SampleFormat selects the on-disk encoding of a single sample.
type SampleFormat uint8

const (
	// Int8 is unsigned 8-bit PCM, centred on 128.
	Int8 SampleFormat = iota + 1
	// Int16 is little-endian signed 16-bit PCM.
	Int16
	// Int24 is little-endian signed 24-bit PCM packed in 3 bytes.
	Int24
	// Float32 is little-endian IEEE-754 single precision.
	Float32
)

const (
	pcm8Offset = 128
	minPCMInt8 = -128
	maxPCMInt8 = 127
	minPCM16   = math.MinInt16
	maxPCM16   = math.MaxInt16
	minPCM24   = -8388608
	maxPCM24   = 8388607
)

// Size returns the number of bytes one sample occupies.
func (sf SampleFormat) Size() int {
	switch sf {
	case Int8:
		return 1
	case Int16:
		return 2
	case Int24:
		return 3
	case Float32:
		return 4
	default:
		return 0
	}
}

// Bits returns the bit depth of the format.
func (sf SampleFormat) Bits() int {
	return sf.Size() * 8
}

// IsFloat reports whether the format stores IEEE floats.
func (sf SampleFormat) IsFloat() bool {
	return sf == Float32
}

func (sf SampleFormat) String() string {
	switch sf {
	case Int8:
		return "8-bit unsigned integer"
	case Int16:
		return "16-bit signed integer"
	case Int24:
		return "24-bit signed integer"
	case Float32:
		return "32-bit IEEE float"
	default:
		return fmt.Sprintf("SampleFormat(%d)", uint8(sf))
	}
}

func (sf SampleFormat) intRange() (int32, int32) {
	switch sf {
	case Int8:
		return minPCMInt8, maxPCMInt8
	case Int16:
		return minPCM16, maxPCM16
	case Int24:
		return minPCM24, maxPCM24
	default:
		return 0, 0
	}
}

// Sample is one decoded sample value. Integer samples hold a value in the
// signed range of their source depth; float samples are kept bit-exact.
type Sample struct {
	i     int32
	f     float32
	float bool
}

// IntSample returns an integer sample.
func IntSample(v int32) Sample {
	return Sample{i: v}
}

// FloatSample returns a float sample. The value is not clamped.
func FloatSample(v float32) Sample {
	return Sample{f: v, float: true}
}

// IsFloat reports whether s holds a float value.
func (s Sample) IsFloat() bool {
	return s.float
}

// Int returns the integer value. Float samples return 0.
func (s Sample) Int() int32 {
	return s.i
}

// Float32 returns the float value. Integer samples are returned unscaled;
// use Normalize to map them to [-1, 1].
func (s Sample) Float32() float32 {
	if s.float {
		return s.f
	}

	return float32(s.i)
}

func (s Sample) String() string {
	if s.float {
		return fmt.Sprintf("%g", s.f)
	}

	return fmt.Sprintf("%d", s.i)
}

// Frame holds one sample per channel for a single instant.
type Frame []Sample

// IntFrame builds a frame of integer samples.
func IntFrame(values ...int32) Frame {
	frame := make(Frame, len(values))
	for i, v := range values {
		frame[i] = IntSample(v)
	}

	return frame
}

// FloatFrame builds a frame of float samples.
func FloatFrame(values ...float32) Frame {
	frame := make(Frame, len(values))
	for i, v := range values {
		frame[i] = FloatSample(v)
	}

	return frame
}

// DecodeSample decodes the first sf.Size() bytes of b.
func DecodeSample(b []byte, sf SampleFormat) (Sample, error) {
	size := sf.Size()
	if size == 0 {
		return Sample{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, sf)
	}

	if len(b) < size {
		return Sample{}, fmt.Errorf("%w: need %d bytes for a %s sample, have %d", ErrTruncatedData, size, sf, len(b))
	}

	// NOTE: WAV PCM data is stored using little-endian
	switch sf {
	case Int8:
		return IntSample(int32(b[0]) - pcm8Offset), nil
	case Int16:
		return IntSample(int32(int16(binary.LittleEndian.Uint16(b[:2])))), nil
	case Int24:
		return IntSample(audio.Int24LETo32(b[:3])), nil
	default:
		return FloatSample(math.Float32frombits(binary.LittleEndian.Uint32(b[:4]))), nil
	}
}

// EncodeSample encodes s into the first sf.Size() bytes of dst.
// Integer samples outside the target range fail with ErrSampleOutOfRange;
// nothing is written in that case.
func EncodeSample(dst []byte, s Sample, sf SampleFormat) error {
	size := sf.Size()
	if size == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, sf)
	}

	if len(dst) < size {
		return fmt.Errorf("short buffer for a %s sample: %d bytes", sf, len(dst))
	}

	if s.float != sf.IsFloat() {
		return fmt.Errorf("%w: %s sample for %s", ErrSampleKindMismatch, sampleKind(s), sf)
	}

	if sf == Float32 {
		binary.LittleEndian.PutUint32(dst[:4], math.Float32bits(s.f))
		return nil
	}

	low, high := sf.intRange()
	if s.i < low || s.i > high {
		return fmt.Errorf("%w: %d not in [%d, %d] for %s", ErrSampleOutOfRange, s.i, low, high, sf)
	}

	switch sf {
	case Int8:
		dst[0] = byte(s.i + pcm8Offset)
	case Int16:
		binary.LittleEndian.PutUint16(dst[:2], uint16(int16(s.i)))
	case Int24:
		copy(dst[:3], audio.Int32toInt24LEBytes(s.i))
	}

	return nil
}

// Normalize maps a decoded sample of format sf to float32. Integer samples
// land in [-1, 1] with the full signed range mapped onto it; float samples
// pass through unchanged.
func Normalize(s Sample, sf SampleFormat) float32 {
	if s.float || sf.IsFloat() {
		return s.Float32()
	}

	half := math.Ldexp(1, sf.Bits()-1)

	return float32((float64(s.i)+half)/(half-0.5) - 1)
}

func sampleKind(s Sample) string {
	if s.float {
		return "float"
	}

	return "integer"
}

// decodeFrame decodes one block of interleaved samples.
func decodeFrame(block []byte, sf SampleFormat, channels int) (Frame, error) {
	size := sf.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, sf)
	}

	if len(block) < size*channels {
		return nil, fmt.Errorf("%w: frame needs %d bytes, have %d", ErrTruncatedData, size*channels, len(block))
	}

	frame := make(Frame, channels)
	for ch := range channels {
		sample, err := DecodeSample(block[ch*size:], sf)
		if err != nil {
			return nil, err
		}

		frame[ch] = sample
	}

	return frame, nil
}

// encodeFrame encodes a whole frame into dst so a codec failure never
// leaves a partial frame behind.
func encodeFrame(dst []byte, frame Frame, sf SampleFormat, channels int) error {
	if len(frame) != channels {
		return fmt.Errorf("%w: frame has %d samples, format has %d channels", ErrChannelCountMismatch, len(frame), channels)
	}

	size := sf.Size()
	for ch, sample := range frame {
		err := EncodeSample(dst[ch*size:], sample, sf)
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
	}

	return nil
}

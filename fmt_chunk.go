package wavstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/riff"
	"github.com/google/uuid"
)

const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatExtensible = 0xFFFE

	fmtCoreSize       = 16
	fmtCbSizeLen      = 2
	fmtExtensibleSize = 22
)

const (
	ksSubFormatGUIDTail0  = 0x00
	ksSubFormatGUIDTail1  = 0x00
	ksSubFormatGUIDTail2  = 0x10
	ksSubFormatGUIDTail3  = 0x00
	ksSubFormatGUIDTail4  = 0x80
	ksSubFormatGUIDTail5  = 0x00
	ksSubFormatGUIDTail6  = 0x00
	ksSubFormatGUIDTail7  = 0xAA
	ksSubFormatGUIDTail8  = 0x00
	ksSubFormatGUIDTail9  = 0x38
	ksSubFormatGUIDTail10 = 0x9B
	ksSubFormatGUIDTail11 = 0x71
)

// FmtChunk stores the fmt chunk as found on disk, including extensible metadata.
type FmtChunk struct {
	FormatTag      uint16
	NumChannels    uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
	ExtraData      []byte
	Extensible     *FmtExtensible
}

// FmtExtensible stores WAVE_FORMAT_EXTENSIBLE extra fields.
type FmtExtensible struct {
	ValidBitsPerSample uint16
	ChannelMask        uint32
	SubFormat          [16]byte
}

// Clone returns a deep copy of f.
func (f *FmtChunk) Clone() *FmtChunk {
	if f == nil {
		return nil
	}

	out := *f

	out.ExtraData = append([]byte(nil), f.ExtraData...)
	if f.Extensible != nil {
		ext := *f.Extensible
		out.Extensible = &ext
	}

	return &out
}

// EffectiveFormatTag returns the sub-format tag for extensible chunks and
// the plain format tag otherwise.
func (f *FmtChunk) EffectiveFormatTag() uint16 {
	if f == nil {
		return 0
	}

	if f.FormatTag == wavFormatExtensible && f.Extensible != nil {
		return binary.LittleEndian.Uint16(f.Extensible.SubFormat[:2])
	}

	return f.FormatTag
}

// SubFormatString renders the extensible sub-format GUID, or "" for
// non-extensible chunks.
func (e *FmtExtensible) SubFormatString() string {
	if e == nil {
		return ""
	}

	return uuid.UUID(e.SubFormat).String()
}

func (e *FmtExtensible) hasStandardSubFormat() bool {
	template := makeSubFormatGUID(binary.LittleEndian.Uint16(e.SubFormat[:2]))
	return template == e.SubFormat
}

func makeSubFormatGUID(formatTag uint16) [16]byte {
	var guid [16]byte
	binary.LittleEndian.PutUint32(guid[:4], uint32(formatTag))
	guid[4] = ksSubFormatGUIDTail0
	guid[5] = ksSubFormatGUIDTail1
	guid[6] = ksSubFormatGUIDTail2
	guid[7] = ksSubFormatGUIDTail3
	guid[8] = ksSubFormatGUIDTail4
	guid[9] = ksSubFormatGUIDTail5
	guid[10] = ksSubFormatGUIDTail6
	guid[11] = ksSubFormatGUIDTail7
	guid[12] = ksSubFormatGUIDTail8
	guid[13] = ksSubFormatGUIDTail9
	guid[14] = ksSubFormatGUIDTail10
	guid[15] = ksSubFormatGUIDTail11

	return guid
}

// Format converts the chunk into a validated Format descriptor.
func (f *FmtChunk) Format() (Format, error) {
	if f == nil {
		return Format{}, ErrMissingFmtChunk
	}

	if f.FormatTag == wavFormatExtensible {
		if f.Extensible == nil {
			return Format{}, fmt.Errorf("%w: extensible fmt chunk without extension block", ErrInconsistentFormat)
		}

		if !f.Extensible.hasStandardSubFormat() {
			return Format{}, fmt.Errorf("%w: extensible sub-format %s", ErrUnsupportedFormat, f.Extensible.SubFormatString())
		}
	}

	var enc Encoding

	switch tag := f.EffectiveFormatTag(); tag {
	case wavFormatPCM:
		enc = SignedInt
	case wavFormatIEEEFloat:
		enc = Float
	default:
		return Format{}, fmt.Errorf("%w: format tag %s", ErrUnsupportedFormat, formatTagName(tag))
	}

	format := Format{
		Channels:      f.NumChannels,
		SampleRate:    f.SampleRate,
		BitsPerSample: f.BitsPerSample,
		Encoding:      enc,
	}

	err := format.Validate()
	if err != nil {
		return Format{}, err
	}

	if f.BlockAlign != format.BlockAlign() {
		return Format{}, fmt.Errorf("%w: block align %d, expected %d channel(s) * %d byte(s) = %d",
			ErrInconsistentFormat, f.BlockAlign, f.NumChannels, format.BytesPerSample(), format.BlockAlign())
	}

	return format, nil
}

func formatTagName(tag uint16) string {
	switch tag {
	case wavFormatPCM:
		return "PCM (1)"
	case wavFormatIEEEFloat:
		return "IEEE float (3)"
	case 6:
		return "A-law (6)"
	case 7:
		return "mu-law (7)"
	case 49:
		return "GSM 6.10 (49)"
	case 0x55:
		return "MPEG layer 3 (85)"
	case wavFormatExtensible:
		return "extensible (65534)"
	default:
		return fmt.Sprintf("0x%04X", tag)
	}
}

// parseFmtChunk reads the fmt chunk body. The caller positions the
// source after the body; trailing bytes are left unread.
func parseFmtChunk(chunk *riff.Chunk) (*FmtChunk, error) {
	if chunk.Size < fmtCoreSize {
		return nil, fmt.Errorf("%w: fmt chunk size %d, must be %d or larger", ErrInconsistentFormat, chunk.Size, fmtCoreSize)
	}

	fmtChunk := &FmtChunk{}

	fields := []struct {
		name string
		dst  any
	}{
		{"format tag", &fmtChunk.FormatTag},
		{"channels", &fmtChunk.NumChannels},
		{"sample rate", &fmtChunk.SampleRate},
		{"avg bytes/sec", &fmtChunk.AvgBytesPerSec},
		{"block align", &fmtChunk.BlockAlign},
		{"bits per sample", &fmtChunk.BitsPerSample},
	}

	for _, field := range fields {
		err := readFmtField(chunk, field.name, field.dst)
		if err != nil {
			return nil, err
		}
	}

	if chunk.Size < fmtCoreSize+fmtCbSizeLen {
		return fmtChunk, nil
	}

	var extraSize uint16

	err := readFmtField(chunk, "extension size", &extraSize)
	if err != nil {
		return nil, err
	}

	if int(extraSize) > chunk.Size-fmtCoreSize-fmtCbSizeLen {
		return nil, fmt.Errorf("%w: fmt extension size %d overflows a %d byte chunk", ErrInconsistentFormat, extraSize, chunk.Size)
	}

	if extraSize > 0 {
		fmtChunk.ExtraData = make([]byte, extraSize)

		err := readFmtField(chunk, "extension data", fmtChunk.ExtraData)
		if err != nil {
			return nil, err
		}
	}

	if fmtChunk.FormatTag != wavFormatExtensible {
		return fmtChunk, nil
	}

	if extraSize < fmtExtensibleSize {
		return nil, fmt.Errorf("%w: extensible fmt extension is %d bytes, need %d", ErrInconsistentFormat, extraSize, fmtExtensibleSize)
	}

	ext := &FmtExtensible{}
	ext.ValidBitsPerSample = binary.LittleEndian.Uint16(fmtChunk.ExtraData[0:2])
	ext.ChannelMask = binary.LittleEndian.Uint32(fmtChunk.ExtraData[2:6])
	copy(ext.SubFormat[:], fmtChunk.ExtraData[6:22])

	fmtChunk.Extensible = ext

	return fmtChunk, nil
}

func readFmtField(chunk *riff.Chunk, name string, dst any) error {
	err := chunk.ReadLE(dst)
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: fmt chunk ends before %s", ErrTruncatedHeader, name)
	}

	return fmt.Errorf("failed to read fmt %s: %w", name, err)
}

// marshal serializes the complete chunk, header included.
func (f *FmtChunk) marshal() []byte {
	size := fmtCoreSize
	if f.FormatTag == wavFormatExtensible && f.Extensible != nil {
		size += fmtCbSizeLen + fmtExtensibleSize
	} else if f.FormatTag != wavFormatPCM {
		size += fmtCbSizeLen + len(f.ExtraData)
	}

	buf := make([]byte, chunkHeaderSize+size)
	copy(buf[0:4], riff.FmtID[:])
	binary.LittleEndian.PutUint32(buf[4:8], uint32(size))

	body := buf[chunkHeaderSize:]
	binary.LittleEndian.PutUint16(body[0:2], f.FormatTag)
	binary.LittleEndian.PutUint16(body[2:4], f.NumChannels)
	binary.LittleEndian.PutUint32(body[4:8], f.SampleRate)
	binary.LittleEndian.PutUint32(body[8:12], f.AvgBytesPerSec)
	binary.LittleEndian.PutUint16(body[12:14], f.BlockAlign)
	binary.LittleEndian.PutUint16(body[14:16], f.BitsPerSample)

	if size == fmtCoreSize {
		return buf
	}

	if f.FormatTag == wavFormatExtensible && f.Extensible != nil {
		binary.LittleEndian.PutUint16(body[16:18], fmtExtensibleSize)
		binary.LittleEndian.PutUint16(body[18:20], f.Extensible.ValidBitsPerSample)
		binary.LittleEndian.PutUint32(body[20:24], f.Extensible.ChannelMask)
		copy(body[24:40], f.Extensible.SubFormat[:])

		return buf
	}

	binary.LittleEndian.PutUint16(body[16:18], uint16(len(f.ExtraData)))
	copy(body[18:], f.ExtraData)

	return buf
}

package wavtest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Placeholder is the size value of a header that was never finalized.
const Placeholder = 0xFFFFFFFF

var (
	errFileTooSmall         = errors.New("file too small")
	errInvalidRiffWaveHdr   = errors.New("invalid riff/wave header")
	errChunkExceedsFileSize = errors.New("chunk exceeds file size")
)

// Builder assembles raw container bytes, including malformed ones.
type Builder struct {
	form     string
	riffSize *uint32
	body     bytes.Buffer
}

// NewBuilder starts a RIFF/WAVE container.
func NewBuilder() *Builder {
	return &Builder{form: "WAVE"}
}

// Form overrides the form type written after the RIFF size.
func (b *Builder) Form(form string) *Builder {
	b.form = form
	return b
}

// RIFFSize fixes the RIFF size field instead of computing it.
func (b *Builder) RIFFSize(size uint32) *Builder {
	b.riffSize = &size
	return b
}

// Chunk appends a chunk with a size field matching body, plus the pad
// byte for odd sizes.
func (b *Builder) Chunk(id string, body []byte) *Builder {
	return b.ChunkSized(id, uint32(len(body)), body)
}

// ChunkSized appends a chunk whose size field is size regardless of the
// body that follows.
func (b *Builder) ChunkSized(id string, size uint32, body []byte) *Builder {
	b.body.WriteString(id)
	_ = binary.Write(&b.body, binary.LittleEndian, size)
	b.body.Write(body)

	if len(body)%2 == 1 {
		b.body.WriteByte(0)
	}

	return b
}

// Fmt appends a 16-byte fmt chunk with derived block align and byte rate.
func (b *Builder) Fmt(tag, channels uint16, sampleRate uint32, bits uint16) *Builder {
	return b.Chunk("fmt ", FmtBody(tag, channels, sampleRate, bits))
}

// Data appends a data chunk.
func (b *Builder) Data(body []byte) *Builder {
	return b.Chunk("data", body)
}

// Raw appends bytes as they are.
func (b *Builder) Raw(p []byte) *Builder {
	b.body.Write(p)
	return b
}

// Bytes returns the container.
func (b *Builder) Bytes() []byte {
	size := uint32(4 + b.body.Len())
	if b.riffSize != nil {
		size = *b.riffSize
	}

	out := make([]byte, 0, 8+size)
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, size)
	out = append(out, b.form...)

	return append(out, b.body.Bytes()...)
}

// FmtBody encodes the 16-byte core of a fmt chunk.
func FmtBody(tag, channels uint16, sampleRate uint32, bits uint16) []byte {
	blockAlign := channels * ((bits + 7) / 8)

	out := make([]byte, 0, 16)
	out = binary.LittleEndian.AppendUint16(out, tag)
	out = binary.LittleEndian.AppendUint16(out, channels)
	out = binary.LittleEndian.AppendUint32(out, sampleRate)
	out = binary.LittleEndian.AppendUint32(out, sampleRate*uint32(blockAlign))
	out = binary.LittleEndian.AppendUint16(out, blockAlign)
	out = binary.LittleEndian.AppendUint16(out, bits)

	return out
}

// Int16LE encodes samples as 16-bit little-endian PCM.
func Int16LE(samples ...int16) []byte {
	out := make([]byte, 0, 2*len(samples))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}

	return out
}

// Chunk is one entry of a parsed container.
type Chunk struct {
	ID   string
	Size uint32
	Data []byte
}

// ParseChunks walks the top-level chunks of a RIFF/WAVE container. Chunks
// with a placeholder size run to the end of data.
func ParseChunks(data []byte) ([]Chunk, error) {
	if len(data) < 12 {
		return nil, errFileTooSmall
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errInvalidRiffWaveHdr
	}

	chunks := make([]Chunk, 0)

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += 8

		end := len(data)
		if size != Placeholder {
			end = offset + int(size)
		}

		if end > len(data) {
			return nil, fmt.Errorf("%w: %q", errChunkExceedsFileSize, id)
		}

		payload := append([]byte(nil), data[offset:end]...)
		chunks = append(chunks, Chunk{ID: id, Size: size, Data: payload})

		offset = end
		if size%2 == 1 {
			offset++
		}
	}

	return chunks, nil
}

// FindChunk returns the first chunk with the given id.
func FindChunk(chunks []Chunk, id string) (*Chunk, int) {
	for i := range chunks {
		if chunks[i].ID == id {
			return &chunks[i], i
		}
	}

	return nil, -1
}

// Inventory lists the ids of chunks in order.
func Inventory(chunks []Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		out = append(out, ch.ID)
	}

	return out
}

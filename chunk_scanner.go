package wavstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

// ChunkHeader describes one RIFF chunk without materializing its body.
// Size excludes the 8-byte header and the pad byte of odd-sized bodies.
type ChunkHeader struct {
	ID         [4]byte
	Size       uint32
	BodyOffset int64
}

// PaddedSize returns the body size including the pad byte, if any.
func (h ChunkHeader) PaddedSize() int64 {
	return paddedSize(h.Size)
}

// End returns the offset of the header following this chunk.
func (h ChunkHeader) End() int64 {
	return h.BodyOffset + h.PaddedSize()
}

func (h ChunkHeader) String() string {
	return fmt.Sprintf("%q %d bytes @ %d", h.ID[:], h.Size, h.BodyOffset)
}

// ChunkScanner walks the component chunks of a RIFF/WAVE container.
type ChunkScanner struct {
	src      *byteSource
	riffSize uint32
	form     [4]byte
	first    int64
	next     int64
	current  *ChunkHeader
}

// NewChunkScanner validates the RIFF/WAVE header of a forward-only reader.
// Chunk bodies are skipped by reading and discarding them.
func NewChunkScanner(r io.Reader) (*ChunkScanner, error) {
	return newChunkScanner(newStreamSource(r))
}

// NewSeekableChunkScanner validates the RIFF/WAVE header at the current
// position of rs. Chunk bodies are skipped by seeking and the scan can be
// restarted with Reset.
func NewSeekableChunkScanner(rs io.ReadSeeker) (*ChunkScanner, error) {
	src, err := newSeekableSource(rs)
	if err != nil {
		return nil, err
	}

	return newChunkScanner(src)
}

func newChunkScanner(src *byteSource) (*ChunkScanner, error) {
	var hdr [riffHeaderSize]byte

	n, err := io.ReadFull(src, hdr[:])
	if n >= 4 && [4]byte(hdr[0:4]) != riff.RiffID {
		return nil, fmt.Errorf("%w: container tag %q", ErrNotRiffWave, hdr[0:4])
	}

	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: RIFF header has %d of %d bytes", ErrTruncatedHeader, n, riffHeaderSize)
		}

		return nil, fmt.Errorf("failed to read RIFF header: %w", err)
	}

	scanner := &ChunkScanner{
		src:      src,
		riffSize: binary.LittleEndian.Uint32(hdr[4:8]),
		first:    src.pos,
		next:     src.pos,
	}
	copy(scanner.form[:], hdr[8:12])

	if scanner.form != riff.WavFormatID {
		return nil, fmt.Errorf("%w: form type %q", ErrNotRiffWave, scanner.form[:])
	}

	return scanner, nil
}

// RIFFSize returns the size field of the container header. Unfinalized
// files carry a placeholder.
func (s *ChunkScanner) RIFFSize() uint32 {
	return s.riffSize
}

// Form returns the RIFF form type.
func (s *ChunkScanner) Form() [4]byte {
	return s.form
}

// Next returns the header of the next chunk. Whatever is left of the
// previous body and its pad byte is skipped first. Next returns io.EOF at
// the end of the stream and ErrTruncatedHeader when fewer than 8 bytes
// remain.
func (s *ChunkScanner) Next() (ChunkHeader, error) {
	s.current = nil

	err := s.src.seekTo(s.next)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ChunkHeader{}, io.EOF
		}

		return ChunkHeader{}, err
	}

	var hdr [chunkHeaderSize]byte

	n, err := io.ReadFull(s.src, hdr[:])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ChunkHeader{}, io.EOF
		}

		if errors.Is(err, io.ErrUnexpectedEOF) {
			return ChunkHeader{}, fmt.Errorf("%w: %d of %d bytes at offset %d", ErrTruncatedHeader, n, chunkHeaderSize, s.next)
		}

		return ChunkHeader{}, fmt.Errorf("failed to read chunk header at offset %d: %w", s.next, err)
	}

	header := ChunkHeader{
		Size:       binary.LittleEndian.Uint32(hdr[4:8]),
		BodyOffset: s.src.pos,
	}
	copy(header.ID[:], hdr[0:4])

	s.current = &header
	s.next = header.End()

	return header, nil
}

// Body returns a reader limited to the body of the chunk last returned by
// Next. On a forward-only scanner the body can only be read once.
func (s *ChunkScanner) Body() (*riff.Chunk, error) {
	if s.current == nil {
		return nil, errors.New("no current chunk")
	}

	err := s.src.seekTo(s.current.BodyOffset)
	if err != nil {
		return nil, fmt.Errorf("failed to position at %s body: %w", s.current, err)
	}

	return &riff.Chunk{
		ID:   s.current.ID,
		Size: int(s.current.Size),
		R:    io.LimitReader(s.src, int64(s.current.Size)),
	}, nil
}

// Reset restarts the scan at the first component chunk.
func (s *ChunkScanner) Reset() error {
	if !s.src.canSeek() {
		return fmt.Errorf("%w: can't restart a forward-only scan", ErrSeekNotSupported)
	}

	s.current = nil
	s.next = s.first

	return nil
}

package wavstream

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-audio/audio"
)

// RandomAccessReader decodes frames from a seekable source and can jump
// to any frame of the data chunk.
type RandomAccessReader struct {
	frames  *frameReader
	scratch [4]byte
	closer  io.Closer
}

// NewRandomAccessReader parses the container header starting at the
// current offset of rs. Sources that fail to seek are rejected with
// ErrSeekNotSupported. A placeholder data size is resolved from the
// length of the source.
func NewRandomAccessReader(rs io.ReadSeeker, opts ...Option) (*RandomAccessReader, error) {
	cfg := newConfig(opts)

	scanner, err := NewSeekableChunkScanner(rs)
	if err != nil {
		return nil, err
	}

	hdr, err := readHeader(scanner, cfg.logger)
	if err != nil {
		return nil, err
	}

	frames := newFrameReader(scanner.src, hdr, cfg.logger)

	if !hdr.data.Known {
		end, err := scanner.src.size()
		if err != nil {
			return nil, err
		}

		frames.limit = min(max(end-hdr.data.Offset, 0), math.MaxUint32)
		cfg.logger.Debugf("resolved placeholder data size to %d bytes", frames.limit)
	}

	frames.bounded = true

	return &RandomAccessReader{frames: frames}, nil
}

// FrameCount returns the number of frames in the data chunk. A data size
// that isn't a whole number of frames fails with ErrMalformedData.
func (r *RandomAccessReader) FrameCount() (uint64, error) {
	blockAlign := r.frames.blockAlign()
	if r.frames.limit%blockAlign != 0 {
		return 0, fmt.Errorf("%w: %d data bytes is not a multiple of block align %d", ErrMalformedData, r.frames.limit, blockAlign)
	}

	return uint64(r.frames.limit / blockAlign), nil
}

// Duration returns the playing time of the data chunk.
func (r *RandomAccessReader) Duration() (time.Duration, error) {
	frames, err := r.FrameCount()
	if err != nil {
		return 0, err
	}

	return r.frames.hdr.format.Duration(frames), nil
}

// SeekToFrame moves the cursor to the given frame. Seeking to the frame
// count is allowed; the next read then returns io.EOF.
func (r *RandomAccessReader) SeekToFrame(index uint64) error {
	blockAlign := uint64(r.frames.blockAlign())
	if index > uint64(r.frames.limit)/blockAlign {
		return fmt.Errorf("%w: frame %d is beyond %d data bytes", ErrOutOfRange, index, r.frames.limit)
	}

	offset := int64(index * blockAlign)

	err := r.frames.src.seekTo(r.frames.hdr.data.Offset + offset)
	if err != nil {
		return err
	}

	r.frames.pos = offset
	r.frames.err = nil
	r.frames.resync = false

	return nil
}

// Rewind moves the cursor back to the first frame.
func (r *RandomAccessReader) Rewind() error {
	return r.SeekToFrame(0)
}

// Position returns the index of the frame the next ReadFrame returns.
func (r *RandomAccessReader) Position() uint64 {
	return uint64(r.frames.pos / r.frames.blockAlign())
}

// ReadFrame returns the frame at the cursor and advances it, or io.EOF at
// the end of the data chunk.
func (r *RandomAccessReader) ReadFrame() (Frame, error) {
	return r.frames.readFrame()
}

// ReadSample reads a single sample without moving the frame cursor.
func (r *RandomAccessReader) ReadSample(frame uint64, channel uint16) (Sample, error) {
	format := r.frames.hdr.format
	if channel >= format.Channels {
		return Sample{}, fmt.Errorf("%w: channel %d of %d", ErrOutOfRange, channel, format.Channels)
	}

	blockAlign := uint64(r.frames.blockAlign())
	if frame >= uint64(r.frames.limit)/blockAlign {
		return Sample{}, fmt.Errorf("%w: frame %d of %d", ErrOutOfRange, frame, uint64(r.frames.limit)/blockAlign)
	}

	size := r.frames.hdr.sampleFormat.Size()
	offset := int64(frame*blockAlign) + int64(channel)*int64(size)

	r.frames.resync = true

	err := r.frames.src.seekTo(r.frames.hdr.data.Offset + offset)
	if err != nil {
		return Sample{}, err
	}

	buf := r.scratch[:size]

	_, err = io.ReadFull(r.frames.src, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Sample{}, fmt.Errorf("%w: sample %d/%d past end of stream", ErrTruncatedData, frame, channel)
		}

		return Sample{}, fmt.Errorf("failed to read sample: %w", err)
	}

	return DecodeSample(buf, r.frames.hdr.sampleFormat)
}

// ReadIntBuffer fills buf.Data with whole frames of integer samples from
// the cursor and returns the number of samples written.
func (r *RandomAccessReader) ReadIntBuffer(buf *audio.IntBuffer) (int, error) {
	return r.frames.readIntBuffer(buf)
}

// ReadFloat32Buffer fills buf.Data with whole frames normalized to [-1, 1]
// from the cursor and returns the number of samples written.
func (r *RandomAccessReader) ReadFloat32Buffer(buf *audio.Float32Buffer) (int, error) {
	return r.frames.readFloat32Buffer(buf)
}

// Format returns the parsed format descriptor.
func (r *RandomAccessReader) Format() Format {
	return r.frames.hdr.format
}

// SampleFormat returns the codec used for the data chunk.
func (r *RandomAccessReader) SampleFormat() SampleFormat {
	return r.frames.hdr.sampleFormat
}

// FmtChunk returns a copy of the fmt chunk as found on disk.
func (r *RandomAccessReader) FmtChunk() *FmtChunk {
	return r.frames.hdr.fmtChunk.Clone()
}

// Chunks returns the headers of every chunk up to and including data.
func (r *RandomAccessReader) Chunks() []ChunkHeader {
	return r.frames.hdr.chunkList()
}

// DataSpan returns the location and declared size of the sample data.
func (r *RandomAccessReader) DataSpan() DataSpan {
	return r.frames.hdr.data
}

// Close releases the underlying file when the reader owns one.
func (r *RandomAccessReader) Close() error {
	if r.closer == nil {
		return nil
	}

	closer := r.closer
	r.closer = nil

	return closer.Close()
}

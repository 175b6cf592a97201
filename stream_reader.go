package wavstream

import (
	"io"

	"github.com/go-audio/audio"
)

// StreamReader decodes frames from a forward-only byte stream. It never
// seeks and keeps a single frame in memory, so it works on pipes and
// network streams as well as files.
type StreamReader struct {
	frames *frameReader
	closer io.Closer
}

// NewStreamReader parses the container header from r and positions the
// reader at the first frame. The reader is not closed by the StreamReader.
func NewStreamReader(r io.Reader, opts ...Option) (*StreamReader, error) {
	cfg := newConfig(opts)

	scanner, err := NewChunkScanner(r)
	if err != nil {
		return nil, err
	}

	hdr, err := readHeader(scanner, cfg.logger)
	if err != nil {
		return nil, err
	}

	return &StreamReader{frames: newFrameReader(scanner.src, hdr, cfg.logger)}, nil
}

// NextFrame returns the next frame, or io.EOF once the declared data is
// exhausted. A data chunk that ends mid-frame fails with ErrTruncatedData.
func (r *StreamReader) NextFrame() (Frame, error) {
	return r.frames.readFrame()
}

// ReadIntBuffer fills buf.Data with whole frames of integer samples and
// returns the number of samples written. It returns io.EOF when no frame
// is left and io.ErrShortBuffer when buf.Data can't hold one frame.
func (r *StreamReader) ReadIntBuffer(buf *audio.IntBuffer) (int, error) {
	return r.frames.readIntBuffer(buf)
}

// ReadFloat32Buffer fills buf.Data with whole frames normalized to [-1, 1]
// and returns the number of samples written. It returns io.EOF when no
// frame is left.
func (r *StreamReader) ReadFloat32Buffer(buf *audio.Float32Buffer) (int, error) {
	return r.frames.readFloat32Buffer(buf)
}

// FramesRead returns the number of whole frames consumed so far.
func (r *StreamReader) FramesRead() uint64 {
	return uint64(r.frames.pos / r.frames.blockAlign())
}

// Format returns the parsed format descriptor.
func (r *StreamReader) Format() Format {
	return r.frames.hdr.format
}

// SampleFormat returns the codec used for the data chunk.
func (r *StreamReader) SampleFormat() SampleFormat {
	return r.frames.hdr.sampleFormat
}

// FmtChunk returns a copy of the fmt chunk as found on disk.
func (r *StreamReader) FmtChunk() *FmtChunk {
	return r.frames.hdr.fmtChunk.Clone()
}

// Chunks returns the headers of every chunk up to and including data.
func (r *StreamReader) Chunks() []ChunkHeader {
	return r.frames.hdr.chunkList()
}

// DataSpan returns the location and declared size of the sample data.
func (r *StreamReader) DataSpan() DataSpan {
	return r.frames.hdr.data
}

// Close releases the underlying file when the reader owns one.
func (r *StreamReader) Close() error {
	if r.closer == nil {
		return nil
	}

	closer := r.closer
	r.closer = nil

	return closer.Close()
}

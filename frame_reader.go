package wavstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/pion/logging"
)

// frameReader is the data chunk cursor shared by the stream and random
// access readers. It holds at most one frame in memory.
type frameReader struct {
	src *byteSource
	hdr *header
	log logging.LeveledLogger

	// limit is the data size in bytes; unbounded readers run to end of stream.
	limit   int64
	bounded bool
	// pos is the number of data bytes consumed.
	pos   int64
	block []byte
	// err holds io.EOF or a truncation once the data is exhausted.
	err error
	// resync is set when the source moved away from pos.
	resync bool
}

func newFrameReader(src *byteSource, hdr *header, log logging.LeveledLogger) *frameReader {
	return &frameReader{
		src:     src,
		hdr:     hdr,
		log:     log,
		limit:   int64(hdr.data.Size),
		bounded: hdr.data.Known,
		block:   make([]byte, hdr.format.BlockAlign()),
	}
}

func (r *frameReader) channels() int {
	return int(r.hdr.format.Channels)
}

func (r *frameReader) blockAlign() int64 {
	return int64(len(r.block))
}

// readBlock reads exactly one frame worth of bytes. The returned slice is
// reused by the next call.
func (r *frameReader) readBlock() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	if r.resync {
		err := r.src.seekTo(r.hdr.data.Offset + r.pos)
		if err != nil {
			return nil, err
		}

		r.resync = false
	}

	if r.bounded {
		remaining := r.limit - r.pos
		if remaining == 0 {
			r.err = io.EOF
			return nil, r.err
		}

		if remaining < r.blockAlign() {
			r.err = fmt.Errorf("%w: %d byte(s) left in data chunk, frame needs %d", ErrTruncatedData, remaining, r.blockAlign())
			r.log.Warnf("%v", r.err)

			return nil, r.err
		}
	}

	n, err := io.ReadFull(r.src, r.block)
	r.pos += int64(n)

	if err == nil {
		return r.block, nil
	}

	switch {
	case errors.Is(err, io.EOF) && !r.bounded:
		r.err = io.EOF
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		r.err = fmt.Errorf("%w: stream ended %d byte(s) into a %d byte frame at data offset %d",
			ErrTruncatedData, n, r.blockAlign(), r.pos-int64(n))
		r.log.Warnf("%v", r.err)
	case r.src.canSeek():
		// retry from the frame start on the next call
		r.resync = true
		r.pos -= int64(n)

		return nil, fmt.Errorf("failed to read frame: %w", err)
	default:
		r.err = fmt.Errorf("failed to read frame: %w", err)
	}

	return nil, r.err
}

func (r *frameReader) readFrame() (Frame, error) {
	block, err := r.readBlock()
	if err != nil {
		return nil, err
	}

	return decodeFrame(block, r.hdr.sampleFormat, r.channels())
}

// readIntBuffer fills buf with whole frames of integer samples and returns
// the number of samples written.
func (r *frameReader) readIntBuffer(buf *audio.IntBuffer) (int, error) {
	if buf == nil {
		return 0, nil
	}

	if r.hdr.sampleFormat.IsFloat() {
		return 0, fmt.Errorf("%w: can't read %s into an int buffer", ErrSampleKindMismatch, r.hdr.sampleFormat)
	}

	buf.Format = r.hdr.format.AudioFormat()
	buf.SourceBitDepth = int(r.hdr.format.BitsPerSample)

	return r.fill(len(buf.Data), func(i int, s Sample) {
		buf.Data[i] = int(s.Int())
	})
}

// readFloat32Buffer fills buf with whole frames of samples normalized to
// [-1, 1] and returns the number of samples written.
func (r *frameReader) readFloat32Buffer(buf *audio.Float32Buffer) (int, error) {
	if buf == nil {
		return 0, nil
	}

	buf.Format = r.hdr.format.AudioFormat()
	buf.SourceBitDepth = int(r.hdr.format.BitsPerSample)

	sampleFormat := r.hdr.sampleFormat

	return r.fill(len(buf.Data), func(i int, s Sample) {
		buf.Data[i] = Normalize(s, sampleFormat)
	})
}

func (r *frameReader) fill(capacity int, put func(int, Sample)) (int, error) {
	channels := r.channels()
	if capacity < channels {
		return 0, fmt.Errorf("%w: buffer holds %d sample(s), a frame needs %d", io.ErrShortBuffer, capacity, channels)
	}

	frames := capacity / channels
	n := 0

	for range frames {
		frame, err := r.readFrame()
		if errors.Is(err, io.EOF) {
			if n == 0 {
				return 0, io.EOF
			}

			return n, nil
		}

		if err != nil {
			return n, err
		}

		for _, sample := range frame {
			put(n, sample)
			n++
		}
	}

	return n, nil
}

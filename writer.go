package wavstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/pion/logging"
)

var (
	errNilWriter  = errors.New("can't write to a nil writer")
	errNilBuffer  = errors.New("can't add a nil buffer")
	errPadPending = errors.New("pad byte already written")
)

type writerState uint8

const (
	writerOpen writerState = iota
	// writerFailed rejects writes; Close retries the finalize.
	writerFailed
	writerClosed
	writerAbandoned
)

// Writer writes a WAV file to a seekable sink. The header is written with
// placeholder sizes up front and patched by Close once the amount of
// sample data is known.
type Writer struct {
	w   io.WriteSeeker
	buf *bytes.Buffer
	log logging.LeveledLogger

	format       Format
	sampleFormat SampleFormat
	block        []byte
	silence      []byte

	start       int64
	riffSizePos int64
	dataSizePos int64
	dataStart   int64
	maxData     uint64

	// frames is the write cursor; the data size is always frames * block align.
	frames uint64
	// pos is the sink offset, -1 when unknown after a failed seek or write.
	pos    int64
	padded bool
	state  writerState
	closer io.Closer
}

// NewWriter writes a provisional header for f at the current offset of ws
// and returns a writer positioned at the first frame. The sink is not
// closed by the Writer.
func NewWriter(ws io.WriteSeeker, f Format, opts ...Option) (*Writer, error) {
	if ws == nil {
		return nil, errNilWriter
	}

	err := f.Validate()
	if err != nil {
		return nil, err
	}

	sampleFormat, err := f.SampleFormat()
	if err != nil {
		return nil, err
	}

	start, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeekNotSupported, err)
	}

	cfg := newConfig(opts)

	w := &Writer{
		w:            ws,
		buf:          new(bytes.Buffer),
		log:          cfg.logger,
		format:       f,
		sampleFormat: sampleFormat,
		block:        make([]byte, f.BlockAlign()),
		silence:      make([]byte, f.BlockAlign()),
		start:        start,
		pos:          start,
	}

	silence := make(Frame, f.Channels)
	for ch := range silence {
		if sampleFormat.IsFloat() {
			silence[ch] = FloatSample(0)
		} else {
			silence[ch] = IntSample(0)
		}
	}

	err = encodeFrame(w.silence, silence, sampleFormat, int(f.Channels))
	if err != nil {
		return nil, err
	}

	err = w.writeHeader(f.fmtChunk(cfg.extensible, cfg.channelMask))
	if err != nil {
		return nil, err
	}

	return w, nil
}

func (w *Writer) writeHeader(fmtChunk *FmtChunk) error {
	hdr := w.buf
	hdr.Reset()

	fields := []any{
		riff.RiffID,
		uint32(sizePlaceholder),
		riff.WavFormatID,
		fmtChunk.marshal(),
		riff.DataFormatID,
		uint32(sizePlaceholder),
	}

	for _, field := range fields {
		err := binary.Write(hdr, binary.LittleEndian, field)
		if err != nil {
			return fmt.Errorf("failed to encode header: %w", err)
		}
	}

	w.riffSizePos = w.start + 4
	w.dataStart = w.start + int64(hdr.Len())
	w.dataSizePos = w.dataStart - 4
	// the RIFF size counts everything after its own field, pad byte included
	w.maxData = math.MaxUint32 - uint64(w.dataStart-w.start-chunkHeaderSize) - 1

	err := w.write(hdr.Bytes())
	hdr.Reset()

	if err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// Format returns the format the writer was created with.
func (w *Writer) Format() Format {
	return w.format
}

// SampleFormat returns the codec used for the data chunk.
func (w *Writer) SampleFormat() SampleFormat {
	return w.sampleFormat
}

// FramesWritten returns the number of frames in the data chunk.
func (w *Writer) FramesWritten() uint64 {
	return w.frames
}

func (w *Writer) dataLen() uint64 {
	return w.frames * uint64(len(w.block))
}

func (w *Writer) writable() error {
	if w.state != writerOpen {
		return ErrWriterClosed
	}

	return nil
}

// WriteFrame encodes and appends one frame. The frame is encoded in full
// before anything reaches the sink.
func (w *Writer) WriteFrame(frame Frame) error {
	err := w.writable()
	if err != nil {
		return err
	}

	err = encodeFrame(w.block, frame, w.sampleFormat, int(w.format.Channels))
	if err != nil {
		return err
	}

	return w.appendFrames(w.block, 1)
}

// WriteFrames encodes all frames and appends them with a single write.
// Nothing is written if any frame fails to encode.
func (w *Writer) WriteFrames(frames []Frame) error {
	err := w.writable()
	if err != nil {
		return err
	}

	if len(frames) == 0 {
		return nil
	}

	defer w.buf.Reset()

	for i, frame := range frames {
		err := encodeFrame(w.block, frame, w.sampleFormat, int(w.format.Channels))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		w.buf.Write(w.block)
	}

	return w.appendFrames(w.buf.Bytes(), uint64(len(frames)))
}

// WriteIntBuffer appends the interleaved integer samples of buf. The
// samples must already be in the range of the target bit depth.
func (w *Writer) WriteIntBuffer(buf *audio.IntBuffer) error {
	if buf == nil {
		return errNilBuffer
	}

	err := w.checkBuffer(buf.Format, len(buf.Data))
	if err != nil {
		return err
	}

	// int is wider than int32; catch values that would wrap on conversion
	for i, v := range buf.Data {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fmt.Errorf("sample %d: %w: %d does not fit %s", i, ErrSampleOutOfRange, v, w.sampleFormat)
		}
	}

	return w.writeInterleaved(len(buf.Data), func(i int) Sample {
		return IntSample(int32(buf.Data[i]))
	})
}

// WriteFloat32Buffer appends the interleaved float samples of buf to a
// Float32 writer. Values are written unclamped.
func (w *Writer) WriteFloat32Buffer(buf *audio.Float32Buffer) error {
	if buf == nil {
		return errNilBuffer
	}

	err := w.checkBuffer(buf.Format, len(buf.Data))
	if err != nil {
		return err
	}

	return w.writeInterleaved(len(buf.Data), func(i int) Sample {
		return FloatSample(buf.Data[i])
	})
}

func (w *Writer) checkBuffer(format *audio.Format, samples int) error {
	err := w.writable()
	if err != nil {
		return err
	}

	channels := int(w.format.Channels)

	if format != nil && format.NumChannels != 0 && format.NumChannels != channels {
		return fmt.Errorf("%w: buffer has %d channels, format has %d", ErrChannelCountMismatch, format.NumChannels, channels)
	}

	if samples%channels != 0 {
		return fmt.Errorf("%w: %d samples is not a whole number of %d channel frames", ErrChannelCountMismatch, samples, channels)
	}

	return nil
}

func (w *Writer) writeInterleaved(samples int, at func(int) Sample) error {
	defer w.buf.Reset()

	size := w.sampleFormat.Size()
	scratch := w.block[:size]

	for i := range samples {
		err := EncodeSample(scratch, at(i), w.sampleFormat)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}

		w.buf.Write(scratch)
	}

	return w.appendFrames(w.buf.Bytes(), uint64(samples/int(w.format.Channels)))
}

// WriteSample overwrites one sample of an already written frame. Writing
// beyond the last frame first extends the data with silent frames.
func (w *Writer) WriteSample(frame uint64, channel uint16, s Sample) error {
	err := w.writable()
	if err != nil {
		return err
	}

	if channel >= w.format.Channels {
		return fmt.Errorf("%w: channel %d of %d", ErrOutOfRange, channel, w.format.Channels)
	}

	size := w.sampleFormat.Size()

	var encoded [4]byte

	err = EncodeSample(encoded[:size], s, w.sampleFormat)
	if err != nil {
		return err
	}

	if frame >= w.maxData/uint64(len(w.block)) {
		return fmt.Errorf("%w: frame %d", ErrDataTooLarge, frame)
	}

	if frame >= w.frames {
		err := w.appendSilence(frame - w.frames + 1)
		if err != nil {
			return err
		}
	}

	offset := w.dataStart + int64(frame)*int64(len(w.block)) + int64(channel)*int64(size)

	err = w.seek(offset)
	if err != nil {
		return err
	}

	return w.write(encoded[:size])
}

func (w *Writer) appendSilence(frames uint64) error {
	const batch = 4096

	defer w.buf.Reset()

	for frames > 0 {
		n := min(frames, batch)

		w.buf.Reset()

		for range n {
			w.buf.Write(w.silence)
		}

		err := w.appendFrames(w.buf.Bytes(), n)
		if err != nil {
			return err
		}

		frames -= n
	}

	return nil
}

// appendFrames writes encoded frames at the end of the data chunk and
// advances the write cursor. A failed write leaves the cursor unchanged so
// the next append overwrites the partial bytes.
func (w *Writer) appendFrames(data []byte, frames uint64) error {
	if w.dataLen()+uint64(len(data)) > w.maxData {
		return fmt.Errorf("%w: %d + %d bytes", ErrDataTooLarge, w.dataLen(), len(data))
	}

	err := w.seek(w.dataStart + int64(w.dataLen()))
	if err != nil {
		return err
	}

	err = w.write(data)
	if err != nil {
		return fmt.Errorf("failed to write %d frame(s): %w", frames, err)
	}

	w.frames += frames

	return nil
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	if err != nil {
		w.pos = -1
		return err
	}

	if n != len(p) {
		w.pos = -1
		return io.ErrShortWrite
	}

	w.pos += int64(n)

	return nil
}

func (w *Writer) seek(offset int64) error {
	if offset == w.pos {
		return nil
	}

	pos, err := w.w.Seek(offset, io.SeekStart)
	if err != nil {
		w.pos = -1
		return fmt.Errorf("failed to seek to %d: %w", offset, err)
	}

	w.pos = pos

	return nil
}

// Flush patches the header with the sizes written so far and flushes the
// sink, leaving the writer open. The file is readable up to this point
// even if the process dies before Close.
//
// No pad byte is written here: after an odd number of data bytes the
// flushed file ends on an odd data chunk until Close adds the pad.
func (w *Writer) Flush() error {
	err := w.writable()
	if err != nil {
		return err
	}

	dataLen := w.dataLen()

	err = w.patchSizes(uint32(dataLen), w.riffSize(dataLen))
	if err != nil {
		return err
	}

	return w.syncSink()
}

func (w *Writer) riffSize(dataLen uint64) uint32 {
	total := uint64(w.dataStart-w.start) + dataLen

	return uint32(total - chunkHeaderSize)
}

// patchSizes overwrites the data size, then the RIFF size, and returns to
// the end of the data. If the RIFF size can't be written the data size is
// put back to its placeholder.
func (w *Writer) patchSizes(dataSize, riffSize uint32) error {
	err := w.patchUint32(w.dataSizePos, dataSize)
	if err != nil {
		return fmt.Errorf("data chunk size: %w", err)
	}

	err = w.patchUint32(w.riffSizePos, riffSize)
	if err != nil {
		restoreErr := w.patchUint32(w.dataSizePos, sizePlaceholder)
		if restoreErr != nil {
			w.log.Errorf("data size at offset %d left patched: %v", w.dataSizePos, restoreErr)
		}

		return fmt.Errorf("RIFF size: %w", err)
	}

	end := w.dataStart + int64(w.dataLen())
	if w.padded {
		end++
	}

	return w.seek(end)
}

func (w *Writer) patchUint32(offset int64, v uint32) error {
	err := w.seek(offset)
	if err != nil {
		return err
	}

	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)

	return w.write(b[:])
}

func (w *Writer) syncSink() error {
	switch sink := w.w.(type) {
	case interface{ Flush() error }:
		return sink.Flush()
	case interface{ Sync() error }:
		return sink.Sync()
	default:
		return nil
	}
}

func (w *Writer) writePad() error {
	if w.padded {
		return errPadPending
	}

	err := w.seek(w.dataStart + int64(w.dataLen()))
	if err != nil {
		return err
	}

	err = w.write([]byte{0})
	if err != nil {
		return err
	}

	w.padded = true

	return nil
}

func (w *Writer) finalize() error {
	dataLen := w.dataLen()

	if dataLen%2 == 1 && !w.padded {
		err := w.writePad()
		if err != nil {
			return fmt.Errorf("pad byte: %w", err)
		}
	}

	riffSize := w.riffSize(dataLen)
	if w.padded {
		riffSize++
	}

	err := w.patchSizes(uint32(dataLen), riffSize)
	if err != nil {
		return err
	}

	err = w.syncSink()
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	w.log.Debugf("finalized %s: %d frames, data %d bytes, RIFF %d bytes", w.format, w.frames, dataLen, riffSize)

	return nil
}

// Close finalizes the file: it writes the pad byte for odd data sizes,
// patches the RIFF and data sizes and flushes the sink. If patching fails
// Close returns ErrFinalizeFailed, the file keeps its placeholder sizes
// and a later Close retries. Writes are rejected either way.
// A writer that owns its file closes it, even when the finalize fails.
func (w *Writer) Close() error {
	var err error

	switch w.state {
	case writerOpen, writerFailed:
		err = w.finalize()
		if err != nil {
			w.state = writerFailed
			w.log.Warnf("finalize failed, file left with placeholder sizes: %v", err)
			err = fmt.Errorf("%w: %w", ErrFinalizeFailed, err)
		} else {
			w.state = writerClosed
		}
	case writerClosed, writerAbandoned:
	}

	if w.closer != nil {
		closer := w.closer
		w.closer = nil
		err = errors.Join(err, closer.Close())
	}

	return err
}

// Abandon gives up on the file without finalizing it. The header keeps
// its placeholder sizes and later writes fail with ErrWriterClosed.
// Close still releases an owned file.
func (w *Writer) Abandon() {
	if w.state == writerClosed {
		return
	}

	w.state = writerAbandoned
	w.log.Infof("writer abandoned after %d frames, header left unfinalized", w.frames)
}

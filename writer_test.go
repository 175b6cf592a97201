package wavstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/wavstream/internal/wavtest"
)

func riffSizeField(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b[4:8])
}

func TestWriterSizes(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 2, SampleRate: 44100, BitsPerSample: 16})
	require.NoError(t, err)

	for i := range 1000 {
		require.NoError(t, w.WriteFrame(IntFrame(int32(i), int32(-i))))
	}

	assert.Equal(t, uint64(1000), w.FramesWritten())
	require.NoError(t, w.Close())

	raw := file.Bytes()
	assert.Len(t, raw, 4044)
	assert.Equal(t, uint32(len(raw)-8), riffSizeField(raw))

	chunks, err := wavtest.ParseChunks(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"fmt ", "data"}, wavtest.Inventory(chunks))

	data, _ := wavtest.FindChunk(chunks, "data")
	require.NotNil(t, data)
	assert.Equal(t, uint32(4000), data.Size)
	assert.Equal(t, 1, file.Syncs)
}

func TestWriterOddDataIsPadded(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 48000, BitsPerSample: 24})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(IntFrame(-8388608)))
	require.NoError(t, w.Close())

	raw := file.Bytes()
	assert.Len(t, raw, 48)
	assert.Equal(t, uint32(40), riffSizeField(raw))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(raw[40:44]))
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x00}, raw[44:])

	r, err := NewStreamReader(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []Frame{IntFrame(-8388608)}, readAllFrames(t, r.NextFrame))
}

func TestWriterRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
		frames []Frame
		opts   []Option
	}{
		{"8-bit", Format{Channels: 1, SampleRate: 8000, BitsPerSample: 8}, []Frame{IntFrame(-128), IntFrame(0), IntFrame(127)}, nil},
		{"16-bit", Format{Channels: 2, SampleRate: 44100, BitsPerSample: 16}, []Frame{IntFrame(-32768, 32767), IntFrame(0, -1)}, nil},
		{"24-bit", Format{Channels: 2, SampleRate: 96000, BitsPerSample: 24}, []Frame{IntFrame(8388607, -8388608)}, nil},
		{"float", Format{Channels: 2, SampleRate: 48000, BitsPerSample: 32, Encoding: Float}, []Frame{FloatFrame(1.5, -0.25), FloatFrame(-7, 0)}, nil},
		{"extensible", Format{Channels: 2, SampleRate: 48000, BitsPerSample: 16}, []Frame{IntFrame(1, 2)}, []Option{WithExtensible(0x3)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			file := wavtest.NewFile(nil)

			w, err := NewWriter(file, tc.format, tc.opts...)
			require.NoError(t, err)
			require.NoError(t, w.WriteFrames(tc.frames))
			require.NoError(t, w.Close())

			r, err := NewRandomAccessReader(bytes.NewReader(file.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, tc.format, r.Format())

			count, err := r.FrameCount()
			require.NoError(t, err)
			assert.Equal(t, uint64(len(tc.frames)), count)
			assert.Equal(t, tc.frames, readAllFrames(t, r.ReadFrame))

			if len(tc.opts) > 0 {
				require.NotNil(t, r.FmtChunk().Extensible)
				assert.Equal(t, uint16(wavFormatExtensible), r.FmtChunk().FormatTag)
			}
		})
	}
}

func TestWriterRejectsFormats(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
		err    error
	}{
		{"12-bit", Format{Channels: 1, SampleRate: 8000, BitsPerSample: 12}, ErrUnsupportedFormat},
		{"32-bit int", Format{Channels: 1, SampleRate: 8000, BitsPerSample: 32}, ErrUnsupportedFormat},
		{"no channels", Format{SampleRate: 8000, BitsPerSample: 16}, ErrInconsistentFormat},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			file := wavtest.NewFile(nil)

			_, err := NewWriter(file, tc.format)
			require.ErrorIs(t, err, tc.err)
			assert.Zero(t, file.Len())
		})
	}
}

func TestWriterRejectsBadFrames(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 2, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)

	headerLen := file.Len()

	require.ErrorIs(t, w.WriteFrame(IntFrame(1)), ErrChannelCountMismatch)
	require.ErrorIs(t, w.WriteFrame(IntFrame(1, 40000)), ErrSampleOutOfRange)
	require.ErrorIs(t, w.WriteFrame(FloatFrame(0.5, 0.5)), ErrSampleKindMismatch)
	require.ErrorIs(t, w.WriteFrames([]Frame{IntFrame(1, 2), IntFrame(3)}), ErrChannelCountMismatch)

	// nothing reached the sink
	assert.Equal(t, headerLen, file.Len())
	assert.Zero(t, w.FramesWritten())
}

func TestWriterWriteSample(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 2, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)

	require.NoError(t, w.WriteFrame(IntFrame(1, 2)))
	require.NoError(t, w.WriteSample(3, 1, IntSample(9)))
	assert.Equal(t, uint64(4), w.FramesWritten())

	require.NoError(t, w.WriteSample(0, 0, IntSample(-5)))
	require.NoError(t, w.WriteFrame(IntFrame(7, 8)))

	require.ErrorIs(t, w.WriteSample(0, 2, IntSample(0)), ErrOutOfRange)
	require.ErrorIs(t, w.WriteSample(0, 0, IntSample(99999)), ErrSampleOutOfRange)
	require.NoError(t, w.Close())

	r, err := NewStreamReader(bytes.NewReader(file.Bytes()))
	require.NoError(t, err)

	expected := []Frame{IntFrame(-5, 2), IntFrame(0, 0), IntFrame(0, 0), IntFrame(0, 9), IntFrame(7, 8)}
	assert.Equal(t, expected, readAllFrames(t, r.NextFrame))
}

func TestWriterWriteSampleSilence8Bit(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 8000, BitsPerSample: 8})
	require.NoError(t, err)
	require.NoError(t, w.WriteSample(2, 0, IntSample(5)))
	require.NoError(t, w.Close())

	raw := file.Bytes()
	assert.Equal(t, []byte{0x80, 0x80, 0x85, 0x00}, raw[44:])
}

func TestWriterBuffers(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 2, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 8000},
		Data:   []int{1, 2, 3, 4},
	}
	require.NoError(t, w.WriteIntBuffer(buf))
	assert.Equal(t, uint64(2), w.FramesWritten())

	require.ErrorIs(t, w.WriteIntBuffer(&audio.IntBuffer{Data: []int{1, 2, 3}}), ErrChannelCountMismatch)
	require.ErrorIs(t, w.WriteIntBuffer(&audio.IntBuffer{Format: &audio.Format{NumChannels: 1}, Data: []int{1, 2}}), ErrChannelCountMismatch)
	require.ErrorIs(t, w.WriteFloat32Buffer(&audio.Float32Buffer{Data: []float32{0.5, 0.5}}), ErrSampleKindMismatch)
	require.Error(t, w.WriteIntBuffer(nil))

	// values past int32 must not wrap into range
	require.ErrorIs(t, w.WriteIntBuffer(&audio.IntBuffer{Data: []int{1<<32 + 5, 0}}), ErrSampleOutOfRange)
	require.ErrorIs(t, w.WriteIntBuffer(&audio.IntBuffer{Data: []int{0, -1<<32 - 1}}), ErrSampleOutOfRange)
	assert.Equal(t, uint64(2), w.FramesWritten())
	require.NoError(t, w.Close())

	r, err := NewStreamReader(bytes.NewReader(file.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []Frame{IntFrame(1, 2), IntFrame(3, 4)}, readAllFrames(t, r.NextFrame))
}

func TestWriterFloat32Buffer(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 8000, BitsPerSample: 32, Encoding: Float})
	require.NoError(t, err)
	require.NoError(t, w.WriteFloat32Buffer(&audio.Float32Buffer{Data: []float32{0.5, -3}}))
	require.NoError(t, w.Close())

	r, err := NewStreamReader(bytes.NewReader(file.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []Frame{FloatFrame(0.5), FloatFrame(-3)}, readAllFrames(t, r.NextFrame))
}

func TestWriterFlush(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrames([]Frame{IntFrame(1), IntFrame(2)}))
	require.NoError(t, w.Flush())
	assert.Equal(t, 1, file.Syncs)

	// a snapshot taken now is a complete file
	snapshot := append([]byte(nil), file.Bytes()...)
	r, err := NewRandomAccessReader(bytes.NewReader(snapshot))
	require.NoError(t, err)
	assert.True(t, r.DataSpan().Known)
	assert.Equal(t, []Frame{IntFrame(1), IntFrame(2)}, readAllFrames(t, r.ReadFrame))

	require.NoError(t, w.WriteFrame(IntFrame(3)))
	require.NoError(t, w.Close())
	require.ErrorIs(t, w.Flush(), ErrWriterClosed)

	r, err = NewRandomAccessReader(bytes.NewReader(file.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []Frame{IntFrame(1), IntFrame(2), IntFrame(3)}, readAllFrames(t, r.ReadFrame))
}

func TestWriterCloseTwice(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	closed := append([]byte(nil), file.Bytes()...)

	require.NoError(t, w.Close())
	assert.Equal(t, closed, file.Bytes())
	require.ErrorIs(t, w.WriteFrame(IntFrame(1)), ErrWriterClosed)

	// an empty file still carries a data chunk of size zero
	assert.Equal(t, uint32(36), riffSizeField(closed))
	assert.Equal(t, []byte{0, 0, 0, 0}, closed[40:44])
}

func TestWriterFinalizeFailed(t *testing.T) {
	file := wavtest.NewFile(nil)
	logger := &wavtest.Logger{}

	w, err := NewWriter(file, Format{Channels: 2, SampleRate: 8000, BitsPerSample: 16}, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(IntFrame(1, 2)))

	file.SeekErr = errors.New("disk detached")

	err = w.Close()
	require.ErrorIs(t, err, ErrFinalizeFailed)
	assert.True(t, logger.Contains("WARN", "finalize failed"))

	raw := file.Bytes()
	assert.Equal(t, uint32(wavtest.Placeholder), riffSizeField(raw))
	assert.Equal(t, uint32(wavtest.Placeholder), binary.LittleEndian.Uint32(raw[40:44]))
	require.ErrorIs(t, w.WriteFrame(IntFrame(3, 4)), ErrWriterClosed)

	// the unfinalized file is still readable to the end of the stream
	r, err := NewStreamReader(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []Frame{IntFrame(1, 2)}, readAllFrames(t, r.NextFrame))

	file.SeekErr = nil
	require.NoError(t, w.Close())
	assert.Equal(t, uint32(48-8), riffSizeField(file.Bytes()))
}

func TestWriterPatchRollback(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(IntFrame(1)))

	// the data size lands, the RIFF size write fails
	w.riffSizePos = -1

	err = w.Close()
	require.ErrorIs(t, err, ErrFinalizeFailed)
	assert.Equal(t, uint32(wavtest.Placeholder), binary.LittleEndian.Uint32(file.Bytes()[40:44]))
}

func TestWriterAbandon(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrames([]Frame{IntFrame(4), IntFrame(5)}))

	w.Abandon()

	require.ErrorIs(t, w.WriteFrame(IntFrame(6)), ErrWriterClosed)
	require.NoError(t, w.Close())

	raw := file.Bytes()
	assert.Equal(t, uint32(wavtest.Placeholder), riffSizeField(raw))
	assert.Zero(t, file.Syncs)

	r, err := NewRandomAccessReader(bytes.NewReader(raw))
	require.NoError(t, err)

	count, err := r.FrameCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestWriterWriteError(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(IntFrame(1)))

	file.WriteErr = errors.New("no space left on device")
	require.Error(t, w.WriteFrame(IntFrame(2)))
	assert.Equal(t, uint64(1), w.FramesWritten())

	file.WriteErr = nil
	require.NoError(t, w.WriteFrame(IntFrame(3)))
	require.NoError(t, w.Close())

	r, err := NewStreamReader(bytes.NewReader(file.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []Frame{IntFrame(1), IntFrame(3)}, readAllFrames(t, r.NextFrame))
}

func TestWriterAtOffset(t *testing.T) {
	file := wavtest.NewFile([]byte("head"))

	_, err := file.Seek(4, io.SeekStart)
	require.NoError(t, err)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(IntFrame(42)))
	require.NoError(t, w.Close())

	raw := file.Bytes()
	assert.Equal(t, "head", string(raw[:4]))
	assert.Equal(t, uint32(len(raw)-4-8), riffSizeField(raw[4:]))

	_, err = file.Seek(4, io.SeekStart)
	require.NoError(t, err)

	r, err := NewRandomAccessReader(file)
	require.NoError(t, err)
	assert.Equal(t, []Frame{IntFrame(42)}, readAllFrames(t, r.ReadFrame))
}

func TestWriterDataTooLarge(t *testing.T) {
	file := wavtest.NewFile(nil)

	w, err := NewWriter(file, Format{Channels: 1, SampleRate: 8000, BitsPerSample: 16})
	require.NoError(t, err)

	// pretend the file is already at the size limit
	w.frames = w.maxData / 2

	require.ErrorIs(t, w.WriteFrame(IntFrame(1)), ErrDataTooLarge)
}

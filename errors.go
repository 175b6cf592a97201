package wavstream

import "errors"

var (
	// ErrNotRiffWave is returned when the container tag is not RIFF or the form type is not WAVE.
	ErrNotRiffWave = errors.New("not a RIFF/WAVE file")
	// ErrTruncatedHeader is returned when a chunk header is cut short by the end of the stream.
	ErrTruncatedHeader = errors.New("truncated chunk header")
	// ErrTruncatedData is returned when the data chunk ends in the middle of a frame.
	ErrTruncatedData = errors.New("truncated sample data")
	// ErrMissingFmtChunk is returned when no fmt chunk precedes the data chunk.
	ErrMissingFmtChunk = errors.New("fmt chunk not found")
	// ErrMissingDataChunk is returned when the chunk sequence ends without a data chunk.
	ErrMissingDataChunk = errors.New("data chunk not found")
	// ErrUnsupportedFormat is returned for format tags and bit depths the codec can't handle.
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	// ErrInconsistentFormat is returned when fmt chunk fields contradict each other.
	ErrInconsistentFormat = errors.New("inconsistent fmt chunk")
	// ErrMalformedData is returned when the data size is not a whole number of frames.
	ErrMalformedData = errors.New("malformed data chunk")
	// ErrSampleOutOfRange is returned when an integer sample doesn't fit the target bit depth.
	ErrSampleOutOfRange = errors.New("sample out of range")
	// ErrSampleKindMismatch is returned when a float sample targets an integer format or vice versa.
	ErrSampleKindMismatch = errors.New("sample kind doesn't match format")
	// ErrChannelCountMismatch is returned when a frame's length differs from the channel count.
	ErrChannelCountMismatch = errors.New("channel count mismatch")
	// ErrOutOfRange is returned when seeking or reading past the data chunk.
	ErrOutOfRange = errors.New("position out of range")
	// ErrSeekNotSupported is returned when random access is requested on a source that can't seek.
	ErrSeekNotSupported = errors.New("seek not supported")
	// ErrWriterClosed is returned when writing to a finalized or abandoned writer.
	ErrWriterClosed = errors.New("writer closed")
	// ErrFinalizeFailed is returned when the header sizes could not be patched.
	// The file keeps its placeholder sizes and must be treated as unfinalized.
	ErrFinalizeFailed = errors.New("finalize failed")
	// ErrDataTooLarge is returned when the data chunk would exceed the 4 GiB RIFF limit.
	ErrDataTooLarge = errors.New("data exceeds wav length limit of 4 GiB")
)

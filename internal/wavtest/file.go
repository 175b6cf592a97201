// Package wavtest holds in-memory fixtures for exercising WAV readers and
// writers without touching the filesystem.
package wavtest

import (
	"errors"
	"io"
)

var (
	errNegativeOffset = errors.New("negative offset")
	errInvalidWhence  = errors.New("invalid whence")
)

// File is an in-memory io.ReadWriteSeeker. Setting SeekErr or WriteErr
// makes absolute seeks or writes fail; relative seeks that only report the
// current offset always succeed.
type File struct {
	data []byte
	pos  int64

	SeekErr  error
	WriteErr error
	// Syncs counts calls to Sync.
	Syncs int
}

// NewFile returns a File holding a copy of data, positioned at 0.
func NewFile(data []byte) *File {
	return &File{data: append([]byte(nil), data...)}
}

// Bytes returns the current contents.
func (f *File) Bytes() []byte {
	return f.data
}

// Len returns the size of the contents.
func (f *File) Len() int {
	return len(f.data)
}

func (f *File) Read(p []byte) (int, error) {
	if f.pos >= int64(len(f.data)) {
		return 0, io.EOF
	}

	n := copy(p, f.data[f.pos:])
	f.pos += int64(n)

	return n, nil
}

func (f *File) Write(p []byte) (int, error) {
	if f.WriteErr != nil {
		return 0, f.WriteErr
	}

	end := f.pos + int64(len(p))
	if end > int64(len(f.data)) {
		f.data = append(f.data, make([]byte, end-int64(len(f.data)))...)
	}

	copy(f.data[f.pos:], p)
	f.pos = end

	return len(p), nil
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent && offset == 0 {
		return f.pos, nil
	}

	if f.SeekErr != nil {
		return f.pos, f.SeekErr
	}

	var abs int64

	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = int64(len(f.data)) + offset
	default:
		return f.pos, errInvalidWhence
	}

	if abs < 0 {
		return f.pos, errNegativeOffset
	}

	f.pos = abs

	return abs, nil
}

// Sync records the call.
func (f *File) Sync() error {
	f.Syncs++
	return nil
}

type forwardOnly struct {
	r io.Reader
}

func (f forwardOnly) Read(p []byte) (int, error) {
	return f.r.Read(p)
}

// ForwardOnly hides every method of r except Read, the way a pipe or a
// network stream looks to a reader.
func ForwardOnly(r io.Reader) io.Reader {
	return forwardOnly{r: r}
}

// FailingReader returns data and then err in place of io.EOF.
type FailingReader struct {
	Data []byte
	Err  error
	pos  int
}

func (f *FailingReader) Read(p []byte) (int, error) {
	if f.pos >= len(f.Data) {
		return 0, f.Err
	}

	n := copy(p, f.Data[f.pos:])
	f.pos += n

	return n, nil
}

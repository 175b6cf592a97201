package wavstream

import (
	"errors"
	"fmt"
	"os"
)

// OpenFile opens the WAV file at path for random access. Closing the
// reader closes the file.
func OpenFile(path string, opts ...Option) (*RandomAccessReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	r, err := NewRandomAccessReader(f, opts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%s: %w", path, err), f.Close())
	}

	r.closer = f

	return r, nil
}

// CreateFile creates or truncates the file at path and writes a
// provisional header for format. Closing the writer finalizes the header
// and then closes the file.
func CreateFile(path string, format Format, opts ...Option) (*Writer, error) {
	err := format.Validate()
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	w, err := NewWriter(f, format, opts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%s: %w", path, err), f.Close(), os.Remove(path))
	}

	w.closer = f

	return w, nil
}

// ReadFile opens path for streaming, passes the reader to fn and closes
// the file on every return path.
func ReadFile(path string, fn func(*StreamReader) error, opts ...Option) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	defer func() {
		err = errors.Join(err, f.Close())
	}()

	r, err := NewStreamReader(f, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return fn(r)
}

// WriteFile creates path, passes the writer to fn and finalizes the file
// when fn returns, even with an error or a panic. Calling Abandon inside
// fn skips the finalize. The file is closed either way.
func WriteFile(path string, format Format, fn func(*Writer) error, opts ...Option) (err error) {
	w, err := CreateFile(path, format, opts...)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, w.Close())
	}()

	return fn(w)
}

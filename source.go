package wavstream

import (
	"errors"
	"fmt"
	"io"
)

// byteSource tracks the absolute position of a reader. Skipping is backed by
// a real seek when the source was built with a seeker and by discarding
// bytes otherwise; the choice is made once at construction.
type byteSource struct {
	r      io.Reader
	seeker io.Seeker
	pos    int64
}

func newStreamSource(r io.Reader) *byteSource {
	return &byteSource{r: r}
}

// newSeekableSource probes the current offset so positions stay absolute
// even when rs isn't at the start of the file.
func newSeekableSource(rs io.ReadSeeker) (*byteSource, error) {
	if rs == nil {
		return nil, fmt.Errorf("%w: nil source", ErrSeekNotSupported)
	}

	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeekNotSupported, err)
	}

	return &byteSource{r: rs, seeker: rs, pos: pos}, nil
}

func (s *byteSource) canSeek() bool {
	return s.seeker != nil
}

func (s *byteSource) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.pos += int64(n)

	return n, err
}

// skip moves n bytes forward. A forward-only source that ends early
// returns io.EOF.
func (s *byteSource) skip(n int64) error {
	if n <= 0 {
		return nil
	}

	if s.seeker != nil {
		return s.seekTo(s.pos + n)
	}

	copied, err := io.CopyN(io.Discard, s.r, n)
	s.pos += copied

	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}

		return fmt.Errorf("failed to skip %d bytes: %w", n, err)
	}

	return nil
}

// seekTo moves to an absolute offset.
func (s *byteSource) seekTo(offset int64) error {
	if offset == s.pos {
		return nil
	}

	if s.seeker == nil {
		if offset < s.pos {
			return fmt.Errorf("%w: can't move back from %d to %d", ErrSeekNotSupported, s.pos, offset)
		}

		return s.skip(offset - s.pos)
	}

	pos, err := s.seeker.Seek(offset, io.SeekStart)
	if err != nil {
		return fmt.Errorf("failed to seek to %d: %w", offset, err)
	}

	s.pos = pos

	return nil
}

// size returns the total length of a seekable source, restoring the
// current position afterwards.
func (s *byteSource) size() (int64, error) {
	if s.seeker == nil {
		return 0, ErrSeekNotSupported
	}

	end, err := s.seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to seek to end of source: %w", err)
	}

	_, err = s.seeker.Seek(s.pos, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("failed to restore source position: %w", err)
	}

	return end, nil
}

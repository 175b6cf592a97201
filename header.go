package wavstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/riff"
	"github.com/pion/logging"
)

// DataSpan locates the data chunk body. Known is false when the size field
// holds the streaming placeholder of an unfinalized or piped file.
type DataSpan struct {
	Offset int64
	Size   uint32
	Known  bool
}

// header is everything learned while walking the container up to the
// start of the sample data.
type header struct {
	fmtChunk     *FmtChunk
	format       Format
	sampleFormat SampleFormat
	data         DataSpan
	chunks       []ChunkHeader
}

// readHeader scans chunks until the data chunk and leaves the source at
// the first data byte. Chunks other than fmt are skipped by offset.
func readHeader(scanner *ChunkScanner, log logging.LeveledLogger) (*header, error) {
	hdr := &header{}

	for {
		chunk, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			if hdr.fmtChunk == nil {
				return nil, ErrMissingFmtChunk
			}

			return nil, ErrMissingDataChunk
		}

		if err != nil {
			return nil, err
		}

		hdr.chunks = append(hdr.chunks, chunk)

		switch chunk.ID {
		case riff.FmtID:
			if hdr.fmtChunk != nil {
				log.Warnf("ignoring duplicate fmt chunk %s", chunk)
				continue
			}

			err := hdr.decodeFmt(scanner)
			if err != nil {
				return nil, err
			}
		case riff.DataFormatID:
			if hdr.fmtChunk == nil {
				return nil, fmt.Errorf("%w: data chunk at offset %d precedes it", ErrMissingFmtChunk, chunk.BodyOffset)
			}

			hdr.data = DataSpan{
				Offset: chunk.BodyOffset,
				Size:   chunk.Size,
				Known:  chunk.Size != sizePlaceholder,
			}

			if !hdr.data.Known {
				log.Warnf("data chunk size is a placeholder, reading until end of stream")
			}

			return hdr, nil
		default:
			log.Debugf("skipping chunk %s", chunk)
		}
	}
}

func (h *header) decodeFmt(scanner *ChunkScanner) error {
	body, err := scanner.Body()
	if err != nil {
		return err
	}

	fmtChunk, err := parseFmtChunk(body)
	if err != nil {
		return err
	}

	format, err := fmtChunk.Format()
	if err != nil {
		return err
	}

	sampleFormat, err := format.SampleFormat()
	if err != nil {
		return err
	}

	h.fmtChunk = fmtChunk
	h.format = format
	h.sampleFormat = sampleFormat

	return nil
}

func (h *header) chunkList() []ChunkHeader {
	return append([]ChunkHeader(nil), h.chunks...)
}

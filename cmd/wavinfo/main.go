// This tool prints the format and chunk layout of a wav file.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/alecthomas/kong"

	"github.com/cwbudde/wavstream"
)

type cli struct {
	Path   string `arg:"" name:"path" help:"WAV file to inspect." type:"existingfile"`
	Chunks bool   `help:"List every top-level chunk, including those after the data chunk." default:"true" negatable:""`
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	var opts cli

	parser, err := kong.New(&opts,
		kong.Name("wavinfo"),
		kong.Description("Print the format, chunk inventory and duration of a WAV file."),
		kong.UsageOnError(),
		kong.Writers(out, os.Stderr),
	)
	if err != nil {
		return err
	}

	_, err = parser.Parse(args)
	if err != nil {
		return err
	}

	r, err := wavstream.OpenFile(opts.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	format := r.Format()
	fmtChunk := r.FmtChunk()

	fmt.Fprintf(out, "File: %s\n", opts.Path)
	fmt.Fprintf(out, "Format: %s\n", format)
	fmt.Fprintf(out, "Sample format: %s\n", r.SampleFormat())

	if fmtChunk.Extensible != nil {
		fmt.Fprintf(out, "Extensible: channel mask 0x%X, sub-format %s\n",
			fmtChunk.Extensible.ChannelMask, fmtChunk.Extensible.SubFormatString())
	}

	span := r.DataSpan()
	if !span.Known {
		fmt.Fprintln(out, "Data size: unknown (placeholder), resolved from file length")
	}

	frames, err := r.FrameCount()
	if err != nil {
		fmt.Fprintf(out, "Frames: %v\n", err)
	} else {
		fmt.Fprintf(out, "Frames: %d\n", frames)
		fmt.Fprintf(out, "Duration: %s\n", format.Duration(frames))
	}

	if !opts.Chunks {
		return nil
	}

	return printChunks(opts.Path, out)
}

func printChunks(path string, out io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner, err := wavstream.NewSeekableChunkScanner(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Chunks (RIFF size %d):\n", scanner.RIFFSize())

	for {
		chunk, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\t%s\n", chunk)
	}
}

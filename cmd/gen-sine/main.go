package main

import (
	"log"
	"math"
	"os"

	"github.com/alecthomas/kong"

	"github.com/cwbudde/wavstream"
)

const sampleRate = 48000

type cli struct {
	Output    string  `help:"File to write to." default:"output.wav" type:"path"`
	Frequency float64 `help:"Frequency in hertz to generate." default:"440"`
	Length    float64 `help:"Length in seconds of the output file." default:"5"`
	Amplitude float64 `help:"Peak amplitude, 0 to 1." default:"1"`
}

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	var opts cli

	parser, err := kong.New(&opts,
		kong.Name("gen-sine"),
		kong.Description("Write a 16-bit mono sine wave to a WAV file."),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}

	_, err = parser.Parse(args)
	if err != nil {
		return err
	}

	log.Printf("generating a %f sec sine wav at %f hz", opts.Length, opts.Frequency)

	format := wavstream.Format{Channels: 1, SampleRate: sampleRate, BitsPerSample: 16}
	amplitude := math.Max(0, math.Min(1, opts.Amplitude)) * math.MaxInt16
	numSamples := int(sampleRate * opts.Length)

	return wavstream.WriteFile(opts.Output, format, func(w *wavstream.Writer) error {
		frames := make([]wavstream.Frame, 0, sampleRate)

		for i := range numSamples {
			fv := math.Sin(float64(i) / sampleRate * opts.Frequency * 2 * math.Pi)
			frames = append(frames, wavstream.IntFrame(int32(math.Round(fv*amplitude))))

			if len(frames) == cap(frames) {
				err := w.WriteFrames(frames)
				if err != nil {
					return err
				}

				frames = frames[:0]
			}
		}

		return w.WriteFrames(frames)
	})
}

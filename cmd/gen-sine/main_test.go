package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/wavstream"
)

func TestRunGeneratesWavFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "sine.wav")

	err := run([]string{"--output", outPath, "--length", "0.01", "--frequency", "220"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	fi, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}

	if fi.Size() <= 44 {
		t.Fatalf("unexpected small wav file size: %d", fi.Size())
	}

	r, err := wavstream.OpenFile(outPath)
	if err != nil {
		t.Fatalf("open generated file: %v", err)
	}
	defer r.Close()

	format := r.Format()

	if format.SampleRate != 48000 {
		t.Fatalf("sample rate=%d, want 48000", format.SampleRate)
	}

	if format.BitsPerSample != 16 {
		t.Fatalf("bit depth=%d, want 16", format.BitsPerSample)
	}

	if format.Channels != 1 {
		t.Fatalf("channels=%d, want 1", format.Channels)
	}
}

func TestRunFlagParseError(t *testing.T) {
	err := run([]string{"--length", "not-a-number"})
	if err == nil {
		t.Fatalf("expected failure for invalid flag value")
	}
}

func TestRunDefaultParams(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "default.wav")

	err := run([]string{"--output", outPath, "--length", "0.005"})
	if err != nil {
		t.Fatalf("run with defaults failed: %v", err)
	}

	r, err := wavstream.OpenFile(outPath)
	if err != nil {
		t.Fatalf("open generated file: %v", err)
	}
	defer r.Close()

	count, err := r.FrameCount()
	if err != nil {
		t.Fatalf("frame count: %v", err)
	}

	// 0.005 sec * 48000 Hz = 240 samples
	if count != 240 {
		t.Fatalf("expected 240 samples, got %d", count)
	}

	peak := int32(0)

	for {
		frame, err := r.ReadFrame()
		if err != nil {
			break
		}

		peak = max(peak, frame[0].Int())
	}

	if peak < 32000 {
		t.Fatalf("expected a full scale sine, peak is %d", peak)
	}
}

func TestRunInvalidOutputPath(t *testing.T) {
	err := run([]string{"--output", "/nonexistent/dir/file.wav", "--length", "0.001"})
	if err == nil {
		t.Fatal("expected error for invalid output path")
	}
}

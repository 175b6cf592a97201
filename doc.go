// Package wavstream reads and writes RIFF/WAVE audio files one frame at a
// time.
//
// Supported sample encodings are unsigned 8-bit, signed 16-bit and 24-bit
// integer PCM and 32-bit IEEE float, in plain or WAVE_FORMAT_EXTENSIBLE fmt
// chunks. Chunks other than fmt and data are skipped.
//
// Three entry points share one codec and chunk walker:
//
//   - StreamReader decodes from any io.Reader and never seeks.
//   - RandomAccessReader jumps to arbitrary frames of an io.ReadSeeker.
//   - Writer writes to an io.WriteSeeker and patches the header sizes on
//     Close.
//
// A header whose data size is still the 0xFFFFFFFF placeholder, as left
// by an interrupted writer or a live recording, is read up to the end of
// the stream.
//
// OpenFile, CreateFile, ReadFile and WriteFile wrap the same types around
// files on disk. Diagnostics go to a pion/logging LeveledLogger, see
// WithLogger.
package wavstream

package wavstream

import "math"

const (
	chunkHeaderSize = 8
	// riffHeaderSize covers "RIFF", the container size and the "WAVE" form type.
	riffHeaderSize = 12
	// sizePlaceholder marks a size field that hasn't been patched yet.
	sizePlaceholder = math.MaxUint32
)

// paddedSize returns the on-disk size of a chunk body including the pad
// byte that follows odd-sized bodies.
func paddedSize(size uint32) int64 {
	return int64(size) + int64(size%2)
}

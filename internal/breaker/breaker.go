// Package breaker implements the per-scheme dictionary-attack breakers
// (C9): jsteg, outguess and jphide. Each scheme reduces a decoded
// image down to a small, serialisable Job, then tests candidate
// passwords against that job alone — the original image is never
// touched again once prepare has run.
package breaker

import "fmt"

// Job is the common capability every scheme's job payload implements:
// enough to move it to and from disk.
type Job interface {
	Filename() string
	SetFilename(string)
}

// Breaker is the capability set C9 calls for: crack, compare, and the
// serialise/deserialise pair that lets a job be parked on disk between
// runs. Prepare is not part of the interface; each scheme's breaker
// has its own typed Prepare method.
type Breaker interface {
	Name() string
	Crack(filename, word string, job Job) bool
	Compare(a, b Job) int
	Serialize(job Job) []byte
	Deserialize(data []byte) (Job, error)
}

// ErrShortRecord is returned by a scheme's Deserialize when the byte
// slice is too short to hold a complete fixed-layout record — the
// "protocol mismatch" error kind.
var ErrShortRecord = fmt.Errorf("breaker: truncated job record")

// ErrBadMagic is returned when a job record's leading version/type tag
// does not match the breaker attempting to read it.
var ErrBadMagic = fmt.Errorf("breaker: job record has wrong magic/version")

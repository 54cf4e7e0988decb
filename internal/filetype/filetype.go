// Package filetype defines the payload-typer collaborator the
// jsteg and outguess breakers hand recovered plaintext to once a
// candidate password survives decryption. Classifying the actual
// bytes (MIME sniffing, libmagic-style signature tables) is explicitly
// out of scope; this package only owns the boundary those breakers
// call across.
package filetype

// Classifier recognises a byte buffer as a named file type, or reports
// that it does not recognise it.
type Classifier interface {
	Classify(buf []byte) (kind string, ok bool)
}

// Stub is a minimal Classifier good enough to exercise the breakers'
// control flow: it recognises a handful of common magic numbers and
// otherwise falls back to a generic "data" classification for any
// non-empty buffer.
type Stub struct{}

var signatures = []struct {
	magic []byte
	kind  string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpeg"},
	{[]byte("\x89PNG\r\n\x1a\n"), "png"},
	{[]byte("GIF8"), "gif"},
	{[]byte("%PDF"), "pdf"},
	{[]byte("PK\x03\x04"), "zip"},
	{[]byte("\x1f\x8b"), "gzip"},
	{[]byte("BM"), "bmp"},
}

// Classify checks buf against a short table of known magic numbers. It
// never returns ok=false for a non-empty buffer; callers that want a
// hard reject should run their own randomness/structure test first and
// only call Classify on material they already believe is plausible
// plaintext.
func (Stub) Classify(buf []byte) (string, bool) {
	for _, sig := range signatures {
		if len(buf) >= len(sig.magic) && string(buf[:len(sig.magic)]) == string(sig.magic) {
			return sig.kind, true
		}
	}
	if len(buf) == 0 {
		return "", false
	}
	return "data", true
}

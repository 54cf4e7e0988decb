// Package session re-expresses the original tool's global state
// (marker lists, per-breaker static caches) as explicit values: one
// Session per image, one CrackCache per worker.
package session

import (
	"github.com/ehulse/jstego/internal/cipher"
	"github.com/ehulse/jstego/internal/jpegcoef"
)

// Session owns everything the detection loop learns about a single
// image: its decoded coefficient tensor, its marker list, and the
// comment/APPn presence flag the detector's -n flag gates on.
type Session struct {
	Filename              string
	Raw                   []byte
	Image                 *jpegcoef.Image
	Markers               []jpegcoef.Marker
	HasCommentOrAppMarker bool
}

// New builds a Session and derives HasCommentOrAppMarker from the
// marker list in one pass.
func New(filename string, raw []byte, img *jpegcoef.Image, markers []jpegcoef.Marker) *Session {
	s := &Session{Filename: filename, Raw: raw, Image: img, Markers: markers}
	const markerCOM = 0xFE
	const markerAPP0 = 0xE0
	for _, m := range markers {
		if m.Type == markerCOM || (m.Type >= markerAPP0 && m.Type <= markerAPP0+15) {
			s.HasCommentOrAppMarker = true
			break
		}
	}
	return s
}

// CrackCache memoises the last password's derived key schedules for
// one breaker. It belongs to exactly one worker: the job database
// replays the same word against every live job in sequence, so
// caching the RC4/Feistel setup across that inner loop turns O(jobs)
// expensive key schedules into one. Parallelising across jobs (never
// across words, per spec.md §5) keeps each worker's cache private
// without needing a lock.
type CrackCache struct {
	lastWord    string
	valid       bool
	haveRC4     bool
	haveFeistel bool
	rc4         cipher.RC4
	feistel     cipher.Feistel
}

// RC4For returns the cached arc4 state for word, deriving and caching
// it via derive on a cache miss.
func (c *CrackCache) RC4For(word string, derive func(string) cipher.RC4) cipher.RC4 {
	c.ensure(word, derive, nil)
	return c.rc4
}

// FeistelFor returns the cached Feistel cipher for word, deriving and
// caching it via derive on a cache miss.
func (c *CrackCache) FeistelFor(word string, derive func(string) cipher.Feistel) cipher.Feistel {
	c.ensure(word, nil, derive)
	return c.feistel
}

func (c *CrackCache) ensure(word string, deriveRC4 func(string) cipher.RC4, deriveFeistel func(string) cipher.Feistel) {
	if !c.valid || c.lastWord != word {
		c.lastWord = word
		c.valid = true
		c.haveRC4, c.haveFeistel = false, false
	}
	if deriveRC4 != nil && !c.haveRC4 {
		c.rc4 = deriveRC4(word)
		c.haveRC4 = true
	}
	if deriveFeistel != nil && !c.haveFeistel {
		c.feistel = deriveFeistel(word)
		c.haveFeistel = true
	}
}

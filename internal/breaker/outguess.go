package breaker

import (
	"encoding/binary"

	"github.com/ehulse/jstego/internal/cipher"
	"github.com/ehulse/jstego/internal/filetype"
	"github.com/ehulse/jstego/internal/jpegcoef"
	"github.com/ehulse/jstego/internal/randtest"
)

const outguessMagic = "OGS1"

// OutguessJob is outguess's compact job payload: the total number of
// candidate bits available, and a packed bitmap of the LSB parity of
// every one of those positions. The whole candidate range has to be
// carried, not a short prefix: the coefficient walk this format
// replays spreads a claimed payload across however much of the image
// remains past the header, so a header-sized window isn't enough to
// ever reach a payload byte.
type OutguessJob struct {
	filename string
	Bits     int
	Parity   []byte
}

func (j *OutguessJob) Filename() string     { return j.filename }
func (j *OutguessJob) SetFilename(s string) { j.filename = s }

type OutguessBreaker struct {
	Typer filetype.Classifier
}

func NewOutguessBreaker() *OutguessBreaker {
	return &OutguessBreaker{Typer: filetype.Stub{}}
}

func (b *OutguessBreaker) Prepare(img *jpegcoef.Image, filename string) (*OutguessJob, error) {
	seq, n := jpegcoef.PrepareOutguessOrder(img)
	job := &OutguessJob{filename: filename, Bits: n, Parity: make([]byte, (n+7)/8)}
	for i := 0; i < n; i++ {
		if int(seq[i])&1 != 0 {
			job.Parity[i/8] |= 1 << uint(7-i%8)
		}
	}
	return job, nil
}

func parityBit(job *OutguessJob, pos int) int {
	if pos < 0 || pos/8 >= len(job.Parity) {
		return 0
	}
	return int((job.Parity[pos/8] >> uint(7-pos%8)) & 1)
}

// bitIterator walks pseudo-random positions with an adaptively
// shrinking step, mirroring outguess's own coefficient-selection walk:
// the step at each position is a word drawn from the selection stream
// modulo the current skip modulus, plus one, so the average spacing
// between consumed coefficients is (skipmod+1)/2.
type bitIterator struct {
	rng     cipher.RC4
	total   int
	pos     int
	skipmod int
	started bool
}

// newBitIterator forks off its own RC4 state and folds 16 bytes of
// that stream's own output back into itself before drawing the
// initial offset — the derive step outguess performs once per
// iterator, distinct from the per-image password keystream the header
// and payload are later XORed against.
func newBitIterator(rng cipher.RC4, total, skipmod int) *bitIterator {
	if skipmod < 1 {
		skipmod = 1
	}
	it := &bitIterator{rng: rng, total: total, skipmod: skipmod}
	var self [16]byte
	for i := range self {
		self[i] = it.rng.GetByte()
	}
	it.rng.AddRandomness(self[:])
	it.pos = int(it.rng.GetWord() % uint32(it.skipmod))
	return it
}

// reseed mixes a 2-byte little-endian seed into the iterator's own RC4
// state. It does not touch pos: the walk keeps advancing from wherever
// it already was, same as the embedder's walk did at this point.
func (it *bitIterator) reseed(seed int) {
	b := [2]byte{byte(seed), byte(seed >> 8)}
	it.rng.AddRandomness(b[:])
}

func (it *bitIterator) next() (int, bool) {
	if it.skipmod <= 0 {
		it.skipmod = 1
	}
	if it.started {
		step := int(it.rng.GetWord() % uint32(it.skipmod))
		it.pos += step + 1
	}
	it.started = true
	if it.pos >= it.total {
		return 0, false
	}
	return it.pos, true
}

// extractByte packs bits LSB-first: the first bit the walk visits
// becomes bit 0 of the returned byte, not bit 7.
func (it *bitIterator) extractByte(job *OutguessJob) (byte, bool) {
	var v byte
	for bit := 0; bit < 8; bit++ {
		pos, ok := it.next()
		if !ok {
			return 0, false
		}
		v |= byte(parityBit(job, pos)) << uint(bit)
	}
	return v, true
}

// skipAdj implements SKIPADJ(x,y): 2 when the remaining budget exceeds
// 1/32nd of the total, shrinking linearly toward 1 as the remaining
// budget approaches zero.
func skipAdj(x, y float64) float64 {
	unit := x / 32
	if unit <= 0 {
		return 1
	}
	if y > unit {
		return 2
	}
	return 2 - (unit-y)/unit
}

// adaptSkipmod implements iterator_adapt: the skip modulus is
// recomputed from however many candidate bits and claimed payload
// bytes remain, not fixed once up front — it shrinks as extraction
// nears the end of the claimed payload.
func adaptSkipmod(total, remaining, bytesLeft int) int {
	if bytesLeft <= 0 {
		return 1
	}
	skipmod := int(skipAdj(float64(total), float64(remaining)) * float64(remaining) / (8 * float64(bytesLeft)))
	if skipmod < 1 {
		skipmod = 1
	}
	return skipmod
}

// Crack replays outguess's header-location walk. The walk iterator
// forks its own RC4 state off the password key (with its own 16-byte
// self-derive step) and, with skipmod=32, picks 32 bits forming
// (seed, length). Those header bits are themselves encrypted: each
// extracted byte is XORed against a byte from a second keystream fork
// taken at the password key's untouched starting point. A third fork,
// taken from that same untouched starting point (not a continuation
// of the header-XOR fork), is saved to decrypt the claimed payload
// once the walk is reseeded at seed and continues with an adaptively
// shrinking skipmod; the claimed bytes must look random before
// decryption, and the decrypted bytes must classify as a plausible
// payload.
func (b *OutguessBreaker) Crack(filename, word string, jb Job) bool {
	job, ok := jb.(*OutguessJob)
	if !ok {
		return false
	}

	var baseRng cipher.RC4
	baseRng.InitKey([]byte(word))

	walkRng := baseRng      // forked for the selection walk's own internal state
	headerXorRng := baseRng // forked at the untouched starting point, consumed for header XOR
	payloadRng := baseRng   // forked at the same untouched starting point, saved for payload XOR

	it := newBitIterator(walkRng, job.Bits, 32)
	headerBytes := make([]byte, 4)
	for i := range headerBytes {
		v, ok := it.extractByte(job)
		if !ok {
			return false
		}
		headerBytes[i] = v ^ headerXorRng.GetByte()
	}
	seed := int(headerBytes[0]) | int(headerBytes[1])<<8
	length := int(headerBytes[2]) | int(headerBytes[3])<<8

	if seed > 55000 {
		return false
	}
	if length*8 >= job.Bits/2 {
		return false
	}
	if length < 256 {
		return false
	}

	it.reseed(seed)

	claimed := make([]byte, length)
	for i := range claimed {
		remaining := job.Bits - it.pos
		it.skipmod = adaptSkipmod(job.Bits, remaining, length-i)
		v, ok := it.extractByte(job)
		if !ok {
			return false
		}
		claimed[i] = v
	}

	if !randtest.LooksRandom(claimed) {
		return false
	}

	plain := make([]byte, length)
	for i := range plain {
		plain[i] = claimed[i] ^ payloadRng.GetByte()
	}

	_, ok = b.Typer.Classify(plain)
	return ok
}

func (b *OutguessBreaker) Compare(a, ob Job) int { return 0 }

func (b *OutguessBreaker) Serialize(jb Job) []byte {
	job := jb.(*OutguessJob)
	out := make([]byte, 0, 4+4+4+len(job.Parity))
	out = append(out, outguessMagic...)
	var bb [4]byte
	binary.BigEndian.PutUint32(bb[:], uint32(job.Bits))
	out = append(out, bb[:]...)
	binary.BigEndian.PutUint32(bb[:], uint32(len(job.Parity)))
	out = append(out, bb[:]...)
	out = append(out, job.Parity...)
	return out
}

func (b *OutguessBreaker) Deserialize(data []byte) (Job, error) {
	if len(data) < 4+4+4 {
		return nil, ErrShortRecord
	}
	if string(data[:4]) != outguessMagic {
		return nil, ErrBadMagic
	}
	job := &OutguessJob{}
	job.Bits = int(binary.BigEndian.Uint32(data[4:8]))
	parityLen := int(binary.BigEndian.Uint32(data[8:12]))
	if len(data) < 12+parityLen {
		return nil, ErrShortRecord
	}
	job.Parity = append([]byte(nil), data[12:12+parityLen]...)
	return job, nil
}

func (b *OutguessBreaker) Name() string { return "outguess" }

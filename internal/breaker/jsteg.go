package breaker

import (
	"encoding/binary"
	"fmt"

	"github.com/ehulse/jstego/internal/cipher"
	"github.com/ehulse/jstego/internal/filetype"
	"github.com/ehulse/jstego/internal/jpegcoef"
)

const jstegMagic = "JSG1"

// JstegJob is jsteg's compact job payload: the bit offset the payload
// starts at, eight ciphertext bytes taken from near the tail of the
// declared payload, and 64 ciphertext bytes from the payload's start.
type JstegJob struct {
	filename   string
	HeaderBits int
	TailBytes  [8]byte
	HeadBytes  [64]byte
}

func (j *JstegJob) Filename() string     { return j.filename }
func (j *JstegJob) SetFilename(s string) { j.filename = s }

// JstegBreaker implements Breaker for jsteg-style LSB-in-MCU-order
// embedding.
type JstegBreaker struct {
	Typer filetype.Classifier
}

func NewJstegBreaker() *JstegBreaker {
	return &JstegBreaker{Typer: filetype.Stub{}}
}

// packBits folds a bit sequence (each element 0 or 1, taken from a
// coefficient's LSB) into bytes, most significant bit first.
func packBits(bits []int) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func lsbBits(seq jpegcoef.Sequence) []int {
	bits := make([]int, len(seq))
	for i, v := range seq {
		bits[i] = int(v) & 1
	}
	return bits
}

// Prepare reduces a decoded image to a JstegJob: it reads jsteg's
// 32-bit big-endian declared payload length from the first 32 LSBs of
// the MCU-order skip-0-1 sequence, then snapshots 64 bytes from the
// start of the payload and 8 bytes from its tail.
func (b *JstegBreaker) Prepare(img *jpegcoef.Image, filename string) (*JstegJob, error) {
	seq, _ := jpegcoef.PrepareMCU(img)
	bits := lsbBits(seq)
	if len(bits) < 32 {
		return nil, fmt.Errorf("breaker: image too small to carry a jsteg length header")
	}
	lenBytes := packBits(bits[:32])
	declaredLen := int(binary.BigEndian.Uint32(lenBytes))

	job := &JstegJob{filename: filename, HeaderBits: 32}

	headBits := bits[32:]
	if len(headBits) >= 64*8 {
		copy(job.HeadBytes[:], packBits(headBits[:64*8]))
	} else {
		copy(job.HeadBytes[:], packBits(headBits))
	}

	tailBitStart := 32 + declaredLen*8 - 8*8
	if tailBitStart < 32 {
		tailBitStart = 32
	}
	if tailBitStart+64 <= len(bits) {
		copy(job.TailBytes[:], packBits(bits[tailBitStart:tailBitStart+64]))
	}
	return job, nil
}

// Crack derives an arc4 key with jsteg's fixed-key schedule, skips
// HeaderBits/8 output bytes, and XORs the tail ciphertext with the
// keystream. Success is the literal magic jsteg's own crack tool
// checks for: the trailing 7 bytes spelling "korejwa", or bytes 4..6
// of the 8-byte tail spelling "cMk" followed by a final length byte of
// 4 or 5.
func (b *JstegBreaker) Crack(filename, word string, jb Job) bool {
	job, ok := jb.(*JstegJob)
	if !ok {
		return false
	}
	var rc cipher.RC4
	rc.FixedKey([]byte(word))
	rc.Skip(job.HeaderBits / 8)

	var plain [8]byte
	for i := 0; i < 8; i++ {
		plain[i] = job.TailBytes[i] ^ rc.GetByte()
	}

	if string(plain[1:8]) == "korejwa" {
		return b.onSuccess(job, word)
	}
	if string(plain[4:7]) == "cMk" && (plain[7] == 4 || plain[7] == 5) {
		return b.onSuccess(job, word)
	}
	return false
}

// onSuccess XORs the 64 header bytes with a fresh keystream from the
// cracked word and classifies the recovered plaintext for diagnostic
// purposes; its own return is always true.
func (b *JstegBreaker) onSuccess(job *JstegJob, word string) bool {
	var rc cipher.RC4
	rc.FixedKey([]byte(word))
	var header [64]byte
	for i := range header {
		header[i] = job.HeadBytes[i] ^ rc.GetByte()
	}
	_, _ = b.Typer.Classify(header[:])
	return true
}

func (b *JstegBreaker) Compare(a, ob Job) int { return 0 }

func (b *JstegBreaker) Serialize(jb Job) []byte {
	job := jb.(*JstegJob)
	out := make([]byte, 0, 4+4+8+64)
	out = append(out, jstegMagic...)
	var hb [4]byte
	binary.BigEndian.PutUint32(hb[:], uint32(job.HeaderBits))
	out = append(out, hb[:]...)
	out = append(out, job.TailBytes[:]...)
	out = append(out, job.HeadBytes[:]...)
	return out
}

func (b *JstegBreaker) Deserialize(data []byte) (Job, error) {
	if len(data) < 4+4+8+64 {
		return nil, ErrShortRecord
	}
	if string(data[:4]) != jstegMagic {
		return nil, ErrBadMagic
	}
	job := &JstegJob{}
	job.HeaderBits = int(binary.BigEndian.Uint32(data[4:8]))
	copy(job.TailBytes[:], data[8:16])
	copy(job.HeadBytes[:], data[16:80])
	return job, nil
}

func (b *JstegBreaker) Name() string { return "jsteg" }

package breaker

import (
	"encoding/binary"

	"github.com/ehulse/jstego/internal/cipher"
	"github.com/ehulse/jstego/internal/jpegcoef"
)

const jphideMagic = "JPH1"
const jphideHeaderCoeffs = 256

// JphideJob is jphide's compact job payload: the total bit budget, the
// 8-byte initialisation vector (the low byte of each of natural-order
// coefficients 1..8, AC1..AC8, of the first block), each
// component's block-grid dimensions (the walk driver's per-component
// limits), and the first 256 coefficients the jphide walk visits.
type JphideJob struct {
	filename     string
	Bits         int
	IV           [8]byte
	WidthLimits  [3]int32
	HeightLimits [3]int32
	Coeffs       [jphideHeaderCoeffs]int16

	// MatchedVersion records which protocol variant last succeeded; it
	// is transient state, not part of the serialised record.
	MatchedVersion int
}

func (j *JphideJob) Filename() string     { return j.filename }
func (j *JphideJob) SetFilename(s string) { j.filename = s }

type JphideBreaker struct{}

func NewJphideBreaker() *JphideBreaker { return &JphideBreaker{} }

func (b *JphideBreaker) Prepare(img *jpegcoef.Image, filename string) (*JphideJob, error) {
	job := &JphideJob{filename: filename}

	if len(img.Components) > 0 {
		b0 := img.Block(0, 0, 0)
		// BuildJphideWalk reserves AC1..AC8 (coefficient indices 1..8)
		// of this block as the IV and excludes them from the walk; the
		// IV here has to be read from the same eight positions.
		for i := 0; i < 8; i++ {
			job.IV[i] = byte(b0[i+1])
		}
	}
	for ci, comp := range img.Components {
		if ci < 3 {
			job.WidthLimits[ci] = int32(comp.BlocksWide)
			job.HeightLimits[ci] = int32(comp.BlocksHigh)
		}
	}

	seq, n, _ := jpegcoef.PrepareJphide(img)
	job.Bits = n
	for i := 0; i < jphideHeaderCoeffs && i < len(seq); i++ {
		job.Coeffs[i] = seq[i]
	}
	return job, nil
}

func coeffLSBBlock(coeffs [jphideHeaderCoeffs]int16, start int) [8]byte {
	bits := make([]int, 64)
	for i := 0; i < 64; i++ {
		bits[i] = int(coeffs[start+i]) & 1
	}
	var block [8]byte
	copy(block[:], packBits(bits))
	return block
}

// Crack tries the v5 protocol first, then v3, against the job's fixed
// coefficient snapshot; on success it records which variant matched.
func (b *JphideBreaker) Crack(filename, word string, jb Job) bool {
	job, ok := jb.(*JphideJob)
	if !ok {
		return false
	}
	if b.crackV5(job, word) {
		job.MatchedVersion = 5
		return true
	}
	if b.crackV3(job, word) {
		job.MatchedVersion = 3
		return true
	}
	return false
}

// crackV5 implements the v5 header protocol: key = IV[0:5] ++
// password. Two successive 8-byte blocks decrypt to a 16-byte header;
// the first three bytes of each half give lengths L and R, byte 3 of
// the header bounds a version tag, and the password-only key (not the
// IV-mixed one) authenticates the header against the IV by encrypting
// it twice in a chain: the second encryption runs on the first
// encryption's ciphertext, not on the original IV again.
func (b *JphideBreaker) crackV5(job *JphideJob, word string) bool {
	key := make([]byte, 0, 5+len(word))
	key = append(key, job.IV[:5]...)
	key = append(key, []byte(word)...)

	var f cipher.Feistel
	if err := f.SetKey(key, len(key)); err != nil {
		return false
	}

	header := coeffLSBBlock(job.Coeffs, 0)
	f.Decrypt(&header)
	if header[3] > 3 {
		return false
	}
	L := int(header[0])<<16 | int(header[1])<<8 | int(header[2])
	if L*8 >= job.Bits {
		return false
	}

	var pwKey cipher.Feistel
	if err := pwKey.SetKey([]byte(word), len(word)); err != nil {
		return false
	}
	ivEnc := job.IV
	pwKey.Encrypt(&ivEnc)
	if ivEnc[5] != header[5] || ivEnc[6] != header[6] || ivEnc[7] != header[7] {
		return false
	}

	header2 := coeffLSBBlock(job.Coeffs, 64)
	f.Decrypt(&header2)
	if header2[1] != header[1] || header2[2] != header[2] {
		return false
	}
	R := int(header2[0])<<16 | int(header2[1])<<8 | int(header2[2])
	if !(R == 0 || (R >= L && R <= 20*L)) {
		return false
	}

	iv2 := ivEnc
	pwKey.Encrypt(&iv2)
	if iv2[4] != header2[4] || iv2[5] != header2[5] || iv2[6] != header2[6] || iv2[7] != header2[7] {
		return false
	}
	return true
}

// crackV3 implements the simpler v3 header protocol: key = password
// alone, a single 8-byte block carries the length, and the password
// key re-encrypts the IV once, to be matched against the header's
// upper five bytes.
func (b *JphideBreaker) crackV3(job *JphideJob, word string) bool {
	var f cipher.Feistel
	if err := f.SetKey([]byte(word), len(word)); err != nil {
		return false
	}

	header := coeffLSBBlock(job.Coeffs, 0)
	f.Decrypt(&header)
	L := int(header[0])<<16 | int(header[1])<<8 | int(header[2])
	if L*8 >= job.Bits {
		return false
	}

	ivEnc := job.IV
	f.Encrypt(&ivEnc)
	for i := 3; i < 8; i++ {
		if header[i] != ivEnc[i] {
			return false
		}
	}
	return true
}

func (b *JphideBreaker) Compare(ajb, bjb Job) int {
	a, ok1 := ajb.(*JphideJob)
	bb, ok2 := bjb.(*JphideJob)
	if !ok1 || !ok2 {
		return 0
	}
	for i := 0; i < 8; i++ {
		if a.IV[i] != bb.IV[i] {
			return int(a.IV[i]) - int(bb.IV[i])
		}
	}
	return 0
}

func (b *JphideBreaker) Serialize(jb Job) []byte {
	job := jb.(*JphideJob)
	out := make([]byte, 0, 4+4+8+12+12+jphideHeaderCoeffs*2)
	out = append(out, jphideMagic...)
	var bitsB [4]byte
	binary.BigEndian.PutUint32(bitsB[:], uint32(job.Bits))
	out = append(out, bitsB[:]...)
	out = append(out, job.IV[:]...)
	for _, w := range job.WidthLimits {
		var b4 [4]byte
		binary.BigEndian.PutUint32(b4[:], uint32(w))
		out = append(out, b4[:]...)
	}
	for _, h := range job.HeightLimits {
		var b4 [4]byte
		binary.BigEndian.PutUint32(b4[:], uint32(h))
		out = append(out, b4[:]...)
	}
	for _, c := range job.Coeffs {
		var b2 [2]byte
		binary.BigEndian.PutUint16(b2[:], uint16(c))
		out = append(out, b2[:]...)
	}
	return out
}

func (b *JphideBreaker) Deserialize(data []byte) (Job, error) {
	want := 4 + 4 + 8 + 12 + 12 + jphideHeaderCoeffs*2
	if len(data) < want {
		return nil, ErrShortRecord
	}
	if string(data[:4]) != jphideMagic {
		return nil, ErrBadMagic
	}
	job := &JphideJob{}
	pos := 4
	job.Bits = int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	copy(job.IV[:], data[pos:pos+8])
	pos += 8
	for i := range job.WidthLimits {
		job.WidthLimits[i] = int32(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
	}
	for i := range job.HeightLimits {
		job.HeightLimits[i] = int32(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
	}
	for i := range job.Coeffs {
		job.Coeffs[i] = int16(binary.BigEndian.Uint16(data[pos : pos+2]))
		pos += 2
	}
	return job, nil
}

func (b *JphideBreaker) Name() string { return "jphide" }

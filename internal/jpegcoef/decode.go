// Package jpegcoef decodes a baseline JPEG's entropy-coded scan down to
// its quantised DCT coefficient levels — the "external decoder
// collaborator" spec.md places out of scope is the pixel-reconstruction
// pipeline (IDCT, upsampling, colour conversion); turning compressed
// bits into per-block coefficient levels is this package's own job,
// since every one of the five coefficient-sequence orders spec.md §3
// describes is defined directly on those levels.
package jpegcoef

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned for any JPEG this package's preconditions
// reject: non-baseline encodings, and anything but three components.
var ErrUnsupported = errors.New("jpegcoef: unsupported JPEG (need baseline, 3-component)")

var zigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// Block holds 64 quantised coefficients in natural (row-major) order.
type Block [64]int16

// Component describes one colour plane's sampling and block grid.
type Component struct {
	ID           int
	HSamp, VSamp int
	QuantTable   int
	DCTable      int
	ACTable      int
	BlocksWide   int
	BlocksHigh   int
	Blocks       []Block // row-major, len == BlocksWide*BlocksHigh
}

// Image is the decoded DCT-coefficient tensor spec.md §9 calls for: an
// indexed view (component-major, [C][hib][wib][64]) rather than a
// manually linked block graph.
type Image struct {
	Width, Height int
	Components    []Component
}

func (img *Image) Block(c, by, bx int) *Block {
	comp := &img.Components[c]
	return &comp.Blocks[by*comp.BlocksWide+bx]
}

type huffTable struct {
	// maxCode[length] holds the largest code of that bit length, or -1.
	// valPtr[length] indexes into values for the first code of that length.
	minCode [17]int
	maxCode [17]int
	valPtr  [17]int
	values  []byte
}

func buildHuffTable(counts [16]byte, values []byte) *huffTable {
	h := &huffTable{values: values}
	code := 0
	k := 0
	for length := 1; length <= 16; length++ {
		n := int(counts[length-1])
		if n == 0 {
			h.minCode[length] = 0
			h.maxCode[length] = -1
		} else {
			h.valPtr[length] = k
			h.minCode[length] = code
			code += n
			k += n
			h.maxCode[length] = code - 1
		}
		code <<= 1
	}
	return h
}

type bitReader struct {
	data []byte
	pos  int
	bits uint32
	n    int
	err  error
}

func newBitReader(data []byte) *bitReader { return &bitReader{data: data} }

// nextByte returns the next entropy-coded byte, transparently
// unstuffing 0xFF 0x00 and stopping at a real marker.
func (r *bitReader) nextByte() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	b := r.data[r.pos]
	if b == 0xFF {
		if r.pos+1 >= len(r.data) {
			return 0, false
		}
		next := r.data[r.pos+1]
		if next == 0x00 {
			r.pos += 2
			return 0xFF, true
		}
		// restart marker or real marker: stop.
		return 0, false
	}
	r.pos++
	return b, true
}

func (r *bitReader) fill() {
	for r.n <= 24 {
		b, ok := r.nextByte()
		if !ok {
			// pad with 1-bits as baseline decoders conventionally do at EOS.
			r.bits |= 0xFF << uint(24-r.n)
			r.n += 8
			continue
		}
		r.bits |= uint32(b) << uint(24-r.n)
		r.n += 8
	}
}

func (r *bitReader) getBit() int {
	r.fill()
	bit := int(r.bits>>31) & 1
	r.bits <<= 1
	r.n--
	return bit
}

func (r *bitReader) getBits(n int) int {
	v := 0
	for i := 0; i < n; i++ {
		v = (v << 1) | r.getBit()
	}
	return v
}

func (r *bitReader) decodeHuff(h *huffTable) (byte, error) {
	code := 0
	for length := 1; length <= 16; length++ {
		code = (code << 1) | r.getBit()
		if h.maxCode[length] != -1 && code <= h.maxCode[length] && code >= h.minCode[length] {
			idx := h.valPtr[length] + (code - h.minCode[length])
			if idx < 0 || idx >= len(h.values) {
				return 0, fmt.Errorf("jpegcoef: huffman index out of range")
			}
			return h.values[idx], nil
		}
	}
	return 0, fmt.Errorf("jpegcoef: bad huffman code")
}

// extend sign-extends an n-bit magnitude-category value per the JPEG
// spec's Table F.1 convention.
func extend(v, n int) int {
	if n == 0 {
		return 0
	}
	vt := 1 << (n - 1)
	if v < vt {
		return v - (1 << n) + 1
	}
	return v
}

func (r *bitReader) decodeBlock(dcTab, acTab *huffTable, predictor *int) (Block, error) {
	var nat Block
	var zz [64]int16

	s, err := r.decodeHuff(dcTab)
	if err != nil {
		return nat, err
	}
	diff := 0
	if s > 0 {
		diff = extend(r.getBits(int(s)), int(s))
	}
	*predictor += diff
	zz[0] = int16(*predictor)

	k := 1
	for k < 64 {
		rs, err := r.decodeHuff(acTab)
		if err != nil {
			return nat, err
		}
		run := int(rs >> 4)
		size := int(rs & 0x0F)
		if size == 0 {
			if run == 15 {
				k += 16
				continue
			}
			break // EOB
		}
		k += run
		if k >= 64 {
			break
		}
		zz[k] = int16(extend(r.getBits(size), size))
		k++
	}

	for i := 0; i < 64; i++ {
		nat[zigzag[i]] = zz[i]
	}
	return nat, nil
}

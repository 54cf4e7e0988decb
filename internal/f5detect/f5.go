// Package f5detect implements the F5 detector (C8): recompress the
// luminance plane and compare the original vs. recompressed DCT
// coefficient histograms at the positions F5's matrix encoding
// disturbs most visibly.
package f5detect

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"strings"

	"github.com/ehulse/jstego/internal/jpegcoef"
)

// Options controls the recompression pass.
type Options struct {
	Quality      int  // 0 means sweep 90..98
	Blur         bool // apply the centre-weighted Gaussian blur before recompression
	SweepQuality bool
}

// Result is the F5 detector's verdict.
type Result struct {
	Beta            float64
	Positive        bool
	CommentMatch    bool
	QualityUsed     int
}

// encoderCommentSignature is the characteristic comment string F5's
// reference encoder stamps into JPEGs it produces — a stable shortcut
// to a positive verdict independent of the statistical estimate.
const encoderCommentSignature = "F5 V1."

// Detect runs the F5 detector against a decoded image plus the raw
// file bytes (used only to look for the encoder's comment marker).
// Recompression goes through image/jpeg at quality q, so it uses that
// encoder's standard quantisation tables; the source file's own tables
// are not read or reused.
func Detect(raw []byte, img *jpegcoef.Image, opts Options) (Result, error) {
	if hasEncoderComment(raw) {
		return Result{Positive: true, CommentMatch: true, Beta: 1.0}, nil
	}

	gray := reconstructLuminance(img)
	gray = cropBorder(gray, 4)
	if opts.Blur {
		gray = gaussianBlurCentreWeighted(gray, 0.05)
	}

	qualities := []int{opts.Quality}
	if opts.SweepQuality || opts.Quality == 0 {
		qualities = nil
		for q := 90; q <= 98; q++ {
			qualities = append(qualities, q)
		}
	}

	var best Result
	bestBeta := -1.0
	for _, q := range qualities {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, gray, &jpeg.Options{Quality: q}); err != nil {
			continue
		}
		recompressed, _, err := jpegcoef.Decode(buf.Bytes())
		if err != nil {
			continue
		}
		beta := estimateBeta(img, recompressed)
		if beta > bestBeta {
			bestBeta = beta
			best = Result{Beta: beta, QualityUsed: q}
		}
	}
	best.Positive = best.Beta > 0.3
	return best, nil
}

func hasEncoderComment(raw []byte) bool {
	return strings.Contains(string(raw), encoderCommentSignature)
}

// reconstructLuminance inverse-DCTs the first component's blocks into
// an 8-bit grayscale image. jpegcoef keeps quantised levels and no
// quantisation tables, so the inverse DCT runs on those raw levels; no
// dequantisation step is applied.
func reconstructLuminance(img *jpegcoef.Image) *image.Gray {
	if len(img.Components) == 0 {
		return image.NewGray(image.Rect(0, 0, 1, 1))
	}
	comp := img.Components[0]
	w := comp.BlocksWide * 8
	h := comp.BlocksHigh * 8
	out := image.NewGray(image.Rect(0, 0, w, h))

	for by := 0; by < comp.BlocksHigh; by++ {
		for bx := 0; bx < comp.BlocksWide; bx++ {
			block := comp.Blocks[by*comp.BlocksWide+bx]
			pixels := idct8x8(block)
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					v := pixels[y*8+x] + 128
					if v < 0 {
						v = 0
					}
					if v > 255 {
						v = 255
					}
					out.SetGray(bx*8+x, by*8+y, color.Gray{Y: uint8(v)})
				}
			}
		}
	}
	return out
}

// idct8x8 performs a direct (non-fast) separable inverse DCT-II on a
// block of raw coefficient levels.
func idct8x8(block jpegcoef.Block) [64]float64 {
	var out [64]float64
	c := func(u int) float64 {
		if u == 0 {
			return 1 / math.Sqrt2
		}
		return 1
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			sum := 0.0
			for v := 0; v < 8; v++ {
				for u := 0; u < 8; u++ {
					sum += c(u) * c(v) * float64(block[v*8+u]) *
						math.Cos((2*float64(x)+1)*float64(u)*math.Pi/16) *
						math.Cos((2*float64(y)+1)*float64(v)*math.Pi/16)
				}
			}
			out[y*8+x] = sum / 4
		}
	}
	return out
}

func cropBorder(img *image.Gray, border int) *image.Gray {
	b := img.Bounds()
	if b.Dx() <= 2*border || b.Dy() <= 2*border {
		return img
	}
	rect := image.Rect(0, 0, b.Dx()-2*border, b.Dy()-2*border)
	out := image.NewGray(rect)
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.SetGray(x, y, img.GrayAt(b.Min.X+border+x, b.Min.Y+border+y))
		}
	}
	return out
}

// gaussianBlurCentreWeighted applies a 3x3 kernel with centre weight
// (1-4d) and neighbour weight d, matching the cross-shaped weighting
// spec.md §4.8 describes.
func gaussianBlurCentreWeighted(img *image.Gray, d float64) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	center := 1 - 4*d
	at := func(x, y int) float64 {
		if x < b.Min.X {
			x = b.Min.X
		}
		if x >= b.Max.X {
			x = b.Max.X - 1
		}
		if y < b.Min.Y {
			y = b.Min.Y
		}
		if y >= b.Max.Y {
			y = b.Max.Y - 1
		}
		return float64(img.GrayAt(x, y).Y)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := center*at(x, y) + d*(at(x-1, y)+at(x+1, y)+at(x, y-1)+at(x, y+1))
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return out
}

// estimateBeta computes F5's mixing coefficient estimate at positions
// (1,2),(2,1),(2,2) from the original vs. recompressed histograms,
// using the closed form spec.md §4.8 gives, and returns the average
// over the three positions.
func estimateBeta(orig, recompressed *jpegcoef.Image) float64 {
	positions := [][2]int{{1, 2}, {2, 1}, {2, 2}}
	sum := 0.0
	n := 0
	for _, pos := range positions {
		origSeq := positionSequence(orig, pos)
		recSeq := positionSequence(recompressed, pos)
		b := betaAt(origSeq, recSeq)
		if !math.IsNaN(b) {
			sum += b
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func positionSequence(img *jpegcoef.Image, pos [2]int) jpegcoef.Sequence {
	if len(img.Components) == 0 {
		return nil
	}
	comp := img.Components[0]
	idx := pos[0]*8 + pos[1]
	seq := make(jpegcoef.Sequence, 0, len(comp.Blocks))
	for _, b := range comp.Blocks {
		seq = append(seq, b[idx])
	}
	return seq
}

// betaAt implements:
//
//	beta = (H1'(H0-H0') + (H1-H1')(H2'-H1')) / (H1'^2 + (H2'-H1')^2)
//
// where H_j counts coefficients equal to j in the original sequence
// and H'_j counts them in the recompressed sequence, for j=0,1,2.
func betaAt(orig, recompressed jpegcoef.Sequence) float64 {
	count := func(seq jpegcoef.Sequence, v int16) float64 {
		c := 0
		for _, x := range seq {
			if x == v {
				c++
			}
		}
		return float64(c)
	}
	h0, h1 := count(orig, 0), count(orig, 1)
	hp0, hp1, hp2 := count(recompressed, 0), count(recompressed, 1), count(recompressed, 2)

	numerator := hp1*(h0-hp0) + (h1-hp1)*(hp2-hp1)
	denominator := hp1*hp1 + (hp2-hp1)*(hp2-hp1)
	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}

// ResidualEpsilon computes F5's residual epsilon for a candidate beta:
// sum over j=0..2 of (Hj - (1-beta)H'j - beta*H'(j+1))^2.
func ResidualEpsilon(orig, recompressed jpegcoef.Sequence, beta float64) float64 {
	count := func(seq jpegcoef.Sequence, v int16) float64 {
		c := 0
		for _, x := range seq {
			if x == v {
				c++
			}
		}
		return float64(c)
	}
	eps := 0.0
	for j := int16(0); j <= 2; j++ {
		hj := count(orig, j)
		hpj := count(recompressed, j)
		hpj1 := count(recompressed, j+1)
		d := hj - (1-beta)*hpj - beta*hpj1
		eps += d * d
	}
	return eps
}

// Package chisquare implements the per-scheme histogram unifiers and
// chi-square accumulation, plus the jsteg, outguess and jphide decision
// procedures built on top of them.
package chisquare

import "github.com/ehulse/jstego/internal/jpegcoef"

// Histogram is the 256-bin signed coefficient histogram h[-128..127]
// indexed as h[v+128].
type Histogram [256]int

// BuildHistogram counts a coefficient sequence into the 256-bin
// histogram, clamping (rather than dropping) any value outside
// [-128,127] into the nearest edge bin — coefficients this far out are
// vanishingly rare and steganalysis only cares about the small-value
// bins the embedding schemes perturb.
func BuildHistogram(seq jpegcoef.Sequence) Histogram {
	var h Histogram
	for _, v := range seq {
		idx := int(v) + 128
		if idx < 0 {
			idx = 0
		}
		if idx > 255 {
			idx = 255
		}
		h[idx]++
	}
	return h
}

func (h Histogram) at(v int) int {
	idx := v + 128
	if idx < 0 || idx > 255 {
		return 0
	}
	return h[idx]
}

// Unification is the (theoretical, observed) pair a unifier produces.
type Unification struct {
	Theo, Obs []float64
	// Discard is the fraction of histogram mass (bins 64 and 65 left
	// out of the total) that fell in pairs the unifier itself dropped
	// (only the outguess unifier populates this).
	Discard float64
}

// UnifyNormal is the jsteg-style pairing: bins 2i and 2i+1 for
// i in 0..127 except i==64 (that pair holds the bins for values 0 and
// 1, which jsteg's skip-0-1 embedding never touches).
// The observed value is always the odd-offset bin of the pair (2i+1),
// since that's the bin jsteg's LSB flip can only ever increase.
func UnifyNormal(h Histogram) Unification {
	var u Unification
	for i := 0; i < 128; i++ {
		if i == 64 {
			continue
		}
		u.Theo = append(u.Theo, float64(h[2*i]+h[2*i+1])/2)
		u.Obs = append(u.Obs, float64(h[2*i+1]))
	}
	return u
}

// UnifyFalseJsteg skips i=0, i=64 and i=65, and pairs bin 2i-1 with 2i
// — the control unifier jsteg's decision procedure uses to bound false
// positives on unmodified prefixes. The observed value is the even bin
// of the pair (2i).
func UnifyFalseJsteg(h Histogram) Unification {
	var u Unification
	for i := 0; i < 128; i++ {
		if i == 0 || i == 64 || i == 65 {
			continue
		}
		u.Theo = append(u.Theo, float64(h[2*i-1]+h[2*i])/2)
		u.Obs = append(u.Obs, float64(h[2*i]))
	}
	return u
}

// UnifyFalseOutguess is identical in shape to UnifyFalseJsteg —
// outguess's false-positive control reuses jsteg's pairing verbatim,
// rather than deriving its own.
func UnifyFalseOutguess(h Histogram) Unification {
	return UnifyFalseJsteg(h)
}

// UnifyOutguess pairs bins 2i and 2i+1 as UnifyNormal does, but drops
// a pair when its smaller value exceeds a quarter of its larger value
// but stays below a third of it. Discard is the fraction, by histogram mass (not
// by pair count), of the coefficients in dropped pairs.
func UnifyOutguess(h Histogram) Unification {
	var u Unification
	sum := 0
	for i := 0; i < 256; i++ {
		if i == 64 || i == 65 {
			continue
		}
		sum += h[i]
	}

	discard := 0
	for i := 0; i < 128; i++ {
		if i == 64 {
			continue
		}
		one, two := h[2*i], h[2*i+1]
		f, fbar := float64(one), float64(two)
		if fbar > f {
			f, fbar = fbar, f
		}
		if fbar > f/4 && (f-f/3)-(fbar+f/3) > 0 {
			discard += one + two
			continue
		}
		u.Theo = append(u.Theo, float64(one+two)/2)
		u.Obs = append(u.Obs, float64(two))
	}
	if sum > 0 {
		u.Discard = float64(discard) / float64(sum)
	}
	return u
}

// UnifyJphide pairs adjacent signed-magnitude bins, excluding
// {-1,0,1}: on the negative side it keeps the odd-valued bin of each
// pair as the pair's low end, on the non-negative side the even-valued
// bin, so the 126 surviving pairs tile the histogram without overlap.
func UnifyJphide(h Histogram) Unification {
	var u Unification
	for i := 0; i < 256; i++ {
		if i >= 127 && i <= 129 {
			continue
		}
		if i < 128 && i%2 == 0 {
			continue
		}
		if i >= 128 && i%2 == 1 {
			continue
		}
		u.Theo = append(u.Theo, float64(h[i]+h[i+1])/2)
		u.Obs = append(u.Obs, float64(h[i]))
	}
	return u
}

// UnifyFalseJphide is jphide's control unifier: UnifyNormal's pairing
// below the midpoint, UnifyFalseJsteg's above it.
func UnifyFalseJphide(h Histogram) Unification {
	var u Unification
	for i := 0; i < 128; i++ {
		if i == 64 {
			continue
		}
		if i < 64 {
			u.Theo = append(u.Theo, float64(h[2*i]+h[2*i+1])/2)
			u.Obs = append(u.Obs, float64(h[2*i+1]))
		} else {
			u.Theo = append(u.Theo, float64(h[2*i-1]+h[2*i])/2)
			u.Obs = append(u.Obs, float64(h[2*i]))
		}
	}
	return u
}

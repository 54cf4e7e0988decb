package chisquare

import "github.com/ehulse/jstego/internal/jpegcoef"

// JphideResult carries the jphide decision procedure's evidence.
type JphideResult struct {
	Score        int
	PassedFull   bool
	PassedHalf   bool
	SweepSum     float64
	SweepSamples int
}

// DetectJphide implements spec.md §4.5's jphide decision procedure: a
// fixed-prefix check at jphpos[0] and jphpos[0]/2, each gated by three
// negative filters and a false-positive cross-check, followed by a
// increasing-step sweep that accumulates only strong (>=0.9) samples
// and aborts on any negative signal.
func DetectJphide(seq jpegcoef.Sequence, jphpos [2]int, scale float64) JphideResult {
	if len(seq) == 0 || jphpos[0] == 0 {
		return JphideResult{}
	}

	full, fullP := jphideCheckPrefix(seq, jphpos[0], scale)
	half, _ := jphideCheckPrefix(seq, jphpos[0]/2, scale)

	sum, samples := jphideSweep(seq, jphpos[0], scale)

	score := 0
	switch {
	case !full:
		score = 0
	case full && !half:
		score = 1
	case full && half && sum < 2.0:
		score = 2
	default:
		score = 3
	}
	_ = fullP

	return JphideResult{Score: score, PassedFull: full, PassedHalf: half, SweepSum: sum, SweepSamples: samples}
}

func jphideCheckPrefix(seq jpegcoef.Sequence, prefixLen int, scale float64) (bool, float64) {
	if prefixLen <= 0 {
		return false, 0
	}
	if prefixLen > len(seq) {
		prefixLen = len(seq)
	}
	prefix := seq[:prefixLen]
	h := BuildHistogram(prefix)
	p := PValue(UnifyJphide(h))
	if p < 0.9*scale {
		return false, p
	}
	if maxRunOutsideUnit(prefix) > 16 {
		return false, p
	}
	if zeroOneBackProjection(prefix) < -0.5 {
		return false, p
	}
	if emptyPairCount(h) >= 4 {
		return false, p
	}
	fp := PValue(UnifyFalseJphide(h))
	if !(fp*0.95 <= p) {
		return false, p
	}
	return true, p
}

// jphideSweep walks increasing step sizes max(250, jphpos[0]/i) for
// i=11 down to 1, summing only strong (>=0.9) jphide p-values and stopping
// early if a negative signal (a false-jphide p-value that would itself
// qualify as strong) fires at any step.
func jphideSweep(seq jpegcoef.Sequence, jphpos0 int, scale float64) (float64, int) {
	sum := 0.0
	samples := 0
	for i := 11; i >= 1; i-- {
		step := jphpos0 / i
		if step < 250 {
			step = 250
		}
		for end := step; end <= len(seq); end += step {
			h := BuildHistogram(seq[:end])
			p := PValue(UnifyJphide(h))
			fp := PValue(UnifyFalseJphide(h))
			if fp >= 0.9*scale {
				return sum, samples // negative signal: abort
			}
			if p >= 0.9*scale {
				sum += p
				samples++
			}
		}
	}
	return sum, samples
}

// maxRunOutsideUnit returns the longest run of equal consecutive
// coefficients whose value is not in {-1,0,1}.
func maxRunOutsideUnit(seq jpegcoef.Sequence) int {
	best, cur := 0, 0
	var prev int16
	havePrev := false
	for _, v := range seq {
		if v >= -1 && v <= 1 {
			cur = 0
			havePrev = false
			continue
		}
		if havePrev && v == prev {
			cur++
		} else {
			cur = 1
		}
		prev = v
		havePrev = true
		if cur > best {
			best = cur
		}
	}
	return best
}

// zeroOneBackProjection estimates how strongly the 0/1 coefficient
// population has been depleted relative to its neighbours (jphide's
// skip-0-1 rule leaves a visible dent). A strongly negative value
// means the dent looks like a natural, unmodified image instead.
func zeroOneBackProjection(seq jpegcoef.Sequence) float64 {
	zeros, ones, twos := 0, 0, 0
	for _, v := range seq {
		switch v {
		case 0:
			zeros++
		case 1:
			ones++
		case 2:
			twos++
		}
	}
	if twos == 0 {
		return 0
	}
	expected := float64(twos)
	observed := float64(zeros + ones)
	return (observed - expected) / expected
}

// emptyPairCount counts adjacent-bin pairs where the combined count is
// at least 5 but one side is exactly zero — a signature of a
// coefficient value being systematically avoided by the embedder.
func emptyPairCount(h Histogram) int {
	count := 0
	for v := -128; v < 127; v++ {
		one := h.at(v)
		two := h.at(v + 1)
		if one+two >= 5 && (one == 0 || two == 0) {
			count++
		}
	}
	return count
}

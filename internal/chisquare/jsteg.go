package chisquare

import "github.com/ehulse/jstego/internal/jpegcoef"

// JstegResult carries the jsteg decision procedure's evidence
// alongside its 0-3 confidence score, so callers can render a verdict
// suffix without recomputing anything.
type JstegResult struct {
	Score        int
	Step         int
	MaxP         float64
	StrongCount  int
	LengthChecks bool
}

// DetectJsteg implements spec.md §4.5's jsteg decision procedure:
// binary-search a prefix step, sweep the *normal* unifier's p-value in
// steps of that size, and cross-check the strong region's bounds
// against jsteg's own declared-length header.
//
// declaredLenBits is the length jsteg's own header claims to have
// embedded, in bits (0 if unavailable/unparsed, in which case the
// length cross-check is skipped rather than failed outright).
func DetectJsteg(seq jpegcoef.Sequence, declaredLenBits int, scale float64) JstegResult {
	bits := len(seq)
	if bits == 0 {
		return JstegResult{}
	}

	lo, hi := 200, bits/100
	if hi < 4000 {
		hi = 4000
	}
	step := searchJstegStep(seq, lo, hi)

	maxP := 0.0
	strongCount := 0
	firstStrong, lastStrong := -1, -1
	for end := step; end <= bits; end += step {
		h := BuildHistogram(seq[:end])
		p := PValue(UnifyNormal(h))
		if p > maxP {
			maxP = p
		}
		if p > 0.9*scale {
			strongCount++
			if firstStrong < 0 {
				firstStrong = end
			}
			lastStrong = end
		}
	}

	lengthOK := true
	if declaredLenBits > 0 && firstStrong >= 0 {
		minLen, maxLen := firstStrong, lastStrong
		lengthOK = declaredLenBits >= minLen/2 && declaredLenBits <= maxLen*2
	}

	score := 0
	switch {
	case strongCount == 0:
		score = 0
	case strongCount > 0 && !lengthOK:
		score = 1
	case maxP >= 0.99*scale:
		score = 3
	default:
		score = 2
	}

	return JstegResult{Score: score, Step: step, MaxP: maxP, StrongCount: strongCount, LengthChecks: lengthOK}
}

// searchJstegStep binary-searches the smallest step in [lo,hi] for
// which the accumulated, weighted false-jsteg p-value across the
// sequence drops under 400 — the control bound spec.md §4.5 specifies.
func searchJstegStep(seq jpegcoef.Sequence, lo, hi int) int {
	for lo < hi {
		mid := (lo + hi) / 2
		if mid == 0 {
			mid = 1
		}
		if falseJstegAccumulated(seq, mid) < 400 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return hi
}

func falseJstegAccumulated(seq jpegcoef.Sequence, step int) float64 {
	sum := 0.0
	for end := step; end <= len(seq); end += step {
		h := BuildHistogram(seq[:end])
		p := PValue(UnifyFalseJsteg(h))
		if p > 0.4 {
			sum += p * float64(step)
		}
	}
	return sum
}

package chisquare

import "github.com/ehulse/jstego/internal/jpegcoef"

// OutguessResult carries the outguess decision procedure's evidence.
type OutguessResult struct {
	Score       int
	HalfWidth   int // percent of total sequence length
	Sum         float64
	NonzeroHits int
	// Display is sum normalised by norm_outguess, purely informational
	// — the score itself is not derived from it (see normOutguess).
	Display float64
}

// normOutguess is the real norm_outguess[21] calibration table, the
// literal constants (entry 0 is 0.5, entry k >= 1 is sqrt(k/2))
// indexed by 2*halfWidthPct and clamped to the table's last
// entry for any half-width above 10%.
//
// Despite all the ceremony around building it, the original detector
// does not actually feed it into the returned score: the final sum is
// divided by a flat 0.5 regardless of window size. norm_outguess only
// ever reaches a debug percentage print. It's kept here, and surfaced
// on OutguessResult.Display, for the same reason: informational, not
// load-bearing for the verdict.
var normOutguess = [21]float64{
	0.5,
	0.7071067811865475244,
	1,
	1.2247448713915890491,
	1.4142135623730950488,
	1.581138830084189666,
	1.73205080756887729353,
	1.87082869338697069279,
	2,
	2.1213203435596425732,
	2.23606797749978969641,
	2.34520787991171477728,
	2.4494897427831780982,
	2.54950975679639241501,
	2.6457513110645905905,
	2.73861278752583056728,
	2.8284271247461900976,
	2.91547594742265023544,
	3,
	3.08220700148448822513,
	3.162277660168379332,
}

func normOutguessAt(halfWidthPct int) float64 {
	off := 2 * halfWidthPct
	if off >= len(normOutguess) {
		off = len(normOutguess) - 1
	}
	if off < 0 {
		off = 0
	}
	return normOutguess[off]
}

// DetectOutguess implements the outguess decision procedure.
func DetectOutguess(seq jpegcoef.Sequence, scale float64) OutguessResult {
	n := len(seq)
	if n == 0 {
		return OutguessResult{}
	}

	halfWidth := searchOutguessHalfWidth(seq)

	sum := 0.0
	nonzero := 0
	for _, h := range anchoredWindows(seq, halfWidth) {
		p := PValue(UnifyOutguess(h))
		if p > 0.25 {
			sum += p
		}
		if p > 0.001 {
			nonzero++
		}
	}
	display := sum / normOutguessAt(halfWidth)

	count := float64(nonzero) / float64(halfWidth)
	if count < 15 {
		sum -= (15 - count) * 0.5
		if sum < 0 {
			sum = 0
		}
	}
	raw := scale * sum / 0.5

	score := 0
	switch {
	case raw <= 0:
		score = 0
	case raw < 0.5:
		score = 1
	case raw < 1.5:
		score = 2
	default:
		score = 3
	}

	return OutguessResult{Score: score, HalfWidth: halfWidth, Sum: raw, NonzeroHits: nonzero, Display: display}
}

// searchOutguessHalfWidth binary-searches the window half-width
// (percent of total sequence length) so the sum of false-outguess
// p-values over 101 anchored windows is >= 0.6.
func searchOutguessHalfWidth(seq jpegcoef.Sequence) int {
	lo, hi := 1, 50
	for lo < hi {
		mid := (lo + hi) / 2
		if falseOutguessSum(seq, mid) >= 0.6 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return hi
}

func falseOutguessSum(seq jpegcoef.Sequence, halfWidthPct int) float64 {
	sum := 0.0
	for _, h := range anchoredWindows(seq, halfWidthPct) {
		p := PValue(UnifyFalseOutguess(h))
		sum += p
	}
	return sum
}

// anchoredWindows returns the 101 histograms of windows centred at
// i/100 of the sequence for i=0..100, each spanning +/-halfWidthPct%
// of the total length.
func anchoredWindows(seq jpegcoef.Sequence, halfWidthPct int) []Histogram {
	n := len(seq)
	half := n * halfWidthPct / 100
	windows := make([]Histogram, 0, 101)
	for i := 0; i <= 100; i++ {
		center := n * i / 100
		lo := center - half
		hi := center + half
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		windows = append(windows, BuildHistogram(seq[lo:hi]))
	}
	return windows
}

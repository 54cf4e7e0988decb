package chisquare

import (
	"math/rand"
	"testing"

	"github.com/ehulse/jstego/internal/jpegcoef"
	"github.com/stretchr/testify/require"
)

func laplacianSequence(n int, seed int64) jpegcoef.Sequence {
	r := rand.New(rand.NewSource(seed))
	seq := make(jpegcoef.Sequence, n)
	for i := range seq {
		// crude discretised Laplacian-ish distribution, typical of AC
		// DCT coefficients in a natural image.
		v := int(r.ExpFloat64()*3) * (1 - 2*r.Intn(2))
		if v > 120 {
			v = 120
		}
		if v < -120 {
			v = -120
		}
		seq[i] = int16(v)
	}
	return seq
}

func jstegModify(seq jpegcoef.Sequence, bits int) jpegcoef.Sequence {
	out := append(jpegcoef.Sequence(nil), seq...)
	set := 0
	for i := range out {
		if set >= bits {
			break
		}
		if out[i] == 0 || out[i] == 1 {
			continue
		}
		out[i] = (out[i] &^ 1) | 1 // force LSB to 1, a crude but real jsteg-style perturbation
		set++
	}
	return out
}

func TestNormalPValueMonotonicBeyondPlateau(t *testing.T) {
	clean := laplacianSequence(20000, 1)
	modified := jstegModify(clean, 15000)

	var prev float64 = 2 // sentinel above any real p-value
	regressions := 0
	for _, end := range []int{2000, 4000, 8000, 16000, 20000} {
		h := BuildHistogram(modified[:end])
		p := PValue(UnifyNormal(h))
		if p > prev+0.25 { // allow early-plateau noise, flag sustained increases
			regressions++
		}
		prev = p
	}
	require.LessOrEqual(t, regressions, 1, "normal p-value should not trend upward on a fully-modified prefix")
}

func TestUnifyOutguessKeepsBalancedPairs(t *testing.T) {
	var h Histogram
	for v := -10; v <= 10; v++ {
		h[v+128] = 50
	}
	u := UnifyOutguess(h)
	require.NotEmpty(t, u.Theo)
}

func TestDetectJstegScoresCleanLow(t *testing.T) {
	clean := laplacianSequence(50000, 2)
	res := DetectJsteg(clean, 0, 1.0)
	require.LessOrEqual(t, res.Score, 1)
}

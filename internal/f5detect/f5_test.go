package f5detect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasEncoderComment(t *testing.T) {
	raw := []byte("JFIF stuff F5 V1.0 by Andreas Westfeld more bytes")
	require.True(t, hasEncoderComment(raw))
	require.False(t, hasEncoderComment([]byte("plain jpeg, no signature")))
}

func TestBetaAtIdenticalSequencesIsZero(t *testing.T) {
	seq := []int16{0, 1, 2, 0, 1, 2, 0, 0, 1, 1, 2, 2}
	b := betaAt(seq, seq)
	require.InDelta(t, 0.0, b, 1e-9)
}

func TestBetaAtFiniteForDifferingSequences(t *testing.T) {
	// Original and recompressed histograms differ (original 0/1/2
	// counts 4/5/3, recompressed 5/6/1), so the denominator is non-zero
	// and betaAt yields a finite estimate rather than NaN.
	orig := []int16{1, 1, 1, 2, 2, 0, 0, 0, 0, 1, 2, 1}
	recompressed := []int16{1, 1, 0, 2, 1, 0, 0, 0, 0, 1, 1, 1}
	b := betaAt(orig, recompressed)
	require.False(t, b != b) // not NaN
}

func TestResidualEpsilonZeroAtExactFit(t *testing.T) {
	recompressed := []int16{0, 0, 1, 1, 2, 2}
	eps := ResidualEpsilon(recompressed, recompressed, 0)
	require.InDelta(t, 0.0, eps, 1e-9)
}

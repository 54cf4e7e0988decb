package features

import "github.com/ehulse/jstego/internal/jpegcoef"

// highFreqWeight approximates an energy weighting that rises linearly
// with the coefficient's natural (row-major) index, i/63 — embeddings concentrate in mid/high AC
// positions, so weighting by position proxies for frequency content
// without needing the image's own quantisation table.
var highFreqWeight = func() [64]float64 {
	var w [64]float64
	for i := range w {
		w[i] = float64(i) / 63.0
	}
	return w
}()

// Roughness computes each block's energy-weighted high-frequency power
// and returns the (mean, std, skew, kurt) of that statistic across all
// blocks.
func Roughness(img *jpegcoef.Image) []float64 {
	var energies []float64
	for _, comp := range img.Components {
		for _, b := range comp.Blocks {
			e := 0.0
			for i := 1; i < 64; i++ {
				v := float64(b[i])
				e += highFreqWeight[i] * v * v
			}
			energies = append(energies, e)
		}
	}
	mean, std, skew, kurt := Moments(energies)
	return []float64{mean, std, skew, kurt}
}

// DiffSquare computes, per block, row-wise and column-wise adjacent
// differences squared, weighted by |value|, reduced to (mean, std,
// skew, kurt) per row and per column of the 8x8 block — a 64-dim
// feature vector (8 rows + 8 cols, 4 moments each).
func DiffSquare(img *jpegcoef.Image) []float64 {
	rowAccum := make([][]float64, 8)
	colAccum := make([][]float64, 8)
	for i := range rowAccum {
		rowAccum[i] = []float64{}
		colAccum[i] = []float64{}
	}

	for _, comp := range img.Components {
		for _, b := range comp.Blocks {
			for r := 0; r < 8; r++ {
				for c := 0; c < 7; c++ {
					a := float64(b[r*8+c])
					bb := float64(b[r*8+c+1])
					d := a - bb
					w := absF(a)
					rowAccum[r] = append(rowAccum[r], w*d*d)
				}
			}
			for c := 0; c < 8; c++ {
				for r := 0; r < 7; r++ {
					a := float64(b[r*8+c])
					bb := float64(b[(r+1)*8+c])
					d := a - bb
					w := absF(a)
					colAccum[c] = append(colAccum[c], w*d*d)
				}
			}
		}
	}

	out := make([]float64, 0, 64)
	for r := 0; r < 8; r++ {
		mean, std, skew, kurt := Moments(rowAccum[r])
		out = append(out, mean, std, skew, kurt)
	}
	for c := 0; c < 8; c++ {
		mean, std, skew, kurt := Moments(colAccum[c])
		out = append(out, mean, std, skew, kurt)
	}
	return out
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Package features computes the feature transforms (C7) the
// discriminant classifier (C6) trains and classifies on: spline,
// gradient, roughness and diffsquare, each collapsing a per-block or
// per-bin statistic down to unbiased sample moments (mean, std, skew,
// excess kurtosis).
package features

import "math"

// Moments returns the unbiased sample mean, standard deviation
// (n-1 denominator), skewness and excess kurtosis (4th standardised
// moment minus 3) of xs.
func Moments(xs []float64) (mean, std, skew, kurt float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0, 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= n

	var m2, m3, m4 float64
	for _, x := range xs {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	m2 /= n
	m3 /= n
	m4 /= n

	if n > 1 {
		std = math.Sqrt(m2 * n / (n - 1))
	}
	if m2 > 0 {
		sd := math.Sqrt(m2)
		skew = m3 / (sd * sd * sd)
		kurt = m4/(m2*m2) - 3
	}
	return mean, std, skew, kurt
}

// Package discriminant implements the Fisher linear discriminant
// classifier (C6): pooled covariance estimation, Gauss-Jordan
// inversion, the discriminant vector, and the boundary search the
// detector's training mode (-c/-C/-D flags) drives.
package discriminant

import (
	"fmt"
	"math"
)

// Detector is a trained (or loaded) discriminant record: name,
// transform name, dimension, vector b, projpos, projneg, k.
type Detector struct {
	Name      string
	Transform string
	Dim       int
	B         []float64
	ProjPos   float64
	ProjNeg   float64
	K         float64
}

// Sample is one labelled (or unlabelled, for classification) feature
// vector.
type Sample struct {
	Label   bool // true = positive (embedded) class
	Feature []float64
}

// ErrSingular is returned when the pooled covariance matrix cannot be
// inverted — a fatal calibration error.
var ErrSingular = fmt.Errorf("discriminant: singular covariance matrix")

// Fit computes the pooled mean/covariance discriminant from labelled
// training samples and returns an untrained-boundary Detector (K is
// left at the midpoint; call SetBoundary or Test to pick a real one).
func Fit(name, transform string, samples []Sample) (*Detector, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("discriminant: no training samples")
	}
	d := len(samples[0].Feature)

	var muPos, muNeg = make([]float64, d), make([]float64, d)
	var nPos, nNeg int
	for _, s := range samples {
		if len(s.Feature) != d {
			return nil, fmt.Errorf("discriminant: feature dimension mismatch")
		}
		if s.Label {
			add(muPos, s.Feature)
			nPos++
		} else {
			add(muNeg, s.Feature)
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return nil, fmt.Errorf("discriminant: need both classes represented")
	}
	scale(muPos, 1/float64(nPos))
	scale(muNeg, 1/float64(nNeg))

	cov := make([][]float64, d)
	for i := range cov {
		cov[i] = make([]float64, d)
	}

	// Each sample accumulates its own residual against its own class
	// mean into a single pooled sum, matching the original estimator's
	// net arithmetic: it keeps two accumulator variables, one per
	// class, but a typo has the negative-class loop add into the
	// positive accumulator instead of its own, leaving the negative
	// one dead at zero. Since addition doesn't care which variable
	// holds it, the two classes' residuals still end up summed
	// together in the end — the mistake costs nothing numerically, it
	// just makes one of the two accumulators pointless.
	for _, s := range samples {
		if s.Label {
			accumulateOuterResidual(cov, s.Feature, muPos)
		} else {
			accumulateOuterResidual(cov, s.Feature, muNeg)
		}
	}
	denom := float64(nPos + nNeg - 2)
	if denom <= 0 {
		denom = 1
	}
	for i := range cov {
		for j := range cov[i] {
			cov[i][j] /= denom
		}
	}

	inv, err := invert(cov)
	if err != nil {
		return nil, ErrSingular
	}

	diff := make([]float64, d)
	for i := 0; i < d; i++ {
		diff[i] = muPos[i] - muNeg[i]
	}
	b := matVec(inv, diff)

	det := &Detector{
		Name: name, Transform: transform, Dim: d, B: b,
		ProjPos: dot(b, muPos),
		ProjNeg: dot(b, muNeg),
	}
	det.SetBoundary(0.5)
	return det, nil
}

func accumulateOuterResidual(cov [][]float64, x, mu []float64) {
	d := len(mu)
	res := make([]float64, d)
	for i := 0; i < d; i++ {
		res[i] = x[i] - mu[i]
	}
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			cov[i][j] += res[i] * res[j]
		}
	}
}

// SetBoundary positions K at fraction w between projneg and projpos.
func (d *Detector) SetBoundary(w float64) {
	d.K = d.ProjNeg + w*(d.ProjPos-d.ProjNeg)
}

// Classify reports whether x lies on the positive side of the
// boundary. "Positive side" depends on which of ProjPos/ProjNeg is
// larger.
func (d *Detector) Classify(x []float64) bool {
	proj := dot(d.B, x)
	if d.ProjPos >= d.ProjNeg {
		return proj >= d.K
	}
	return proj <= d.K
}

// Project returns the raw scalar projection b.x, useful for reporting
// confidence/margin alongside the boolean verdict.
func (d *Detector) Project(x []float64) float64 {
	return dot(d.B, x)
}

func add(a, b []float64) {
	for i := range a {
		a[i] += b[i]
	}
}

func scale(a []float64, s float64) {
	for i := range a {
		a[i] *= s
	}
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func matVec(m [][]float64, v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range m {
		s := 0.0
		for j := range v {
			s += m[i][j] * v[j]
		}
		out[i] = s
	}
	return out
}

// invert computes the matrix inverse via Gauss-Jordan elimination with
// partial (row) pivoting — DESIGN.md records why row pivoting was
// chosen over full pivoting — failing loudly (ErrSingular via the
// caller) rather than returning a near-garbage result on a singular
// matrix.
func invert(m [][]float64) ([][]float64, error) {
	n := len(m)
	a := make([][]float64, n)
	inv := make([][]float64, n)
	for i := range a {
		a[i] = append([]float64(nil), m[i]...)
		inv[i] = make([]float64, n)
		inv[i][i] = 1
	}

	for col := 0; col < n; col++ {
		pivotRow := col
		best := math.Abs(a[col][col])
		for i := col + 1; i < n; i++ {
			if math.Abs(a[i][col]) > best {
				best = math.Abs(a[i][col])
				pivotRow = i
			}
		}
		if best < 1e-12 {
			return nil, ErrSingular
		}
		a[col], a[pivotRow] = a[pivotRow], a[col]
		inv[col], inv[pivotRow] = inv[pivotRow], inv[col]

		pivot := a[col][col]
		for j := 0; j < n; j++ {
			a[col][j] /= pivot
			inv[col][j] /= pivot
		}
		for i := 0; i < n; i++ {
			if i == col {
				continue
			}
			factor := a[i][col]
			if factor == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				a[i][j] -= factor * a[col][j]
				inv[i][j] -= factor * inv[col][j]
			}
		}
	}
	return inv, nil
}

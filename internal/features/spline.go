package features

import "github.com/ehulse/jstego/internal/jpegcoef"

// Spline histograms a single DCT slot's value across every block into
// a signed range sized to a multiple of 512, fits a cubic spline
// through the surrounding bins, and reports the relative spline-fit
// error's moments for each of the first 18 slots.
//
// A cubic spline needs control points; this uses every 8th bin of the
// 512-wide histogram as a knot (64 knots) and natural cubic spline
// interpolation between them, the standard choice when no particular
// knot placement is specified.
func Spline(img *jpegcoef.Image, slots int) []float64 {
	if slots <= 0 {
		slots = 18
	}
	out := make([]float64, 0, slots*4)
	for slot := 0; slot < slots; slot++ {
		hist := slotHistogram(img, slot, 512)
		errs := splineResidualErrors(hist)
		mean, std, skew, kurt := Moments(errs)
		out = append(out, mean, std, skew, kurt)
	}
	return out
}

// Gradient is Spline applied to the horizontal-difference sequence
// instead of raw coefficients.
func Gradient(img *jpegcoef.Image, slots int) []float64 {
	if slots <= 0 {
		slots = 18
	}
	seq, _ := jpegcoef.PrepareGradientX(img)
	out := make([]float64, 0, slots*4)
	for slot := 0; slot < slots; slot++ {
		hist := sequenceSlotHistogram(seq, slot, 512)
		errs := splineResidualErrors(hist)
		mean, std, skew, kurt := Moments(errs)
		out = append(out, mean, std, skew, kurt)
	}
	return out
}

// slotHistogram builds a signed histogram of width bins (centred on
// zero) for DCT coefficient index `slot` across every block of every
// component.
func slotHistogram(img *jpegcoef.Image, slot, width int) []float64 {
	h := make([]float64, width)
	half := width / 2
	for _, comp := range img.Components {
		for _, b := range comp.Blocks {
			v := int(b[slot]) + half
			if v < 0 {
				v = 0
			}
			if v >= width {
				v = width - 1
			}
			h[v]++
		}
	}
	return h
}

func sequenceSlotHistogram(seq jpegcoef.Sequence, slot, width int) []float64 {
	h := make([]float64, width)
	half := width / 2
	stride := 64
	for i := slot; i < len(seq); i += stride {
		v := int(seq[i]) + half
		if v < 0 {
			v = 0
		}
		if v >= width {
			v = width - 1
		}
		h[v]++
	}
	return h
}

// splineResidualErrors fits a natural cubic spline through every 8th
// histogram bin and returns, per bin, the relative error between the
// observed count and the spline's interpolated estimate.
func splineResidualErrors(hist []float64) []float64 {
	n := len(hist)
	if n < 16 {
		return nil
	}
	const knotStride = 8
	var knotX, knotY []float64
	for i := 0; i < n; i += knotStride {
		knotX = append(knotX, float64(i))
		knotY = append(knotY, hist[i])
	}
	spline := fitNaturalCubicSpline(knotX, knotY)

	errs := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		est := spline.eval(float64(i))
		if est == 0 {
			continue
		}
		errs = append(errs, (hist[i]-est)/est)
	}
	return errs
}

type cubicSpline struct {
	x, y, m []float64 // knot positions, values, second derivatives
}

// fitNaturalCubicSpline solves the standard tridiagonal system for a
// natural cubic spline's second derivatives at each knot.
func fitNaturalCubicSpline(x, y []float64) *cubicSpline {
	n := len(x)
	s := &cubicSpline{x: x, y: y, m: make([]float64, n)}
	if n < 3 {
		return s
	}
	alpha := make([]float64, n)
	for i := 1; i < n-1; i++ {
		h0 := x[i] - x[i-1]
		h1 := x[i+1] - x[i]
		if h0 == 0 || h1 == 0 {
			continue
		}
		alpha[i] = 3*(y[i+1]-y[i])/h1 - 3*(y[i]-y[i-1])/h0
	}
	l := make([]float64, n)
	mu := make([]float64, n)
	z := make([]float64, n)
	l[0] = 1
	for i := 1; i < n-1; i++ {
		h0 := x[i] - x[i-1]
		h1 := x[i+1] - x[i]
		l[i] = 2*(x[i+1]-x[i-1]) - h0*mu[i-1]
		if l[i] == 0 {
			l[i] = 1e-9
		}
		mu[i] = h1 / l[i]
		z[i] = (alpha[i] - h0*z[i-1]) / l[i]
	}
	l[n-1] = 1
	c := make([]float64, n)
	for j := n - 2; j >= 0; j-- {
		c[j] = z[j] - mu[j]*c[j+1]
	}
	// c[j] is half the second derivative at knot j; eval expects the
	// full second derivative.
	for j := range c {
		c[j] *= 2
	}
	s.m = c
	return s
}

// eval piecewise-evaluates the spline at t by locating the bracketing
// knot interval and applying the cubic Hermite form.
func (s *cubicSpline) eval(t float64) float64 {
	n := len(s.x)
	if n == 0 {
		return 0
	}
	if n < 3 {
		return s.y[0]
	}
	i := 0
	for i < n-2 && t > s.x[i+1] {
		i++
	}
	h := s.x[i+1] - s.x[i]
	if h == 0 {
		return s.y[i]
	}
	a := (s.x[i+1] - t) / h
	b := (t - s.x[i]) / h
	return a*s.y[i] + b*s.y[i+1] +
		((a*a*a-a)*s.m[i]+(b*b*b-b)*s.m[i+1])*(h*h)/6
}

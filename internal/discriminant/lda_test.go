package discriminant

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleSet() []Sample {
	var s []Sample
	for i := 0; i < 20; i++ {
		s = append(s, Sample{Label: true, Feature: []float64{1.0 + float64(i)*0.01, 0.2 + float64(i%3)*0.01, 0.1 + float64(i%5)*0.01, 0.05 + float64(i%7)*0.01}})
	}
	for i := 0; i < 20; i++ {
		s = append(s, Sample{Label: false, Feature: []float64{0.3 + float64(i)*0.01, 0.25 + float64(i%3)*0.01, 0.11 + float64(i%5)*0.01, 0.04 + float64(i%7)*0.01}})
	}
	return s
}

func TestFitSelfConsistent(t *testing.T) {
	samples := sampleSet()
	d, err := Fit("test", "spline", samples)
	require.NoError(t, err)
	require.Equal(t, 4, d.Dim)
	require.Greater(t, d.ProjPos, d.ProjNeg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	samples := sampleSet()
	d, err := Fit("test", "spline", samples)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, d))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, d.Name, loaded.Name)
	require.Equal(t, d.Transform, loaded.Transform)
	require.Equal(t, d.Dim, loaded.Dim)
	require.InDeltaSlice(t, d.B, loaded.B, 1e-9)
	require.InDelta(t, d.ProjPos, loaded.ProjPos, 1e-9)
	require.InDelta(t, d.ProjNeg, loaded.ProjNeg, 1e-9)
}

func TestBoundarySweepPicksLowFalsePositive(t *testing.T) {
	samples := sampleSet()
	d, err := Fit("test", "spline", samples)
	require.NoError(t, err)

	w, results := Test(d, samples)
	require.NotEmpty(t, results)
	require.GreaterOrEqual(t, w, -1.0)
	require.LessOrEqual(t, w, 2.0)
}

func TestFitRejectsSingleClass(t *testing.T) {
	_, err := Fit("test", "spline", []Sample{{Label: true, Feature: []float64{1}}})
	require.Error(t, err)
}

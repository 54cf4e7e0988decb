package features

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehulse/jstego/internal/jpegcoef"
)

func syntheticImage() *jpegcoef.Image {
	img := &jpegcoef.Image{Width: 32, Height: 32}
	img.Components = make([]jpegcoef.Component, 3)
	for i := range img.Components {
		img.Components[i] = jpegcoef.Component{
			ID: i + 1, HSamp: 1, VSamp: 1,
			BlocksWide: 4, BlocksHigh: 4,
			Blocks: make([]jpegcoef.Block, 16),
		}
		for b := range img.Components[i].Blocks {
			for k := 0; k < 64; k++ {
				img.Components[i].Blocks[b][k] = int16(((b*64+k)%23)-11)
			}
		}
	}
	return img
}

func TestMomentsEmpty(t *testing.T) {
	mean, std, skew, kurt := Moments(nil)
	require.Zero(t, mean)
	require.Zero(t, std)
	require.Zero(t, skew)
	require.Zero(t, kurt)
}

func TestMomentsConstant(t *testing.T) {
	xs := []float64{5, 5, 5, 5}
	mean, std, _, _ := Moments(xs)
	require.Equal(t, 5.0, mean)
	require.Zero(t, std)
}

func TestRoughnessDeterministic(t *testing.T) {
	img := syntheticImage()
	a := Roughness(img)
	b := Roughness(img)
	require.Equal(t, a, b)
	require.Len(t, a, 4)
}

func TestDiffSquareDimensions(t *testing.T) {
	img := syntheticImage()
	out := DiffSquare(img)
	require.Len(t, out, 64)
}

func TestSplineDimensions(t *testing.T) {
	img := syntheticImage()
	out := Spline(img, 18)
	require.Len(t, out, 18*4)
}

func TestGradientDimensions(t *testing.T) {
	img := syntheticImage()
	out := Gradient(img, 18)
	require.Len(t, out, 18*4)
}

func TestSplineDefaultsSlotsWhenNonPositive(t *testing.T) {
	img := syntheticImage()
	out := Spline(img, 0)
	require.Len(t, out, 18*4)
}

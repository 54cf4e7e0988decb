package jpegcoef

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func syntheticImage() *Image {
	img := &Image{Width: 16, Height: 16}
	img.Components = make([]Component, 3)
	for i := range img.Components {
		img.Components[i] = Component{
			ID: i + 1, HSamp: 1, VSamp: 1,
			BlocksWide: 2, BlocksHigh: 2,
			Blocks: make([]Block, 4),
		}
		for b := range img.Components[i].Blocks {
			for k := 0; k < 64; k++ {
				img.Components[i].Blocks[b][k] = int16((b*64 + k) % 7)
			}
		}
	}
	return img
}

func TestPrepareNaturalDeterministic(t *testing.T) {
	img := syntheticImage()
	a, na := PrepareNatural(img)
	b, nb := PrepareNatural(img)
	require.Equal(t, na, nb)
	require.Equal(t, a, b)
	require.Equal(t, 3*4*64, na)
}

func TestPrepareOutguessOrderExcludesDC(t *testing.T) {
	img := syntheticImage()
	seq, n := PrepareOutguessOrder(img)
	require.Equal(t, len(seq), n)
	// Every value must come from an AC position (skip-0-1 already
	// applied), so the count can only shrink relative to natural order.
	natSeq, _ := PrepareNatural(img)
	require.LessOrEqual(t, n, len(natSeq))
	// 180 AC values per component are outside {0,1}; the DC values of
	// blocks 2 and 3 (2 and 3) would add 2 more per component if kept.
	require.Equal(t, 3*180, n)
}

func TestPrepareGradientXSkipsFirstColumn(t *testing.T) {
	img := syntheticImage()
	seq, n := PrepareGradientX(img)
	// 3 components * 2 rows * 1 remaining column * 64 coefficients
	require.Equal(t, 3*2*1*64, n)
	require.Equal(t, n, len(seq))
}

func TestBuildJphideWalkSkipsIV(t *testing.T) {
	img := syntheticImage()
	walk := BuildJphideWalk(img)
	for _, w := range walk {
		if w.Component == 0 && w.BlockRow == 0 && w.BlockCol == 0 {
			require.Greater(t, w.CoefIndex, 8)
		}
	}
}

func TestPrepareJphideCapacityBounds(t *testing.T) {
	img := syntheticImage()
	seq, n, jphpos := PrepareJphide(img)
	require.Equal(t, n, len(seq))
	require.Equal(t, n, jphpos[0])
	require.LessOrEqual(t, jphpos[1], jphpos[0])
	require.Greater(t, jphpos[1], 0)
}

package jpegcoef

// Sequence is a flat, ordered run of quantised coefficients — the unit
// every hypothesis test and breaker in this repository operates on.
type Sequence []int16

// skip01 implements the "skip-0-1" embedding rule: a coefficient whose
// current value is 0 or 1 is never touched, because flipping its LSB
// would be a distinguishable +/-1 step rather than a same-magnitude
// bit flip.
func skip01(v int16) bool {
	return v == 0 || v == 1
}

// PrepareNatural walks every AC+DC coefficient of every block of every
// component, blocks in raster order, coefficients in natural
// (row-major, already de-zigzagged) order within a block.
func PrepareNatural(img *Image) (Sequence, int) {
	var seq Sequence
	for _, comp := range img.Components {
		for _, b := range comp.Blocks {
			seq = append(seq, b[:]...)
		}
	}
	return seq, len(seq)
}

// PrepareMCU walks the same blocks in MCU order (the order a baseline
// entropy coder emits them in), applying skip-0-1.
func PrepareMCU(img *Image) (Sequence, int) {
	var seq Sequence
	if len(img.Components) == 0 {
		return seq, 0
	}
	maxH, maxV := 1, 1
	for _, c := range img.Components {
		if c.HSamp > maxH {
			maxH = c.HSamp
		}
		if c.VSamp > maxV {
			maxV = c.VSamp
		}
	}
	mcusAcross := (img.Width + 8*maxH - 1) / (8 * maxH)
	mcusDown := (img.Height + 8*maxV - 1) / (8 * maxV)

	for my := 0; my < mcusDown; my++ {
		for mx := 0; mx < mcusAcross; mx++ {
			for ci := range img.Components {
				comp := &img.Components[ci]
				for v := 0; v < comp.VSamp; v++ {
					for h := 0; h < comp.HSamp; h++ {
						by := my*comp.VSamp + v
						bx := mx*comp.HSamp + h
						if by >= comp.BlocksHigh || bx >= comp.BlocksWide {
							continue
						}
						b := comp.Blocks[by*comp.BlocksWide+bx]
						for _, c := range b {
							if !skip01(c) {
								seq = append(seq, c)
							}
						}
					}
				}
			}
		}
	}
	return seq, len(seq)
}

// PrepareOutguessOrder is natural-order, skip-0-1, and excludes the DC
// coefficient of each block — the order outguess's bit-selection walk
// uses.
func PrepareOutguessOrder(img *Image) (Sequence, int) {
	var seq Sequence
	for _, comp := range img.Components {
		for _, b := range comp.Blocks {
			for i := 1; i < 64; i++ {
				if !skip01(b[i]) {
					seq = append(seq, b[i])
				}
			}
		}
	}
	return seq, len(seq)
}

// PrepareGradientX is the horizontal difference of adjacent blocks in
// natural order: block[x] - block[x-1], per coefficient position,
// skipping the first column of blocks in each component (no left
// neighbour).
func PrepareGradientX(img *Image) (Sequence, int) {
	var seq Sequence
	for _, comp := range img.Components {
		for by := 0; by < comp.BlocksHigh; by++ {
			for bx := 1; bx < comp.BlocksWide; bx++ {
				cur := comp.Blocks[by*comp.BlocksWide+bx]
				prev := comp.Blocks[by*comp.BlocksWide+bx-1]
				for i := 0; i < 64; i++ {
					seq = append(seq, cur[i]-prev[i])
				}
			}
		}
	}
	return seq, len(seq)
}

// Mode tags a jphide walk position with its modification-probability
// class.
type Mode byte

const (
	Mode2LSB Mode = iota // unconditional, 2 low bits usable
	ModeHalf             // 1/2 probability
	ModeQuarter          // 1/4 probability
	ModeExcluded
)

// WalkEntry is one fixed position in the jphide walk table.
type WalkEntry struct {
	Component int
	BlockRow  int
	BlockCol  int
	CoefIndex int
	Mode      Mode
}

// modeCycle assigns each walk position's probability class. jphide's
// own table is derived from each coefficient's quantisation step
// (coarser steps get examined less often, to bound visible distortion)
// and is not recovered in this pack; this assigns fixed bands by
// natural coefficient index (1..8 unconditional, 9..32 half-rate,
// 33..63 quarter-rate) that preserve the same qualitative shape
// without claiming bit-for-bit fidelity to
// the original constant table.
func modeCycle(coefIndex int) Mode {
	switch {
	case coefIndex <= 8:
		return Mode2LSB
	case coefIndex <= 32:
		return ModeHalf
	default:
		return ModeQuarter
	}
}

// BuildJphideWalk constructs the fixed walk: component-major, blocks in
// raster order, coefficients 1..63 (DC excluded), terminating once
// every block of every component has been visited. The first eight
// walk positions of the first block of the first component are
// reserved as the IV and excluded from the table entirely.
func BuildJphideWalk(img *Image) []WalkEntry {
	var walk []WalkEntry
	ivLeft := 8
	for ci, comp := range img.Components {
		for by := 0; by < comp.BlocksHigh; by++ {
			for bx := 0; bx < comp.BlocksWide; bx++ {
				for k := 1; k < 64; k++ {
					if ci == 0 && by == 0 && bx == 0 && ivLeft > 0 {
						ivLeft--
						continue
					}
					walk = append(walk, WalkEntry{
						Component: ci,
						BlockRow:  by,
						BlockCol:  bx,
						CoefIndex: k,
						Mode:      modeCycle(k),
					})
				}
			}
		}
	}
	return walk
}

// PrepareJphide evaluates the walk against the image, returning the
// visited coefficient values (excluding positions whose mode is
// ModeExcluded).
//
// jphpos[0]/jphpos[1]: the real walk counts coefficients through a
// multi-region table (one region per component, each with its own
// modification-probability class) and records jphpos[0]/jphpos[1] as
// the bit-offset where its internal region counter rolls over for the
// first and third time — real region-transition boundaries, not
// arbitrary indices. The numeric region-size constants that table is
// built from live in a header this pack's original source tree doesn't
// carry, so the exact boundaries can't be reproduced. What's
// reproducible is the shape: jphpos[0] and jphpos[1] are both
// monotonically increasing in how much of the image the walk has
// covered. This implementation approximates that with the two coarsest
// such quantities available — jphpos[0] as the total walked coefficient
// count across the whole image, jphpos[1] as the walked count of the
// first component alone — rather than the literal per-region
// boundaries. See DESIGN.md, Open Question OQ-1.
func PrepareJphide(img *Image) (seq Sequence, n int, jphpos [2]int) {
	walk := BuildJphideWalk(img)
	firstComponentCount := 0
	for _, w := range walk {
		if w.Mode == ModeExcluded {
			continue
		}
		v := img.Block(w.Component, w.BlockRow, w.BlockCol)[w.CoefIndex]
		seq = append(seq, v)
		if w.Component == 0 {
			firstComponentCount++
		}
	}
	jphpos[0] = len(seq)
	jphpos[1] = firstComponentCount
	return seq, len(seq), jphpos
}

package jpegcoef

import (
	"encoding/binary"
	"fmt"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOF0 = 0xC0
	markerSOF2 = 0xC2
	markerDHT  = 0xC4
	markerDQT  = 0xDB
	markerDRI  = 0xDD
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerCOM  = 0xFE
)

// Marker records a non-scan segment the caller may want to inspect
// (APPn/COM presence gates the detector's -n flag, per spec.md §6).
type Marker struct {
	Type   byte
	Offset int
	Data   []byte
}

// Decode parses a baseline JPEG byte stream into its coefficient
// tensor. It enforces spec.md §4.3's preconditions: exactly three
// components, baseline (non-progressive) encoding.
func Decode(data []byte) (*Image, []Marker, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, fmt.Errorf("jpegcoef: missing SOI")
	}

	img := &Image{}
	var markers []Marker
	var huffDC, huffAC [4]*huffTable
	var restartInterval int
	pos := 2

	for pos < len(data)-1 {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		typ := data[pos+1]
		if typ == 0x00 || (typ >= 0xD0 && typ <= 0xD7) {
			pos += 2
			continue
		}
		if typ == markerEOI {
			break
		}
		if pos+4 > len(data) {
			return nil, nil, fmt.Errorf("jpegcoef: truncated marker")
		}
		segLen := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if segLen < 2 || pos+2+segLen > len(data) {
			return nil, nil, fmt.Errorf("jpegcoef: bad segment length")
		}
		segStart := pos + 4
		segEnd := pos + 2 + segLen

		switch typ {
		case markerSOF2:
			return nil, nil, ErrUnsupported
		case markerSOF0:
			if err := parseSOF(data[segStart:segEnd], img); err != nil {
				return nil, nil, err
			}
			if len(img.Components) != 3 {
				return nil, nil, ErrUnsupported
			}
		case markerDHT:
			parseDHT(data[segStart:segEnd], &huffDC, &huffAC)
		case markerDRI:
			if segEnd-segStart >= 2 {
				restartInterval = int(binary.BigEndian.Uint16(data[segStart : segStart+2]))
			}
		case markerAPP0 + 1, markerCOM:
			markers = append(markers, Marker{Type: typ, Offset: pos, Data: append([]byte(nil), data[segStart:segEnd]...)})
		default:
			if typ >= markerAPP0 && typ <= markerAPP0+15 {
				markers = append(markers, Marker{Type: typ, Offset: pos, Data: append([]byte(nil), data[segStart:segEnd]...)})
			}
		}

		if typ == markerSOS {
			scanStart := segEnd
			if err := decodeScan(data, scanStart, img, huffDC, huffAC, restartInterval); err != nil {
				return nil, nil, err
			}
			return img, markers, nil
		}

		pos = segEnd
	}

	return nil, nil, fmt.Errorf("jpegcoef: no scan found")
}

func parseSOF(seg []byte, img *Image) error {
	if len(seg) < 6 {
		return fmt.Errorf("jpegcoef: short SOF")
	}
	img.Height = int(binary.BigEndian.Uint16(seg[1:3]))
	img.Width = int(binary.BigEndian.Uint16(seg[3:5]))
	n := int(seg[5])
	if 6+n*3 > len(seg) {
		return fmt.Errorf("jpegcoef: short SOF component list")
	}
	img.Components = make([]Component, n)
	maxH, maxV := 1, 1
	for i := 0; i < n; i++ {
		off := 6 + i*3
		img.Components[i] = Component{
			ID:         int(seg[off]),
			HSamp:      int(seg[off+1] >> 4),
			VSamp:      int(seg[off+1] & 0x0F),
			QuantTable: int(seg[off+2]),
		}
		if img.Components[i].HSamp > maxH {
			maxH = img.Components[i].HSamp
		}
		if img.Components[i].VSamp > maxV {
			maxV = img.Components[i].VSamp
		}
	}
	mcuW, mcuH := 8*maxH, 8*maxV
	mcusAcross := (img.Width + mcuW - 1) / mcuW
	mcusDown := (img.Height + mcuH - 1) / mcuH
	for i := range img.Components {
		c := &img.Components[i]
		c.BlocksWide = mcusAcross * c.HSamp
		c.BlocksHigh = mcusDown * c.VSamp
		c.Blocks = make([]Block, c.BlocksWide*c.BlocksHigh)
	}
	return nil
}

func parseDHT(seg []byte, dc, ac *[4]*huffTable) {
	pos := 0
	for pos < len(seg) {
		class := seg[pos] >> 4
		id := seg[pos] & 0x0F
		pos++
		if pos+16 > len(seg) {
			return
		}
		var counts [16]byte
		copy(counts[:], seg[pos:pos+16])
		pos += 16
		total := 0
		for _, c := range counts {
			total += int(c)
		}
		if pos+total > len(seg) {
			return
		}
		values := append([]byte(nil), seg[pos:pos+total]...)
		pos += total
		table := buildHuffTable(counts, values)
		if class == 0 {
			dc[id] = table
		} else {
			ac[id] = table
		}
	}
}

func decodeScan(data []byte, scanStart int, img *Image, huffDC, huffAC [4]*huffTable, restartInterval int) error {
	if scanStart+1 > len(data) {
		return fmt.Errorf("jpegcoef: short scan header")
	}
	ns := int(data[scanStart])
	if scanStart+1+ns*2 > len(data) {
		return fmt.Errorf("jpegcoef: short scan component list")
	}
	type scanComp struct {
		compIdx      int
		dcTab, acTab *huffTable
	}
	scanComps := make([]scanComp, ns)
	for i := 0; i < ns; i++ {
		off := scanStart + 1 + i*2
		id := int(data[off])
		dcSel := data[off+1] >> 4
		acSel := data[off+1] & 0x0F
		ci := -1
		for j, c := range img.Components {
			if c.ID == id {
				ci = j
				break
			}
		}
		if ci < 0 {
			return fmt.Errorf("jpegcoef: scan references unknown component")
		}
		scanComps[i] = scanComp{compIdx: ci, dcTab: huffDC[dcSel], acTab: huffAC[acSel]}
	}
	entropyStart := scanStart + 1 + ns*2 + 3 // skip Ss, Se, AhAl

	r := newBitReader(data[entropyStart:])

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

	predictors := make([]int, len(img.Components))
	mcuCount := 0
	restartsSeen := 0

	for my := 0; my < mcusDown; my++ {
		for mx := 0; mx < mcusAcross; mx++ {
			for _, sc := range scanComps {
				comp := &img.Components[sc.compIdx]
				for v := 0; v < comp.VSamp; v++ {
					for h := 0; h < comp.HSamp; h++ {
						by := my*comp.VSamp + v
						bx := mx*comp.HSamp + h
						block, err := r.decodeBlock(sc.dcTab, sc.acTab, &predictors[sc.compIdx])
						if err != nil {
							return err
						}
						if by < comp.BlocksHigh && bx < comp.BlocksWide {
							comp.Blocks[by*comp.BlocksWide+bx] = block
						}
					}
				}
			}
			mcuCount++
			if restartInterval > 0 && mcuCount%restartInterval == 0 && mcuCount != mcusAcross*mcusDown {
				restartsSeen++
				for i := range predictors {
					predictors[i] = 0
				}
				r.resyncAtRestart()
			}
		}
	}
	return nil
}

// resyncAtRestart realigns the bit reader onto the next RSTn marker
// (DC predictors reset at every restart interval, per the JPEG spec).
func (r *bitReader) resyncAtRestart() {
	r.bits = 0
	r.n = 0
	for r.pos+1 < len(r.data) {
		if r.data[r.pos] == 0xFF && r.data[r.pos+1] >= 0xD0 && r.data[r.pos+1] <= 0xD7 {
			r.pos += 2
			return
		}
		r.pos++
	}
}

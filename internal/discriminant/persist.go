package discriminant

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Save writes a detector record as: name line, transform name line,
// "d b1 b2 ... bd", "projpos projneg k".
func Save(w io.Writer, d *Detector) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, d.Name)
	fmt.Fprintln(bw, d.Transform)

	fields := make([]string, 0, d.Dim+1)
	fields = append(fields, strconv.Itoa(d.Dim))
	for _, v := range d.B {
		fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
	}
	fmt.Fprintln(bw, strings.Join(fields, " "))
	fmt.Fprintf(bw, "%s %s %s\n",
		strconv.FormatFloat(d.ProjPos, 'g', -1, 64),
		strconv.FormatFloat(d.ProjNeg, 'g', -1, 64),
		strconv.FormatFloat(d.K, 'g', -1, 64))
	return bw.Flush()
}

// Load parses a detector record written by Save.
func Load(r io.Reader) (*Detector, error) {
	sc := bufio.NewScanner(r)
	lines := make([]string, 0, 4)
	for sc.Scan() && len(lines) < 4 {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 4 {
		return nil, fmt.Errorf("discriminant: truncated detector record")
	}

	d := &Detector{Name: lines[0], Transform: lines[1]}

	bFields := strings.Fields(lines[2])
	if len(bFields) < 1 {
		return nil, fmt.Errorf("discriminant: missing dimension")
	}
	dim, err := strconv.Atoi(bFields[0])
	if err != nil {
		return nil, fmt.Errorf("discriminant: bad dimension: %w", err)
	}
	if len(bFields) != dim+1 {
		return nil, fmt.Errorf("discriminant: dimension mismatch in vector")
	}
	d.Dim = dim
	d.B = make([]float64, dim)
	for i := 0; i < dim; i++ {
		v, err := strconv.ParseFloat(bFields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("discriminant: bad b[%d]: %w", i, err)
		}
		d.B[i] = v
	}

	tail := strings.Fields(lines[3])
	if len(tail) != 3 {
		return nil, fmt.Errorf("discriminant: expected projpos projneg k")
	}
	if d.ProjPos, err = strconv.ParseFloat(tail[0], 64); err != nil {
		return nil, err
	}
	if d.ProjNeg, err = strconv.ParseFloat(tail[1], 64); err != nil {
		return nil, err
	}
	if d.K, err = strconv.ParseFloat(tail[2], 64); err != nil {
		return nil, err
	}
	return d, nil
}

// TestResult summarises one boundary sweep point.
type TestResult struct {
	W           float64
	FalsePosPct float64
	FalseNegPct float64
}

// Test sweeps w over [-1, 2] in steps of 0.15, evaluating d as given
// (it does not refit on the top 80% of each class) and measuring
// false-positive/false-negative rates against the last 20% of each
// class held out, and returns the smallest w whose
// false-positive rate is below 1% — or 0.5 if none qualifies.
func Test(d *Detector, samples []Sample) (bestW float64, results []TestResult) {
	var pos, neg []Sample
	for _, s := range samples {
		if s.Label {
			pos = append(pos, s)
		} else {
			neg = append(neg, s)
		}
	}
	holdout := func(xs []Sample) []Sample {
		cut := len(xs) * 80 / 100
		return xs[cut:]
	}
	posTest, negTest := holdout(pos), holdout(neg)

	bestW = 0.5
	found := false
	for w := -1.0; w <= 2.0+1e-9; w += 0.15 {
		d.SetBoundary(w)
		fp, fn := 0, 0
		for _, s := range negTest {
			if d.Classify(s.Feature) {
				fp++
			}
		}
		for _, s := range posTest {
			if !d.Classify(s.Feature) {
				fn++
			}
		}
		fpPct := pct(fp, len(negTest))
		fnPct := pct(fn, len(posTest))
		results = append(results, TestResult{W: w, FalsePosPct: fpPct, FalseNegPct: fnPct})
		if !found && fpPct < 1.0 {
			bestW = w
			found = true
		}
	}
	d.SetBoundary(bestW)
	return bestW, results
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

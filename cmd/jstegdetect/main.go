// Command jstegdetect runs the statistical steganalysis engine over a
// set of JPEG files: one line of verdicts per image, following the
// teacher's banner/flag/colour-printer conventions.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ehulse/jstego/internal/chisquare"
	"github.com/ehulse/jstego/internal/discriminant"
	"github.com/ehulse/jstego/internal/f5detect"
	"github.com/ehulse/jstego/internal/features"
	"github.com/ehulse/jstego/internal/filetype"
	"github.com/ehulse/jstego/internal/jpegcoef"
	"github.com/ehulse/jstego/internal/session"
	"github.com/ehulse/jstego/internal/ux"
	"github.com/ehulse/jstego/internal/walk"
	"github.com/ehulse/jstego/pkg/report"
)

const version = "jstegdetect 1.0.0"

const (
	debugVerboseDump = 1 << 0
)

func main() {
	var (
		schemes      = flag.String("t", "ojpiFfa", "schemes to test: o,j,p,i,f,F,a")
		sensitivity  = flag.Float64("s", 1.0, "global sensitivity scale")
		noisy        = flag.Bool("n", false, "disable checks when JPEG comments/APPn markers are present")
		quiet        = flag.Bool("q", false, "suppress negative lines")
		debugMask    = flag.Int("d", 0, "debug bitmask")
		trainRow     = flag.String("C", "", "n,transform: emit a training feature row for each input instead of detecting")
		trainFile    = flag.String("c", "", "ingest a training-data file (rows as emitted by -C) and fit a detector record")
		detectorPath = flag.String("D", "", "load a persisted detector record for the invisible-secrets check")
		showVersion  = flag.Bool("V", false, "print version")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	p := ux.Printer{Quiet: *quiet}

	if *trainFile != "" {
		if err := runTraining(*trainFile); err != nil {
			p.Error("training failed: %v", err)
			os.Exit(1)
		}
		return
	}

	var detector *discriminant.Detector
	if *detectorPath != "" {
		f, err := os.Open(*detectorPath)
		if err != nil {
			p.Error("opening detector record: %v", err)
			os.Exit(1)
		}
		detector, err = discriminant.Load(f)
		f.Close()
		if err != nil {
			p.Error("loading detector record: %v", err)
			os.Exit(1)
		}
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: jstegdetect [flags] <file|dir|-> ...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	files, err := walk.Gather(args)
	if err != nil {
		p.Error("gathering input: %v", err)
		os.Exit(1)
	}

	if *trainRow != "" {
		if err := emitTrainingRows(*trainRow, files); err != nil {
			p.Error("emitting training rows: %v", err)
			os.Exit(1)
		}
		return
	}

	want := parseSchemeSet(*schemes)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	typer := filetype.Stub{}

	for _, path := range files {
		result := analyzeFile(path, want, *sensitivity, *noisy, detector, typer)
		if result.Err != nil {
			p.Error("%s", result.Err)
		}
		if len(result.Verdicts) == 0 && *quiet {
			continue
		}
		fmt.Fprintln(out, result.Line())
		out.Flush()

		if *debugMask&debugVerboseDump != 0 {
			for _, v := range result.Verdicts {
				p.Info("%s: %s", path, v.String())
			}
		}
	}
}

func parseSchemeSet(letters string) map[byte]bool {
	set := make(map[byte]bool)
	for i := 0; i < len(letters); i++ {
		set[letters[i]] = true
	}
	return set
}

func analyzeFile(path string, want map[byte]bool, scale float64, noisy bool, detector *discriminant.Detector, typer filetype.Classifier) *report.AnalysisResult {
	res := &report.AnalysisResult{Filename: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}
	img, markers, err := jpegcoef.Decode(raw)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}
	sess := session.New(path, raw, img, markers)
	suppressed := noisy && sess.HasCommentOrAppMarker

	if want['j'] && !suppressed {
		detectJsteg(res, img, scale)
	}
	if want['o'] {
		outguessScale := scale
		if suppressed {
			outguessScale *= 0.5
		}
		detectOutguess(res, img, outguessScale)
	}
	if want['p'] && !suppressed {
		detectJphide(res, img, scale)
	}
	if (want['f'] || want['F']) && !suppressed {
		detectF5(res, raw, img, want['F'])
	}
	if want['i'] && !suppressed && detector != nil {
		detectInvisibleSecrets(res, img, detector)
	}
	if want['a'] && !suppressed {
		detectAppendedData(res, raw, typer)
	}

	return res
}

func scoreToConfidence(score int) report.Confidence {
	switch {
	case score >= 3:
		return report.ConfidenceHigh
	case score == 2:
		return report.ConfidenceMedium
	case score == 1:
		return report.ConfidenceLow
	default:
		return report.ConfidenceNone
	}
}

func detectJsteg(res *report.AnalysisResult, img *jpegcoef.Image, scale float64) {
	seq, _ := jpegcoef.PrepareMCU(img)
	declaredLenBits := jstegDeclaredLenBits(seq)
	r := chisquare.DetectJsteg(seq, declaredLenBits, scale)
	if r.Score > 0 {
		res.AddVerdict("jsteg", scoreToConfidence(r.Score), "")
	}
}

// jstegDeclaredLenBits reads the 32-bit big-endian length header jsteg
// writes into the first 32 LSBs of its own MCU-order sequence.
func jstegDeclaredLenBits(seq jpegcoef.Sequence) int {
	if len(seq) < 32 {
		return 0
	}
	var v uint32
	for i := 0; i < 32; i++ {
		v = v<<1 | uint32(seq[i]&1)
	}
	return int(v) * 8
}

func detectOutguess(res *report.AnalysisResult, img *jpegcoef.Image, scale float64) {
	seq, _ := jpegcoef.PrepareOutguessOrder(img)
	r := chisquare.DetectOutguess(seq, scale)
	if r.Score > 0 {
		res.AddVerdict("outguess", scoreToConfidence(r.Score), "")
	}
}

func detectJphide(res *report.AnalysisResult, img *jpegcoef.Image, scale float64) {
	seq, _, jphpos := jpegcoef.PrepareJphide(img)
	r := chisquare.DetectJphide(seq, jphpos, scale)
	if r.Score > 0 {
		res.AddVerdict("jphide", scoreToConfidence(r.Score), "")
	}
}

func detectF5(res *report.AnalysisResult, raw []byte, img *jpegcoef.Image, slow bool) {
	opts := f5detect.Options{SweepQuality: slow}
	if !slow {
		opts.Quality = 90
	}
	r, err := f5detect.Detect(raw, img, opts)
	if err != nil {
		return
	}
	if r.Positive {
		res.AddVerdict("f5", report.ConfidenceHigh, "")
	}
}

func detectInvisibleSecrets(res *report.AnalysisResult, img *jpegcoef.Image, detector *discriminant.Detector) {
	x := featureVectorFor(img, detector.Transform)
	if x == nil {
		return
	}
	if detector.Classify(x) {
		res.AddVerdict("invisible-secrets", report.ConfidenceMedium, "")
	}
}

func detectAppendedData(res *report.AnalysisResult, raw []byte, typer filetype.Classifier) {
	const eoiMarker = "\xff\xd9"
	idx := bytes.LastIndex(raw, []byte(eoiMarker))
	if idx < 0 || idx+2 >= len(raw) {
		return
	}
	trailer := raw[idx+2:]
	kind, ok := typer.Classify(trailer)
	suffix := fmt.Sprintf("%d bytes", len(trailer))
	if ok {
		suffix = kind + ":" + suffix
	}
	res.AddVerdict("appended-data", report.ConfidenceHigh, suffix)
}

func featureVectorFor(img *jpegcoef.Image, transform string) []float64 {
	switch transform {
	case "spline":
		return features.Spline(img, 18)
	case "gradient":
		return features.Gradient(img, 18)
	case "roughness":
		return features.Roughness(img)
	case "diffsquare":
		return features.DiffSquare(img)
	default:
		return nil
	}
}

// emitTrainingRows writes one feature row per input file in the format
// spec.md S5 shows: "<path>:<label>,<transform>:<v1> <v2> ...".
func emitTrainingRows(spec string, files []string) error {
	label, transform, err := parseTrainSpec(spec)
	if err != nil {
		return err
	}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		img, _, err := jpegcoef.Decode(raw)
		if err != nil {
			continue
		}
		x := featureVectorFor(img, transform)
		if x == nil {
			continue
		}
		fields := make([]string, len(x))
		for i, v := range x {
			fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		fmt.Fprintf(out, "%s:%d,%s:%s\n", path, label, transform, strings.Join(fields, " "))
	}
	return nil
}

func parseTrainSpec(spec string) (label int, transform string, err error) {
	parts := strings.SplitN(spec, ",", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("jstegdetect: -C expects n,transform")
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("jstegdetect: bad -C label: %w", err)
	}
	return n, parts[1], nil
}

// runTraining parses a file of -C-formatted rows, fits a discriminant
// detector, and writes the persisted record to stdout.
func runTraining(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var samples []discriminant.Sample
	transform := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sample, tname, err := parseTrainingLine(line)
		if err != nil {
			return err
		}
		transform = tname
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	d, err := discriminant.Fit(path, transform, samples)
	if err != nil {
		return err
	}
	bestW, _ := discriminant.Test(d, samples)
	d.SetBoundary(bestW)

	return discriminant.Save(os.Stdout, d)
}

func parseTrainingLine(line string) (discriminant.Sample, string, error) {
	// "<path>:<label>,<transform>:<v1> <v2> ..."
	colon := strings.LastIndex(strings.SplitN(line, ",", 2)[0], ":")
	if colon < 0 {
		return discriminant.Sample{}, "", fmt.Errorf("jstegdetect: malformed training line %q", line)
	}
	rest := line[colon+1:]
	parts := strings.SplitN(rest, ",", 2)
	if len(parts) != 2 {
		return discriminant.Sample{}, "", fmt.Errorf("jstegdetect: malformed training line %q", line)
	}
	label, err := strconv.Atoi(parts[0])
	if err != nil {
		return discriminant.Sample{}, "", fmt.Errorf("jstegdetect: bad label in %q: %w", line, err)
	}
	tparts := strings.SplitN(parts[1], ":", 2)
	if len(tparts) != 2 {
		return discriminant.Sample{}, "", fmt.Errorf("jstegdetect: malformed training line %q", line)
	}
	fields := strings.Fields(tparts[1])
	feature := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return discriminant.Sample{}, "", fmt.Errorf("jstegdetect: bad feature value in %q: %w", line, err)
		}
		feature[i] = v
	}
	return discriminant.Sample{Label: label != 0, Feature: feature}, tparts[0], nil
}

// Command jstegcrack runs the dictionary-attack engine over a set of
// JPEG files: prepare a per-scheme job for each selected image, then
// drain a rule-expanded word list against the whole job queue.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ehulse/jstego/internal/breaker"
	"github.com/ehulse/jstego/internal/config"
	"github.com/ehulse/jstego/internal/jpegcoef"
	"github.com/ehulse/jstego/internal/queue"
	"github.com/ehulse/jstego/internal/ux"
	"github.com/ehulse/jstego/internal/walk"
	"github.com/ehulse/jstego/internal/wordlist"
	"github.com/ehulse/jstego/pkg/report"
)

func main() {
	var (
		rulesPath    = flag.String("r", "", "rules file")
		wordlistPath = flag.String("f", "", "word list file (or - for stdin)")
		schemes      = flag.String("t", "ojp", "schemes to attack: o,j,p")
		convertOnly  = flag.Bool("c", false, "convert-only: write per-scheme job side-files and exit")
		quiet        = flag.Bool("q", false, "quiet")
	)
	flag.Parse()

	p := ux.Printer{Quiet: *quiet}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: jstegcrack [flags] <file|dir|-> ...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	files, err := walk.Gather(args)
	if err != nil {
		p.Error("gathering input: %v", err)
		os.Exit(1)
	}

	want := parseSchemeSet(*schemes)
	jsteg := breaker.NewJstegBreaker()
	outguess := breaker.NewOutguessBreaker()
	jphide := breaker.NewJphideBreaker()

	q := queue.New(
		func(e queue.Entry, word string) {
			printSuccess(p, e, word)
		},
		func(e queue.Entry) {
			p.Warning("%s : %s negative", e.Job.Filename(), e.Breaker.Name())
		},
	)

	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			p.Error("%s: %v", path, err)
			continue
		}
		img, _, err := jpegcoef.Decode(raw)
		if err != nil {
			p.Error("%s: %v", path, err)
			continue
		}

		if want['j'] {
			if job, err := jsteg.Prepare(img, path); err == nil {
				if *convertOnly {
					writeSideFile(p, path, ".jsg", jsteg.Serialize(job))
				} else {
					q.Insert(queue.Entry{Job: job, Breaker: jsteg}, nil)
				}
			}
		}
		if want['o'] {
			if job, err := outguess.Prepare(img, path); err == nil {
				if *convertOnly {
					writeSideFile(p, path, ".og", outguess.Serialize(job))
				} else {
					q.Insert(queue.Entry{Job: job, Breaker: outguess}, nil)
				}
			}
		}
		if want['p'] {
			if job, err := jphide.Prepare(img, path); err == nil {
				if *convertOnly {
					writeSideFile(p, path, ".jph", jphide.Serialize(job))
				} else {
					q.Insert(queue.Entry{Job: job, Breaker: jphide}, jphide.Compare)
				}
			}
		}
	}

	if *convertOnly {
		return
	}

	if *rulesPath == "" || *wordlistPath == "" {
		p.Error("cracking requires both -r and -f")
		os.Exit(1)
	}

	rulesFile, err := os.Open(*rulesPath)
	if err != nil {
		p.Error("opening rules file: %v", err)
		os.Exit(1)
	}
	cfg, err := config.Parse(rulesFile)
	rulesFile.Close()
	if err != nil {
		p.Error("parsing rules file: %v", err)
		os.Exit(1)
	}
	var rulesSection *config.Section
	for _, sec := range cfg.Sections {
		if sec.IsList {
			rulesSection = sec
			break
		}
	}
	if rulesSection == nil {
		p.Error("rules file %s has no list. section", *rulesPath)
		os.Exit(1)
	}
	rules, err := wordlist.ParseRules(rulesSection)
	if err != nil {
		p.Error("parsing rules: %v", err)
		os.Exit(1)
	}

	var wl *os.File
	if *wordlistPath == "-" {
		wl = os.Stdin
	} else {
		wl, err = os.Open(*wordlistPath)
		if err != nil {
			p.Error("opening word list: %v", err)
			os.Exit(1)
		}
		defer wl.Close()
	}
	src := wordlist.New(rules, wl)

	opts := queue.RunOptions{Printer: p, StatusPeriod: 5 * time.Second}
	queue.Run(q, src, opts)

	if remaining := q.Flush(); remaining > 0 {
		p.Alert("%s", queue.ReportNegative(remaining))
	}
}

func parseSchemeSet(letters string) map[byte]bool {
	set := make(map[byte]bool)
	for i := 0; i < len(letters); i++ {
		set[letters[i]] = true
	}
	return set
}

func printSuccess(p ux.Printer, e queue.Entry, word string) {
	result := report.CrackResult{
		Filename: e.Job.Filename(),
		Scheme:   e.Breaker.Name(),
		Password: word,
		Success:  true,
	}
	if jph, ok := e.Job.(*breaker.JphideJob); ok {
		result.Version = jph.MatchedVersion
	}
	fmt.Println(result.Line())
}

func writeSideFile(p ux.Printer, path, ext string, data []byte) {
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ext
	if err := os.WriteFile(out, data, 0644); err != nil {
		p.Error("writing %s: %v", out, err)
		return
	}
	p.Info("wrote %s", out)
}

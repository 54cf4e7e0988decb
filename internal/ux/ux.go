// Package ux holds the colourised status printers both command-line
// tools share, so neither binary hand-rolls its own prefix/colour
// convention.
package ux

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Printer groups the status stream's quiet flag with its prefix
// colours, so a single value threads through both binaries' main
// loops instead of package-level mutable state.
type Printer struct {
	Quiet bool
}

func (p Printer) Info(format string, args ...interface{}) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func (p Printer) Success(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func (p Printer) Warning(format string, args ...interface{}) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func (p Printer) Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

func (p Printer) Alert(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", alertColor("[!!!]"), fmt.Sprintf(format, args...))
}

// Status renders a SIGALRM-driven progress tick: current word, crack
// rate, and estimated completion percentage.
func (p Printer) Status(word string, wordsPerSec float64, pct float64) {
	if p.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "\r%s word=%-20s rate=%.1f/s complete=%.1f%%",
		infoColor("[*]"), word, wordsPerSec, pct)
}

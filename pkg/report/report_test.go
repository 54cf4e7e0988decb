package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineNegative(t *testing.T) {
	r := &AnalysisResult{Filename: "a.jpg"}
	require.Equal(t, "a.jpg : negative", r.Line())
}

func TestLineError(t *testing.T) {
	r := &AnalysisResult{Filename: "a.jpg", Err: errors.New("bad marker")}
	require.Equal(t, "a.jpg : error: bad marker", r.Line())
}

func TestLineWithVerdicts(t *testing.T) {
	r := &AnalysisResult{Filename: "a.jpg"}
	r.AddVerdict("jphide", ConfidenceMedium, "")
	r.AddVerdict("appended-data", ConfidenceHigh, "zip")
	require.Equal(t, "a.jpg : jphide(**) appended-data(***):zip", r.Line())
}

func TestCrackResultLine(t *testing.T) {
	c := CrackResult{Filename: "a.jpg", Scheme: "jphide", Version: 5, Password: "canary", Success: true}
	require.Equal(t, "a.jpg : jphidev5(canary)", c.Line())
}

func TestCrackResultLineNoVersion(t *testing.T) {
	c := CrackResult{Filename: "a.jpg", Scheme: "jsteg", Password: "swordfish", Success: true}
	require.Equal(t, "a.jpg : jsteg(swordfish)", c.Line())
}

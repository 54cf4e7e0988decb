package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseParamSection(t *testing.T) {
	src := `
; comment line
[Options]
Scale = 1.5
scale = 2.0
`
	f, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	v, ok := f.Param("options", "SCALE")
	require.True(t, ok)
	require.Equal(t, "2.0", v) // most-recent wins
}

func TestParseListSection(t *testing.T) {
	src := `
[List.Rules:Wordlist]
:
u
l
`
	f, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	sec, ok := f.Section("list.rules:wordlist")
	require.True(t, ok)
	require.True(t, sec.IsList)
	require.Len(t, sec.Lines, 3)
	require.Equal(t, ":", sec.Lines[0].Text)
	require.Equal(t, 3, sec.Lines[0].Number)
}

func TestParseRejectsParamOutsideSection(t *testing.T) {
	_, err := Parse(strings.NewReader("key = value"))
	require.Error(t, err)
}

func TestParseRejectsUnterminatedHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("[oops"))
	require.Error(t, err)
}

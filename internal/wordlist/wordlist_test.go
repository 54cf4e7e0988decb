package wordlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehulse/jstego/internal/config"
)

func TestParseRulesFromListSection(t *testing.T) {
	src := `
[List.Rules:Wordlist]
:
u
l
`
	f, err := config.Parse(strings.NewReader(src))
	require.NoError(t, err)
	sec, ok := f.Section("list.rules:wordlist")
	require.True(t, ok)

	rules, err := ParseRules(sec)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	require.Equal(t, RuleIdentity, rules[0].Kind)
	require.Equal(t, RuleUpper, rules[1].Kind)
	require.Equal(t, RuleLower, rules[2].Kind)
}

func TestApplySubstitute(t *testing.T) {
	r := Rule{Kind: RuleSubstitute, From: 'o', To: '0'}
	out, ok := Apply(r, "password")
	require.True(t, ok)
	require.Equal(t, "passw0rd", out)
}

func TestApplyTruncateRejectsShortWords(t *testing.T) {
	r := Rule{Kind: RuleTruncate, N: 10}
	_, ok := Apply(r, "short")
	require.False(t, ok)
}

func TestSourceDedupsConsecutiveYields(t *testing.T) {
	rules := []Rule{{Kind: RuleIdentity}, {Kind: RuleUpper}}
	body := "Alpha\nBETA\nBETA\n"
	// strings.Reader implements io.Seeker, so the source rewinds between
	// rules and both passes run; the repeated BETA line yields the same
	// word twice in a row in each pass and is emitted once.
	src := New(rules, strings.NewReader(body))

	var out []string
	for {
		w, ok := src.Next()
		if !ok {
			break
		}
		out = append(out, w)
	}
	require.Equal(t, []string{"Alpha", "BETA", "ALPHA", "BETA"}, out)
}

func TestSourceThreeRulesScenario(t *testing.T) {
	rules, err := ParseRules(mustListSection(t, `
[List.Rules:Wordlist]
:
u
l
`))
	require.NoError(t, err)

	body := strings.NewReader("Swordfish\n")
	src := New(rules, body)
	var out []string
	for {
		w, ok := src.Next()
		if !ok {
			break
		}
		out = append(out, w)
	}
	require.Equal(t, []string{"Swordfish", "SWORDFISH", "swordfish"}, out)
}

func mustListSection(t *testing.T, src string) *config.Section {
	t.Helper()
	f, err := config.Parse(strings.NewReader(src))
	require.NoError(t, err)
	sec, ok := f.Section("list.rules:wordlist")
	require.True(t, ok)
	return sec
}

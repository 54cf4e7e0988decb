// Package wordlist implements the rule-expanded word source (C10): a
// lazy, deduplicated sequence of candidate passphrases produced by
// applying each configured rule, in turn, to every line of a word
// list.
package wordlist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ehulse/jstego/internal/config"
)

// Rule is one parsed transformation. Kind selects the operator; Arg
// carries its operand (a literal string for affix/substitution, a
// count for truncation).
type Rule struct {
	Kind RuleKind
	Arg  string
	From byte // substitution source character
	To   byte // substitution target character
	N    int  // truncation/minimum-length count
	Src  string
}

type RuleKind int

const (
	RuleIdentity RuleKind = iota
	RuleUpper
	RuleLower
	RuleCapitalize
	RulePrefix
	RuleSuffix
	RuleTruncate
	RuleMinLength
	RuleSubstitute
)

// ParseRules reads a list section's raw lines into a rule set, in
// file order. Grammar, one rule per line:
//
//	:        identity
//	u        upper-case the whole word
//	l        lower-case the whole word
//	c        capitalize the first letter
//	^TEXT    prepend TEXT
//	$TEXT    append TEXT
//	<N       truncate to the first N characters (reject if shorter)
//	>N       reject words shorter than N characters
//	sXY      substitute every X with Y
func ParseRules(sec *config.Section) ([]Rule, error) {
	if sec == nil || !sec.IsList {
		return nil, fmt.Errorf("wordlist: rules must come from a list section")
	}
	rules := make([]Rule, 0, len(sec.Lines))
	for _, ln := range sec.Lines {
		text := strings.TrimSpace(ln.Text)
		if text == "" {
			continue
		}
		r, err := parseRule(text)
		if err != nil {
			return nil, fmt.Errorf("wordlist: line %d: %w", ln.Number, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func parseRule(text string) (Rule, error) {
	switch {
	case text == ":":
		return Rule{Kind: RuleIdentity, Src: text}, nil
	case text == "u":
		return Rule{Kind: RuleUpper, Src: text}, nil
	case text == "l":
		return Rule{Kind: RuleLower, Src: text}, nil
	case text == "c":
		return Rule{Kind: RuleCapitalize, Src: text}, nil
	case strings.HasPrefix(text, "^"):
		return Rule{Kind: RulePrefix, Arg: text[1:], Src: text}, nil
	case strings.HasPrefix(text, "$"):
		return Rule{Kind: RuleSuffix, Arg: text[1:], Src: text}, nil
	case strings.HasPrefix(text, "<"):
		n, err := strconv.Atoi(text[1:])
		if err != nil {
			return Rule{}, fmt.Errorf("bad truncation count %q", text)
		}
		return Rule{Kind: RuleTruncate, N: n, Src: text}, nil
	case strings.HasPrefix(text, ">"):
		n, err := strconv.Atoi(text[1:])
		if err != nil {
			return Rule{}, fmt.Errorf("bad minimum length %q", text)
		}
		return Rule{Kind: RuleMinLength, N: n, Src: text}, nil
	case strings.HasPrefix(text, "s") && len(text) == 3:
		return Rule{Kind: RuleSubstitute, From: text[1], To: text[2], Src: text}, nil
	default:
		return Rule{}, fmt.Errorf("unrecognised rule %q", text)
	}
}

// Apply runs a rule against a word, returning the transformed word and
// whether the word satisfies the rule's pre-conditions (words failing
// a pre-condition, e.g. a truncation or minimum-length rule applied to
// too-short a word, are rejected outright).
func Apply(r Rule, word string) (string, bool) {
	switch r.Kind {
	case RuleIdentity:
		return word, true
	case RuleUpper:
		return strings.ToUpper(word), true
	case RuleLower:
		return strings.ToLower(word), true
	case RuleCapitalize:
		if word == "" {
			return word, true
		}
		return strings.ToUpper(word[:1]) + word[1:], true
	case RulePrefix:
		return r.Arg + word, true
	case RuleSuffix:
		return word + r.Arg, true
	case RuleTruncate:
		if len(word) < r.N {
			return "", false
		}
		return word[:r.N], true
	case RuleMinLength:
		if len(word) < r.N {
			return "", false
		}
		return word, true
	case RuleSubstitute:
		return strings.ReplaceAll(word, string(r.From), string(r.To)), true
	default:
		return word, true
	}
}

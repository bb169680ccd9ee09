// Package match locates and extracts typed values inside free-text
// program output. All functions are pure; compiled selectors are meant
// to be built once and reused across lines.
package match

import (
	"regexp"
	"strconv"
	"strings"

	appErr "labjudge/pkg/errors"
)

// CompileSelectors compiles raw selector patterns with case-insensitive
// matching. An invalid pattern is a configuration error.
func CompileSelectors(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.SelectorInvalid, "compile selector %q failed", p)
		}
		out = append(out, re)
	}
	return out, nil
}

var bareWord = regexp.MustCompile(`^\w+$`)

// CompileLineSelectors compiles line selector patterns, wrapping bare
// words in \b so a selector like "total" cannot match inside "totally".
// Patterns carrying their own regex syntax are compiled unchanged.
func CompileLineSelectors(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		q := p
		if bareWord.MatchString(p) {
			q = `\b` + p + `\b`
		}
		re, err := regexp.Compile("(?i)" + q)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.SelectorInvalid, "compile selector %q failed", p)
		}
		out = append(out, re)
	}
	return out, nil
}

// DeriveSelectors builds one line selector per expected record identifier:
// normalized, quoted and word-bounded, so punctuation or accents around an
// identifier never produce a spurious match. Computed once per test case.
func DeriveSelectors(ids []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(ids))
	for _, id := range ids {
		out = append(out, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(Normalize(id))+`\b`))
	}
	return out
}

// FindValue scans lines top to bottom for the first line satisfying every
// line selector, then applies the value selectors in order; the first one
// that matches yields its first capture group (the whole match when the
// pattern has no group). A missing line or value is a structural defect,
// distinct from a value that is merely wrong.
func FindValue(lines []string, lineSelectors, valueSelectors []*regexp.Regexp) (string, bool) {
	for _, line := range lines {
		if !matchesAll(line, lineSelectors) {
			continue
		}
		for _, vs := range valueSelectors {
			m := vs.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if len(m) > 1 {
				return m[1], true
			}
			return m[0], true
		}
		// Eligible line found but no value selector matched it.
		return "", false
	}
	return "", false
}

// FindInt locates a value and parses it as a signed integer. A parse
// failure is reported as not-found.
func FindInt(lines []string, lineSelectors, valueSelectors []*regexp.Regexp) (int64, bool) {
	raw, ok := FindValue(lines, lineSelectors, valueSelectors)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FindOrderedMatches extracts one value from every line matching any of
// the record selectors, in file order. Lines matching no selector are
// skipped (blank separators, headers, free-form narrative). The result is
// the submission's actual emission order; judging it against the reference
// order belongs to the comparator.
func FindOrderedMatches(lines []string, recordSelectors, valueSelectors []*regexp.Regexp) []string {
	var out []string
	for _, line := range lines {
		if !matchesAny(line, recordSelectors) {
			continue
		}
		for _, vs := range valueSelectors {
			m := vs.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if len(m) > 1 {
				out = append(out, m[1])
			} else {
				out = append(out, m[0])
			}
			break
		}
	}
	return out
}

func matchesAll(line string, selectors []*regexp.Regexp) bool {
	for _, s := range selectors {
		if !s.MatchString(line) {
			return false
		}
	}
	return true
}

func matchesAny(line string, selectors []*regexp.Regexp) bool {
	for _, s := range selectors {
		if s.MatchString(line) {
			return true
		}
	}
	return false
}

// Package extract turns raw captured output into structured data:
// named scalars and the ordered record sequence.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"labjudge/internal/corrector/config"
	"labjudge/internal/corrector/match"
	"labjudge/internal/corrector/model"
)

// Defect describes a structural formatting problem in the output. It is
// an expected grading outcome, not an error.
type Defect struct {
	Message string
}

type compiledScalar struct {
	name   string
	lines  []*regexp.Regexp
	values []*regexp.Regexp
}

// Extractor applies a compiled extraction spec to submission output.
type Extractor struct {
	spec        config.ExtractionSpec
	scalars     []compiledScalar
	seqValues   []*regexp.Regexp
	seqFallback []*regexp.Regexp
}

// New compiles the extraction spec once; per-line work never recompiles.
func New(spec config.ExtractionSpec) (*Extractor, error) {
	e := &Extractor{spec: spec}
	for _, s := range spec.Scalars {
		lines, err := match.CompileLineSelectors(s.LineSelectors)
		if err != nil {
			return nil, err
		}
		values, err := match.CompileSelectors(s.ValueSelectors)
		if err != nil {
			return nil, err
		}
		e.scalars = append(e.scalars, compiledScalar{name: s.Name, lines: lines, values: values})
	}
	values, err := match.CompileSelectors(spec.Sequence.ValueSelectors)
	if err != nil {
		return nil, err
	}
	e.seqValues = values
	fallback, err := match.CompileLineSelectors(spec.Sequence.LineSelectors)
	if err != nil {
		return nil, err
	}
	e.seqFallback = fallback
	return e, nil
}

// Extract produces the scalars and ordered sequence from normalized
// output lines. Scalar extraction is strictly ordered and fails fast on
// the first missing scalar; sequence extraction always runs over the
// full text. A returned Defect short-circuits semantic comparison.
func (e *Extractor) Extract(lines []string, ref model.Reference) (model.Extraction, *Defect) {
	ex := model.Extraction{Scalars: make(map[string]model.ScalarValue)}

	if len(lines) < 2 {
		return ex, &Defect{Message: "output is empty"}
	}

	if e.spec.Layout.Enabled {
		if d := e.walkLayout(lines, ref); d != nil {
			return ex, d
		}
	}

	// Missing a required field is more fundamental than printing a wrong
	// value: the first absent scalar aborts before later ones are tried.
	for _, cs := range e.scalars {
		refVal, hasRef := ref.Scalars[cs.name]
		if hasRef && refVal.Kind == model.ScalarString {
			raw, ok := match.FindValue(lines, cs.lines, cs.values)
			if !ok {
				return ex, &Defect{Message: fmt.Sprintf("did not print %s", strings.ToUpper(cs.name))}
			}
			ex.Scalars[cs.name] = model.ScalarValue{Kind: model.ScalarString, Str: strings.TrimSpace(raw)}
			continue
		}
		v, ok := match.FindInt(lines, cs.lines, cs.values)
		if !ok {
			return ex, &Defect{Message: fmt.Sprintf("did not print %s", strings.ToUpper(cs.name))}
		}
		ex.Scalars[cs.name] = model.ScalarValue{Kind: model.ScalarInt, Int: v}
	}

	ex.Sequence = e.extractSequence(lines, ref)
	return ex, nil
}

func (e *Extractor) extractSequence(lines []string, ref model.Reference) []model.Record {
	if e.spec.Layout.Enabled {
		return e.sectionRecords(lines)
	}

	selectors := e.seqFallback
	if e.spec.Sequence.FromReference && len(ref.Sequence) > 0 {
		selectors = match.DeriveSelectors(ref.Sequence)
	}
	values := match.FindOrderedMatches(lines, selectors, e.seqValues)
	records := make([]model.Record, 0, len(values))
	for _, v := range values {
		records = append(records, model.Record{ID: v})
	}
	return records
}

// sectionRecords collects every record line after the section marker:
// first field is the identifier, the remainder its origin.
func (e *Extractor) sectionRecords(lines []string) []model.Record {
	var records []model.Record
	inSection := false
	for _, line := range lines {
		if wordsEqual(line, e.spec.Layout.SectionMarker) {
			inSection = true
			continue
		}
		if !inSection || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		rec := model.Record{ID: fields[0]}
		if len(fields) > 1 {
			rec.Origin = strings.Join(fields[1:], " ")
		}
		records = append(records, rec)
	}
	return records
}

// walkLayout validates the report shape before any semantic check:
// header lines, section marker, blank separators and record line shape.
func (e *Extractor) walkLayout(lines []string, ref model.Reference) *Defect {
	layout := e.spec.Layout
	marker := strings.Join(layout.SectionMarker, " ")
	pos := 0

	if len(lines) < layout.HeaderLines {
		return &Defect{Message: fmt.Sprintf("expected %d header lines", layout.HeaderLines)}
	}
	pos += layout.HeaderLines

	if pos >= len(lines) || !wordsEqual(lines[pos], layout.SectionMarker) {
		return &Defect{Message: fmt.Sprintf("missing %q section line", marker)}
	}
	pos++

	if pos >= len(lines) || strings.TrimSpace(lines[pos]) != "" {
		return &Defect{Message: fmt.Sprintf("missing blank line after %q", marker)}
	}
	pos++

	// The record block shape is only enforced when records are expected;
	// an empty reference section carries a free-form sentinel instead.
	checkShape := len(ref.Sequence) > 0
	for pos < len(lines) && strings.TrimSpace(lines[pos]) != "" {
		if checkShape {
			fields := strings.Fields(lines[pos])
			if len(fields) < layout.MinRecordFields {
				return &Defect{Message: fmt.Sprintf("malformed record line in the %q block", marker)}
			}
			if layout.NumericID && !allDigits(fields[0]) {
				return &Defect{Message: fmt.Sprintf("malformed record line in the %q block", marker)}
			}
		}
		pos++
	}

	if pos >= len(lines) {
		return &Defect{Message: fmt.Sprintf("missing blank line after the %q block", marker)}
	}
	return nil
}

func wordsEqual(line string, words []string) bool {
	fields := strings.Fields(line)
	if len(fields) != len(words) {
		return false
	}
	for i, f := range fields {
		if !strings.EqualFold(f, words[i]) {
			return false
		}
	}
	return len(words) > 0
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

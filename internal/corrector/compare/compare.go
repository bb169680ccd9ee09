// Package compare checks extracted submission data against the
// reference answers for a test case.
package compare

import (
	"fmt"
	"strings"

	"labjudge/internal/corrector/model"
)

// Options tune the aux-map comparison used when the reference sequence
// is empty.
type Options struct {
	// ScalarOrder lists scalar names in reporting order.
	ScalarOrder []string
	// IDWidth is the fixed identifier width of valid aux records.
	IDWidth int
	// SentinelID is excluded from the submission's aux map.
	SentinelID string
}

// Compare returns the verdict for one test case. All scalar mismatches
// are collected together; the sequence check is order sensitive.
func Compare(ex model.Extraction, ref model.Reference, opts Options) model.Verdict {
	var wrong []string
	for _, name := range opts.ScalarOrder {
		want, ok := ref.Scalars[name]
		if !ok {
			continue
		}
		got, ok := ex.Scalars[name]
		if !ok || !got.Equal(want) {
			wrong = append(wrong, name)
		}
	}
	if len(wrong) > 0 {
		return model.Verdict{
			Kind:        model.VerdictScalarMismatch,
			Detail:      fmt.Sprintf("wrong value for %s", strings.ToUpper(strings.Join(wrong, ", "))),
			ScalarNames: wrong,
		}
	}

	if len(ref.Sequence) == 0 {
		return compareEmptySection(ex, ref, opts)
	}

	if len(ex.Sequence) != len(ref.Sequence) {
		return model.Verdict{
			Kind:   model.VerdictSequenceMismatch,
			Detail: fmt.Sprintf("printed %d records, expected %d", len(ex.Sequence), len(ref.Sequence)),
		}
	}
	for i, want := range ref.Sequence {
		if !strings.EqualFold(strings.TrimSpace(ex.Sequence[i].ID), strings.TrimSpace(want)) {
			return model.Verdict{
				Kind:   model.VerdictSequenceMismatch,
				Detail: fmt.Sprintf("record %d is %q, expected %q", i+1, ex.Sequence[i].ID, want),
			}
		}
	}
	return model.Verdict{Kind: model.VerdictPass}
}

// compareEmptySection handles test cases whose reference sequence is
// empty. The submission must print at least one sentinel record whose
// identifier is not a fixed-width number, and the remaining well-formed
// records must reproduce the reference aux map exactly.
func compareEmptySection(ex model.Extraction, ref model.Reference, opts Options) model.Verdict {
	sentinel := false
	got := make(map[string]string)
	for _, rec := range ex.Sequence {
		if !fixedWidthNumeric(rec.ID, opts.IDWidth) {
			sentinel = true
			continue
		}
		if opts.SentinelID != "" && rec.ID == opts.SentinelID {
			continue
		}
		got[rec.ID] = strings.TrimSpace(rec.Origin)
	}
	if !sentinel {
		return model.Verdict{
			Kind:   model.VerdictFormatDefect,
			Detail: "empty-section sentinel missing",
		}
	}
	if len(ref.Aux) == 0 {
		return model.Verdict{Kind: model.VerdictPass}
	}
	if len(got) != len(ref.Aux) {
		return model.Verdict{
			Kind:   model.VerdictSequenceMismatch,
			Detail: fmt.Sprintf("printed %d records, expected %d", len(got), len(ref.Aux)),
		}
	}
	for id, origin := range ref.Aux {
		g, ok := got[id]
		if !ok {
			return model.Verdict{
				Kind:   model.VerdictSequenceMismatch,
				Detail: fmt.Sprintf("record %s missing", id),
			}
		}
		if !strings.EqualFold(g, strings.TrimSpace(origin)) {
			return model.Verdict{
				Kind:   model.VerdictSequenceMismatch,
				Detail: fmt.Sprintf("record %s has origin %q, expected %q", id, g, origin),
			}
		}
	}
	return model.Verdict{Kind: model.VerdictPass}
}

func fixedWidthNumeric(s string, width int) bool {
	if width > 0 && len(s) != width {
		return false
	}
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

// Package outcome accumulates the grading result of one submission:
// its category, ordered diagnostics and per-test-case counters.
package outcome

import (
	"fmt"

	"labjudge/internal/corrector/model"
)

// Outcome is a submission's running result. The first classified
// problem fixes the category; later records only add diagnostics.
type Outcome struct {
	Submission string
	Category   model.Category
	Lines      []string
	Total      int
	Passed     int
}

func New(submission string) *Outcome {
	return &Outcome{Submission: submission}
}

// Note appends a free-form diagnostic line without touching the
// category. Compiler warnings and progress banners land here.
func (o *Outcome) Note(format string, args ...any) {
	o.Lines = append(o.Lines, fmt.Sprintf(format, args...))
}

// Record classifies a problem. The category sticks to the first call;
// every call keeps its diagnostic line in order.
func (o *Outcome) Record(cat model.Category, format string, args ...any) {
	if o.Category == model.CategoryUnknown {
		o.Category = cat
	}
	o.Lines = append(o.Lines, fmt.Sprintf(format, args...))
}

// TestCase tallies one executed test case.
func (o *Outcome) TestCase(passed bool) {
	o.Total++
	if passed {
		o.Passed++
	}
}

// Finalize settles the category: a submission with no recorded problem
// graduates to NO-ERRORS.
func (o *Outcome) Finalize() model.Category {
	if o.Category == model.CategoryUnknown {
		o.Category = model.CategoryNoErrors
	}
	return o.Category
}

// Clean reports whether no problem has been recorded yet.
func (o *Outcome) Clean() bool {
	return o.Category == model.CategoryUnknown
}

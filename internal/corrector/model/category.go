// Package model defines the corrector's domain types.
package model

// Category is the closed set of outcomes a submission can be classified into.
type Category string

const (
	// CategoryUnknown marks a submission that has not been classified yet.
	CategoryUnknown Category = ""

	CategoryWrongFile     Category = "WRONG-FILE"
	CategoryCompileError  Category = "COMPILE-ERROR"
	CategoryFormatError   Category = "FORMAT-ERROR"
	CategoryTestcaseError Category = "TESTCASE-ERROR"
	CategoryNoErrors      Category = "NO-ERRORS"
)

// FilterAll selects every submission regardless of prior category.
const FilterAll = "ALL"

// Categories returns the closed category set in roster order.
func Categories() []Category {
	return []Category{
		CategoryWrongFile,
		CategoryCompileError,
		CategoryFormatError,
		CategoryTestcaseError,
		CategoryNoErrors,
	}
}

// ParseCategory maps a roster file name stem to a category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return CategoryUnknown, false
}

package model

// Submission identifies one student submission directory.
type Submission struct {
	Name string
	Dir  string

	// PriorCategory is the category recorded by a previous batch, if any.
	// It drives the resumable category filter.
	PriorCategory Category
}

// TestCase identifies one test case directory and its reference answer.
type TestCase struct {
	Name      string
	Dir       string
	Reference Reference
}

// ScalarKind distinguishes integer from string scalar expectations.
type ScalarKind int

const (
	ScalarInt ScalarKind = iota
	ScalarString
)

// ScalarValue is one named value a submission must print.
type ScalarValue struct {
	Kind ScalarKind
	Int  int64
	Str  string
}

// Equal reports whether two scalar values match exactly.
func (v ScalarValue) Equal(other ScalarValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	if v.Kind == ScalarInt {
		return v.Int == other.Int
	}
	return v.Str == other.Str
}

// Reference is the immutable expected answer for one test case.
type Reference struct {
	// Scalars maps scalar names to their expected values.
	Scalars map[string]ScalarValue

	// Sequence is the exact required emission order of record identifiers.
	Sequence []string

	// Aux maps identifiers to auxiliary origin strings. It is consulted
	// only when Sequence is empty.
	Aux map[string]string
}

// Record is one extracted ordered-sequence entry.
type Record struct {
	ID     string
	Origin string
}

// Extraction is the structured form of one raw submission output.
type Extraction struct {
	Scalars  map[string]ScalarValue
	Sequence []Record
}

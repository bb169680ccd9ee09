package model

// VerdictKind represents the outcome of comparing one test case output.
type VerdictKind string

const (
	VerdictPass             VerdictKind = "PASS"
	VerdictFormatDefect     VerdictKind = "FORMAT-DEFECT"
	VerdictScalarMismatch   VerdictKind = "SCALAR-MISMATCH"
	VerdictSequenceMismatch VerdictKind = "SEQUENCE-MISMATCH"
)

// Verdict is the structured judgment for one test case.
type Verdict struct {
	Kind VerdictKind

	// Detail is a human-readable reason for a failed verdict.
	Detail string

	// ScalarNames lists the mismatched scalars, reported together.
	ScalarNames []string
}

// Pass reports whether the verdict is a pass.
func (v Verdict) Pass() bool {
	return v.Kind == VerdictPass
}

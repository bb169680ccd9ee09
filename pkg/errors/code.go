package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Workspace & intake errors
// 12000-12999: Test case & reference answer errors
// 13000-13999: Build & run invocation errors
// 14000-14999: Extraction & comparison errors
// 15000-15999: Persistence errors (rosters, submission logs)

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalError ErrorCode = 10001
	InvalidParams ErrorCode = 10002
	NotFound      ErrorCode = 10003
	Timeout       ErrorCode = 10008

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Workspace & Intake Errors (11000-11999) ==========

	SubmissionNotFound  ErrorCode = 11000
	WorkspaceError      ErrorCode = 11001
	IntakeFailed        ErrorCode = 11002
	ArtifactPurgeFailed ErrorCode = 11003
	OutputReadFailed    ErrorCode = 11004

	// ========== Test Case & Reference Errors (12000-12999) ==========

	TestCaseNotFound  ErrorCode = 12000
	TestCaseInvalid   ErrorCode = 12001
	ReferenceNotFound ErrorCode = 12100
	ReferenceInvalid  ErrorCode = 12101
	PackError         ErrorCode = 12200
	PackHashMismatch  ErrorCode = 12201
	PackEntryEscape   ErrorCode = 12202
	InputCopyFailed   ErrorCode = 12300

	// ========== Build & Run Invocation Errors (13000-13999) ==========

	CompileInvokeFailed ErrorCode = 13000
	RunInvokeFailed     ErrorCode = 13100
	CommandInvalid      ErrorCode = 13200

	// ========== Extraction & Comparison Errors (14000-14999) ==========

	SelectorInvalid ErrorCode = 14000
	SpecInvalid     ErrorCode = 14001

	// ========== Persistence Errors (15000-15999) ==========

	RosterError    ErrorCode = 15000
	LogWriteFailed ErrorCode = 15100
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:       "Success",
	InternalError: "Internal error",
	InvalidParams: "Invalid parameters",
	NotFound:      "Resource not found",
	Timeout:       "Operation timeout",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Workspace & intake
	SubmissionNotFound:  "Submission not found",
	WorkspaceError:      "Workspace operation failed",
	IntakeFailed:        "Submission intake normalization failed",
	ArtifactPurgeFailed: "Failed to purge stale artifacts",
	OutputReadFailed:    "Failed to read submission output",

	// Test case & reference
	TestCaseNotFound:  "Test case not found",
	TestCaseInvalid:   "Invalid test case",
	ReferenceNotFound: "Reference answer not found",
	ReferenceInvalid:  "Invalid reference answer",
	PackError:         "Test-case pack operation failed",
	PackHashMismatch:  "Test-case pack hash mismatch",
	PackEntryEscape:   "Test-case pack entry escapes target directory",
	InputCopyFailed:   "Failed to copy test case input",

	// Build & run
	CompileInvokeFailed: "Failed to invoke compiler",
	RunInvokeFailed:     "Failed to invoke submission binary",
	CommandInvalid:      "Invalid command template",

	// Extraction & comparison
	SelectorInvalid: "Invalid selector pattern",
	SpecInvalid:     "Invalid extraction spec",

	// Persistence
	RosterError:    "Roster file operation failed",
	LogWriteFailed: "Failed to write submission log",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

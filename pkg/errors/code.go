package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 13000-13999: Submission & Judge module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300

	// Storage errors (10400-10499)
	StorageError ErrorCode = 10400

	// ========== Submission & Judge Module Errors (13000-13999) ==========

	// Submission (13000-13099)
	SubmissionNotFound   ErrorCode = 13000
	CodeTooLarge         ErrorCode = 13002
	LanguageNotSupported ErrorCode = 13003

	// Judge (13100-13199)
	JudgeQueueFull       ErrorCode = 13100
	JudgeSystemError     ErrorCode = 13101
	ToolchainUnavailable ErrorCode = 13107

	// Custom test (13200-13299)
	CustomTestFailed    ErrorCode = 13200
	CustomInputTooLarge ErrorCode = 13201
)

var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests",
	ServiceUnavailable:  "Service unavailable",
	Timeout:             "Operation timed out",
	CacheError:          "Cache operation failed",
	ValidationFailed:    "Validation failed",
	StorageError:        "Storage operation failed",

	SubmissionNotFound:   "Submission not found",
	CodeTooLarge:         "Source code exceeds size limit",
	LanguageNotSupported: "Language not supported",

	JudgeQueueFull:       "Judge queue is full",
	JudgeSystemError:     "Judge system error",
	ToolchainUnavailable: "Toolchain unavailable",

	CustomTestFailed:    "Custom test failed",
	CustomInputTooLarge: "Custom input exceeds size limit",
}

// Message returns the default message for the error code.
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus maps an error code to an HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == SubmissionNotFound:
		return 404
	case c == TooManyRequests, c == JudgeQueueFull:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c == InvalidParams, c == ValidationFailed, c == CodeTooLarge,
		c == LanguageNotSupported, c == CustomInputTooLarge:
		return 400
	default:
		return 500
	}
}

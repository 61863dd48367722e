package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all build failure modes
type ErrorCode string

const (
	// ConfigNotFound indicates an explicitly requested config file is missing
	ConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	// ConfigInvalid indicates the config failed to parse or validate
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ProjectNotFound indicates a project path has no tsconfig
	ProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	// ProjectCycle indicates project references form a cycle
	ProjectCycle ErrorCode = "PROJECT_CYCLE"
	// OutDirRequired indicates helper sharing was enabled without outDir
	OutDirRequired ErrorCode = "OUT_DIR_REQUIRED"
	// CompileFailed indicates the compiler reported error diagnostics
	CompileFailed ErrorCode = "COMPILE_FAILED"
	// CacheCorrupt indicates the incremental build cache could not be read
	CacheCorrupt ErrorCode = "CACHE_CORRUPT"
	// ParserUnavailable indicates the binary was built without cgo
	ParserUnavailable ErrorCode = "PARSER_UNAVAILABLE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Description string `json:"description"`
	Command     string `json:"command,omitempty"`
}

// BuildError represents a build error with code, message, and suggestions
type BuildError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Target         string      `json:"target,omitempty"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a BuildError with the default fixes for its code.
func New(code ErrorCode, message string, cause error) *BuildError {
	return &BuildError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *BuildError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *BuildError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Target != "" {
		prefix += " " + e.Target + ":"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.cause)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *BuildError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *BuildError) WithDetails(details interface{}) *BuildError {
	e.Details = details
	return e
}

// WithTarget records which build target the error belongs to
func (e *BuildError) WithTarget(name string) *BuildError {
	e.Target = name
	return e
}

// CodeOf returns the ErrorCode of the first BuildError in err's chain,
// or InternalError if there is none.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if be, ok := err.(*BuildError); ok {
			return be.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigNotFound: {
		{
			Description: "Create a tsc-multi.json next to your tsconfig or pass --config",
		},
	},
	OutDirRequired: {
		{
			Description: "Set compilerOptions.outDir in the project tsconfig, or disable shareHelpers",
		},
	},
	CacheCorrupt: {
		{
			Description: "Rebuild from scratch",
			Command:     "tsmulti --force",
		},
	},
	ParserUnavailable: {
		{
			Description: "Rebuild tsmulti with CGO_ENABLED=1",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

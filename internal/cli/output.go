package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // All tests passed or were skipped
	ExitFailure      = 1 // At least one fail or error verdict
	ExitCommandError = 2 // Bad flags, missing root, invalid config, etc.
)

// Error codes reported in JSON error responses.
const (
	CodeConfig    = "E_CONFIG"
	CodeDiscover  = "E_DISCOVER"
	CodeDirective = "E_DIRECTIVE"
	CodeHistory   = "E_HISTORY"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitCommandError for errors that are not
// an ExitError, which covers cobra's own flag and argument errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E_CONFIG", "E_HISTORY", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// IsJSON reports whether JSON output was requested.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

// Success writes data in the JSON envelope, or calls text to render it.
func (f *OutputFormatter) Success(data any, text func(w io.Writer) error) error {
	if f.IsJSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	return text(f.Writer)
}

// Fail reports err and returns it as an ExitError with the given exit code.
// In JSON mode the error is also written as a response envelope so that
// stdout stays machine-readable.
func (f *OutputFormatter) Fail(exitCode int, code, message string, err error) error {
	exitErr := WrapExitError(exitCode, message, err)
	if f.IsJSON() {
		resp := CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: exitErr.Error()},
		}
		if encErr := json.NewEncoder(f.Writer).Encode(resp); encErr != nil {
			return encErr
		}
	}
	return exitErr
}

// Package errors provides structured error types and exit codes for cargotest.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error (test failed, cargo failed, etc.)
	ExitConfigError      = 2 // Configuration error (invalid config, etc.)
	ExitEnvironmentError = 3 // Environment error (cargo not on PATH, etc.)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
	KindParse
	KindProcess
	KindInvalidInput
)

// Error is the base error type for cargotest.
type Error struct {
	Kind    ErrorKind
	Message string
	Package string // Cargo package name if applicable
	Target  string // Build target name if applicable
	Test    string // Test or suite spec name if applicable
	Cause   error  // Underlying error
}

func (e *Error) Error() string {
	scope := e.Package
	if e.Target != "" {
		if scope != "" {
			scope += "/"
		}
		scope += e.Target
	}
	switch {
	case scope != "" && e.Test != "":
		return fmt.Sprintf("[%s] %s: %s", scope, e.Test, e.Message)
	case scope != "":
		return fmt.Sprintf("[%s] %s", scope, e.Message)
	case e.Test != "":
		return fmt.Sprintf("%s: %s", e.Test, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// Detail renders the error together with its cause chain, for logs.
func (e *Error) Detail() string {
	if e.Cause == nil {
		return e.Error()
	}
	return fmt.Sprintf("%s: %v", e.Error(), e.Cause)
}

// New creates a new runtime error.
func New(message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *Error {
	return Config(fmt.Sprintf(format, args...))
}

// Environment creates a new environment error.
func Environment(message string) *Error {
	return &Error{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *Error {
	return Environment(fmt.Sprintf(format, args...))
}

// Parse creates an error for structurally unexpected tool output.
func Parse(message string, cause error) *Error {
	return &Error{
		Kind:    KindParse,
		Message: message,
		Cause:   cause,
	}
}

// Process creates an error for a failed cargo invocation.
func Process(pkg, target, message string, cause error) *Error {
	return &Error{
		Kind:    KindProcess,
		Package: pkg,
		Target:  target,
		Message: message,
		Cause:   cause,
	}
}

// InvalidInput creates an error for a missing or malformed argument.
func InvalidInput(message string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// WithTest returns a copy of e scoped to the given test spec name.
func (e *Error) WithTest(test string) *Error {
	c := *e
	c.Test = test
	return &c
}

// NotFound creates a not found error.
func NotFound(what, name string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.ExitCode()
	}
	return ExitRuntimeError
}

// Join combines errors, returning the single error unchanged when there is only one.
func Join(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return stderrors.Join(errs...)
}

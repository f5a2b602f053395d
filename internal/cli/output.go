package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/provermarket/internal/fault"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a workflow stage failed
	ExitCommandError = 2 // bad flags, unreadable or invalid config
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// wrapFault picks the exit code from the error's kind: configuration
// problems are command errors, everything else is a failed run.
func wrapFault(message string, err error) *ExitError {
	code := ExitFailure
	if fault.IsKind(err, fault.KindConfig) {
		code = ExitCommandError
	}
	return WrapExitError(code, message, err)
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError count as workflow failures.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // text errors; falls back to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope written for --format json.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError describes a failed command in the JSON envelope.
type CLIError struct {
	Code    string `json:"code"`            // fault kind, e.g. "Transport"
	Stage   string `json:"stage,omitempty"` // workflow stage, e.g. "download"
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data. In JSON mode it is wrapped in an "ok" envelope
// tagged with runID; in text mode text renders it, or it is printed as is
// when text is nil.
func (f *OutputFormatter) Success(data any, runID string, text func(io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
			RunID:  runID,
		})
	}
	if text == nil {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	text(f.Writer)
	return nil
}

// Error writes err tagged with its fault kind and stage. Text errors go to
// ErrWriter; details are only shown in verbose mode.
func (f *OutputFormatter) Error(err error, details any) error {
	kind := fault.KindOf(err)
	if kind == "" {
		kind = fault.KindInternal
	}

	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    string(kind),
				Stage:   string(fault.StageOf(err)),
				Message: err.Error(),
				Details: details,
			},
		})
	}

	w := f.errWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", kind, err)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}

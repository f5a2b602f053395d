package fault

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	KindTransport   Kind = "Transport"
	KindDecode      Kind = "Decode"
	KindStorage     Kind = "Storage"
	KindPersistence Kind = "Persistence"
	KindValidation  Kind = "Validation"
	KindConfig      Kind = "Config"
	KindInternal    Kind = "Internal"
)

// Stage names the workflow step an error surfaced from.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageDownload  Stage = "download"
	StageDecode    Stage = "decode"
	StageWrite     Stage = "write"
	StageConnect   Stage = "connect"
	StageReconcile Stage = "reconcile"
	StageRegister  Stage = "register"
)

// Error is the structured error returned by ingestion components.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	Stage   Stage
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg = msg + ": " + e.Cause.Error()
		}
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s failed: %s", e.Stage, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns an error of the given kind without an underlying cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind around cause.
// A nil cause yields a plain New error.
func Wrap(kind Kind, msg string, cause error) error {
	if cause == nil {
		return New(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Transport, Decode, Storage, Persistence and Validation are shorthands for Wrap.
func Transport(msg string, cause error) error   { return Wrap(KindTransport, msg, cause) }
func Decode(msg string, cause error) error      { return Wrap(KindDecode, msg, cause) }
func Storage(msg string, cause error) error     { return Wrap(KindStorage, msg, cause) }
func Persistence(msg string, cause error) error { return Wrap(KindPersistence, msg, cause) }
func Validation(msg string, cause error) error  { return Wrap(KindValidation, msg, cause) }

// InStage stamps stage onto err.
//
// A *Error at the top of the chain without a stage is copied with the stage set;
// an already staged error is returned untouched so the innermost stage wins.
// Anything else is wrapped as KindInternal.
func InStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		if e.Stage != "" {
			return e
		}
		staged := *e
		staged.Stage = stage
		return &staged
	}
	return &Error{Kind: KindInternal, Stage: stage, Cause: err}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// StageOf returns the first Stage found in err's chain, or "" if none.
func StageOf(err error) Stage {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Stage != "" {
			return e.Stage
		}
		err = errors.Unwrap(err)
	}
	return ""
}

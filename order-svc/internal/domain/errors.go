package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrStore             = errors.New("store failure")
	ErrUpload            = errors.New("upload failed")
	ErrRender            = errors.New("qr render failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
)

// Error carries one of the sentinel kinds above together with the operation
// that failed. errors.Is matches both the kind and the wrapped cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validationf(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(op, what, id string) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: fmt.Sprintf("%s %q", what, id)}
}

// StoreErr wraps a persistence failure. Errors that already carry a kind are
// returned unchanged so a not-found from the repository stays a not-found.
func StoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: ErrStore, Op: op, Err: err}
}

func UploadErr(op string, err error) error {
	return &Error{Kind: ErrUpload, Op: op, Err: err}
}

func RenderErr(op string, err error) error {
	return &Error{Kind: ErrRender, Op: op, Err: err}
}

func Forbidden(op, msg string) error {
	return &Error{Kind: ErrForbidden, Op: op, Msg: msg}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

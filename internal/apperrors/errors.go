package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind groups failures by what the user can do about them.
type Kind string

const (
	KindConfig     Kind = "config"
	KindIO         Kind = "io"
	KindDecode     Kind = "decode"
	KindTransient  Kind = "transient"
	KindRateLimit  Kind = "rate_limit"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindBadRequest Kind = "bad_request"
	KindCanceled   Kind = "canceled"
)

type Error struct {
	Kind Kind
	// SafeMessage is shown to users and written to logs.
	SafeMessage string
	// Cause keeps the underlying error for errors.Is/As matching.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return defaultSafeMessage(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindConfig:
		return "Configuration is incomplete. Check your API settings."
	case KindIO:
		return "File operation failed."
	case KindDecode:
		return "Could not decode the returned image."
	case KindTransient:
		return "Temporary upstream error. Please try again."
	case KindRateLimit:
		return "Rate limit exceeded. Please try again later."
	case KindAuth:
		return "Authentication failed. Please verify your API key and permissions."
	case KindValidation:
		return "Unexpected response from the API."
	case KindBadRequest:
		return "Request rejected by upstream API."
	case KindCanceled:
		return "Operation canceled."
	default:
		return "Request failed."
	}
}

// New builds an *Error. An empty safeMessage falls back to the kind's default text.
func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{Kind: kind, SafeMessage: msg, Cause: cause}
}

// Newf is New with a formatted safe message.
func Newf(kind Kind, cause error, format string, args ...any) error {
	return New(kind, fmt.Sprintf(format, args...), cause)
}

func Validation(err error) error { return New(KindValidation, "", err) }

// FromContext maps context cancellation and deadline errors to KindCanceled
// and KindTransient. It returns nil for any other error.
func FromContext(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return New(KindCanceled, "", err)
	case errors.Is(err, context.DeadlineExceeded):
		return New(KindTransient, "Request timed out.", err)
	}
	return nil
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

func IsRateLimit(err error) bool { return Is(err, KindRateLimit) }

func IsCanceled(err error) bool {
	return Is(err, KindCanceled) || errors.Is(err, context.Canceled)
}

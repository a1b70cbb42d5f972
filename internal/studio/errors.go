package studio

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed operation for presentation.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindAlreadyExists      Kind = "already_exists"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindStoreUnavailable   Kind = "store_unavailable"
	KindUpstream           Kind = "upstream"
	KindUnauthenticated    Kind = "unauthenticated"
	KindConflict           Kind = "conflict"
	KindInternal           Kind = "internal"
)

// ErrValidation marks a rejected input form.
var ErrValidation = errors.New("invalid request")

// FieldError is a validation failure on one form field.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// Is reports ErrValidation as a match.
func (e *FieldError) Is(target error) bool { return target == ErrValidation }

// Failure is the error half of a Result.
type Failure struct {
	Kind    Kind
	Message string
	// Retry offers the user to redraw the current screen and try again.
	Retry bool
	// Err is the underlying cause; it is logged, never shown.
	Err error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// Generation is a produced (or replayed) image.
type Generation struct {
	ImageURL  string    `json:"image_url"`
	Prompt    string    `json:"prompt"`
	Request   string    `json:"request"`
	Summary   string    `json:"summary"`
	QRCode    []byte    `json:"qr_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Replayed  bool      `json:"replayed"`
}

// Result is what every controller operation returns next to the new State.
type Result struct {
	Notice     string
	Failure    *Failure
	Generation *Generation
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Failure == nil }

func fail(kind Kind, msg string, err error) Result {
	return Result{Failure: &Failure{Kind: kind, Message: msg, Err: err}}
}

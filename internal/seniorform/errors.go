package seniorform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-seniorcare/internal/apisdk"
	"github.com/diewo77/go-seniorcare/validation"
)

var (
	// ErrSubmitInFlight is returned when a submission for the same record
	// is already running. The rejected call has no effect.
	ErrSubmitInFlight = errors.New("seniorform: submit already in flight")
	// ErrNotReady is returned when the form is not shown (no id, still
	// loading, fetch failed, or already redirected).
	ErrNotReady = errors.New("seniorform: form not ready")
	// ErrSuperseded is returned by Load when the id changed while the fetch
	// was running; the result was discarded.
	ErrSuperseded = errors.New("seniorform: fetch superseded")
	// ErrUnknownField is returned for edits of a field the form does not have.
	ErrUnknownField = errors.New("seniorform: unknown field")
)

// FetchError reports that the initial load failed. The form is never shown
// for this page view.
type FetchError struct {
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch senior user %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotFound reports whether the backend answered 404.
func (e *FetchError) NotFound() bool { return apisdk.IsNotFound(e.Err) }

// ValidationError carries per-field violation codes. No request was sent.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations.Fields(), ", ")
}

// SubmitError reports a failed update. The form keeps its values.
type SubmitError struct {
	ID  string
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("update senior user %s: %v", e.ID, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Status returns the backend HTTP status, or 0 for transport failures.
func (e *SubmitError) Status() int { return apisdk.StatusOf(e.Err) }

// Details returns the backend's per-field rejection reasons, if any.
func (e *SubmitError) Details() map[string]string {
	var apiErr *apisdk.Error
	if errors.As(e.Err, &apiErr) {
		return apiErr.Details
	}
	return nil
}

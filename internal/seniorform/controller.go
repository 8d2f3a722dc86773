// Package seniorform drives the senior user edit page: it loads a record by
// id, holds the form values, validates them at submit time and sends the
// update.
package seniorform

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/internal/apisdk"
	"github.com/diewo77/go-seniorcare/internal/cache"
	"github.com/diewo77/go-seniorcare/internal/models"
	"github.com/diewo77/go-seniorcare/validation"
)

// DefaultListPath is where a successful submit navigates.
const DefaultListPath = "/senior-users"

// State is the lifecycle stage of the page.
type State int

const (
	StateLoading State = iota
	StateIdle
	StateSubmitting
	StateRedirected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateRedirected:
		return "redirected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// API is the part of the backend client the controller needs.
type API interface {
	GetSeniorUserByID(ctx context.Context, id string) (*models.SeniorUser, error)
	UpdateSeniorUserByID(ctx context.Context, id string, patch apisdk.SeniorUserPatch) (*models.SeniorUser, error)
}

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

func WithLogger(log logrus.FieldLogger) ControllerOption {
	return func(c *Controller) { c.log = log }
}

func WithSchema(s validation.Schema) ControllerOption {
	return func(c *Controller) { c.schema = s }
}

// WithListPath overrides the page navigated to after a successful submit.
func WithListPath(path string) ControllerOption {
	return func(c *Controller) { c.listPath = path }
}

// WithGuard shares an in-flight guard with other controllers.
func WithGuard(g *SubmitGuard) ControllerOption {
	return func(c *Controller) { c.guard = g }
}

func WithMetrics(m *Metrics) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// Controller holds the state of one edit page view. It is safe for
// concurrent use; network calls run outside the lock.
type Controller struct {
	api      API
	loader   *cache.Loader
	nav      Navigator
	schema   validation.Schema
	listPath string
	guard    *SubmitGuard
	metrics  *Metrics
	log      logrus.FieldLogger

	mu          sync.Mutex
	id          string
	gen         uint64
	state       State
	record      *models.SeniorUser
	values      Values
	dirty       bool
	fieldErrors validation.Violations
	fetchErr    *FetchError
	submitErr   *SubmitError
	navigated   bool
}

// New creates a controller. loader is the shared data cache; nav receives
// the listing path after a successful submit.
func New(api API, loader *cache.Loader, nav Navigator, opts ...ControllerOption) *Controller {
	c := &Controller{
		api:      api,
		loader:   loader,
		nav:      nav,
		schema:   Schema(),
		listPath: DefaultListPath,
		guard:    NewSubmitGuard(),
		log:      logrus.StandardLogger(),
		state:    StateLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.loader == nil {
		c.loader = cache.NewLoader(cache.NewMemoryStore())
	}
	c.log = c.log.WithField("component", "seniorform")
	return c
}

// SetID points the page at a record. A different id resets the page to
// loading and supersedes any fetch still running for the previous one.
// An empty id keeps the page loading without fetching.
func (c *Controller) SetID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == c.id && c.gen > 0 {
		return
	}
	c.resetLocked(id)
}

func (c *Controller) resetLocked(id string) {
	c.gen++
	c.id = id
	c.state = StateLoading
	c.record = nil
	c.values = Values{}
	c.dirty = false
	c.fieldErrors = nil
	c.fetchErr = nil
	c.submitErr = nil
	c.navigated = false
}

// Load fetches the current record through the cache and reinitializes the
// form from it. A result arriving after the id changed is discarded and
// ErrSuperseded is returned.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	id, gen := c.id, c.gen
	c.mu.Unlock()
	if id == "" {
		return ErrNotReady
	}

	rec, err := c.loader.Load(ctx, id, c.api.GetSeniorUserByID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || id != c.id {
		c.log.WithField("id", id).Debug("discarding superseded fetch")
		return ErrSuperseded
	}
	if err != nil {
		fetchErr := &FetchError{ID: id, Err: err}
		c.log.WithError(err).WithField("id", id).Warn("senior user fetch failed")
		if c.state == StateSubmitting {
			return fetchErr
		}
		c.state = StateFailed
		c.fetchErr = fetchErr
		return fetchErr
	}
	// A running submission owns the values; its outcome resets the form.
	if c.state == StateSubmitting {
		c.record = rec
		return nil
	}
	c.reinitializeLocked(rec)
	c.state = StateIdle
	return nil
}

// Reinitialize replaces every form value with rec, discarding unsaved
// edits. Records for another id are ignored and false is returned.
func (c *Controller) Reinitialize(rec *models.SeniorUser) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec == nil || rec.ID != c.id {
		return false
	}
	c.reinitializeLocked(rec)
	if c.state == StateLoading {
		c.state = StateIdle
	}
	return true
}

func (c *Controller) reinitializeLocked(rec *models.SeniorUser) {
	c.record = rec
	c.values = ValuesFromRecord(rec)
	c.dirty = false
	c.fieldErrors = nil
}

// Restore puts back form values held by the browser, so a posted form can
// be submitted without fetching the record again.
func (c *Controller) Restore(id string, v Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.id || c.gen == 0 {
		c.resetLocked(id)
	}
	if id == "" {
		return
	}
	c.values = v.clone()
	c.dirty = true
	c.fieldErrors = nil
	c.fetchErr = nil
	c.state = StateIdle
}

// Set edits a field. Errors are not recomputed until the next submit.
func (c *Controller) Set(field, value string) error {
	return c.edit(field, &value)
}

// SetNull sets a field to null.
func (c *Controller) SetNull(field string) error {
	return c.edit(field, nil)
}

func (c *Controller) edit(field string, value *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle && c.state != StateSubmitting {
		return ErrNotReady
	}
	if err := c.values.set(field, clonePtr(value)); err != nil {
		return err
	}
	c.dirty = true
	return nil
}

// Submit validates the form and sends the update. On success the returned
// record replaces the cached one, the form is reset to it and the page
// navigates to the listing exactly once. On failure the values are kept
// and a *SubmitError is returned. Invalid values yield a *ValidationError
// without any request. A call made while another submission for the same
// record runs returns ErrSubmitInFlight and changes nothing.
func (c *Controller) Submit(ctx context.Context) (*models.SeniorUser, error) {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		c.metrics.observe(ResultInFlight)
		return nil, ErrSubmitInFlight
	case StateIdle:
	default:
		c.mu.Unlock()
		return nil, ErrNotReady
	}

	c.submitErr = nil
	if v := c.schema.Validate(lookupValues(c.values)); !v.Empty() {
		c.fieldErrors = v
		c.mu.Unlock()
		c.metrics.observe(ResultInvalid)
		return nil, &ValidationError{Violations: v}
	}
	c.fieldErrors = nil

	id, gen := c.id, c.gen
	if !c.guard.TryAcquire(id) {
		c.mu.Unlock()
		c.metrics.observe(ResultInFlight)
		return nil, ErrSubmitInFlight
	}
	c.state = StateSubmitting
	patch := c.values.Patch()
	c.mu.Unlock()

	rec, err := c.api.UpdateSeniorUserByID(ctx, id, patch)
	c.guard.Release(id)
	if err == nil {
		c.loader.Set(ctx, id, rec)
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if err != nil {
			return nil, &SubmitError{ID: id, Err: err}
		}
		return rec, nil
	}
	if err != nil {
		c.submitErr = &SubmitError{ID: id, Err: err}
		c.state = StateIdle
		submitErr := c.submitErr
		c.mu.Unlock()
		c.metrics.observe(ResultFailed)
		c.log.WithError(err).WithField("id", id).Warn("senior user update failed")
		return nil, submitErr
	}

	c.reinitializeLocked(rec)
	c.state = StateRedirected
	navigate := !c.navigated
	c.navigated = true
	c.mu.Unlock()

	c.metrics.observe(ResultSuccess)
	c.log.WithField("id", id).Info("senior user updated")
	if navigate && c.nav != nil {
		c.nav.Navigate(c.listPath)
	}
	return rec, nil
}

// Snapshot is a consistent copy of the page state for rendering.
type Snapshot struct {
	State       State
	ID          string
	Record      *models.SeniorUser
	Values      Values
	Dirty       bool
	FieldErrors validation.Violations
	FetchErr    *FetchError
	SubmitErr   *SubmitError
}

// Loading reports whether the loading indicator should be shown.
func (s Snapshot) Loading() bool { return s.State == StateLoading }

// ShowForm reports whether the form is rendered.
func (s Snapshot) ShowForm() bool {
	return s.State == StateIdle || s.State == StateSubmitting
}

// SubmitDisabled reports whether the submit control is disabled.
func (s Snapshot) SubmitDisabled() bool { return s.State != StateIdle }

// Snapshot returns the current page state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := make(validation.Violations, len(c.fieldErrors))
	for k, v := range c.fieldErrors {
		errs[k] = v
	}
	return Snapshot{
		State:       c.state,
		ID:          c.id,
		Record:      c.record,
		Values:      c.values.clone(),
		Dirty:       c.dirty,
		FieldErrors: errs,
		FetchErr:    c.fetchErr,
		SubmitErr:   c.submitErr,
	}
}

package seniorform

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-seniorcare/internal/apisdk"
	"github.com/diewo77/go-seniorcare/internal/cache"
	"github.com/diewo77/go-seniorcare/internal/models"
	"github.com/diewo77/go-seniorcare/validation"
)

func strPtr(s string) *string { return &s }

type fakeAPI struct {
	mu        sync.Mutex
	records   map[string]*models.SeniorUser
	getErr    error
	updateErr error
	gets      int
	updates   []apisdk.SeniorUserPatch

	// blockGet, when set for an id, holds GetSeniorUserByID until closed.
	blockGet map[string]chan struct{}
	// parked receives the id of every blocked fetch once it is waiting.
	parked chan string
	// blockUpdate holds UpdateSeniorUserByID until closed.
	blockUpdate chan struct{}
	updating    chan struct{}
}

func newFakeAPI(recs ...*models.SeniorUser) *fakeAPI {
	f := &fakeAPI{records: map[string]*models.SeniorUser{}, blockGet: map[string]chan struct{}{}}
	for _, r := range recs {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeAPI) GetSeniorUserByID(_ context.Context, id string) (*models.SeniorUser, error) {
	f.mu.Lock()
	block := f.blockGet[id]
	f.mu.Unlock()
	if block != nil {
		if f.parked != nil {
			f.parked <- id
		}
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, &apisdk.Error{Status: http.StatusNotFound, Message: "not_found"}
	}
	out := *rec
	return &out, nil
}

func (f *fakeAPI) UpdateSeniorUserByID(_ context.Context, id string, patch apisdk.SeniorUserPatch) (*models.SeniorUser, error) {
	if f.updating != nil {
		close(f.updating)
	}
	if f.blockUpdate != nil {
		<-f.blockUpdate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, patch)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	rec := &models.SeniorUser{
		Base:         models.Base{ID: id},
		Progress:     patch.Progress,
		UserID:       patch.UserID,
		HealthPlanID: patch.HealthPlanID,
	}
	f.records[id] = rec
	out := *rec
	return &out, nil
}

type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNav) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func seedRecord() *models.SeniorUser {
	return &models.SeniorUser{
		Base:         models.Base{ID: "s1"},
		Progress:     strPtr("walking daily"),
		UserID:       strPtr("u1"),
		HealthPlanID: strPtr("hp1"),
	}
}

func newController(api API, nav Navigator, opts ...ControllerOption) (*Controller, *cache.Loader) {
	loader := cache.NewLoader(cache.NewMemoryStore(), cache.WithDedupe(0))
	return New(api, loader, nav, opts...), loader
}

func TestLoad_PopulatesAllFields(t *testing.T) {
	api := newFakeAPI(seedRecord())
	c, _ := newController(api, &recordingNav{})

	c.SetID("s1")
	assert.True(t, c.Snapshot().Loading())

	require.NoError(t, c.Load(context.Background()))
	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.True(t, snap.ShowForm())
	assert.False(t, snap.SubmitDisabled())
	assert.Equal(t, "walking daily", *snap.Values.Progress)
	assert.Equal(t, "u1", *snap.Values.UserID)
	assert.Equal(t, "hp1", *snap.Values.HealthPlanID)
	assert.False(t, snap.Dirty)
}

func TestLoad_EmptyIDStaysLoading(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(api, &recordingNav{})

	c.SetID("")
	assert.ErrorIs(t, c.Load(context.Background()), ErrNotReady)
	assert.True(t, c.Snapshot().Loading())
	assert.Zero(t, api.gets)
}

func TestLoad_FetchErrorHidesForm(t *testing.T) {
	api := newFakeAPI()
	c, _ := newController(api, &recordingNav{})
	c.SetID("missing")

	err := c.Load(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, fetchErr.NotFound())

	snap := c.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.False(t, snap.ShowForm())
	assert.False(t, snap.Loading())
	assert.Same(t, fetchErr, snap.FetchErr)

	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, c.Set(FieldProgress, "x"), ErrNotReady)
}

func TestLoad_TransportError(t *testing.T) {
	api := newFakeAPI()
	api.getErr = errors.New("connection refused")
	c, _ := newController(api, &recordingNav{})
	c.SetID("s1")

	err := c.Load(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.False(t, fetchErr.NotFound())
	assert.Contains(t, fetchErr.Error(), "connection refused")
}

func TestLoad_SupersededFetchDiscarded(t *testing.T) {
	old := &models.SeniorUser{Base: models.Base{ID: "old"}, Progress: strPtr("old")}
	cur := &models.SeniorUser{Base: models.Base{ID: "new"}, Progress: strPtr("new")}
	api := newFakeAPI(old, cur)
	release := make(chan struct{})
	api.blockGet["old"] = release
	api.parked = make(chan string, 1)
	c, _ := newController(api, &recordingNav{})

	c.SetID("old")
	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background()) }()

	select {
	case id := <-api.parked:
		require.Equal(t, "old", id)
	case <-time.After(time.Second):
		t.Fatal("old fetch never started")
	}

	c.SetID("new")
	require.NoError(t, c.Load(context.Background()))
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	snap := c.Snapshot()
	assert.Equal(t, "new", snap.ID)
	assert.Equal(t, "new", *snap.Values.Progress)
}

func TestSetID_SameIDDoesNotReset(t *testing.T) {
	api := newFakeAPI(seedRecord())
	c, _ := newController(api, &recordingNav{})
	c.SetID("s1")
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Set(FieldProgress, "edited"))

	c.SetID("s1")
	assert.Equal(t, "edited", *c.Snapshot().Values.Progress)
}

func TestReinitialize_DiscardsEdits(t *testing.T) {
	api := newFakeAPI(seedRecord())
	c, _ := newController(api, &recordingNav{})
	c.SetID("s1")
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Set(FieldProgress, "unsaved"))

	fresh := seedRecord()
	fresh.Progress = strPtr("from server")
	assert.True(t, c.Reinitialize(fresh))
	snap := c.Snapshot()
	assert.Equal(t, "from server", *snap.Values.Progress)
	assert.False(t, snap.Dirty)

	other := seedRecord()
	other.ID = "s2"
	assert.False(t, c.Reinitialize(other))
}

func TestSubmit_EmptyAndNullValuesSucceed(t *testing.T) {
	api := newFakeAPI(seedRecord())
	nav := &recordingNav{}
	c, _ := newController(api, nav)
	c.SetID("s1")
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.Set(FieldProgress, ""))
	require.NoError(t, c.SetNull(FieldUserID))
	require.NoError(t, c.SetNull(FieldHealthPlanID))

	rec, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", *rec.Progress)
	assert.Nil(t, rec.UserID)
	assert.Equal(t, []string{DefaultListPath}, nav.calls())
}

func TestSubmit_SuccessNavigatesOnceAndUpdatesCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	api := newFakeAPI(seedRecord())
	nav := &recordingNav{}
	c, loader := newController(api, nav, WithMetrics(metrics))
	c.SetID("s1")
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Set(FieldHealthPlanID, "hp2"))

	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, StateRedirected, snap.State)
	assert.False(t, snap.Dirty)
	assert.Empty(t, snap.FieldErrors)
	assert.True(t, snap.SubmitDisabled())

	cached, ok := loader.Peek(context.Background(), "s1")
	require.True(t, ok)
	assert.Equal(t, "hp2", *cached.HealthPlanID)

	_, err = c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, []string{"/senior-users"}, nav.calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.submissions.WithLabelValues(ResultSuccess)))
}

func TestSubmit_FailureKeepsValues(t *testing.T) {
	api := newFakeAPI(seedRecord())
	api.updateErr = &apisdk.Error{
		Status:  http.StatusUnprocessableEntity,
		Message: "validation_failed",
		Details: map[string]string{"user_id": "not_found"},
	}
	nav := &recordingNav{}
	c, loader := newController(api, nav)
	c.SetID("s1")
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Set(FieldUserID, "ghost"))

	_, err := c.Submit(context.Background())
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, http.StatusUnprocessableEntity, submitErr.Status())
	assert.Equal(t, "not_found", submitErr.Details()["user_id"])

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, "ghost", *snap.Values.UserID)
	assert.Same(t, submitErr, snap.SubmitErr)
	assert.Empty(t, nav.calls())

	cached, _ := loader.Peek(context.Background(), "s1")
	assert.Equal(t, "u1", *cached.UserID)

	// Retry after fixing the value clears the banner.
	api.updateErr = nil
	require.NoError(t, c.Set(FieldUserID, "u2"))
	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c.Snapshot().SubmitErr)
	assert.Len(t, nav.calls(), 1)
}

func TestSubmit_InFlightSecondCallHasNoEffect(t *testing.T) {
	api := newFakeAPI(seedRecord())
	api.blockUpdate = make(chan struct{})
	api.updating = make(chan struct{})
	nav := &recordingNav{}
	c, _ := newController(api, nav)
	c.SetID("s1")
	require.NoError(t, c.Load(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-api.updating

	assert.True(t, c.Snapshot().SubmitDisabled())
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(api.blockUpdate)
	require.NoError(t, <-done)
	assert.Len(t, api.updates, 1)
	assert.Len(t, nav.calls(), 1)
}

func TestLoad_DuringSubmitKeepsSubmittedValues(t *testing.T) {
	api := newFakeAPI(seedRecord())
	api.blockUpdate = make(chan struct{})
	api.updating = make(chan struct{})
	nav := &recordingNav{}
	c, _ := newController(api, nav)
	c.SetID("s1")
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Set(FieldProgress, "edited"))

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-api.updating

	require.NoError(t, c.Load(context.Background()))
	snap := c.Snapshot()
	assert.Equal(t, StateSubmitting, snap.State)
	assert.Equal(t, strPtr("edited"), snap.Values.Progress)
	assert.True(t, snap.SubmitDisabled())

	close(api.blockUpdate)
	require.NoError(t, <-done)
	assert.Equal(t, StateRedirected, c.Snapshot().State)
	assert.Len(t, nav.calls(), 1)
}

func TestSubmit_SharedGuardAcrossControllers(t *testing.T) {
	guard := NewSubmitGuard()
	require.True(t, guard.TryAcquire("s1"))

	api := newFakeAPI(seedRecord())
	c, _ := newController(api, &recordingNav{}, WithGuard(guard))
	c.Restore("s1", Values{})

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.Empty(t, api.updates)
	assert.Equal(t, StateIdle, c.Snapshot().State)

	guard.Release("s1")
	_, err = c.Submit(context.Background())
	assert.NoError(t, err)
}

func TestSubmit_ValidationBlocksRequest(t *testing.T) {
	api := newFakeAPI(seedRecord())
	schema := validation.Schema{
		{Field: FieldProgress, Optional: true, Nullable: false},
	}
	c, _ := newController(api, &recordingNav{}, WithSchema(schema))
	c.SetID("s1")
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.SetNull(FieldProgress))

	_, err := c.Submit(context.Background())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, validation.CodeNotNullable, vErr.Violations[FieldProgress])
	assert.Equal(t, validation.CodeNotNullable, c.Snapshot().FieldErrors[FieldProgress])
	assert.Empty(t, api.updates)
	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestRestore_KeepsNullAndEmptyApart(t *testing.T) {
	api := newFakeAPI(seedRecord())
	c, _ := newController(api, &recordingNav{})

	c.Restore("s1", Values{Progress: strPtr(""), UserID: nil, HealthPlanID: strPtr("")})
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	require.Len(t, api.updates, 1)
	patch := api.updates[0]
	assert.Equal(t, "", *patch.Progress)
	assert.Nil(t, patch.UserID)
	require.NotNil(t, patch.HealthPlanID)
	assert.Equal(t, "", *patch.HealthPlanID)
	assert.Zero(t, api.gets)
}

func TestSet_UnknownField(t *testing.T) {
	c, _ := newController(newFakeAPI(), &recordingNav{})
	c.Restore("s1", Values{})
	assert.ErrorIs(t, c.Set("age", "3"), ErrUnknownField)
}

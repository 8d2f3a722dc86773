package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/diewo77/go-seniorcare/internal/models"
)

const (
	// DefaultDedupe is how long a stored record is served without
	// revalidating against the backend.
	DefaultDedupe = 2 * time.Second
	// DefaultTTL bounds how long a record stays in the store at all.
	DefaultTTL = 10 * time.Minute
)

// Key returns the cache key of a senior user.
func Key(id string) string { return "/senior-users/" + id }

// Fetcher retrieves a senior user from the backend.
type Fetcher func(ctx context.Context, id string) (*models.SeniorUser, error)

type envelope struct {
	StoredAt time.Time          `json:"stored_at"`
	Value    *models.SeniorUser `json:"value"`
}

// Loader reads senior users through a Store. Concurrent loads of the same
// key share one backend call, and a record written less than the dedupe
// interval ago is served from the store.
type Loader struct {
	store  Store
	group  singleflight.Group
	dedupe time.Duration
	ttl    time.Duration
	now    func() time.Time
	log    logrus.FieldLogger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDedupe sets the interval during which a stored record is reused.
func WithDedupe(d time.Duration) LoaderOption {
	return func(l *Loader) { l.dedupe = d }
}

// WithTTL sets how long entries live in the store.
func WithTTL(d time.Duration) LoaderOption {
	return func(l *Loader) { l.ttl = d }
}

// WithLogger sets the loader logger.
func WithLogger(log logrus.FieldLogger) LoaderOption {
	return func(l *Loader) { l.log = log }
}

// NewLoader creates a Loader over store.
func NewLoader(store Store, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:  store,
		dedupe: DefaultDedupe,
		ttl:    DefaultTTL,
		now:    time.Now,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithField("component", "cache")
	return l
}

// Load returns the senior user id, calling fetch unless a fresh copy is
// stored or another load for the same id is already running.
func (l *Loader) Load(ctx context.Context, id string, fetch Fetcher) (*models.SeniorUser, error) {
	key := Key(id)
	if env, ok := l.read(ctx, key); ok && l.now().Sub(env.StoredAt) < l.dedupe {
		return env.Value, nil
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	shareCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		rec, err := fetch(shareCtx, id)
		if err != nil {
			return nil, err
		}
		l.write(shareCtx, key, rec)
		return rec, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			l.log.WithField("key", key).Debug("load shared with concurrent caller")
		}
		return clone(res.Val.(*models.SeniorUser)), nil
	}
}

// Peek returns the stored record regardless of its age.
func (l *Loader) Peek(ctx context.Context, id string) (*models.SeniorUser, bool) {
	env, ok := l.read(ctx, Key(id))
	if !ok {
		return nil, false
	}
	return env.Value, true
}

// Set replaces the stored record for id, typically with the object returned
// by a successful update.
func (l *Loader) Set(ctx context.Context, id string, rec *models.SeniorUser) {
	l.write(ctx, Key(id), rec)
}

// Invalidate drops the stored record for id.
func (l *Loader) Invalidate(ctx context.Context, id string) error {
	return l.store.Delete(ctx, Key(id))
}

func (l *Loader) read(ctx context.Context, key string) (envelope, bool) {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			l.log.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Value == nil {
		l.log.WithField("key", key).Warn("discarding undecodable cache entry")
		return envelope{}, false
	}
	return env, true
}

// write is best effort: a failing store degrades to fetching every time.
func (l *Loader) write(ctx context.Context, key string, rec *models.SeniorUser) {
	raw, err := json.Marshal(envelope{StoredAt: l.now(), Value: rec})
	if err != nil {
		l.log.WithError(err).WithField("key", key).Warn("cache encode failed")
		return
	}
	if err := l.store.Set(ctx, key, raw, l.ttl); err != nil {
		l.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func clone(rec *models.SeniorUser) *models.SeniorUser {
	if rec == nil {
		return nil
	}
	out := *rec
	out.Progress = cloneString(rec.Progress)
	out.UserID = cloneString(rec.UserID)
	out.HealthPlanID = cloneString(rec.HealthPlanID)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

package policy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/auth"
	"github.com/diewo77/go-seniorcare/gate"
	"github.com/diewo77/go-seniorcare/httpx"
)

// AuthGate holds the configured Gate with caching.
// Use this as the central authorization point of the admin server.
type AuthGate struct {
	Gate          *gate.Gate[string]
	CacheResolver *gate.CachedResolver[string]
	log           logrus.FieldLogger
}

// NewAuthGate creates a fully configured authorization gate.
// - resolver: where profiles come from (the backend API)
// - cacheTTL: how long to cache user profiles (e.g., 5*time.Minute)
func NewAuthGate(resolver gate.ProfileResolver[string], cacheTTL time.Duration, log logrus.FieldLogger) *AuthGate {
	cachedResolver := gate.NewCachedResolver[string](resolver, cacheTTL)
	return &AuthGate{
		Gate:          gate.New[string](cachedResolver),
		CacheResolver: cachedResolver,
		log:           log.WithField("component", "authgate"),
	}
}

// Authorize checks if the current user may perform access.
// Returns nil if authorized.
func (ag *AuthGate) Authorize(ctx context.Context, access gate.Access) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, userID, access)
}

// HasPermission checks a "resource:action" permission against the session
// user's profile. Templates use it through the "can" function.
func (ag *AuthGate) HasPermission(ctx context.Context, perm gate.Permission) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	profile, err := ag.CacheResolver.Resolve(ctx, userID)
	return err == nil && profile != nil && profile.HasPermission(perm)
}

// KnownUser reports whether the backend still knows userID. Only an explicit
// unknown-user answer counts as false.
func (ag *AuthGate) KnownUser(ctx context.Context, userID string) bool {
	_, err := ag.CacheResolver.Resolve(ctx, userID)
	return !errors.Is(err, ErrUnknownUser)
}

// InvalidateUser clears the cache for a specific user.
// Call this on login and logout.
func (ag *AuthGate) InvalidateUser(userID string) {
	ag.CacheResolver.Invalidate(userID)
}

// RequireAccess returns middleware that lets a request through only when the
// session user's profile grants {service, entity, action}. It runs before
// the wrapped handler does any work.
func (ag *AuthGate) RequireAccess(service gate.Service, entity string, action gate.Action) func(http.Handler) http.Handler {
	access := gate.Access{Service: service, Entity: entity, Action: action}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := ag.Authorize(r.Context(), access)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, gate.ErrUnauthenticated), errors.Is(err, ErrUnknownUser):
				auth.Unauthenticated(w, r)
			case errors.Is(err, gate.ErrUnauthorized):
				ag.deny(w, r, http.StatusForbidden, "forbidden")
			default:
				ag.log.WithError(err).WithField("access", access.String()).Error("authorization provider failed")
				ag.deny(w, r, http.StatusServiceUnavailable, "authorization_unavailable")
			}
		})
	}
}

func (ag *AuthGate) deny(w http.ResponseWriter, r *http.Request, status int, code string) {
	if auth.WantsJSON(r) {
		httpx.JSONError(w, status, code, nil)
		return
	}
	http.Error(w, http.StatusText(status), status)
}

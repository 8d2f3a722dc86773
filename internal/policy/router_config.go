package policy

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/auth"
	"github.com/diewo77/go-seniorcare/gate"
	"github.com/diewo77/go-seniorcare/internal/apisdk"
	"github.com/diewo77/go-seniorcare/internal/cache"
	"github.com/diewo77/go-seniorcare/internal/config"
	"github.com/diewo77/go-seniorcare/internal/handlers"
	"github.com/diewo77/go-seniorcare/internal/seniorform"
	"github.com/diewo77/go-seniorcare/view"
)

// RouterConfig holds configured handlers and middleware for the admin server.
type RouterConfig struct {
	// AuthGate provides authorization checks and middleware
	AuthGate *AuthGate
	Sessions *auth.Sessions
	View     *view.Renderer
	Loader   *cache.Loader

	SeniorUserHandler *handlers.SeniorUserHandler
	AuthHandler       *handlers.AuthHandler
}

// Deps are the collaborators NewRouterConfig wires together.
type Deps struct {
	Config   *config.Config
	Client   *apisdk.Client
	Store    cache.Store
	Registry prometheus.Registerer
	Log      logrus.FieldLogger
}

// NewRouterConfig creates a fully configured router setup: the
// authorization gate backed by the REST API, the session manager, the shared
// record cache and the page handlers.
//
//	cfg := policy.NewRouterConfig(deps)
//	mux.Handle("GET /senior-users/edit/{id}",
//		cfg.AuthGate.RequireAccess(gate.ServiceProject, "senior_user", gate.ActionUpdate)(
//			http.HandlerFunc(cfg.SeniorUserHandler.Edit)))
func NewRouterConfig(d Deps) *RouterConfig {
	c := d.Config

	authGate := NewAuthGate(
		NewAPIProfileResolver(d.Client),
		time.Duration(c.Auth.ProfileCacheTTL)*time.Second,
		d.Log,
	)

	sessions := auth.NewSessions(
		c.Auth.SessionSecret,
		time.Duration(c.Auth.SessionTTLHours)*time.Hour,
		c.Auth.SecureCookies,
	)
	sessions.SetUserVerifier(authGate.KnownUser)

	rd := view.New(
		view.WithDev(c.App.Dev),
		view.WithCan(func(r *http.Request, permission string) bool {
			return authGate.HasPermission(r.Context(), gate.Permission(permission))
		}),
	)

	loader := cache.NewLoader(d.Store,
		cache.WithDedupe(time.Duration(c.Cache.DedupeSeconds)*time.Second),
		cache.WithLogger(d.Log),
	)

	return &RouterConfig{
		AuthGate: authGate,
		Sessions: sessions,
		View:     rd,
		Loader:   loader,
		SeniorUserHandler: handlers.NewSeniorUserHandler(
			d.Client, loader, seniorform.NewSubmitGuard(), seniorform.NewMetrics(d.Registry), rd, d.Log),
		AuthHandler: handlers.NewAuthHandler(d.Client, sessions, authGate, rd, d.Log),
	}
}

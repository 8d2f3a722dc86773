package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/gate"
	"github.com/diewo77/go-seniorcare/i18n"
	"github.com/diewo77/go-seniorcare/internal/middleware"
	"github.com/diewo77/go-seniorcare/internal/policy"
	"github.com/diewo77/go-seniorcare/view"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates a new application with all routes configured. Metrics are
// registered on reg and served from /metrics.
func NewApp(routerCfg *policy.RouterConfig, reg *prometheus.Registry, log logrus.FieldLogger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		routerCfg: routerCfg,
	}
	app.setupRoutes(reg)

	// outermost first: metrics, request log, session, preferences
	var h http.Handler = app.mux
	h = withPreferences(h)
	h = routerCfg.Sessions.Middleware(h)
	h = middleware.RequestLogger(log)(h)
	h = middleware.NewHTTPMetrics(reg, "seniorcare").Middleware(h)
	app.handler = h
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes(reg *prometheus.Registry) {
	ah := a.routerCfg.AuthHandler
	sh := a.routerCfg.SeniorUserHandler

	// Public routes
	a.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/senior-users", http.StatusSeeOther)
	})
	a.mux.HandleFunc("GET /login", ah.Login)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	a.mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(view.Static())))
	a.mux.HandleFunc("/", a.notFound)

	// Senior users
	a.mux.Handle("GET /senior-users",
		a.requireAccess(gate.ActionList, http.HandlerFunc(sh.List)))
	a.mux.Handle("GET /senior-users/edit/{id}",
		a.requireAccess(gate.ActionUpdate, http.HandlerFunc(sh.Edit)))
	a.mux.Handle("POST /senior-users/edit/{id}",
		a.requireAccess(gate.ActionUpdate, http.HandlerFunc(sh.Update)))
	a.mux.Handle("GET /senior-users/edit/{id}/options/{field}",
		a.requireAccess(gate.ActionUpdate, http.HandlerFunc(sh.Options)))
}

// requireAccess checks the session, then {project, senior_user, action},
// before next runs.
func (a *App) requireAccess(action gate.Action, next http.Handler) http.Handler {
	guarded := a.routerCfg.AuthGate.RequireAccess(gate.ServiceProject, "senior_user", action)(next)
	return a.routerCfg.Sessions.RequireAuth(guarded)
}

func (a *App) notFound(w http.ResponseWriter, r *http.Request) {
	err := a.routerCfg.View.RenderStatus(w, r, http.StatusNotFound, "error.html", map[string]any{"Error": "not_found"})
	if err != nil {
		http.NotFound(w, r)
	}
}

// withPreferences injects language and theme preferences from cookies/query.
func withPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// query, then cookie, then Accept-Language
		lang := ""
		if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
			lang = i18n.Normalize(c.Value)
		}
		if q := r.URL.Query().Get("lang"); q != "" {
			lang = i18n.Normalize(q)
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   86400 * 365,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		if lang == "" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		ctx = i18n.WithLang(ctx, lang)

		if c, err := r.Cookie("theme"); err == nil && (c.Value == "light" || c.Value == "dark") {
			ctx = view.WithTheme(ctx, c.Value)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Package backend is a reference implementation of the REST API consumed by
// the admin server. It stores senior users, users, health plans and
// authorization profiles with gorm.
package backend

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-seniorcare/gate"
	"github.com/diewo77/go-seniorcare/httpx"
	"github.com/diewo77/go-seniorcare/internal/logging"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Server answers the REST API.
type Server struct {
	db       *gorm.DB
	profiles gate.ProfileResolver[string]
	token    string
	log      logrus.FieldLogger
	mux      *http.ServeMux
}

type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) { s.log = log }
}

// New creates a server over conn. profiles resolves the permission profile
// of a known user; a nil profile means none is assigned.
func New(conn *gorm.DB, profiles gate.ProfileResolver[string], opts ...Option) *Server {
	s := &Server{
		db:       conn,
		profiles: profiles,
		log:      logrus.StandardLogger(),
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "backend")
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /senior-users", s.listSeniorUsers)
	s.mux.HandleFunc("GET /senior-users/{id}", s.getSeniorUser)
	s.mux.HandleFunc("PUT /senior-users/{id}", s.updateSeniorUser)

	s.mux.HandleFunc("GET /users", s.listUsers)
	s.mux.HandleFunc("GET /users/{id}", s.getUser)
	s.mux.HandleFunc("GET /users/{id}/profile", s.getUserProfile)

	s.mux.HandleFunc("GET /health-plans", s.listHealthPlans)
	s.mux.HandleFunc("GET /health-plans/{id}", s.getHealthPlan)

	s.mux.HandleFunc("POST /sessions", s.createSession)

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.URL.Path != "/healthz" {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
	}
	s.mux.ServeHTTP(w, r)
}

// internalError logs err and answers 500.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logging.FromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error(msg)
	httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}

type listQuery struct {
	q      string
	limit  int
	offset int
}

func parseListQuery(r *http.Request) listQuery {
	v := r.URL.Query()
	lq := listQuery{q: strings.ToLower(strings.TrimSpace(v.Get("q"))), limit: defaultLimit}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && n > 0 {
		lq.limit = min(n, maxLimit)
	}
	if n, err := strconv.Atoi(v.Get("offset")); err == nil && n > 0 {
		lq.offset = n
	}
	return lq
}

func (lq listQuery) like() string {
	return "%" + lq.q + "%"
}

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-seniorcare/auth"
	"github.com/diewo77/go-seniorcare/internal/apisdk"
	"github.com/diewo77/go-seniorcare/internal/models"
	"github.com/diewo77/go-seniorcare/validation"
	"github.com/diewo77/go-seniorcare/view"
)

const maxEmailLength = 255

// Authenticator checks operator credentials against the backend.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// ProfileInvalidator drops cached authorization profiles.
type ProfileInvalidator interface {
	InvalidateUser(userID string)
}

type AuthHandler struct {
	api      Authenticator
	sessions *auth.Sessions
	profiles ProfileInvalidator
	view     *view.Renderer
	log      logrus.FieldLogger
	home     string
}

func NewAuthHandler(api Authenticator, sessions *auth.Sessions, profiles ProfileInvalidator,
	rd *view.Renderer, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		api:      api,
		sessions: sessions,
		profiles: profiles,
		view:     rd,
		log:      log.WithField("component", "auth_handler"),
		home:     "/senior-users",
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, map[string]any{"Next": r.URL.Query().Get("next")})
		return
	}

	var f LoginForm
	if err := decodeForm(r, &f); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(f.Email)
	data := map[string]any{"Email": email, "Next": f.Next}

	errs := make(validation.Violations)
	validation.Required("email", email, errs)
	validation.MaxLength("email", email, maxEmailLength, errs)
	validation.Required("password", f.Password, errs)
	if !errs.Empty() {
		data["Error"] = "invalid"
		data["Errors"] = errs
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	user, err := h.api.Authenticate(r.Context(), email, f.Password)
	if err != nil {
		switch status := apisdk.StatusOf(err); status {
		case http.StatusUnauthorized, http.StatusNotFound, http.StatusUnprocessableEntity:
			data["Error"] = "invalid_credentials"
			h.render(w, r, http.StatusUnauthorized, data)
		default:
			h.log.WithError(err).Error("authentication backend failed")
			data["Error"] = "error_unavailable"
			h.render(w, r, http.StatusBadGateway, data)
		}
		return
	}

	h.profiles.InvalidateUser(user.ID)
	h.sessions.CreateSession(w, user.ID)
	h.log.WithField("user_id", user.ID).Info("operator logged in")
	http.Redirect(w, r, safeNext(f.Next, h.home), http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		h.profiles.InvalidateUser(uid)
	}
	h.sessions.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if err := h.view.RenderStatus(w, r, status, "login.html", data); err != nil {
		h.log.WithError(err).Error("render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// safeNext only follows local absolute paths.
func safeNext(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return fallback
}

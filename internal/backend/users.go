package backend

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/go-seniorcare/httpx"
	"github.com/diewo77/go-seniorcare/internal/models"
)

type profileResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	lq := parseListQuery(r)
	tx := s.db.WithContext(r.Context()).Model(&models.User{})
	if lq.q != "" {
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", lq.like(), lq.like())
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		s.internalError(w, r, err, "count users")
		return
	}
	var items []models.User
	if err := tx.Order("email").Limit(lq.limit).Offset(lq.offset).Find(&items).Error; err != nil {
		s.internalError(w, r, err, "list users")
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[models.User]{Items: items, Total: total, Limit: lq.limit, Offset: lq.offset})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	err := s.db.WithContext(r.Context()).First(&u, "id = ?", r.PathValue("id")).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case err != nil:
		s.internalError(w, r, err, "get user")
	default:
		httpx.JSON(w, http.StatusOK, u)
	}
}

// getUserProfile answers 404 for an unknown user and 204 when the user has
// no profile.
func (s *Server) getUserProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var n int64
	if err := s.db.WithContext(r.Context()).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		s.internalError(w, r, err, "find user")
		return
	}
	if n == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	p, err := s.profiles.Resolve(r.Context(), id)
	if err != nil {
		s.internalError(w, r, err, "resolve profile")
		return
	}
	if p == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	resp := profileResponse{ID: p.ID(), Name: p.Name(), Permissions: []string{}}
	for _, perm := range p.Permissions() {
		resp.Permissions = append(resp.Permissions, string(perm))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type sessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// createSession checks credentials and returns the user.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
		return
	}

	var u models.User
	err := s.db.WithContext(r.Context()).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&u).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.internalError(w, r, err, "find user")
		return
	}
	// members without a password never authenticate
	if err != nil || u.Password == "" || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

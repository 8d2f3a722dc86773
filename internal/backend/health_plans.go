package backend

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/go-seniorcare/httpx"
	"github.com/diewo77/go-seniorcare/internal/models"
)

func (s *Server) listHealthPlans(w http.ResponseWriter, r *http.Request) {
	lq := parseListQuery(r)
	tx := s.db.WithContext(r.Context()).Model(&models.HealthPlan{})
	if lq.q != "" {
		tx = tx.Where("LOWER(name) LIKE ?", lq.like())
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		s.internalError(w, r, err, "count health plans")
		return
	}
	var items []models.HealthPlan
	if err := tx.Order("name").Limit(lq.limit).Offset(lq.offset).Find(&items).Error; err != nil {
		s.internalError(w, r, err, "list health plans")
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[models.HealthPlan]{Items: items, Total: total, Limit: lq.limit, Offset: lq.offset})
}

func (s *Server) getHealthPlan(w http.ResponseWriter, r *http.Request) {
	var hp models.HealthPlan
	err := s.db.WithContext(r.Context()).First(&hp, "id = ?", r.PathValue("id")).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case err != nil:
		s.internalError(w, r, err, "get health plan")
	default:
		httpx.JSON(w, http.StatusOK, hp)
	}
}

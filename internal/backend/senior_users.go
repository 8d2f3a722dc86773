package backend

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/diewo77/go-seniorcare/httpx"
	"github.com/diewo77/go-seniorcare/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SeniorUserUpdateDTO is the PUT body. Null and "" are both accepted and
// stored as sent.
type SeniorUserUpdateDTO struct {
	Progress     *string `json:"progress" validate:"omitempty,max=10000"`
	UserID       *string `json:"user_id" validate:"omitempty,max=36"`
	HealthPlanID *string `json:"health_plan_id" validate:"omitempty,max=36"`
}

var dtoFieldNames = map[string]string{
	"Progress":     "progress",
	"UserID":       "user_id",
	"HealthPlanID": "health_plan_id",
}

// Ok validates the DTO and returns per-field error codes.
func (d *SeniorUserUpdateDTO) Ok() (map[string]string, bool) {
	err := validate.Struct(d)
	if err == nil {
		return nil, true
	}
	details := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[dtoFieldNames[fe.StructField()]] = "error_" + fe.Tag()
		}
	}
	return details, false
}

func (s *Server) listSeniorUsers(w http.ResponseWriter, r *http.Request) {
	lq := parseListQuery(r)
	tx := s.db.WithContext(r.Context()).Model(&models.SeniorUser{}).Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		s.internalError(w, r, err, "count senior users")
		return
	}
	var items []models.SeniorUser
	err := tx.Preload("User").Preload("HealthPlan").
		Order("created_at, id").Limit(lq.limit).Offset(lq.offset).Find(&items).Error
	if err != nil {
		s.internalError(w, r, err, "list senior users")
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[models.SeniorUser]{
		Items: items, Total: total, Limit: lq.limit, Offset: lq.offset,
	})
}

func (s *Server) getSeniorUser(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.findSeniorUser(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (s *Server) updateSeniorUser(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.findSeniorUser(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	var dto SeniorUserUpdateDTO
	if err := httpx.DecodeJSON(r, &dto); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	details, valid := dto.Ok()
	if valid {
		details = s.missingReferences(r, dto)
	}
	if len(details) > 0 {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", details)
		return
	}

	err := s.db.WithContext(r.Context()).Model(rec).
		Select("Progress", "UserID", "HealthPlanID").
		Updates(models.SeniorUser{Progress: dto.Progress, UserID: dto.UserID, HealthPlanID: dto.HealthPlanID}).Error
	if err != nil {
		s.internalError(w, r, err, "update senior user")
		return
	}

	updated, ok := s.findSeniorUser(w, r, rec.ID)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// missingReferences reports non-empty reference ids that match no row.
func (s *Server) missingReferences(r *http.Request, dto SeniorUserUpdateDTO) map[string]string {
	details := map[string]string{}
	check := func(field string, id *string, model any) {
		if id == nil || *id == "" {
			return
		}
		var n int64
		if err := s.db.WithContext(r.Context()).Model(model).Where("id = ?", *id).Count(&n).Error; err != nil || n == 0 {
			details[field] = "not_found"
		}
	}
	check("user_id", dto.UserID, &models.User{})
	check("health_plan_id", dto.HealthPlanID, &models.HealthPlan{})
	return details
}

func (s *Server) findSeniorUser(w http.ResponseWriter, r *http.Request, id string) (*models.SeniorUser, bool) {
	var rec models.SeniorUser
	err := s.db.WithContext(r.Context()).First(&rec, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	case err != nil:
		s.internalError(w, r, err, "get senior user")
		return nil, false
	}
	return &rec, true
}

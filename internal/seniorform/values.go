package seniorform

import (
	"fmt"

	"github.com/diewo77/go-seniorcare/internal/apisdk"
	"github.com/diewo77/go-seniorcare/internal/models"
)

// Editable fields.
const (
	FieldProgress     = "progress"
	FieldUserID       = "user_id"
	FieldHealthPlanID = "health_plan_id"
)

// Fields lists the editable fields in form order.
var Fields = []string{FieldProgress, FieldUserID, FieldHealthPlanID}

// Values is the form's working copy of a senior user. A nil field is null,
// which is distinct from an empty string.
type Values struct {
	Progress     *string
	UserID       *string
	HealthPlanID *string
}

// ValuesFromRecord copies the editable fields of rec.
func ValuesFromRecord(rec *models.SeniorUser) Values {
	if rec == nil {
		return Values{}
	}
	return Values{
		Progress:     clonePtr(rec.Progress),
		UserID:       clonePtr(rec.UserID),
		HealthPlanID: clonePtr(rec.HealthPlanID),
	}
}

// Get returns the value of field.
func (v Values) Get(field string) (*string, error) {
	switch field {
	case FieldProgress:
		return v.Progress, nil
	case FieldUserID:
		return v.UserID, nil
	case FieldHealthPlanID:
		return v.HealthPlanID, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

func (v *Values) set(field string, value *string) error {
	switch field {
	case FieldProgress:
		v.Progress = value
	case FieldUserID:
		v.UserID = value
	case FieldHealthPlanID:
		v.HealthPlanID = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Patch returns the update body for these values.
func (v Values) Patch() apisdk.SeniorUserPatch {
	return apisdk.SeniorUserPatch{
		Progress:     clonePtr(v.Progress),
		UserID:       clonePtr(v.UserID),
		HealthPlanID: clonePtr(v.HealthPlanID),
	}
}

func (v Values) clone() Values {
	return Values{
		Progress:     clonePtr(v.Progress),
		UserID:       clonePtr(v.UserID),
		HealthPlanID: clonePtr(v.HealthPlanID),
	}
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

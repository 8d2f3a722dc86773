package handlers

import (
	"net/http"
	"slices"

	"github.com/go-playground/form"

	"github.com/diewo77/go-seniorcare/internal/seniorform"
)

var decoder = form.NewDecoder()

// decodeForm parses the request body into v.
func decodeForm(r *http.Request, v any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	return decoder.Decode(v, r.PostForm)
}

// EditForm is the posted senior user form. A field missing from the body
// decodes to nil. Fields listed in NullFields were null when the page was
// rendered and stay null unless the user typed or picked a value.
type EditForm struct {
	Progress     *string  `form:"progress"`
	UserID       *string  `form:"user_id"`
	HealthPlanID *string  `form:"health_plan_id"`
	NullFields   []string `form:"null_fields"`
}

// Values converts the posted form into controller values.
func (f EditForm) Values() seniorform.Values {
	return seniorform.Values{
		Progress:     f.resolve(seniorform.FieldProgress, f.Progress),
		UserID:       f.resolve(seniorform.FieldUserID, f.UserID),
		HealthPlanID: f.resolve(seniorform.FieldHealthPlanID, f.HealthPlanID),
	}
}

func (f EditForm) resolve(field string, posted *string) *string {
	if slices.Contains(f.NullFields, field) && (posted == nil || *posted == "") {
		return nil
	}
	return posted
}

// LoginForm is the posted login form.
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

package seniorform

import (
	"context"

	"github.com/diewo77/go-seniorcare/httpx"
	"github.com/diewo77/go-seniorcare/internal/apisdk"
	"github.com/diewo77/go-seniorcare/internal/models"
)

// PickerPageSize is the number of candidates listed per search.
const PickerPageSize = 20

// Candidate is one selectable related record.
type Candidate struct {
	ID    string
	Label string
}

// Option is a rendered picker entry. Value is the stored identifier.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Picker resolves a reference field to a searchable list of candidates.
// Label and Placeholder are message codes.
type Picker struct {
	Name        string
	Label       string
	Placeholder string
	// Fetch lists candidates matching query.
	Fetch func(ctx context.Context, query string) ([]Candidate, error)
	// Resolve labels a single id; used when the selected value is not part
	// of the current candidate page.
	Resolve func(ctx context.Context, id string) (Candidate, error)
}

// Options lists candidates for query. A non-empty selected value is always
// present in the result, even when the search does not match it.
func (p Picker) Options(ctx context.Context, query string, selected *string) ([]Option, error) {
	candidates, err := p.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	opts := make([]Option, 0, len(candidates)+1)
	found := false
	for _, c := range candidates {
		sel := selected != nil && *selected == c.ID
		found = found || sel
		opts = append(opts, Option{Value: c.ID, Label: c.Label, Selected: sel})
	}
	if selected != nil && *selected != "" && !found {
		label := *selected
		if p.Resolve != nil {
			if c, err := p.Resolve(ctx, *selected); err == nil && c.Label != "" {
				label = c.Label
			}
		}
		opts = append([]Option{{Value: *selected, Label: label, Selected: true}}, opts...)
	}
	return opts, nil
}

// UserSource lists users.
type UserSource interface {
	GetUsers(ctx context.Context, p apisdk.ListParams) (*httpx.Page[models.User], error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// HealthPlanSource lists health plans.
type HealthPlanSource interface {
	GetHealthPlans(ctx context.Context, p apisdk.ListParams) (*httpx.Page[models.HealthPlan], error)
	GetHealthPlanByID(ctx context.Context, id string) (*models.HealthPlan, error)
}

// UserPicker selects user_id, showing each user's email.
func UserPicker(src UserSource) Picker {
	return Picker{
		Name:        FieldUserID,
		Label:       "user",
		Placeholder: "select_user",
		Fetch: func(ctx context.Context, query string) ([]Candidate, error) {
			page, err := src.GetUsers(ctx, apisdk.ListParams{Query: query, Limit: PickerPageSize})
			if err != nil {
				return nil, err
			}
			out := make([]Candidate, len(page.Items))
			for i, u := range page.Items {
				out[i] = Candidate{ID: u.ID, Label: u.Email}
			}
			return out, nil
		},
		Resolve: func(ctx context.Context, id string) (Candidate, error) {
			u, err := src.GetUserByID(ctx, id)
			if err != nil {
				return Candidate{}, err
			}
			return Candidate{ID: u.ID, Label: u.Email}, nil
		},
	}
}

// HealthPlanPicker selects health_plan_id, showing each plan's name.
func HealthPlanPicker(src HealthPlanSource) Picker {
	return Picker{
		Name:        FieldHealthPlanID,
		Label:       "health_plan",
		Placeholder: "select_health_plan",
		Fetch: func(ctx context.Context, query string) ([]Candidate, error) {
			page, err := src.GetHealthPlans(ctx, apisdk.ListParams{Query: query, Limit: PickerPageSize})
			if err != nil {
				return nil, err
			}
			out := make([]Candidate, len(page.Items))
			for i, hp := range page.Items {
				out[i] = Candidate{ID: hp.ID, Label: hp.Name}
			}
			return out, nil
		},
		Resolve: func(ctx context.Context, id string) (Candidate, error) {
			hp, err := src.GetHealthPlanByID(ctx, id)
			if err != nil {
				return Candidate{}, err
			}
			return Candidate{ID: hp.ID, Label: hp.Name}, nil
		},
	}
}

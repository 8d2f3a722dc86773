package policy

import (
	"context"
	"errors"

	"github.com/diewo77/go-seniorcare/gate"
	"github.com/diewo77/go-seniorcare/internal/apisdk"
)

// ErrUnknownUser means the session refers to a user the backend no longer
// knows.
var ErrUnknownUser = errors.New("policy: unknown user")

// ProfileSource fetches a user's profile from the backend.
type ProfileSource interface {
	GetUserProfile(ctx context.Context, userID string) (*apisdk.UserProfile, error)
}

// APIProfileResolver resolves user ids to profiles through the REST API.
// It implements gate.ProfileResolver[string].
type APIProfileResolver struct {
	src ProfileSource
}

func NewAPIProfileResolver(src ProfileSource) *APIProfileResolver {
	return &APIProfileResolver{src: src}
}

// Resolve returns nil when the user has no profile assigned.
func (r *APIProfileResolver) Resolve(ctx context.Context, userID string) (gate.Profile, error) {
	p, err := r.src.GetUserProfile(ctx, userID)
	if err != nil {
		if apisdk.IsNotFound(err) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	if p == nil || p.ID == "" {
		return nil, nil
	}
	perms := make([]gate.Permission, len(p.Permissions))
	for i, code := range p.Permissions {
		perms[i] = gate.Permission(code)
	}
	return gate.NewStaticProfile(p.ID, p.Name, perms...), nil
}

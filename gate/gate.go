// Package gate provides a profile-based authorization gate.
//
// A user resolves to a Profile holding permissions of the form
// "service.entity:action". The Gate checks that the profile grants the
// requested Access.
//
// The package has no dependencies on domain models; U is the user/subject
// type, e.g. Gate[string] for user-id based auth.
package gate

import "context"

// Gate is the central authorization checkpoint.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
}

// New creates a gate resolving profiles with resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize checks:
//  1. user is valid (non-zero), else ErrUnauthenticated
//  2. user's profile grants access.Permission(), else ErrUnauthorized
//
// Resolver errors are returned as-is so callers can tell an unavailable
// authorization provider from a denial.
func (g *Gate[U]) Authorize(ctx context.Context, user U, access Access) error {
	var zero U
	if user == zero {
		return ErrUnauthenticated
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return err
	}
	if profile == nil || !profile.HasPermission(access.Permission()) {
		return ErrUnauthorized
	}
	return nil
}

package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-seniorcare/gate"
)

var updateSeniorUser = gate.Access{Service: gate.ServiceProject, Entity: "senior_user", Action: gate.ActionUpdate}

type failingResolver struct{ err error }

func (r failingResolver) Resolve(context.Context, string) (gate.Profile, error) { return nil, r.err }

func newGate() *gate.Gate[string] {
	resolver := gate.NewStaticResolver[string]()
	resolver.Set("editor", gate.NewStaticProfile("p1", "editor", updateSeniorUser.Permission()))
	resolver.Set("viewer", gate.NewStaticProfile("p2", "viewer",
		gate.NewPermission("project.senior_user", gate.ActionView)))
	return gate.New[string](resolver)
}

func TestGate_Authorize_ZeroUser(t *testing.T) {
	g := newGate()
	if err := g.Authorize(context.Background(), "", updateSeniorUser); err != gate.ErrUnauthenticated {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGate_Authorize_ProfileOnly(t *testing.T) {
	g := newGate()
	ctx := context.Background()

	if err := g.Authorize(ctx, "editor", updateSeniorUser); err != nil {
		t.Errorf("editor should be allowed, got %v", err)
	}
	if err := g.Authorize(ctx, "viewer", updateSeniorUser); err != gate.ErrUnauthorized {
		t.Errorf("viewer should be denied, got %v", err)
	}
	if err := g.Authorize(ctx, "stranger", updateSeniorUser); err != gate.ErrUnauthorized {
		t.Errorf("user without profile should be denied, got %v", err)
	}
}

func TestGate_Authorize_ResolverError(t *testing.T) {
	boom := errors.New("provider down")
	g := gate.New[string](failingResolver{err: boom})
	if err := g.Authorize(context.Background(), "editor", updateSeniorUser); !errors.Is(err, boom) {
		t.Errorf("expected resolver error, got %v", err)
	}
}

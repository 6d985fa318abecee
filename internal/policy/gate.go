// Package policy decides which operations a user may perform. A Gate holds
// one Policy per resource type; resources without a policy are denied.
package policy

import (
	"context"
	"errors"

	"github.com/diewo77/stock-manager/internal/models"
)

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionClear  Action = "clear"
)

// Resource types with a registered policy.
const (
	ResourceHistory = "history"
	ResourceUser    = "user"
)

var (
	ErrDenied          = errors.New("action denied")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

// Policy defines authorization rules for a resource type.
type Policy interface {
	Can(ctx context.Context, user *models.User, action Action) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, user *models.User, action Action) bool

func (f PolicyFunc) Can(ctx context.Context, user *models.User, action Action) bool {
	return f(ctx, user, action)
}

type Gate struct {
	policies map[string]Policy
}

func NewGate() *Gate {
	return &Gate{policies: make(map[string]Policy)}
}

// Register adds or replaces the policy for resourceType.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

// Authorize returns ErrDenied for a nil or inactive user and for actions
// the policy refuses.
func (g *Gate) Authorize(ctx context.Context, user *models.User, action Action, resourceType string) error {
	if user == nil || !user.IsActive {
		return ErrDenied
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, user, action) {
		return ErrDenied
	}
	return nil
}

func (g *Gate) Can(ctx context.Context, user *models.User, action Action, resourceType string) bool {
	return g.Authorize(ctx, user, action, resourceType) == nil
}

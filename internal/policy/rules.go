package policy

import (
	"context"

	"github.com/diewo77/stock-manager/internal/models"
)

// AnyUser allows every action to any active user.
var AnyUser = PolicyFunc(func(context.Context, *models.User, Action) bool { return true })

// AdminFor allows the listed actions to administrators only. Other actions
// are open to any active user.
func AdminFor(actions ...Action) Policy {
	restricted := make(map[Action]bool, len(actions))
	for _, a := range actions {
		restricted[a] = true
	}
	return PolicyFunc(func(_ context.Context, u *models.User, a Action) bool {
		if restricted[a] {
			return u.IsAdmin()
		}
		return true
	})
}

// Default returns the rules of the application. Clearing history and
// managing accounts need an administrator.
func Default() *Gate {
	g := NewGate()
	g.Register(ResourceHistory, AdminFor(ActionClear, ActionDelete))
	g.Register(ResourceUser, AdminFor(ActionCreate, ActionUpdate, ActionDelete))
	return g
}

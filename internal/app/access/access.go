// Package access holds the authorization rules shared by every service:
// authentication, ownership, admin rights and the premium gate.
package access

import (
	"context"
	"fmt"
	"time"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
)

// Principal is the caller as established by the auth middleware. The zero
// value is an anonymous caller.
type Principal struct {
	UserID string
	Role   string
}

var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

func (p Principal) IsAdmin() bool {
	return p.Authenticated() && p.Role == model.RoleAdmin
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns Anonymous when no principal was stored.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}

func RequireUser(p Principal) error {
	if !p.Authenticated() {
		return common.ErrUnauthorized
	}
	return nil
}

func RequireAdmin(p Principal) error {
	if err := RequireUser(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return fmt.Errorf("admin access required: %w", common.ErrForbidden)
	}
	return nil
}

// RequireOwner rejects a caller that does not own the resource. Admins get no
// bypass.
func RequireOwner(p Principal, ownerID string) error {
	if err := RequireUser(p); err != nil {
		return err
	}
	if ownerID == "" || p.UserID != ownerID {
		return fmt.Errorf("not the owner of this resource: %w", common.ErrForbidden)
	}
	return nil
}

// RequirePremium guards premium problem detail, submit and run. Anonymous
// callers get 401; authenticated callers without an active subscription get
// 403. Admins always pass. user is the caller's stored record and may be nil
// for anonymous callers.
func RequirePremium(p Principal, user *model.User, now time.Time) error {
	if err := RequireUser(p); err != nil {
		return err
	}
	if p.IsAdmin() || user.IsAdmin() {
		return nil
	}
	if !user.HasActiveSubscription(now) {
		return fmt.Errorf("an active subscription is required: %w", common.ErrForbidden)
	}
	return nil
}

package access

import (
	"context"
	"testing"
	"time"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalContextRoundTrip(t *testing.T) {
	assert.Equal(t, Anonymous, FromContext(context.Background()))

	ctx := WithPrincipal(context.Background(), Principal{UserID: "u1", Role: model.RoleAdmin})
	p := FromContext(ctx)
	assert.True(t, p.Authenticated())
	assert.True(t, p.IsAdmin())
}

func TestRequireUser(t *testing.T) {
	assert.ErrorIs(t, RequireUser(Anonymous), common.ErrUnauthorized)
	assert.NoError(t, RequireUser(Principal{UserID: "u1", Role: model.RoleUser}))
}

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, RequireAdmin(Anonymous), common.ErrUnauthorized)
	assert.ErrorIs(t, RequireAdmin(Principal{UserID: "u1", Role: model.RoleUser}), common.ErrForbidden)
	assert.NoError(t, RequireAdmin(Principal{UserID: "a1", Role: model.RoleAdmin}))
}

func TestRequireOwner(t *testing.T) {
	owner := Principal{UserID: "u1", Role: model.RoleUser}
	other := Principal{UserID: "u2", Role: model.RoleUser}
	admin := Principal{UserID: "a1", Role: model.RoleAdmin}

	assert.NoError(t, RequireOwner(owner, "u1"))
	assert.ErrorIs(t, RequireOwner(other, "u1"), common.ErrForbidden)
	assert.ErrorIs(t, RequireOwner(admin, "u1"), common.ErrForbidden)
	assert.ErrorIs(t, RequireOwner(Anonymous, "u1"), common.ErrUnauthorized)
	assert.ErrorIs(t, RequireOwner(owner, ""), common.ErrForbidden)
}

func TestRequirePremium(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		p       Principal
		user    *model.User
		wantErr error
	}{
		{"anonymous", Anonymous, nil, common.ErrUnauthorized},
		{"freemium user", Principal{UserID: "u1", Role: model.RoleUser}, &model.User{ID: "u1"}, common.ErrForbidden},
		{"expired subscriber", Principal{UserID: "u1", Role: model.RoleUser}, &model.User{ID: "u1", IsSubscribed: true, SubscriptionExpiresAt: &past}, common.ErrForbidden},
		{"active subscriber", Principal{UserID: "u1", Role: model.RoleUser}, &model.User{ID: "u1", IsSubscribed: true, SubscriptionExpiresAt: &future}, nil},
		{"subscriber without expiry", Principal{UserID: "u1", Role: model.RoleUser}, &model.User{ID: "u1", IsSubscribed: true}, nil},
		{"admin", Principal{UserID: "a1", Role: model.RoleAdmin}, &model.User{ID: "a1", Role: model.RoleAdmin}, nil},
		{"missing user record", Principal{UserID: "u1", Role: model.RoleUser}, nil, common.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequirePremium(tt.p, tt.user, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

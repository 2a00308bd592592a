package access

import (
	"context"
	"testing"

	"condo-http-service/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

var (
	admin    = NewActor(1, models.RoleAdmin)
	resident = NewActor(2, models.RoleResident)
	other    = NewActor(3, models.RoleResident)
	anon     = Anonymous()
)

func TestAdminOrReadOnly(t *testing.T) {
	rules := Rules{
		ActionList:   {AdminOrReadOnly},
		ActionCreate: {AdminOrReadOnly},
	}

	tests := []struct {
		name   string
		actor  Actor
		action Action
		want   error
	}{
		{"anonymous read", anon, ActionList, nil},
		{"resident read", resident, ActionList, nil},
		{"anonymous write", anon, ActionCreate, ErrUnauthenticated},
		{"resident write", resident, ActionCreate, ErrForbidden},
		{"admin write", admin, ActionCreate, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Check(tt.actor, tt.action))
		})
	}
}

func TestRules_AllPoliciesMustPass(t *testing.T) {
	rules := Rules{ActionList: {Authenticated, AdminOrReadOnly}}

	assert.ErrorIs(t, rules.Check(anon, ActionList), ErrUnauthenticated)
	assert.NoError(t, rules.Check(resident, ActionList))
}

func TestRules_UndeclaredActionDenied(t *testing.T) {
	rules := Rules{ActionList: {AllowAny}}

	assert.ErrorIs(t, rules.Check(admin, ActionDestroy), ErrForbidden)
	assert.ErrorIs(t, rules.Check(anon, ActionDestroy), ErrUnauthenticated)
}

func TestOwnerOrAdmin_Object(t *testing.T) {
	rules := Rules{ActionUpdate: {Authenticated, OwnerOrAdmin}}

	assert.NoError(t, rules.CheckObject(resident, ActionUpdate, resident.UserID))
	assert.NoError(t, rules.CheckObject(admin, ActionUpdate, resident.UserID))
	assert.ErrorIs(t, rules.CheckObject(other, ActionUpdate, resident.UserID), ErrForbidden)
	assert.ErrorIs(t, rules.CheckObject(anon, ActionUpdate, resident.UserID), ErrUnauthenticated)

	assert.ErrorIs(t, RequireOwnerOrAdmin(other, resident.UserID), ErrForbidden)
	assert.ErrorIs(t, RequireAdmin(resident), ErrForbidden)
	assert.NoError(t, RequireAdmin(admin))
}

func TestActorContext(t *testing.T) {
	ctx := WithActor(context.Background(), resident)
	assert.Equal(t, resident, FromContext(ctx))
	assert.Equal(t, anon, FromContext(context.Background()))
	assert.False(t, NewActor(5, models.Role(9)).Authenticated())
}

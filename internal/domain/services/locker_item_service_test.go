package services

import (
	"context"
	"testing"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReceiveLockerItem(t *testing.T) {
	db := newTestDB(t)
	svc := NewLockerItemService(db, testConfig(), zap.NewNop())
	ctx := context.Background()

	admin := createUser(t, db, "admin", models.RoleAdmin, "pw")
	owner := createUser(t, db, "owner", models.RoleResident, "pw")
	other := createUser(t, db, "other", models.RoleResident, "pw")

	item := &models.LockerItem{ResidentID: owner.ID, ItemName: "Parcel"}
	require.NoError(t, svc.CreateLockerItem(ctx, item))
	assert.Equal(t, models.LockerStatusPending, item.Status)

	t.Run("other resident is forbidden", func(t *testing.T) {
		_, err := svc.ReceiveLockerItem(ctx, actorOf(other), item.ID)
		assert.ErrorIs(t, err, access.ErrForbidden)

		var got models.LockerItem
		require.NoError(t, db.First(&got, item.ID).Error)
		assert.Equal(t, models.LockerStatusPending, got.Status)
	})

	t.Run("anonymous is unauthenticated", func(t *testing.T) {
		_, err := svc.ReceiveLockerItem(ctx, access.Anonymous(), item.ID)
		assert.ErrorIs(t, err, access.ErrUnauthenticated)
	})

	t.Run("owner receives", func(t *testing.T) {
		got, err := svc.ReceiveLockerItem(ctx, actorOf(owner), item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.LockerStatusReceived, got.Status)
		assert.Equal(t, "owner", got.ResidentName)
	})

	t.Run("second receive is idempotent", func(t *testing.T) {
		var before models.LockerItem
		require.NoError(t, db.First(&before, item.ID).Error)

		got, err := svc.ReceiveLockerItem(ctx, actorOf(admin), item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.LockerStatusReceived, got.Status)

		var after models.LockerItem
		require.NoError(t, db.First(&after, item.ID).Error)
		assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	})

	t.Run("status never goes back", func(t *testing.T) {
		pending := models.LockerStatusPending
		_, err := svc.UpdateLockerItem(ctx, item.ID, LockerItemUpdate{Status: &pending})
		assert.ErrorIs(t, err, ErrLockerItemReceived)
	})

	t.Run("missing item", func(t *testing.T) {
		_, err := svc.ReceiveLockerItem(ctx, actorOf(admin), 9999)
		assert.ErrorIs(t, err, ErrLockerItemNotFound)
	})
}

func TestLockerItemVisibility(t *testing.T) {
	db := newTestDB(t)
	svc := NewLockerItemService(db, testConfig(), zap.NewNop())
	ctx := context.Background()

	admin := createUser(t, db, "admin", models.RoleAdmin, "pw")
	r1 := createUser(t, db, "r1", models.RoleResident, "pw")
	r2 := createUser(t, db, "r2", models.RoleResident, "pw")

	require.NoError(t, svc.CreateLockerItem(ctx, &models.LockerItem{ResidentID: r1.ID, ItemName: "a"}))
	require.NoError(t, svc.CreateLockerItem(ctx, &models.LockerItem{ResidentID: r2.ID, ItemName: "b"}))
	assert.ErrorIs(t, svc.CreateLockerItem(ctx, &models.LockerItem{ResidentID: 9999, ItemName: "c"}), ErrUserNotFound)

	items, total, err := svc.GetAllLockerItems(ctx, actorOf(r1), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "a", items[0].ItemName)

	_, total, err = svc.GetAllLockerItems(ctx, actorOf(admin), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, err = svc.GetLockerItemByID(ctx, actorOf(r1), items[0].ID+1)
	assert.ErrorIs(t, err, ErrLockerItemNotFound)
}

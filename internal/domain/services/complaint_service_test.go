package services

import (
	"context"
	"testing"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaintVisibility(t *testing.T) {
	db := newTestDB(t)
	svc := NewComplaintService(db, testConfig())
	ctx := context.Background()

	admin := createUser(t, db, "admin", models.RoleAdmin, "pw")
	u := createUser(t, db, "u", models.RoleResident, "pw")
	v := createUser(t, db, "v", models.RoleResident, "pw")

	var vComplaint *models.Complaint
	for i, owner := range []*models.User{u, u, v, v, v} {
		c := &models.Complaint{Title: "noise", Content: "loud"}
		require.NoError(t, svc.CreateComplaint(ctx, actorOf(owner), c))
		assert.Equal(t, models.ComplaintStatusOpen, c.ResolveStatus)
		if i == 2 {
			vComplaint = c
		}
	}

	list, total, err := svc.GetAllComplaints(ctx, actorOf(u), 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, c := range list {
		assert.Equal(t, u.ID, c.ResidentID)
		assert.Equal(t, "u", c.ResidentName)
	}

	_, total, err = svc.GetAllComplaints(ctx, actorOf(admin), 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	_, _, err = svc.GetAllComplaints(ctx, access.Anonymous(), 1, 50)
	assert.ErrorIs(t, err, access.ErrUnauthenticated)

	_, err = svc.GetComplaintByID(ctx, actorOf(u), vComplaint.ID)
	assert.ErrorIs(t, err, ErrComplaintNotFound)

	got, err := svc.GetComplaintByID(ctx, actorOf(admin), vComplaint.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ResidentID)
}

func TestComplaintUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewComplaintService(db, testConfig())
	ctx := context.Background()

	admin := createUser(t, db, "admin", models.RoleAdmin, "pw")
	owner := createUser(t, db, "owner", models.RoleResident, "pw")
	other := createUser(t, db, "other", models.RoleResident, "pw")

	c := &models.Complaint{Title: "leak", Content: "water"}
	require.NoError(t, svc.CreateComplaint(ctx, actorOf(owner), c))

	title := "big leak"
	_, err := svc.UpdateComplaint(ctx, actorOf(other), c.ID, ComplaintUpdate{Title: &title})
	assert.ErrorIs(t, err, access.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteComplaint(ctx, actorOf(other), c.ID), access.ErrForbidden)

	updated, err := svc.UpdateComplaint(ctx, actorOf(owner), c.ID, ComplaintUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "big leak", updated.Title)

	closed := models.ComplaintStatusClosed
	_, err = svc.UpdateComplaint(ctx, actorOf(owner), c.ID, ComplaintUpdate{ResolveStatus: &closed})
	assert.ErrorIs(t, err, ErrComplaintStatusForbidden)

	updated, err = svc.UpdateComplaint(ctx, actorOf(admin), c.ID, ComplaintUpdate{ResolveStatus: &closed})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusClosed, updated.ResolveStatus)

	require.NoError(t, svc.DeleteComplaint(ctx, actorOf(owner), c.ID))
	assert.ErrorIs(t, svc.DeleteComplaint(ctx, actorOf(owner), c.ID), ErrComplaintNotFound)
}

package services

import (
	"context"
	"errors"
	"testing"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type apartmentFixture struct {
	db      *gorm.DB
	svc     InterfaceApartmentService
	admin   *models.User
	r1, r2  *models.User
	apt     *models.Apartment
	context context.Context
}

func newApartmentFixture(t *testing.T) *apartmentFixture {
	db := newTestDB(t)
	f := &apartmentFixture{
		db:      db,
		svc:     NewApartmentService(db, testConfig(), zap.NewNop()),
		admin:   createUser(t, db, "admin", models.RoleAdmin, "pw"),
		r1:      createUser(t, db, "r1", models.RoleResident, "pw"),
		r2:      createUser(t, db, "r2", models.RoleResident, "pw"),
		context: context.Background(),
	}

	f.apt = &models.Apartment{Number: "A-101", Floor: 1, ResidentID: &f.r1.ID}
	require.NoError(t, f.svc.CreateApartment(f.context, f.apt))
	return f
}

func (f *apartmentFixture) apartment(t *testing.T) models.Apartment {
	var apt models.Apartment
	require.NoError(t, f.db.First(&apt, f.apt.ID).Error)
	return apt
}

func assertOneApartmentPerResident(t *testing.T, db *gorm.DB) {
	var rows []struct {
		ResidentID uint
		N          int64
	}
	require.NoError(t, db.Model(&models.Apartment{}).
		Select("resident_id, COUNT(*) AS n").
		Where("resident_id IS NOT NULL").
		Group("resident_id").
		Scan(&rows).Error)
	for _, r := range rows {
		assert.Equal(t, int64(1), r.N, "resident %d holds more than one apartment", r.ResidentID)
	}
}

func TestTransferOwnership_MovesResidentAndDeactivatesPrevious(t *testing.T) {
	f := newApartmentFixture(t)
	assertOneApartmentPerResident(t, f.db)

	apt, err := f.svc.TransferOwnership(f.context, actorOf(f.admin), f.apt.ID, f.r2.ID)
	require.NoError(t, err)

	require.NotNil(t, apt.ResidentID)
	assert.Equal(t, f.r2.ID, *apt.ResidentID)
	assert.Equal(t, "r2", apt.ResidentUsername)
	assert.False(t, reloadUser(t, f.db, f.r1.ID).Active)
	assert.True(t, reloadUser(t, f.db, f.r2.ID).Active)
	assertOneApartmentPerResident(t, f.db)
}

func TestTransferOwnership_InvalidTargetLeavesStateUnchanged(t *testing.T) {
	f := newApartmentFixture(t)

	inactive := createUser(t, f.db, "gone", models.RoleResident, "pw")
	require.NoError(t, f.db.Model(inactive).Update("active", false).Error)

	for name, target := range map[string]uint{
		"missing":  9999,
		"admin":    f.admin.ID,
		"inactive": inactive.ID,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.TransferOwnership(f.context, actorOf(f.admin), f.apt.ID, target)
			assert.ErrorIs(t, err, ErrTransferTargetInvalid)

			apt := f.apartment(t)
			require.NotNil(t, apt.ResidentID)
			assert.Equal(t, f.r1.ID, *apt.ResidentID)
			assert.True(t, reloadUser(t, f.db, f.r1.ID).Active)
		})
	}
}

func TestTransferOwnership_MissingApartment(t *testing.T) {
	f := newApartmentFixture(t)

	_, err := f.svc.TransferOwnership(f.context, actorOf(f.admin), 9999, f.r2.ID)
	assert.ErrorIs(t, err, ErrApartmentNotFound)
}

func TestTransferOwnership_TargetHoldsAnotherApartment(t *testing.T) {
	f := newApartmentFixture(t)
	other := &models.Apartment{Number: "B-202", Floor: 2, ResidentID: &f.r2.ID}
	require.NoError(t, f.svc.CreateApartment(f.context, other))

	_, err := f.svc.TransferOwnership(f.context, actorOf(f.admin), f.apt.ID, f.r2.ID)
	assert.ErrorIs(t, err, ErrResidentHasApartment)

	assert.True(t, reloadUser(t, f.db, f.r1.ID).Active)
	assertOneApartmentPerResident(t, f.db)
}

func TestTransferOwnership_SameResidentIsNoop(t *testing.T) {
	f := newApartmentFixture(t)

	apt, err := f.svc.TransferOwnership(f.context, actorOf(f.admin), f.apt.ID, f.r1.ID)
	require.NoError(t, err)
	assert.Equal(t, f.r1.ID, *apt.ResidentID)
	assert.True(t, reloadUser(t, f.db, f.r1.ID).Active)
}

func TestTransferOwnership_EmptyApartment(t *testing.T) {
	f := newApartmentFixture(t)
	empty := &models.Apartment{Number: "C-303", Floor: 3}
	require.NoError(t, f.svc.CreateApartment(f.context, empty))

	apt, err := f.svc.TransferOwnership(f.context, actorOf(f.admin), empty.ID, f.r2.ID)
	require.NoError(t, err)
	assert.Equal(t, f.r2.ID, *apt.ResidentID)
	assert.True(t, reloadUser(t, f.db, f.r1.ID).Active)
}

func TestTransferOwnership_RollsBackWhenReassignmentFails(t *testing.T) {
	f := newApartmentFixture(t)

	injected := errors.New("injected failure")
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:fail_apartments", func(tx *gorm.DB) {
		if tx.Statement.Table == "apartments" {
			_ = tx.AddError(injected)
		}
	}))

	_, err := f.svc.TransferOwnership(f.context, actorOf(f.admin), f.apt.ID, f.r2.ID)
	assert.ErrorIs(t, err, injected)

	// 停用原住户的写入随事务回滚
	assert.True(t, reloadUser(t, f.db, f.r1.ID).Active)
	apt := f.apartment(t)
	assert.Equal(t, f.r1.ID, *apt.ResidentID)
}

func TestTransferOwnership_RequiresAdmin(t *testing.T) {
	f := newApartmentFixture(t)

	_, err := f.svc.TransferOwnership(f.context, actorOf(f.r2), f.apt.ID, f.r2.ID)
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = f.svc.TransferOwnership(f.context, access.Anonymous(), f.apt.ID, f.r2.ID)
	assert.ErrorIs(t, err, access.ErrUnauthenticated)
}

func TestApartmentCRUD(t *testing.T) {
	f := newApartmentFixture(t)

	dup := &models.Apartment{Number: "A-101"}
	assert.ErrorIs(t, f.svc.CreateApartment(f.context, dup), ErrApartmentNumberExist)

	taken := &models.Apartment{Number: "D-404", ResidentID: &f.r1.ID}
	assert.ErrorIs(t, f.svc.CreateApartment(f.context, taken), ErrResidentHasApartment)

	floor := 7
	updated, err := f.svc.UpdateApartment(f.context, f.apt.ID, ApartmentUpdate{Floor: &floor})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Floor)

	inactive := false
	_, err = f.svc.UpdateApartment(f.context, f.apt.ID, ApartmentUpdate{Active: &inactive})
	require.NoError(t, err)
	_, err = f.svc.GetApartmentByID(f.context, f.apt.ID)
	assert.ErrorIs(t, err, ErrApartmentNotFound)

	list, total, err := f.svc.GetAllApartments(f.context, 1, 5)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	require.NoError(t, f.svc.DeleteApartment(f.context, f.apt.ID))
	assert.ErrorIs(t, f.svc.DeleteApartment(f.context, f.apt.ID), ErrApartmentNotFound)
}

func TestCreateApartment_GroundFloor(t *testing.T) {
	f := newApartmentFixture(t)

	ground := &models.Apartment{Number: "G-001", Floor: 0}
	require.NoError(t, f.svc.CreateApartment(f.context, ground))

	var stored models.Apartment
	require.NoError(t, f.db.First(&stored, ground.ID).Error)
	assert.Equal(t, 0, stored.Floor)
}

func TestApartmentNumber_DuplicateRace(t *testing.T) {
	f := newApartmentFixture(t)

	// 唯一性检查通过后，另一个请求抢先占用了同一编号
	insertBeforeNext(t, f.db, "create", "apartments", func(tx *gorm.DB) error {
		return tx.Create(&models.Apartment{Number: "E-505", Floor: 5, Active: true}).Error
	})
	err := f.svc.CreateApartment(f.context, &models.Apartment{Number: "E-505", Floor: 5})
	assert.ErrorIs(t, err, ErrApartmentNumberExist)

	insertBeforeNext(t, f.db, "update", "apartments", func(tx *gorm.DB) error {
		return tx.Create(&models.Apartment{Number: "F-606", Floor: 6, Active: true}).Error
	})
	number := "F-606"
	_, err = f.svc.UpdateApartment(f.context, f.apt.ID, ApartmentUpdate{Number: &number})
	assert.ErrorIs(t, err, ErrApartmentNumberExist)
	assert.Equal(t, "A-101", f.apartment(t).Number)
}

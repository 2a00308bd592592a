package database

import (
	"context"
	"errors"
	"testing"

	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestHealthCheck_Ping(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	pool := &ConnectionPool{DB: db, Driver: "mysql"}

	mock.ExpectPing()
	assert.NoError(t, pool.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, pool.HealthCheck(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnectionPool_SQLiteMigrate(t *testing.T) {
	pool, err := NewConnectionPool(&config.Config{DBDriver: "sqlite", DBPath: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, Migrate(pool.DB, "auto"))
	for _, m := range Models() {
		assert.True(t, pool.DB.Migrator().HasTable(m))
	}

	require.NoError(t, pool.DB.Create(&models.User{Username: "u1", Password: "x", Role: models.RoleResident, Active: true}).Error)
	require.NoError(t, Migrate(pool.DB, "drop"))

	var count int64
	pool.DB.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)

	stats, err := pool.Stats()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", stats["driver"])
	assert.Equal(t, 1, stats["max_open_connections"])
}

func TestWithTransaction_RollsBack(t *testing.T) {
	pool, err := NewConnectionPool(&config.Config{DBDriver: "sqlite", DBPath: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, AutoMigrate(pool.DB))

	err = pool.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&models.User{Username: "u1", Password: "x", Role: models.RoleResident, Active: true}).Error; err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.Error(t, err)

	var count int64
	pool.DB.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestDialector_Unsupported(t *testing.T) {
	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestLockForUpdate(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		DisableAutomaticPing: true,
		DryRun:               true,
	})
	require.NoError(t, err)

	stmt := LockForUpdate(db).First(&models.Apartment{}, 1).Statement
	assert.Contains(t, stmt.SQL.String(), "FOR UPDATE")

	pool, err := NewConnectionPool(&config.Config{DBDriver: "sqlite", DBPath: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	defer pool.Close()

	dry := pool.DB.Session(&gorm.Session{DryRun: true})
	stmt = LockForUpdate(dry).First(&models.Apartment{}, 1).Statement
	assert.NotContains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestGormConfig_TranslatesDuplicateKey(t *testing.T) {
	pool, err := NewConnectionPool(&config.Config{DBDriver: "sqlite", DBPath: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, AutoMigrate(pool.DB))

	err = WithTransaction(context.Background(), pool.DB, func(tx *gorm.DB) error {
		return tx.Create(&models.Apartment{Number: "A-101", Floor: 1, Active: true}).Error
	})
	require.NoError(t, err)

	err = pool.DB.Create(&models.Apartment{Number: "A-101", Floor: 2, Active: true}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

package services

import (
	"testing"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/database"
	"condo-http-service/pkg/utils"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	utils.PasswordCost = bcrypt.MinCost
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig("silent"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecretKey:         "test-secret",
		JWTTTLHours:          1,
		PageSize:             5,
		MaxPageSize:          50,
		SurveyResponsePolicy: ResponsePolicyMultiple,
	}
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.Role, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: username, Password: string(hash), Role: role, Active: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func actorOf(u *models.User) access.Actor {
	return access.NewActor(u.ID, u.Role)
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()

	var u models.User
	require.NoError(t, db.First(&u, id).Error)
	return u
}

// insertBeforeNext runs insert once, right before the next create or update on
// table reaches the database, i.e. after the service's own uniqueness check.
func insertBeforeNext(t *testing.T, db *gorm.DB, op, table string, insert func(tx *gorm.DB) error) {
	t.Helper()

	fired := false
	fn := func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if err := insert(tx.Session(&gorm.Session{NewDB: true})); err != nil {
			tx.AddError(err)
		}
	}

	var err error
	switch op {
	case "create":
		err = db.Callback().Create().Before("gorm:create").Register("test:insert_before_create", fn)
	case "update":
		err = db.Callback().Update().Before("gorm:update").Register("test:insert_before_update", fn)
	default:
		t.Fatalf("unknown op %q", op)
	}
	require.NoError(t, err)
}

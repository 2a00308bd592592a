package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/code"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/database"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContainer(t *testing.T) *container.ServiceContainer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig("silent"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &config.Config{JWTSecretKey: "k", JWTTTLHours: 1, PageSize: 5, MaxPageSize: 50}
	return container.NewServiceContainer(db, cfg, nil, nil, nil)
}

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return ctx, w
}

func TestPageParams(t *testing.T) {
	c := newTestContainer(t)

	tests := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"", 1, 5},
		{"?page=3&page_size=10", 3, 10},
		{"?page=0&page_size=-1", 1, 5},
		{"?page=abc&page_size=1000", 1, 50},
	}
	for _, tt := range tests {
		ctx, _ := newTestContext("/x" + tt.query)
		page, size := pageParams(ctx, c)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.pageSize, size, tt.query)
	}
}

func TestParseID(t *testing.T) {
	ctx, w := newTestContext("/x/abc")
	ctx.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, ok := parseID(ctx, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ctx, _ = newTestContext("/x/7")
	ctx.Params = gin.Params{{Key: "id", Value: "7"}}
	id, ok := parseID(ctx, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)
}

func TestHandleError(t *testing.T) {
	c := newTestContainer(t)

	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"domain", services.ErrApartmentNotFound, http.StatusNotFound, code.ErrApartmentNotFound},
		{"conflict", services.ErrSurveyAlreadyAnswered, http.StatusConflict, code.ErrSurveyAlreadyAnswered},
		{"forbidden", access.ErrForbidden, http.StatusForbidden, code.ErrForbidden},
		{"unauthenticated", access.ErrUnauthenticated, http.StatusUnauthorized, code.ErrUnauthenticated},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, code.ErrDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, w := newTestContext("/x")
			handleError(ctx, c, "test", tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"code":`+strconv.Itoa(tt.code))
		})
	}
}

func TestAuthorize(t *testing.T) {
	rules := access.Rules{
		access.ActionList:   {access.Authenticated},
		access.ActionCreate: {access.Authenticated, access.AdminOrReadOnly},
	}

	ctx, w := newTestContext("/x")
	_, ok := authorize(ctx, rules, access.ActionList)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ctx, _ = newTestContext("/x")
	ctx.Set("actor", access.NewActor(2, models.RoleResident))
	actor, ok := authorize(ctx, rules, access.ActionList)
	assert.True(t, ok)
	assert.Equal(t, uint(2), actor.UserID)

	ctx, w = newTestContext("/x")
	ctx.Set("actor", access.NewActor(2, models.RoleResident))
	_, ok = authorize(ctx, rules, access.ActionCreate)
	assert.False(t, ok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ctx, _ = newTestContext("/x")
	ctx.Set("actor", access.NewActor(1, models.RoleAdmin))
	_, ok = authorize(ctx, rules, access.ActionCreate)
	assert.True(t, ok)
}

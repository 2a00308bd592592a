package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/error/code"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/database"
	"condo-http-service/internal/infrastructure/storage"
	"condo-http-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type pageEnvelope struct {
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int64             `json:"total_pages"`
	Data       []json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	users  map[string]*models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		DBDriver:             "sqlite",
		DBPath:               ":memory:",
		LogLevel:             "silent",
		JWTSecretKey:         "routes-test-secret",
		JWTTTLHours:          1,
		PageSize:             5,
		MaxPageSize:          50,
		SurveyResponsePolicy: "multiple",
		RateLimitRPS:         1000,
		RateLimitBurst:       1000,
		CORSAllowOrigins:     []string{"http://localhost:3000"},
		MediaRoot:            t.TempDir(),
		MediaURLPrefix:       "/media",
	}

	pool, err := database.NewConnectionPool(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	require.NoError(t, database.Migrate(pool.GetDB(), "auto"))

	store := storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURLPrefix)
	c := container.NewServiceContainer(pool.GetDB(), cfg, nil, store, zap.NewNop())

	stop := make(chan struct{})
	t.Cleanup(func() { close(stop) })

	s := &testServer{
		t:      t,
		router: SetupRouter(c, pool, stop),
		db:     pool.GetDB(),
		users:  map[string]*models.User{},
	}
	s.createUser("admin", models.RoleAdmin)
	s.createUser("r1", models.RoleResident)
	s.createUser("r2", models.RoleResident)
	return s
}

func (s *testServer) createUser(username string, role models.Role) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(username+"-pw"), bcrypt.MinCost)
	require.NoError(s.t, err)
	u := &models.User{Username: username, Password: string(hash), Role: role, Active: true}
	require.NoError(s.t, s.db.Create(u).Error)
	s.users[username] = u
	return u
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(username string) string {
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": username + "-pw"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Token string `json:"token"`
	}
	decodeData(s.t, w, &result)
	require.NotEmpty(s.t, result.Token)
	return result.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
}

func TestPingAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]interface{}
	decodeData(t, w, &status)
	assert.Equal(t, "healthy", status["status"])
	assert.Equal(t, "disabled", status["redis"])

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/no-such-resource", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.Equal(t, code.ErrNotFound, env.Code)
	assert.Equal(t, "route not found", env.Message)
}

func TestLoginAndAuthGates(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "r1", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, code.ErrUserPasswordIncorrect, decode(t, w).Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "r1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 匿名
	w = s.do(http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, code.ErrUnauthenticated, decode(t, w).Code)

	w = s.do(http.MethodGet, "/api/users", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, code.ErrTokenInvalid, decode(t, w).Code)

	resident := s.login("r1")
	w = s.do(http.MethodGet, "/api/users/me", resident, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decodeData(t, w, &me)
	assert.Equal(t, "r1", me.Username)

	// 住户只读
	w = s.do(http.MethodPost, "/api/apartments", resident, gin.H{"number": "A-1", "floor": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodGet, "/api/apartments", resident, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 其他住户的缴费总额
	w = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d/payment-total", s.users["r2"].ID), resident, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTransferOwnershipFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin")
	r1Token := s.login("r1")

	w := s.do(http.MethodPost, "/api/apartments", admin, gin.H{"number": "A-101", "floor": 1, "resident": s.users["r1"].ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var apartment models.Apartment
	decodeData(t, w, &apartment)
	assert.Equal(t, "r1", apartment.ResidentUsername)

	path := fmt.Sprintf("/api/apartments/%d/transfer-ownership", apartment.ID)

	w = s.do(http.MethodPost, path, r1Token, gin.H{"new_resident_id": s.users["r2"].ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, path, admin, gin.H{"new_resident_id": s.users["admin"].ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, code.ErrTransferTargetInvalid, decode(t, w).Code)

	w = s.do(http.MethodPost, path, admin, gin.H{"new_resident_id": s.users["r2"].ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &apartment)
	require.NotNil(t, apartment.ResidentID)
	assert.Equal(t, s.users["r2"].ID, *apartment.ResidentID)

	// 原住户被停用，旧令牌和登录都失效
	w = s.do(http.MethodGet, "/api/users/me", r1Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "r1", "password": "r1-pw"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, code.ErrUserInactive, decode(t, w).Code)
}

func TestCreateApartmentFloor(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin")

	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"omitted defaults to 1", gin.H{"number": "A-101"}, 1},
		{"explicit ground floor", gin.H{"number": "G-001", "floor": 0}, 0},
		{"explicit floor", gin.H{"number": "C-303", "floor": 3}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/apartments", admin, tc.body)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			var apartment models.Apartment
			decodeData(t, w, &apartment)
			assert.Equal(t, tc.want, apartment.Floor)
		})
	}

	w := s.do(http.MethodPost, "/api/apartments", admin, gin.H{"number": "N-1", "floor": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLockerItemReceive(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin")
	r1Token := s.login("r1")
	r2Token := s.login("r2")

	w := s.do(http.MethodPost, "/api/locker-items", r1Token, gin.H{"resident": s.users["r1"].ID, "item_name": "Parcel"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/locker-items", admin, gin.H{"resident": s.users["r1"].ID, "item_name": "Parcel"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item models.LockerItem
	decodeData(t, w, &item)
	assert.Equal(t, models.LockerStatusPending, item.Status)

	path := fmt.Sprintf("/api/locker-items/%d/receive", item.ID)
	w = s.do(http.MethodPost, path, r2Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, path, r1Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &item)
	assert.Equal(t, models.LockerStatusReceived, item.Status)

	// 重复领取不报错
	w = s.do(http.MethodPost, path, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/locker-items/%d", item.ID), admin, gin.H{"status": "pending"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSurveyFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin")
	r1Token := s.login("r1")

	body := gin.H{
		"title": "Satisfaction",
		"questions": []gin.H{
			{"question_text": "Rate us", "choices": []gin.H{{"choice_text": "Good"}, {"choice_text": "Bad"}}},
			{"question_text": "Comments"},
		},
	}
	w := s.do(http.MethodPost, "/api/surveys", r1Token, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/surveys", admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var survey models.Survey
	decodeData(t, w, &survey)
	require.Len(t, survey.Questions, 2)
	require.Len(t, survey.Questions[0].Choices, 2)
	q1, q2 := survey.Questions[0], survey.Questions[1]

	// choice 与 text 同时提供
	w = s.do(http.MethodPost, "/api/survey-responses", r1Token, gin.H{
		"survey":  survey.ID,
		"answers": []gin.H{{"question": q1.ID, "choice": q1.Choices[0].ID, "answer_text": "both"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, code.ErrSurveyAnswerInvalid, decode(t, w).Code)

	w = s.do(http.MethodPost, "/api/survey-responses", r1Token, gin.H{"survey": survey.ID, "answers": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/survey-responses", r1Token, gin.H{
		"survey": survey.ID,
		"answers": []gin.H{
			{"question": q1.ID, "choice": q1.Choices[0].ID},
			{"question": q2.ID, "answer_text": "Fine"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.SurveyResponse
	decodeData(t, w, &created)
	require.Len(t, created.Answers, 2)
	require.NotNil(t, created.Answers[1].AnswerText)
	assert.Equal(t, "Fine", *created.Answers[1].AnswerText)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/surveys/%d/results", survey.ID), r1Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var results struct {
		TotalResponses int64 `json:"total_responses"`
		Questions      []struct {
			Choices []struct {
				ChoiceText string `json:"choice_text"`
				Count      int64  `json:"count"`
			} `json:"choices"`
			TextAnswers int64 `json:"text_answers"`
		} `json:"questions"`
	}
	decodeData(t, w, &results)
	assert.Equal(t, int64(1), results.TotalResponses)
	require.Len(t, results.Questions, 2)
	assert.Equal(t, int64(1), results.Questions[0].Choices[0].Count)
	assert.Equal(t, int64(0), results.Questions[0].Choices[1].Count)
	assert.Equal(t, int64(1), results.Questions[1].TextAnswers)

	// 问卷可匿名读取
	w = s.do(http.MethodGet, fmt.Sprintf("/api/surveys/%d", survey.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, fmt.Sprintf("/api/surveys/%d", survey.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/surveys/999/results", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComplaintPagination(t *testing.T) {
	s := newTestServer(t)
	r1Token := s.login("r1")
	r2Token := s.login("r2")
	admin := s.login("admin")

	for i := 0; i < 7; i++ {
		w := s.do(http.MethodPost, "/api/complaints", r1Token, gin.H{"title": fmt.Sprintf("c%d", i), "content": "noise"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := s.do(http.MethodPost, "/api/complaints", r2Token, gin.H{"title": "other", "content": "noise"})
	require.Equal(t, http.StatusCreated, w.Code)

	var page pageEnvelope
	w = s.do(http.MethodGet, "/api/complaints", r1Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &page)
	assert.Equal(t, int64(7), page.Total)
	assert.Equal(t, 5, page.PageSize)
	assert.Len(t, page.Data, 5)
	assert.Equal(t, int64(2), page.TotalPages)

	w = s.do(http.MethodGet, "/api/complaints?page=2", r1Token, nil)
	decodeData(t, w, &page)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Data, 2)

	w = s.do(http.MethodGet, "/api/complaints?page_size=500", admin, nil)
	decodeData(t, w, &page)
	assert.Equal(t, int64(8), page.Total)
	assert.Equal(t, 50, page.PageSize)
	assert.Len(t, page.Data, 8)
}

func TestInvoiceExport(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin")
	r1Token := s.login("r1")

	w := s.do(http.MethodPost, "/api/invoices", r1Token, gin.H{"month_year": "13/2024", "amount": 10, "pay_method": "transfer"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/invoices", r1Token, gin.H{"month_year": "01/2024", "amount": 10, "pay_method": "transfer"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/invoices/export", r1Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/invoices/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoices_")
	assert.NotZero(t, w.Body.Len())
}

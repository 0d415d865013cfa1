package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlexanderMakarov/tgjournals/internal/bot"
	"github.com/AlexanderMakarov/tgjournals/internal/i18n"
	"github.com/AlexanderMakarov/tgjournals/internal/lock"
	"github.com/AlexanderMakarov/tgjournals/internal/metrics"
	"github.com/AlexanderMakarov/tgjournals/internal/middleware"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"github.com/AlexanderMakarov/tgjournals/internal/service"
	"github.com/AlexanderMakarov/tgjournals/internal/telegram"
	"github.com/AlexanderMakarov/tgjournals/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	adminPassword = "letmein"
	webhookSecret = "hook-secret"
	adminID       = int64(100)
)

type APITestSuite struct {
	suite.Suite
	db       *gorm.DB
	services *service.Services
	metrics  *metrics.Metrics
	router   *Router
}

func (suite *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.db = repository.SetupTestDB()
	hash, err := utils.HashPassword(adminPassword)
	suite.Require().NoError(err)

	cfg := service.DefaultConfig()
	cfg.AdminIDs = []int64{adminID}
	cfg.PasswordHash = hash
	suite.services = service.NewServices(suite.db, cfg, zap.NewNop())
	suite.metrics = metrics.New()

	b := bot.New(suite.services, lock.NewKeyedMutex(), i18n.MustNew("en"), zap.NewNop(), bot.Options{Metrics: suite.metrics})
	dispatcher := telegram.NewDispatcher(b, nil, suite.metrics, zap.NewNop())

	suite.router = NewRouter(RouterConfig{
		WebhookPath:   "/webhook",
		SecretToken:   webhookSecret,
		EnableAdmin:   true,
		EnableMetrics: true,
	}, suite.services, dispatcher, suite.metrics, zap.NewNop())
}

func (suite *APITestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *APITestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	suite.router.GetEngine().ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) postUpdate(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SecretTokenHeader, webhookSecret)
	return suite.do(req)
}

func (suite *APITestSuite) token() string {
	body, _ := json.Marshal(TokenRequest{Password: adminPassword})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := suite.do(req)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp service.TokenResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken
}

func (suite *APITestSuite) authedGet(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+suite.token())
	return suite.do(req)
}

func (suite *APITestSuite) TestWebhookAnswersInline() {
	w := suite.postUpdate(`{"update_id":1,"message":{"message_id":5,"from":{"id":100,"is_bot":false,"first_name":"Coach","username":"coach"},"chat":{"id":100,"type":"private"},"text":"/start"}}`)
	suite.Equal(http.StatusOK, w.Code)

	var method telegram.MethodResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &method))
	suite.Equal(telegram.MethodSendMessage, method.Method)
	suite.Equal(int64(100), method.ChatID)
	suite.Equal(telegram.ParseModeHTML, method.ParseMode)
	suite.Contains(method.Text, "Welcome to Journals Bot")

	user, err := suite.services.Users.GetByTelegramID(context.Background(), adminID)
	suite.Require().NoError(err)
	suite.Equal(models.RoleAdmin, user.Role)
}

func (suite *APITestSuite) TestWebhookIgnoredUpdate() {
	w := suite.postUpdate(`{"update_id":2,"edited_message":{"message_id":1}}`)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func (suite *APITestSuite) TestWebhookRejectsBadJSON() {
	w := suite.postUpdate(`{not json`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestWebhookRequiresSecret() {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"update_id":3}`))
	w := suite.do(req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestHealthUp() {
	repository.SeedUser(suite.T(), suite.db, 7, "p", models.RolePlayer)

	w := suite.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	suite.Equal(http.StatusOK, w.Code)

	var body map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("UP", body["status"])
	suite.Equal("tgjournals", body["service"])
	suite.Equal(float64(1), body["users"])
	suite.Equal(float64(0), body["sessions"])
	suite.Contains(body, "lastUpdated")
	suite.Contains(body, "timestamp")
}

func (suite *APITestSuite) TestHealthDown() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	suite.Require().NoError(sqlDB.Close())

	w := suite.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Contains(w.Body.String(), `"status":"DOWN"`)
}

func (suite *APITestSuite) TestMetricsEndpoint() {
	suite.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	w := suite.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "tgjournals_http_requests_total")
}

func (suite *APITestSuite) TestTokenWrongPassword() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	suite.Equal(http.StatusUnauthorized, suite.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	suite.Equal(http.StatusBadRequest, suite.do(req).Code)
}

func (suite *APITestSuite) TestAdminRoutesRequireToken() {
	for _, path := range []string{"/api/v1/sessions/active", "/api/v1/participants", "/api/v1/users/1/journals"} {
		w := suite.do(httptest.NewRequest(http.MethodGet, path, nil))
		suite.Equal(http.StatusUnauthorized, w.Code, path)
	}
}

func (suite *APITestSuite) TestActiveSession() {
	w := suite.authedGet("/api/v1/sessions/active")
	suite.Equal(http.StatusNotFound, w.Code)

	repository.SeedSession(suite.T(), suite.db, "Morning", []string{"Goal?"}, []string{"Result?"})

	w = suite.authedGet("/api/v1/sessions/active")
	suite.Require().Equal(http.StatusOK, w.Code)
	var resp ActiveSessionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("Morning", resp.Session.Name)
	suite.Require().Len(resp.Questions, 2)
	suite.Equal(models.QuestionBefore, resp.Questions[0].Type)
	suite.Equal("Result?", resp.Questions[1].Text)
}

func (suite *APITestSuite) TestParticipantsAndJournals() {
	ctx := context.Background()
	session, questions := repository.SeedSession(suite.T(), suite.db, "Morning", []string{"Goal?"}, nil)
	player := repository.SeedUser(suite.T(), suite.db, 7, "player", models.RolePlayer)
	repository.SeedUser(suite.T(), suite.db, 8, "idle", models.RolePlayer)
	_, err := suite.services.Journals.Record(ctx, player.ID, session.ID, questions[0].ID, "Win")
	suite.Require().NoError(err)

	w := suite.authedGet("/api/v1/participants?page=1&page_size=10")
	suite.Require().Equal(http.StatusOK, w.Code)
	var page ParticipantsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	suite.Equal(int64(1), page.Total)
	suite.Require().Len(page.Items, 1)
	suite.Equal("player", page.Items[0].User.Username)
	suite.Equal(int64(1), page.Items[0].SessionCount)

	w = suite.authedGet("/api/v1/users/7/journals?sessions=5")
	suite.Require().Equal(http.StatusOK, w.Code)
	var journals JournalsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &journals))
	suite.Equal(int64(7), journals.User.TelegramID)
	suite.Require().Len(journals.Sessions, 1)
	suite.Equal("Morning", journals.Sessions[0].Session.Name)
	suite.Require().Len(journals.Sessions[0].Entries, 1)
	suite.Equal("Win", journals.Sessions[0].Entries[0].Answer)

	w = suite.authedGet("/api/v1/users/8/journals")
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"sessions":[]`)
}

func (suite *APITestSuite) TestAdminBadParams() {
	suite.Equal(http.StatusBadRequest, suite.authedGet("/api/v1/participants?page=0").Code)
	suite.Equal(http.StatusBadRequest, suite.authedGet("/api/v1/participants?page_size=1000").Code)
	suite.Equal(http.StatusBadRequest, suite.authedGet("/api/v1/users/abc/journals").Code)
	suite.Equal(http.StatusNotFound, suite.authedGet("/api/v1/users/999/journals").Code)
}

func (suite *APITestSuite) TestOpenAPIDocument() {
	w := suite.do(httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Header().Get("Content-Type"), "yaml")
	suite.Contains(w.Body.String(), "/api/v1/participants")
}

func (suite *APITestSuite) TestNoRoute() {
	w := suite.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	suite.Equal(http.StatusNotFound, w.Code)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func TestRouterWithoutOptionalRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := repository.NewTestDB(t)
	services := service.NewServices(db, nil, zap.NewNop())
	router := NewRouter(RouterConfig{}, services, nil, nil, zap.NewNop())

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPost, "/webhook"},
		{http.MethodGet, "/metrics"},
		{http.MethodGet, "/api/v1/participants"},
		{http.MethodGet, "/openapi.yaml"},
	} {
		w := httptest.NewRecorder()
		router.GetEngine().ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s: got %d, want 404", tc.method, tc.path, w.Code)
		}
	}
}

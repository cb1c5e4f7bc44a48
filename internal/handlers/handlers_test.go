package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/threadfit/backend/internal/auth"
	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/models"
	"github.com/threadfit/backend/internal/synthetic"
	"github.com/threadfit/backend/internal/testutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:  "test-secret",
	Lifetime:   time.Hour,
	CookieName: "threadfit_cookie",
	Audience:   "threadfit:auth",
}

// HandlersTestSuite runs the HTTP surface against an in-memory database.
type HandlersTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	auth   *auth.Service
	token  string
	user   *models.User
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.db = testutil.NewTestDB(s.T())
	s.auth = auth.NewService(s.db, testAuthConfig).WithHashCost(bcrypt.MinCost)

	seed := int64(7)
	pipeline := synthetic.NewPipeline(
		synthetic.NewGormGateway(s.db, bcrypt.MinCost),
		synthetic.NewFaker(&seed),
		synthetic.Options{MinDelay: time.Millisecond},
	)

	s.router = gin.New()
	RegisterRoutes(s.router, RouteDeps{
		Auth:             s.auth,
		AuthHandlers:     NewAuthHandlers(s.auth, false),
		Handlers:         NewHandlers(s.db, pipeline, 1000),
		DisableRateLimit: true,
	})

	user, err := s.auth.Register(s.T().Context(), "owner@example.com", "password123")
	s.Require().NoError(err)
	session, err := s.auth.IssueToken(user)
	s.Require().NoError(err)
	s.user = user
	s.token = session.Token
}

func (s *HandlersTestSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: testAuthConfig.CookieName, Value: token})
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *HandlersTestSuite) TestRegisterLoginMe() {
	w := s.do("POST", "/auth/register", gin.H{"email": "Alice@Example.com", "password": "hunter2hunter2"}, "")
	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("alice@example.com", s.decode(w)["email"])

	w = s.do("POST", "/auth/register", gin.H{"email": "alice@example.com", "password": "hunter2hunter2"}, "")
	s.Equal(http.StatusConflict, w.Code)

	w = s.do("POST", "/auth/login", gin.H{"email": "alice@example.com", "password": "wrong-password"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do("POST", "/auth/login", gin.H{"email": "alice@example.com", "password": "hunter2hunter2"}, "")
	s.Require().Equal(http.StatusNoContent, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == testAuthConfig.CookieName {
			cookie = c
		}
	}
	s.Require().NotNil(cookie, "login should set the session cookie")
	s.True(cookie.HttpOnly)

	w = s.do("GET", "/auth/me", nil, cookie.Value)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("alice@example.com", s.decode(w)["email"])
	s.NotContains(w.Body.String(), "password")
}

func (s *HandlersTestSuite) TestRegisterRejectsShortPassword() {
	w := s.do("POST", "/auth/register", gin.H{"email": "bob@example.com", "password": "short"}, "")
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersTestSuite) TestLogoutClearsCookie() {
	w := s.do("POST", "/auth/logout", nil, s.token)
	s.Equal(http.StatusNoContent, w.Code)

	cookies := w.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal(testAuthConfig.CookieName, cookies[0].Name)
	s.Less(cookies[0].MaxAge, 0)
}

func (s *HandlersTestSuite) TestProtectedRoutesNeedAuth() {
	for _, path := range []string{"/auth/me", "/data/batches"} {
		w := s.do("GET", path, nil, "")
		s.Equal(http.StatusUnauthorized, w.Code, path)
	}
	w := s.do("POST", "/synthetic/users", gin.H{"num_users": 1}, "not-a-token")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestGenerateUsersPullMode() {
	w := s.do("POST", "/synthetic/users", gin.H{"num_users": 3, "speed_multiplier": 1000}, s.token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	body := s.decode(w)
	s.Equal("3 users generated", body["msg"])
	batchID, _ := body["batch_id"].(string)
	s.NotEmpty(batchID)

	data, ok := body["data"].([]any)
	s.Require().True(ok)
	s.Len(data, 3)
	for _, item := range data {
		entry := item.(map[string]any)
		s.Equal(batchID, entry["batch_id"])
		s.NotEmpty(entry["password"])
	}

	var batch models.Batch
	s.Require().NoError(s.db.First(&batch, "id = ?", batchID).Error)
	s.Equal(s.user.ID, batch.UserID)
}

func (s *HandlersTestSuite) TestGeneratePostsThenComments() {
	w := s.do("POST", "/synthetic/posts", gin.H{"num_posts": 2, "speed_multiplier": 1000}, s.token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	posts := s.decode(w)["data"].([]any)
	s.Require().Len(posts, 2)
	post := posts[0].(map[string]any)
	s.Equal(s.user.ID, post["user_id"], "posts default to the caller")

	w = s.do("POST", "/synthetic/comments", gin.H{
		"num_comments":     2,
		"post_id":          post["id"],
		"speed_multiplier": 1000,
	}, s.token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	comments := s.decode(w)["data"].([]any)
	s.Len(comments, 2)
	s.Equal(post["id"], comments[0].(map[string]any)["post_id"])
}

func (s *HandlersTestSuite) TestGenerateErrors() {
	w := s.do("POST", "/synthetic/comments", gin.H{"num_comments": 1}, s.token)
	s.Equal(http.StatusUnprocessableEntity, w.Code, "post_id is required")

	w = s.do("POST", "/synthetic/posts", gin.H{"num_posts": 1, "user_id": "missing"}, s.token)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("user not found", s.decode(w)["message"])

	w = s.do("POST", "/synthetic/users", gin.H{"num_users": -1}, s.token)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do("POST", "/synthetic/users", gin.H{"num_users": maxPullAmount + 1}, s.token)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersTestSuite) TestBrowseBatch() {
	w := s.do("POST", "/synthetic/users", gin.H{"num_users": 2, "speed_multiplier": 1000}, s.token)
	s.Require().Equal(http.StatusOK, w.Code)
	batchID := s.decode(w)["batch_id"].(string)

	w = s.do("GET", "/data/users?batch_id="+batchID, nil, s.token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := s.decode(w)
	s.Equal(batchID, body["batch_id"])
	users := body["data"].([]any)
	s.Len(users, 2)
	s.NotContains(w.Body.String(), "password")

	w = s.do("GET", "/data/posts?batch_id="+batchID, nil, s.token)
	s.Equal(http.StatusOK, w.Code)
	s.Empty(s.decode(w)["data"])

	w = s.do("GET", "/data/batches", nil, s.token)
	s.Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["batches"], 1)
}

func (s *HandlersTestSuite) TestBrowseBatchOwnership() {
	w := s.do("POST", "/synthetic/users", gin.H{"num_users": 1, "speed_multiplier": 1000}, s.token)
	s.Require().Equal(http.StatusOK, w.Code)
	batchID := s.decode(w)["batch_id"].(string)

	other, err := s.auth.Register(s.T().Context(), "mallory@example.com", "password123")
	s.Require().NoError(err)
	session, err := s.auth.IssueToken(other)
	s.Require().NoError(err)

	w = s.do("GET", "/data/users?batch_id="+batchID, nil, session.Token)
	s.Equal(http.StatusNotFound, w.Code, "foreign batches look missing")

	w = s.do("GET", "/data/users", nil, s.token)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do("GET", "/data/users?batch_id=not-a-uuid", nil, s.token)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersTestSuite) TestHealth() {
	w := s.do("GET", "/health", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("healthy", s.decode(w)["status"])
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

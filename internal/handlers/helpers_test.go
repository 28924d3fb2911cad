package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/internal/utils"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-handler-testing")
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	auth   *AuthHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "handlers.db"),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	require.NoError(t, models.Seed(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.DefaultConfig()
	queue := services.NewSyncQueue()
	t.Cleanup(func() { queue.Close() })

	authHandler := NewAuthHandler(db, cfg)
	projectHandler := NewProjectHandler(db, queue)
	taskHandler := NewTaskHandler(db)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/health", NewHealthHandler(db, queue).CheckHealth)
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	protected := api.Group("", middleware.AuthRequired(authHandler.Service()))
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/user", authHandler.GetCurrentUser)
	protected.GET("/projects", projectHandler.List)
	protected.POST("/projects", projectHandler.Create)
	protected.GET("/projects/:id", projectHandler.Get)
	protected.PUT("/projects/:id", projectHandler.Update)
	protected.DELETE("/projects/:id", projectHandler.Delete)
	protected.PATCH("/projects/:id/restore", projectHandler.Restore)
	protected.GET("/projects/:id/tasks", taskHandler.List)
	protected.POST("/projects/:id/tasks", taskHandler.Create)
	protected.GET("/projects/:id/tasks/:task_id", taskHandler.Get)
	protected.PUT("/projects/:id/tasks/:task_id", taskHandler.Update)
	protected.DELETE("/projects/:id/tasks/:task_id", taskHandler.Delete)

	admin := api.Group("/admin", middleware.AuthRequired(authHandler.Service()), middleware.AdminRequired())
	systemLogHandler := NewSystemLogHandler(db)
	admin.GET("/system-logs", systemLogHandler.List)
	admin.GET("/system-logs/modules", systemLogHandler.GetModules)
	systemConfigHandler := NewSystemConfigHandler(db)
	admin.GET("/features", systemConfigHandler.GetFeatures)
	admin.PUT("/features", systemConfigHandler.UpdateFeatures)
	admin.GET("/metrics", NewMetricsHandler(db, queue).Metrics)

	return &testServer{t: t, db: db, router: r, auth: authHandler}
}

// envelope mirrors response.Response and response.PaginatedResponse.
type envelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
	Meta    *struct {
		Total       int64 `json:"total"`
		PerPage     int   `json:"per_page"`
		CurrentPage int   `json:"current_page"`
		LastPage    int   `json:"last_page"`
	} `json:"meta"`
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// register signs up a user and returns its bearer token.
func (s *testServer) register(email string) string {
	s.t.Helper()
	w, env := s.do("POST", "/api/register", "", gin.H{
		"name":                  "User " + email,
		"email":                 email,
		"password":              "secret-pass",
		"password_confirmation": "secret-pass",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var tok services.TokenResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &tok))
	return tok.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (s *testServer) createProject(token, title string) models.Project {
	s.t.Helper()
	w, env := s.do("POST", "/api/projects", token, gin.H{"title": title})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Project](s.t, env.Data)
}

func (s *testServer) createTask(token string, projectID uint, body gin.H) models.Task {
	s.t.Helper()
	w, env := s.do("POST", projectPath(projectID)+"/tasks", token, body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Task](s.t, env.Data)
}

func projectPath(id uint) string {
	return fmt.Sprintf("/api/projects/%d", id)
}

func taskURL(projectID, taskID uint) string {
	return fmt.Sprintf("/api/projects/%d/tasks/%d", projectID, taskID)
}

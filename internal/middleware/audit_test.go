package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/services"
)

func TestParseRouteInfo(t *testing.T) {
	tests := []struct {
		path, method   string
		module, action string
	}{
		{"/api/projects", "POST", "Projects", "Create"},
		{"/api/projects/:id", "PUT", "Projects", "Update"},
		{"/api/projects/:id", "PATCH", "Projects", "Update"},
		{"/api/projects/:id", "DELETE", "Projects", "Delete"},
		{"/api/projects/:id/restore", "PATCH", "Projects", "Restore"},
		{"/api/projects/:id/tasks", "POST", "Tasks", "Create"},
		{"/api/projects/:id/tasks/:task", "DELETE", "Tasks", "Delete"},
		{"/api/logout", "POST", "Logout", "Create"},
		{"", "GET", "Unknown", "GET"},
	}
	for _, tt := range tests {
		module, action := parseRouteInfo(tt.path, tt.method)
		if module != tt.module || action != tt.action {
			t.Errorf("parseRouteInfo(%q, %q) = %q/%q, expected %q/%q", tt.path, tt.method, module, action, tt.module, tt.action)
		}
	}
}

func TestMaskSensitiveFields(t *testing.T) {
	body := `{"email":"a@b.c","password": "hunter22","title":"x"}`
	masked := maskSensitiveFields(body)
	if strings.Contains(masked, "hunter22") {
		t.Errorf("password should be masked, got %s", masked)
	}
	if !strings.Contains(masked, `"title":"x"`) {
		t.Errorf("other fields should be kept, got %s", masked)
	}
}

func TestFormatAuditMessage(t *testing.T) {
	if got := formatAuditMessage("alice@example.com", "DELETE", "/api/projects/1", 200); got != "[Audit] alice@example.com DELETE /api/projects/1 -> OK" {
		t.Errorf("unexpected message %q", got)
	}
	if got := formatAuditMessage("", "POST", "/api/projects", 422); got != "[Audit] anonymous POST /api/projects -> Failed" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestAuditLog_RecordsWrites(t *testing.T) {
	db, err := models.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "audit.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	services.InitSystemLogger(db)
	defer services.InitSystemLogger(nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserID, uint(5))
		c.Set(ContextEmail, "alice@example.com")
		c.Next()
	}, AuditLog())
	router.GET("/api/projects", func(c *gin.Context) { c.Status(200) })
	router.POST("/api/projects", func(c *gin.Context) { c.Status(201) })

	for _, method := range []string{"GET", "POST"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(method, "/api/projects", strings.NewReader(`{"title":"Apollo"}`))
		router.ServeHTTP(w, req)
	}

	var logs []models.SystemLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected only the write to be audited, got %d entries", len(logs))
	}
	entry := logs[0]
	if entry.Module != "Projects" || entry.Action != "Create" {
		t.Errorf("unexpected module/action %q/%q", entry.Module, entry.Action)
	}
	if entry.UserID == nil || *entry.UserID != 5 {
		t.Errorf("unexpected user id %v", entry.UserID)
	}
	if !strings.Contains(entry.Extra, "Apollo") {
		t.Errorf("request body should be captured, got %s", entry.Extra)
	}
}

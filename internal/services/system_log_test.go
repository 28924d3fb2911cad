package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/backend/internal/models"
)

func TestSystemLog_WriteAndList(t *testing.T) {
	db := setupTestDB(t)
	InitSystemLogger(db)
	t.Cleanup(func() { InitSystemLogger(nil) })

	uid := uint(3)
	LogInfo("Projects", "Create", "created project", &uid, "10.0.0.1", "curl", map[string]int{"id": 1})
	LogWarning("Auth", "Login", "bad password", nil, "10.0.0.2", "curl", nil)
	LogError("Scheduler", "Purge", "purge failed", nil, "", "", nil)

	svc := NewSystemLogService(db)
	all, err := svc.List(&SystemLogListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	assert.Equal(t, 20, all.PerPage)

	warnings, err := svc.List(&SystemLogListRequest{Level: "warning"})
	require.NoError(t, err)
	require.Len(t, warnings.Items, 1)
	assert.Equal(t, "Auth", warnings.Items[0].Module)

	searched, err := svc.List(&SystemLogListRequest{Search: "project"})
	require.NoError(t, err)
	require.Len(t, searched.Items, 1)
	assert.Equal(t, `{"id":1}`, searched.Items[0].Extra)
	require.NotNil(t, searched.Items[0].UserID)
	assert.Equal(t, uid, *searched.Items[0].UserID)

	modules, err := svc.GetModules()
	require.NoError(t, err)
	assert.Equal(t, []string{"Auth", "Projects", "Scheduler"}, modules)
}

func TestSystemLog_ListPageBeyondEnd(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.SystemLog{Level: models.LogLevelInfo, Module: "Projects"}).Error)

	resp, err := NewSystemLogService(db).List(&SystemLogListRequest{Page: math.MaxInt, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	assert.Empty(t, resp.Items)
}

func TestSystemLog_WithoutDatabaseIsNoop(t *testing.T) {
	InitSystemLogger(nil)
	LogInfo("Projects", "Create", "dropped", nil, "", "", nil)
}

func TestSystemLog_CleanupOldLogs(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSystemLogService(db)

	require.NoError(t, db.Create(&models.SystemLog{Level: "info", Module: "Old", CreatedAt: time.Now().AddDate(0, 0, -40)}).Error)
	require.NoError(t, db.Create(&models.SystemLog{Level: "info", Module: "New", CreatedAt: time.Now()}).Error)

	deleted, err := svc.CleanupOldLogs(0)
	require.NoError(t, err)
	assert.Zero(t, deleted, "retention <= 0 disables cleanup")

	deleted, err = svc.CleanupOldLogs(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	assert.Equal(t, 30, svc.GetRetentionDays(7), "seeded value wins over fallback")
}

func TestRecordProjectEvent(t *testing.T) {
	db := setupTestDB(t)
	InitSystemLogger(db)
	t.Cleanup(func() { InitSystemLogger(nil) })

	err := RecordProjectEvent(context.Background(), &ProjectEvent{
		Type:      TaskTypeProjectRestored,
		ProjectID: 5,
		UserID:    2,
		Title:     "Launch",
	})
	require.NoError(t, err)

	var entry models.SystemLog
	require.NoError(t, db.Where("module = ?", "Projects").First(&entry).Error)
	assert.Equal(t, "Restored", entry.Action)
	assert.Equal(t, `Project "Launch" restored from trash`, entry.Message)
}

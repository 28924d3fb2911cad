package services

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/policy"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "services.db"),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	require.NoError(t, models.Seed(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) (*models.User, *policy.Actor) {
	t.Helper()
	user := &models.User{Name: email, Email: email, AuthType: AuthTypeLocal}
	require.NoError(t, db.Create(user).Error)
	return user, &policy.Actor{ID: user.ID}
}

func createProject(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Project {
	t.Helper()
	project := &models.Project{UserID: owner.ID, Title: title}
	require.NoError(t, db.Create(project).Error)
	return project
}

type taskOpt func(*models.Task)

func withPriority(p models.Priority) taskOpt {
	return func(task *models.Task) { task.Priority = &p }
}

func withDone(done bool) taskOpt {
	return func(task *models.Task) { task.IsDone = done }
}

func withDueDate(s string) taskOpt {
	return func(task *models.Task) {
		d, err := models.ParseDate(s)
		if err != nil {
			panic(err)
		}
		task.DueDate = &d
	}
}

func withCreatedAt(at time.Time) taskOpt {
	return func(task *models.Task) { task.CreatedAt = at }
}

func createTask(t *testing.T, db *gorm.DB, project *models.Project, title string, opts ...taskOpt) *models.Task {
	t.Helper()
	task := &models.Task{ProjectID: project.ID, Title: title}
	for _, opt := range opts {
		opt(task)
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

// recordingQueue captures enqueued events.
type recordingQueue struct {
	mu     sync.Mutex
	events []ProjectEvent
}

func (q *recordingQueue) Enqueue(event *ProjectEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, *event)
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) types() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.events))
	for i, e := range q.events {
		out[i] = e.Type
	}
	return out
}

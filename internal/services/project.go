package services

import (
	"errors"
	"strings"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/policy"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultProjectsPerPage = 15
	MaxProjectsPerPage     = 100
)

type ProjectService struct {
	db    *gorm.DB
	queue TaskQueue
}

// NewProjectService creates the service. queue may be nil, in which case
// lifecycle events are not dispatched.
func NewProjectService(db *gorm.DB, queue TaskQueue) *ProjectService {
	return &ProjectService{db: db, queue: queue}
}

// ProjectListRequest carries raw query values; non-numeric paging falls back to defaults.
type ProjectListRequest struct {
	Page    string `form:"page"`
	PerPage string `form:"per_page"`
	Search  string `form:"search"`
}

type ProjectListResponse struct {
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
	Items   []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description *string `json:"description"`
}

type UpdateProjectRequest struct {
	Title       *string          `json:"title" binding:"omitnil,min=1,max=255"`
	Description Optional[string] `json:"description"`
}

// List returns the actor's active projects, newest first.
func (s *ProjectService) List(actor *policy.Actor, req *ProjectListRequest) (*ProjectListResponse, error) {
	if actor == nil {
		return nil, response.NewUnauthenticated("")
	}

	page := positiveInt(req.Page, 1)
	perPage := positiveInt(req.PerPage, DefaultProjectsPerPage)
	if perPage > MaxProjectsPerPage {
		perPage = MaxProjectsPerPage
	}

	query := s.db.Model(&models.Project{}).Where("user_id = ?", actor.ID)
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where(s.db.Where("title LIKE ?", like).Or("description LIKE ?", like))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, response.NewStorageFailure("Failed to list projects", err)
	}

	projects := []models.Project{}
	if page <= response.LastPage(total, perPage) {
		offset := (page - 1) * perPage
		if err := query.Offset(offset).Limit(perPage).Order("created_at DESC").Order("id DESC").Find(&projects).Error; err != nil {
			return nil, response.NewStorageFailure("Failed to list projects", err)
		}
	}

	return &ProjectListResponse{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Items:   projects,
	}, nil
}

// find loads a project by id; withTrashed includes soft-deleted rows.
func (s *ProjectService) find(id uint, withTrashed bool) (*models.Project, error) {
	db := s.db
	if withTrashed {
		db = db.Unscoped()
	}

	var project models.Project
	if err := db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, response.NewStorageFailure("", err)
	}
	return &project, nil
}

// authorized loads an active project and checks action on it.
func (s *ProjectService) authorized(actor *policy.Actor, id uint, action policy.Action) (*models.Project, error) {
	if actor == nil {
		return nil, response.NewUnauthenticated("")
	}
	project, err := s.find(id, false)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(actor, action, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get returns an active project owned by the actor.
func (s *ProjectService) Get(actor *policy.Actor, id uint) (*models.Project, error) {
	return s.authorized(actor, id, policy.ActionView)
}

// Create creates a project owned by the actor.
func (s *ProjectService) Create(actor *policy.Actor, req *CreateProjectRequest) (*models.Project, error) {
	if actor == nil {
		return nil, response.NewUnauthenticated("")
	}

	project := models.Project{
		UserID:      actor.ID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, response.NewStorageFailure("Failed to create project", err)
	}
	return &project, nil
}

// Update applies the fields present in req.
func (s *ProjectService) Update(actor *policy.Actor, id uint, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.authorized(actor, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description.Set {
		updates["description"] = req.Description.Value
	}
	if len(updates) == 0 {
		return project, nil
	}

	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return nil, response.NewStorageFailure("Failed to update project", err)
	}
	return s.find(id, false)
}

// Delete moves a project to the trash.
func (s *ProjectService) Delete(actor *policy.Actor, id uint) error {
	project, err := s.authorized(actor, id, policy.ActionDelete)
	if err != nil {
		return err
	}

	if err := s.db.Delete(project).Error; err != nil {
		return response.NewStorageFailure("Failed to delete project", err)
	}

	dispatch(s.queue, &ProjectEvent{
		Type:      TaskTypeProjectTrashed,
		ProjectID: project.ID,
		UserID:    project.UserID,
		Title:     project.Title,
	})
	return nil
}

// Restore brings a trashed project back. The checks run in order: existence
// (trashed included), ownership, trashed state. The write only succeeds while
// the row is still trashed, so concurrent restores yield one winner.
func (s *ProjectService) Restore(actor *policy.Actor, id uint) (*models.Project, error) {
	if actor == nil {
		return nil, response.NewUnauthenticated("")
	}

	project, err := s.find(id, true)
	if err != nil {
		if response.IsKind(err, response.KindStorageFailure) {
			return nil, response.NewStorageFailure("Error restoring project", err)
		}
		return nil, err
	}

	if err := policy.Check(actor, policy.ActionRestore, project, "Unauthorized"); err != nil {
		return nil, err
	}

	if !project.Trashed() {
		return nil, response.NewInvalidState("Project is not deleted")
	}

	result := s.db.Unscoped().Model(&models.Project{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{
			"deleted_at": nil,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, response.NewStorageFailure("Error restoring project", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, response.NewInvalidState("Project is not deleted")
	}

	restored, err := s.find(id, false)
	if err != nil {
		if response.IsKind(err, response.KindStorageFailure) {
			return nil, response.NewStorageFailure("Error restoring project", err)
		}
		return nil, err
	}

	dispatch(s.queue, &ProjectEvent{
		Type:      TaskTypeProjectRestored,
		ProjectID: restored.ID,
		UserID:    restored.UserID,
		Title:     restored.Title,
	})
	return restored, nil
}

// Purge permanently removes projects trashed before cutoff, with their tasks.
func (s *ProjectService) Purge(cutoff time.Time) (int64, error) {
	var purged int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Unscoped().Model(&models.Project{}).
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("project_id IN ?", ids).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Where("id IN ? AND deleted_at IS NOT NULL", ids).Delete(&models.Project{})
		if result.Error != nil {
			return result.Error
		}
		purged = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

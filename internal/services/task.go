package services

import (
	"errors"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/policy"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type TaskService struct {
	db        *gorm.DB
	configSvc *SystemConfigService
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db, configSvc: NewSystemConfigService(db)}
}

// CreateTaskRequest accepts both is_done and done; is_done wins when both are sent.
type CreateTaskRequest struct {
	Title    string  `json:"title" binding:"required,max=255"`
	IsDone   *bool   `json:"is_done"`
	Done     *bool   `json:"done"`
	Priority *string `json:"priority" binding:"omitnil,oneof=low medium high"`
	DueDate  *string `json:"due_date" binding:"omitnil,date"`
}

// UpdateTaskRequest applies only the fields present; priority and due_date may be nulled.
type UpdateTaskRequest struct {
	Title    *string          `json:"title" binding:"omitnil,min=1,max=255"`
	IsDone   *bool            `json:"is_done"`
	Done     *bool            `json:"done"`
	Priority Optional[string] `json:"priority"`
	DueDate  Optional[string] `json:"due_date"`
}

func doneFlag(isDone, done *bool) *bool {
	if isDone != nil {
		return isDone
	}
	return done
}

// Validate checks the nullable fields the binding tags cannot reach.
func (r *UpdateTaskRequest) Validate() error {
	fields := map[string][]string{}
	if r.Priority.Value != nil && !models.Priority(*r.Priority.Value).Valid() {
		fields["priority"] = append(fields["priority"], "The selected priority is invalid.")
	}
	if r.DueDate.Value != nil {
		if _, err := models.ParseDate(*r.DueDate.Value); err != nil {
			fields["due_date"] = append(fields["due_date"], "The due date field must be a valid date.")
		}
	}
	if len(fields) > 0 {
		return response.NewValidation(fields)
	}
	return nil
}

// project loads the parent project, trashed included, and checks action on it.
func (s *TaskService) project(actor *policy.Actor, projectID uint, action policy.Action) (*models.Project, error) {
	if actor == nil {
		return nil, response.NewUnauthenticated("")
	}

	var project models.Project
	if err := s.db.Unscoped().First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, response.NewStorageFailure("", err)
	}

	if err := policy.Check(actor, action, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// task loads a task of projectID, attaches its parent and checks action on it.
func (s *TaskService) task(actor *policy.Actor, projectID, taskID uint, action policy.Action) (*models.Task, error) {
	if actor == nil {
		return nil, response.NewUnauthenticated("")
	}

	var task models.Task
	err := s.db.Preload("Project", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	}).Where("project_id = ?", projectID).First(&task, taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Task not found")
		}
		return nil, response.NewStorageFailure("", err)
	}

	if err := policy.Check(actor, action, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// List runs q against the tasks of an authorized project.
func (s *TaskService) List(actor *policy.Actor, projectID uint, q TaskQuery) (*TaskPage, error) {
	project, err := s.project(actor, projectID, policy.ActionView)
	if err != nil {
		return nil, err
	}
	return q.Run(s.db, project.ID)
}

func (s *TaskService) Get(actor *policy.Actor, projectID, taskID uint) (*models.Task, error) {
	return s.task(actor, projectID, taskID, policy.ActionView)
}

// Create adds a task; it requires update permission on the project.
func (s *TaskService) Create(actor *policy.Actor, projectID uint, req *CreateTaskRequest) (*models.Task, error) {
	project, err := s.project(actor, projectID, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.configSvc.RequireFeature(FeatureTaskCreation); err != nil {
		return nil, err
	}

	task := models.Task{
		ProjectID: project.ID,
		Title:     req.Title,
	}
	if done := doneFlag(req.IsDone, req.Done); done != nil {
		task.IsDone = *done
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		task.Priority = &p
	}
	if req.DueDate != nil {
		d, err := models.ParseDate(*req.DueDate)
		if err != nil {
			return nil, response.NewFieldError("due_date", "The due date field must be a valid date.")
		}
		task.DueDate = &d
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, response.NewStorageFailure("Failed to create task", err)
	}
	return &task, nil
}

func (s *TaskService) Update(actor *policy.Actor, projectID, taskID uint, req *UpdateTaskRequest) (*models.Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	task, err := s.task(actor, projectID, taskID, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.configSvc.RequireFeature(FeatureTaskEditing); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if done := doneFlag(req.IsDone, req.Done); done != nil {
		updates["is_done"] = *done
	}
	if req.Priority.Set {
		if req.Priority.Value == nil {
			updates["priority"] = nil
		} else {
			updates["priority"] = *req.Priority.Value
		}
	}
	if req.DueDate.Set {
		if req.DueDate.Value == nil {
			updates["due_date"] = nil
		} else {
			d, _ := models.ParseDate(*req.DueDate.Value)
			updates["due_date"] = d
		}
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := s.db.Model(&models.Task{ID: task.ID}).Updates(updates).Error; err != nil {
		return nil, response.NewStorageFailure("Failed to update task", err)
	}

	var fresh models.Task
	if err := s.db.First(&fresh, task.ID).Error; err != nil {
		return nil, response.NewStorageFailure("Failed to update task", err)
	}
	return &fresh, nil
}

func (s *TaskService) Delete(actor *policy.Actor, projectID, taskID uint) error {
	task, err := s.task(actor, projectID, taskID, policy.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.configSvc.RequireFeature(FeatureTaskDeletion); err != nil {
		return err
	}

	if err := s.db.Delete(&models.Task{}, task.ID).Error; err != nil {
		return response.NewStorageFailure("Failed to delete task", err)
	}
	return nil
}

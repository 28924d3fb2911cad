package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

const taskNotFound = "Task not found"

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{
		taskService: services.NewTaskService(db),
	}
}

// List returns the tasks of a project. Filters: priority, is_done (or done),
// due_date. Sorting: sort_by, direction. Paginated only when per_page is given.
// GET /api/projects/:id/tasks
func (h *TaskHandler) List(c *gin.Context) {
	projectID, ok := pathID(c, "id", projectNotFound)
	if !ok {
		return
	}

	page, err := h.taskService.List(middleware.GetActor(c), projectID, services.ParseTaskQuery(c.Request.URL.Query()))
	if err != nil {
		response.Error(c, err)
		return
	}

	if page.Paginated {
		response.Paginated(c, page.Items, len(page.Items), page.Total, page.CurrentPage, page.PerPage)
		return
	}
	response.Success(c, page.Items)
}

// Get returns a single task
// GET /api/projects/:id/tasks/:task_id
func (h *TaskHandler) Get(c *gin.Context) {
	projectID, taskID, ok := taskPath(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(middleware.GetActor(c), projectID, taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// Create adds a task to a project
// POST /api/projects/:id/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	projectID, ok := pathID(c, "id", projectNotFound)
	if !ok {
		return
	}

	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.BindingError(err))
		return
	}

	task, err := h.taskService.Create(middleware.GetActor(c), projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, task)
}

// Update applies a partial update to a task
// PUT /api/projects/:id/tasks/:task_id
func (h *TaskHandler) Update(c *gin.Context) {
	projectID, taskID, ok := taskPath(c)
	if !ok {
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.BindingError(err))
		return
	}

	task, err := h.taskService.Update(middleware.GetActor(c), projectID, taskID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// Delete removes a task
// DELETE /api/projects/:id/tasks/:task_id
func (h *TaskHandler) Delete(c *gin.Context) {
	projectID, taskID, ok := taskPath(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(middleware.GetActor(c), projectID, taskID); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Task deleted successfully")
}

func taskPath(c *gin.Context) (projectID, taskID uint, ok bool) {
	if projectID, ok = pathID(c, "id", projectNotFound); !ok {
		return 0, 0, false
	}
	if taskID, ok = pathID(c, "task_id", taskNotFound); !ok {
		return 0, 0, false
	}
	return projectID, taskID, true
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
}

func NewSystemConfigHandler(db *gorm.DB) *SystemConfigHandler {
	return &SystemConfigHandler{
		configService: services.NewSystemConfigService(db),
	}
}

// FeatureFlags is the admin view of the task feature switches.
type FeatureFlags struct {
	TaskCreation *bool `json:"task_creation"`
	TaskEditing  *bool `json:"task_editing"`
	TaskDeletion *bool `json:"task_deletion"`
}

func (h *SystemConfigHandler) current() FeatureFlags {
	creation := h.configService.FeatureEnabled(services.FeatureTaskCreation)
	editing := h.configService.FeatureEnabled(services.FeatureTaskEditing)
	deletion := h.configService.FeatureEnabled(services.FeatureTaskDeletion)
	return FeatureFlags{TaskCreation: &creation, TaskEditing: &editing, TaskDeletion: &deletion}
}

// GetFeatures returns the task feature flags
// GET /api/admin/features
func (h *SystemConfigHandler) GetFeatures(c *gin.Context) {
	response.Success(c, h.current())
}

// UpdateFeatures sets the flags present in the body
// PUT /api/admin/features
func (h *SystemConfigHandler) UpdateFeatures(c *gin.Context) {
	var req FeatureFlags
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.BindingError(err))
		return
	}

	updates := []struct {
		feature services.Feature
		value   *bool
	}{
		{services.FeatureTaskCreation, req.TaskCreation},
		{services.FeatureTaskEditing, req.TaskEditing},
		{services.FeatureTaskDeletion, req.TaskDeletion},
	}
	for _, u := range updates {
		if u.value == nil {
			continue
		}
		if err := h.configService.SetFeature(u.feature, *u.value); err != nil {
			response.Error(c, response.NewStorageFailure("Failed to update features", err))
			return
		}
	}

	response.Success(c, h.current())
}

package services

import (
	"errors"
	"strconv"
	"strings"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where(&models.SystemConfig{Key: key}).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) GetBool(key string, defaultValue bool) bool {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return b
}

func (s *SystemConfigService) GetInt(key string, defaultValue int) int {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where(&models.SystemConfig{Key: key}).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

func (s *SystemConfigService) GetByGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	if err := s.db.Where(&models.SystemConfig{Group: group}).Order("id").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// Feature gates task writes. Missing or unparsable flags count as enabled.
type Feature struct {
	Key     string
	Message string
}

var (
	FeatureTaskCreation = Feature{models.FeatureTaskCreation, "Task creation is disabled"}
	FeatureTaskEditing  = Feature{models.FeatureTaskEditing, "Task editing is disabled"}
	FeatureTaskDeletion = Feature{models.FeatureTaskDeletion, "Task deletion is disabled"}
)

func (s *SystemConfigService) FeatureEnabled(f Feature) bool {
	return s.GetBool(f.Key, true)
}

// RequireFeature returns Forbidden when f is switched off.
func (s *SystemConfigService) RequireFeature(f Feature) error {
	if s.FeatureEnabled(f) {
		return nil
	}
	return response.NewForbidden(f.Message)
}

func (s *SystemConfigService) SetFeature(f Feature, enabled bool) error {
	return s.Set(f.Key, strconv.FormatBool(enabled))
}

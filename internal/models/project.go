package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is owned by exactly one user for its whole life. A non-null DeletedAt
// marks it as trashed; default gorm scopes hide trashed projects.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"-"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description *string        `gorm:"type:text" json:"description"`
	Tasks       []Task         `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (Project) TableName() string { return "projects" }

// Trashed reports whether the project is soft-deleted.
func (p *Project) Trashed() bool {
	return p.DeletedAt.Valid
}

package models

import "time"

// Priority is the task priority enum. Its ordering is by Rank, not lexical.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the valid priorities in ascending rank.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Rank orders priorities: low=1, medium=2, high=3, anything else 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Task belongs to one project for its whole life. Ownership is never stored on
// the task; it is the parent project's owner.
type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	IsDone    bool      `gorm:"column:is_done;not null;default:false" json:"is_done"`
	Priority  *Priority `gorm:"size:10;index" json:"priority"`
	DueDate   *Date     `gorm:"index" json:"due_date"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

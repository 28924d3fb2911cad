package policy

import (
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
)

// Action is an operation an actor wants to perform on a resource.
type Action string

const (
	ActionView    Action = "view"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionRestore Action = "restore"
)

// Actor is the authenticated principal. A nil *Actor is an anonymous caller.
type Actor struct {
	ID uint
}

// NewActor returns an actor for userID, or nil when userID is zero.
func NewActor(userID uint) *Actor {
	if userID == 0 {
		return nil
	}
	return &Actor{ID: userID}
}

// Authorize decides whether actor may perform action on resource.
// Supported resources are *models.Project and *models.Task; anything else is denied.
func Authorize(actor *Actor, action Action, resource interface{}) bool {
	if actor == nil {
		return false
	}

	switch r := resource.(type) {
	case *models.Project:
		if r == nil {
			return false
		}
		return projectAllows(actor, action, r)
	case *models.Task:
		if r == nil {
			return false
		}
		return taskAllows(actor, action, r)
	default:
		return false
	}
}

func projectAllows(actor *Actor, action Action, p *models.Project) bool {
	switch action {
	case ActionView, ActionUpdate, ActionDelete, ActionRestore:
		return p.UserID == actor.ID
	default:
		return false
	}
}

// Task ownership always resolves through the parent project.
func taskAllows(actor *Actor, action Action, t *models.Task) bool {
	if t.Project == nil {
		return false
	}
	switch action {
	case ActionView, ActionUpdate, ActionDelete:
		return projectAllows(actor, action, t.Project)
	default:
		return false
	}
}

// Check is Authorize in error form: Unauthenticated for an anonymous actor,
// Forbidden when denied, nil when allowed. msg overrides the Forbidden message.
func Check(actor *Actor, action Action, resource interface{}, msg ...string) error {
	if actor == nil {
		return response.NewUnauthenticated("")
	}
	if Authorize(actor, action, resource) {
		return nil
	}
	if len(msg) > 0 {
		return response.NewForbidden(msg[0])
	}
	return response.NewForbidden("")
}

package policy

import (
	"testing"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
)

func TestAuthorize_ProjectOwnership(t *testing.T) {
	project := &models.Project{ID: 1, UserID: 7}
	actions := []Action{ActionView, ActionUpdate, ActionDelete, ActionRestore}

	for _, action := range actions {
		for _, userID := range []uint{1, 6, 7, 8} {
			got := Authorize(&Actor{ID: userID}, action, project)
			expected := userID == project.UserID
			if got != expected {
				t.Errorf("Authorize(user %d, %s) = %v, expected %v", userID, action, got, expected)
			}
		}
	}
}

func TestAuthorize_TrashedProjectStillOwned(t *testing.T) {
	project := &models.Project{ID: 1, UserID: 7}
	project.DeletedAt = gorm.DeletedAt{Valid: true}

	if !Authorize(&Actor{ID: 7}, ActionRestore, project) {
		t.Error("owner should be able to restore a trashed project")
	}
	if Authorize(&Actor{ID: 8}, ActionRestore, project) {
		t.Error("non-owner must not restore a trashed project")
	}
}

func TestAuthorize_TaskThroughParent(t *testing.T) {
	task := &models.Task{ID: 3, ProjectID: 1, Project: &models.Project{ID: 1, UserID: 7}}

	for _, action := range []Action{ActionView, ActionUpdate, ActionDelete} {
		if !Authorize(&Actor{ID: 7}, action, task) {
			t.Errorf("owner of the parent project should be allowed to %s", action)
		}
		if Authorize(&Actor{ID: 2}, action, task) {
			t.Errorf("other users should not be allowed to %s", action)
		}
	}
}

func TestAuthorize_TaskWithoutParentDenied(t *testing.T) {
	task := &models.Task{ID: 3, ProjectID: 1}
	if Authorize(&Actor{ID: 7}, ActionView, task) {
		t.Error("a task without its loaded project must be denied")
	}
}

func TestAuthorize_Denials(t *testing.T) {
	project := &models.Project{ID: 1, UserID: 7}
	var nilProject *models.Project
	var nilTask *models.Task

	tests := []struct {
		name     string
		actor    *Actor
		action   Action
		resource interface{}
	}{
		{"anonymous", nil, ActionView, project},
		{"unknown action", &Actor{ID: 7}, Action("archive"), project},
		{"restore task", &Actor{ID: 7}, ActionRestore, &models.Task{Project: project}},
		{"nil project", &Actor{ID: 7}, ActionView, nilProject},
		{"nil task", &Actor{ID: 7}, ActionView, nilTask},
		{"unsupported resource", &Actor{ID: 7}, ActionView, "project"},
		{"nil resource", &Actor{ID: 7}, ActionView, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Authorize(tt.actor, tt.action, tt.resource) {
				t.Error("expected denial")
			}
		})
	}
}

func TestCheck(t *testing.T) {
	project := &models.Project{ID: 1, UserID: 7}

	if err := Check(&Actor{ID: 7}, ActionView, project); err != nil {
		t.Errorf("owner check should pass, got %v", err)
	}

	err := Check(nil, ActionView, project)
	if !response.IsKind(err, response.KindUnauthenticated) {
		t.Errorf("anonymous actor should be unauthenticated, got %v", err)
	}

	err = Check(&Actor{ID: 8}, ActionRestore, project, "Unauthorized")
	if !response.IsKind(err, response.KindForbidden) {
		t.Fatalf("non-owner should be forbidden, got %v", err)
	}
	if err.Error() != "Unauthorized" {
		t.Errorf("expected custom message, got %q", err.Error())
	}
}

func TestNewActor(t *testing.T) {
	if NewActor(0) != nil {
		t.Error("zero user id should yield no actor")
	}
	if a := NewActor(5); a == nil || a.ID != 5 {
		t.Errorf("unexpected actor %+v", a)
	}
}

// Package authz decides what an actor may do. Class-level checks run before a
// handler touches storage, object-level checks after the object was loaded.
package authz

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/model"
	"net/http"
)

type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type Resource int

const (
	ResourceCatalog Resource = iota // titles, genres, categories
	ResourceReview
	ResourceComment
	ResourceUser
)

// Actor is who performs a request. The zero value is anonymous.
type Actor struct {
	UserID   string
	Username string
	Role     model.Role
}

func ActorFor(u *model.User) Actor {
	if u == nil {
		return Actor{}
	}

	role := u.Role
	if u.IsSuperuser {
		role = model.RoleAdmin
	}

	return Actor{UserID: u.ID, Username: u.Username, Role: role}
}

func (a Actor) Anonymous() bool {
	return a.UserID == ""
}

func (a Actor) IsAdmin() bool {
	return !a.Anonymous() && a.Role == model.RoleAdmin
}

func (a Actor) IsModerator() bool {
	return !a.Anonymous() && (a.Role == model.RoleModerator || a.Role == model.RoleAdmin)
}

// ActionFor maps an HTTP method to the action it performs.
func ActionFor(method string) Action {
	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// Allow is the class-level check. Anonymous actors are rejected as
// unauthenticated, everybody else as forbidden.
func Allow(a Actor, action Action, r Resource) error {
	if action == ActionRead && r != ResourceUser {
		return nil
	}

	if a.Anonymous() {
		return apperr.Unauthenticated("authentication required")
	}

	switch r {
	case ResourceCatalog, ResourceUser:
		if a.IsAdmin() {
			return nil
		}
	case ResourceReview, ResourceComment:
		// Ownership of existing objects is decided by AllowObject
		return nil
	}

	return apperr.Forbidden("you don't have permission to " + action.String() + " this resource")
}

// AllowObject is the object-level check for reviews and comments. Reads
// always pass, mutations need ownership or a moderator.
func AllowObject(a Actor, action Action, ownerID string) error {
	if action == ActionRead {
		return nil
	}

	if a.Anonymous() {
		return apperr.Unauthenticated("authentication required")
	}

	if a.UserID == ownerID || a.IsModerator() {
		return nil
	}

	return apperr.Forbidden("you can only " + action.String() + " your own content")
}

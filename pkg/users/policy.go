package users

import "github.com/google/uuid"

// Action names a CRUD operation on the users resource.
type Action string

const (
	ActionList          Action = "list"
	ActionCreate        Action = "create"
	ActionRetrieve      Action = "retrieve"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// Authorize decides whether a requester may perform action on the target
// user. Collection-level actions (list, create, destroy) are admin-only;
// object-level actions are allowed to admins and to the user themself.
// It is a pure function: any action outside the declared set is denied.
func Authorize(role Role, requesterID uuid.UUID, action Action, targetID uuid.UUID) bool {
	switch action {
	case ActionList, ActionCreate, ActionDestroy:
		return role == RoleAdmin
	case ActionRetrieve, ActionUpdate, ActionPartialUpdate:
		return role == RoleAdmin || (requesterID != uuid.Nil && requesterID == targetID)
	default:
		return false
	}
}

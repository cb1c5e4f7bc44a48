package synthetic

import (
	"errors"
	"fmt"

	"github.com/threadfit/backend/internal/models"
)

// Action is one of the supported generation commands.
type Action int

const (
	actionInvalid Action = iota
	ActionGenerateUsers
	ActionGeneratePosts
	ActionGenerateComments
)

// ErrUnknownAction is returned by ParseAction for names outside the closed set.
var ErrUnknownAction = errors.New("unknown action")

// Actions lists every valid action.
var Actions = []Action{ActionGenerateUsers, ActionGeneratePosts, ActionGenerateComments}

// ParseAction maps a wire name such as "generate_users" to its Action.
func ParseAction(name string) (Action, error) {
	switch name {
	case "generate_users":
		return ActionGenerateUsers, nil
	case "generate_posts":
		return ActionGeneratePosts, nil
	case "generate_comments":
		return ActionGenerateComments, nil
	default:
		return actionInvalid, fmt.Errorf("%w '%s'", ErrUnknownAction, name)
	}
}

func (a Action) String() string {
	switch a {
	case ActionGenerateUsers:
		return "generate_users"
	case ActionGeneratePosts:
		return "generate_posts"
	case ActionGenerateComments:
		return "generate_comments"
	default:
		return "invalid"
	}
}

// Kind is the entity kind the action produces.
func (a Action) Kind() string {
	switch a {
	case ActionGenerateUsers:
		return models.KindUser
	case ActionGeneratePosts:
		return models.KindPost
	case ActionGenerateComments:
		return models.KindComment
	default:
		return ""
	}
}

// Valid reports whether a is one of Actions.
func (a Action) Valid() bool {
	return a.Kind() != ""
}

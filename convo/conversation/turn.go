package conversation

import (
	"fmt"
	"strings"
)

// Role identifies who produced a turn.
type Role uint8

const (
	RoleUser Role = iota
	RoleAssistant
)

// String returns the wire name of the role ("user" or "assistant").
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Label returns the capitalized speaker label used in prompts and history listings.
func (r Role) Label() string {
	if r == RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ParseRole maps a case-insensitive role name to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// Turn is one immutable role-tagged utterance.
type Turn struct {
	role Role
	text string
}

// NewTurn builds a turn, rejecting roles outside the enumeration.
func NewTurn(role Role, text string) (Turn, error) {
	if !role.Valid() {
		return Turn{}, fmt.Errorf("invalid role %s", role)
	}
	return Turn{role: role, text: text}, nil
}

// UserTurn builds a user turn.
func UserTurn(text string) Turn { return Turn{role: RoleUser, text: text} }

// AssistantTurn builds an assistant turn.
func AssistantTurn(text string) Turn { return Turn{role: RoleAssistant, text: text} }

func (t Turn) Role() Role   { return t.role }
func (t Turn) Text() string { return t.text }

// String renders the turn as "<Label>: <text>".
func (t Turn) String() string {
	return t.role.Label() + ": " + t.text
}

// Package actor describes the authenticated caller every core operation runs on behalf of.
package actor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRestaurant Role = "restaurant"
	// RoleSystem is used by reconciliation and ops tooling, never issued to users.
	RoleSystem Role = "system"
)

var ErrInvalidRole = errors.New("invalid actor role")

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleCustomer, RoleRestaurant, RoleSystem:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func New(id uuid.UUID, role Role) Actor {
	return Actor{ID: id, Role: role}
}

// System is the actor used for gateway-driven transitions.
func System() Actor {
	return Actor{ID: uuid.Nil, Role: RoleSystem}
}

func (a Actor) Is(role Role) bool {
	return a.Role == role
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%s", a.Role, a.ID)
}

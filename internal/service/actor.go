package service

import "github.com/noah-isme/certify-api/internal/models"

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Role models.Role
}

// Can reports whether the actor's role grants the capability.
func (a Actor) Can(capability models.Capability) bool {
	return a.Role.Can(capability)
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a Actor) require(capability models.Capability) error {
	if !a.Can(capability) {
		return ErrCapabilityDenied
	}
	return nil
}

// Package authz holds the authorization decisions for every mutating
// endpoint. All functions are pure: they look only at the caller's identity,
// the caller's role grants, and data the handler already loaded. Handlers
// fetch the franchise admin list themselves so a stale token cannot widen
// or narrow franchise-scoped authority.
package authz

import (
	"github.com/google/uuid"

	"pizza-backend/models"
)

// RoleGrant mirrors a user's role row as carried in the session token.
type RoleGrant struct {
	Role        string
	FranchiseID *uuid.UUID
}

// Caller is the resolved identity of an authenticated request.
type Caller struct {
	ID    uuid.UUID
	Roles []RoleGrant
}

func (c Caller) IsAdmin() bool {
	for _, r := range c.Roles {
		if r.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}

// AdministersFranchise reports whether the caller's token carries a
// franchisee grant for the given franchise.
func (c Caller) AdministersFranchise(franchiseID uuid.UUID) bool {
	for _, r := range c.Roles {
		if r.Role == models.RoleFranchisee && r.FranchiseID != nil && *r.FranchiseID == franchiseID {
			return true
		}
	}
	return false
}

func CanCreateFranchise(c Caller) bool {
	return c.IsAdmin()
}

// Only platform admins delete franchises; franchise admins cannot dissolve
// their own franchise.
func CanDeleteFranchise(c Caller) bool {
	return c.IsAdmin()
}

// CanManageStore covers store creation and deletion under a franchise.
// adminIDs is the franchise's current admin list from the database, which
// wins over the token when a grant was added after the token was issued.
func CanManageStore(c Caller, franchiseID uuid.UUID, adminIDs []uuid.UUID) bool {
	if c.IsAdmin() || c.AdministersFranchise(franchiseID) {
		return true
	}
	for _, id := range adminIDs {
		if id == c.ID {
			return true
		}
	}
	return false
}

func CanUpdateMenu(c Caller) bool {
	return c.IsAdmin()
}

func CanMutateUser(c Caller, targetID uuid.UUID) bool {
	return c.ID == targetID || c.IsAdmin()
}

func CanDeleteUser(c Caller, targetID uuid.UUID) bool {
	return c.ID == targetID || c.IsAdmin()
}

func CanViewUserFranchises(c Caller, targetID uuid.UUID) bool {
	return c.ID == targetID || c.IsAdmin()
}

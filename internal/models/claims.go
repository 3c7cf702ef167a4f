package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	PermissionWalletRead  = "wallet:read"
	PermissionWalletWrite = "wallet:write"
	PermissionLedgerRead  = "ledger:read"

	// Crediting funds and placing or releasing earmarks are done by the
	// payment and order processes, never by end users.
	PermissionWalletCredit  = "wallet:credit"
	PermissionWalletEarmark = "wallet:earmark"

	PermissionWalletAdmin = "wallet:admin"
	PermissionLedgerAdmin = "ledger:admin"
)

// Roles
const (
	RoleUser   = "user"
	RoleSystem = "system"
	RoleAdmin  = "admin"
)

type UserClaims struct {
	jwt.RegisteredClaims
	OwnerID     string   `json:"owner_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CanActFor reports whether the caller may operate on ownerID's wallets.
func (c *UserClaims) CanActFor(ownerID string) bool {
	return c.OwnerID == ownerID || c.Role == RoleAdmin || c.Role == RoleSystem
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionWalletRead,
			PermissionWalletWrite,
			PermissionLedgerRead,
			PermissionWalletCredit,
			PermissionWalletEarmark,
			PermissionWalletAdmin,
			PermissionLedgerAdmin,
		}
	case RoleSystem:
		return []string{
			PermissionWalletRead,
			PermissionWalletWrite,
			PermissionLedgerRead,
			PermissionWalletCredit,
			PermissionWalletEarmark,
		}
	case RoleUser:
		return []string{
			PermissionWalletRead,
			PermissionWalletWrite,
			PermissionLedgerRead,
		}
	default:
		return []string{}
	}
}

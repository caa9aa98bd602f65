// Package auth provides JWT authentication for the gridstore API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role values carried in token claims.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Claims represents JWT claims for API authentication.
type Claims struct {
	jwt.RegisteredClaims

	// Username is the human-readable identity the token was issued to.
	Username string `json:"username"`

	// Role is "admin" or "user". Admins may delete files and drop buckets;
	// users may upload, download and list.
	Role string `json:"role"`
}

// IsAdmin returns true if the token carries the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// internal/models/caller.go
package models

// Role separates the session coordinator, which holds every hand, from
// player clients, which may only ask about their own seat.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleClient      Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCoordinator || r == RoleClient
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	Player string
	Role   Role
}

// MayActFor reports whether the caller may ask about player's hand.
func (c Caller) MayActFor(player string) bool {
	return c.Role == RoleCoordinator || (c.Role == RoleClient && c.Player == player)
}

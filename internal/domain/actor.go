package domain

// Role of the caller as resolved by the transport layer.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleDriver     Role = "driver"
	RoleCitizen    Role = "citizen"
	RoleSystem     Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleDriver, RoleCitizen:
		return true
	}
	return false
}

// Actor is the already-authenticated identity on whose behalf an operation runs.
type Actor struct {
	UserID string
	Role   Role
}

// SystemActor is used for transitions the core triggers itself, such as the
// implicit start on the first in-window ping.
var SystemActor = Actor{UserID: "system", Role: RoleSystem}

// IsStaff reports whether the actor may manage routes, assignments and alerts.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleSupervisor || a.Role == RoleSystem
}

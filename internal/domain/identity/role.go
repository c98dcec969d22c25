package identity

// Role is the coarse access level carried in externally issued tokens.
// Identity management itself lives outside this service.
type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanManagePools reports whether the role may see pool-level management
// views and ratify or complete bookings.
func (r Role) CanManagePools() bool {
	return r == RoleStaff || r == RoleAdmin
}

package models

type Role string

const (
	RoleShopper   Role = "shopper"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleShopper, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// CanOrganize reports whether the role may create and manage events.
func (r Role) CanOrganize() bool {
	return r == RoleOrganizer || r == RoleAdmin
}

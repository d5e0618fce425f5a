package entity

// Role rol del usuario autenticado (viene en el JWT, emitido por el servicio de identidad).
type Role string

// Roles válidos.
const (
	RoleOwner          Role = "OWNER"           // dueño de la organización
	RolePartner        Role = "PARTNER"         // socio, misma autoridad que OWNER
	RoleFranchiseOwner Role = "FRANCHISE_OWNER" // administra una sola franquicia
	RoleSeller         Role = "SELLER"          // vendedor de mostrador
)

// Valid indica si el rol es uno de los conocidos.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RolePartner, RoleFranchiseOwner, RoleSeller:
		return true
	}
	return false
}

// IsOrgWide indica si el rol tiene autoridad sobre todas las franquicias.
func (r Role) IsOrgWide() bool {
	return r == RoleOwner || r == RolePartner
}

// Actor identidad ya autenticada en cuyo nombre se ejecuta una operación.
// FranchiseID vacío significa "sin franquicia asignada".
type Actor struct {
	UserID      string
	Role        Role
	FranchiseID string
}

// HasFranchise indica si el actor tiene franquicia asignada.
func (a Actor) HasFranchise() bool { return a.FranchiseID != "" }

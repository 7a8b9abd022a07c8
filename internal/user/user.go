package user

// Role is the permission tier governing allowed mutating operations.
// VIEWER < ADMIN < SUPER_ADMIN.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleViewer     Role = "VIEWER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleViewer:
		return true
	}

	return false
}

// User is an account that can sign in to the ledger.
//
// Password is stored and compared in plaintext. That matches the system this
// one replaces and is a known security defect; see DESIGN.md.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

package models

// Operator roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User is a named operator account. The deployment carries a small fixed set
// of these, loaded from configuration; there is no self-service signup.
type User struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Role        string   `json:"role"`
	Screens     []string `json:"screens,omitempty"`
}

// CanAccess reports whether the user may open the named screen.
// An empty Screens list means no per-screen restriction beyond role.
func (u *User) CanAccess(screen string) bool {
	if len(u.Screens) == 0 {
		return true
	}
	for _, s := range u.Screens {
		if s == screen {
			return true
		}
	}
	return false
}

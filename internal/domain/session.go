package domain

// Principal is the identity issued by the external auth provider. Read-only to
// the app; referenced, never copied, for the lifetime of a session.
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Role is the client/vendor designation stored on the profile document.
type Role string

const (
	// RoleUnresolved means the role lookup has not succeeded (yet). A valid
	// state: the session proceeds without role-gated navigation.
	RoleUnresolved Role = ""
	RoleClient     Role = "client"
	RoleVendor     Role = "vendor"
)

// ParseRole maps a stored role attribute to a known Role. Unknown values
// resolve to RoleUnresolved rather than failing.
func ParseRole(s string) Role {
	switch s {
	case string(RoleClient):
		return RoleClient
	case string(RoleVendor):
		return RoleVendor
	default:
		return RoleUnresolved
	}
}

// Profile is the per-principal document in the "users" collection,
// keyed by principal id.
type Profile struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"userType"`
}

// SessionSnapshot is the consolidated, UI-consumable session state.
// Owned exclusively by the session manager; consumers read copies.
type SessionSnapshot struct {
	Principal *Principal
	Role      Role
	Loading   bool
}

// SignedIn reports whether a principal is present.
func (s SessionSnapshot) SignedIn() bool {
	return s.Principal != nil
}

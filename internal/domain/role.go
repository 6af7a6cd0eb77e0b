package domain

// RoleKey enumerates the coarse authorization tiers held in the role directory.
type RoleKey string

const (
	RolePrimary   RoleKey = "primary"
	RoleSecondary RoleKey = "secondary"
	RoleVolunteer RoleKey = "volunteer"
	RoleNone      RoleKey = "none"
)

// ParseRoleKey maps a role-directory bucket name to a role key.
// Bucket names outside the closed set are reported as not a role.
func ParseRoleKey(bucket string) (RoleKey, bool) {
	switch RoleKey(bucket) {
	case RolePrimary, RoleSecondary, RoleVolunteer:
		return RoleKey(bucket), true
	default:
		return RoleNone, false
	}
}

// Label returns the human-facing title of the role.
func (r RoleKey) Label() string {
	switch r {
	case RolePrimary:
		return "Primary Admin"
	case RoleSecondary:
		return "Secondary Admin"
	case RoleVolunteer:
		return "Volunteer"
	default:
		return ""
	}
}

// UserContext is the normalized view of a signed-in caller. It is derived on
// every session change and never persisted.
type UserContext struct {
	Email       string  `json:"email"`
	RoleKey     RoleKey `json:"role_key"`
	DisplayName string  `json:"display_name"`
	RoleLabel   string  `json:"role_label"`
}

// HasRole reports whether the caller holds any dashboard role.
func (u *UserContext) HasRole() bool {
	return u != nil && u.RoleKey != "" && u.RoleKey != RoleNone
}

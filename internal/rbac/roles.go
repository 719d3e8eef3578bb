package rbac

// Role names. Keep these stable; they are persisted on users and carried in access tokens.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RoleAgent      = "agent"
	RoleViewer     = "viewer"
	RoleSuperAdmin = "super_admin"
)

// Role groups used by the routing table.
var (
	Writers  = []string{RoleOwner, RoleAdmin, RoleAgent}
	Managers = []string{RoleOwner, RoleAdmin}
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// IsAssignable reports whether role may be stored on a tenant user.
// super_admin is provisioned out of band only.
func IsAssignable(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleAgent, RoleViewer:
		return true
	default:
		return false
	}
}

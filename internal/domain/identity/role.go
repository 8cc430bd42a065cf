package identity

// Role is a user's access level within a tenant
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Permission is a single capability checked by handlers and the assistant
type Permission string

const (
	PermInvestorRead      Permission = "investor:read"
	PermInvestorWrite     Permission = "investor:write"
	PermInvestorDelete    Permission = "investor:delete"
	PermContactRead       Permission = "contact:read"
	PermContactWrite      Permission = "contact:write"
	PermActivityRead      Permission = "activity:read"
	PermActivityWrite     Permission = "activity:write"
	PermTaskRead          Permission = "task:read"
	PermTaskWrite         Permission = "task:write"
	PermMeetingRead       Permission = "meeting:read"
	PermMeetingWrite      Permission = "meeting:write"
	PermNetworkRead       Permission = "network:read"
	PermNetworkImport     Permission = "network:import"
	PermMessageSend       Permission = "message:send"
	PermReportExport      Permission = "report:export"
	PermIntegrationManage Permission = "integration:manage"
	PermAssistantUse      Permission = "assistant:use"
	PermAuditRead         Permission = "audit:read"
	PermUsersManage       Permission = "users:manage"
	PermSettingsManage    Permission = "settings:manage"
)

var readPermissions = []Permission{
	PermInvestorRead, PermContactRead, PermActivityRead, PermTaskRead, PermMeetingRead, PermNetworkRead,
}

var writePermissions = []Permission{
	PermInvestorWrite, PermContactWrite, PermActivityWrite, PermTaskWrite, PermMeetingWrite,
	PermNetworkImport, PermMessageSend, PermReportExport, PermIntegrationManage, PermAssistantUse,
}

var adminPermissions = []Permission{
	PermInvestorDelete, PermAuditRead, PermUsersManage, PermSettingsManage,
}

var rolePermissions = map[Role]map[Permission]struct{}{
	RoleViewer: permissionSet(readPermissions),
	RoleMember: permissionSet(readPermissions, writePermissions),
	RoleAdmin:  permissionSet(readPermissions, writePermissions, adminPermissions),
	RoleOwner:  permissionSet(readPermissions, writePermissions, adminPermissions),
}

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

func permissionSet(groups ...[]Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{})
	for _, g := range groups {
		for _, p := range g {
			set[p] = struct{}{}
		}
	}
	return set
}

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// Can reports whether the role grants the permission
func (r Role) Can(p Permission) bool {
	_, ok := rolePermissions[r][p]
	return ok
}

// Permissions lists the role's permissions in a stable order
func (r Role) Permissions() []string {
	out := make([]string, 0, len(rolePermissions[r]))
	for _, group := range [][]Permission{readPermissions, writePermissions, adminPermissions} {
		for _, p := range group {
			if r.Can(p) {
				out = append(out, string(p))
			}
		}
	}
	return out
}

// Outranks reports whether r is strictly more privileged than other
func (r Role) Outranks(other Role) bool {
	return roleRank[r] > roleRank[other]
}

// CanAssign reports whether a user with role r may grant role target.
// Only owners create owners; admins manage members and viewers.
func (r Role) CanAssign(target Role) bool {
	if !r.Can(PermUsersManage) || !target.IsValid() {
		return false
	}
	if r == RoleOwner {
		return true
	}
	return r.Outranks(target)
}

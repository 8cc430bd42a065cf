package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Permissions(t *testing.T) {
	tests := []struct {
		role  Role
		perm  Permission
		grant bool
	}{
		{RoleViewer, PermInvestorRead, true},
		{RoleViewer, PermInvestorWrite, false},
		{RoleViewer, PermAssistantUse, false},
		{RoleMember, PermInvestorWrite, true},
		{RoleMember, PermNetworkImport, true},
		{RoleMember, PermInvestorDelete, false},
		{RoleMember, PermAuditRead, false},
		{RoleAdmin, PermUsersManage, true},
		{RoleAdmin, PermInvestorDelete, true},
		{RoleOwner, PermSettingsManage, true},
		{Role("ghost"), PermInvestorRead, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.grant, tt.role.Can(tt.perm))
		})
	}
}

func TestRole_CanAssign(t *testing.T) {
	assert.True(t, RoleOwner.CanAssign(RoleOwner))
	assert.True(t, RoleOwner.CanAssign(RoleViewer))
	assert.True(t, RoleAdmin.CanAssign(RoleMember))
	assert.False(t, RoleAdmin.CanAssign(RoleAdmin))
	assert.False(t, RoleAdmin.CanAssign(RoleOwner))
	assert.False(t, RoleMember.CanAssign(RoleViewer))
	assert.False(t, RoleOwner.CanAssign(Role("x")))
}

func TestRole_PermissionsList(t *testing.T) {
	assert.Len(t, RoleViewer.Permissions(), len(readPermissions))
	assert.Contains(t, RoleOwner.Permissions(), string(PermAuditRead))
	assert.NotContains(t, RoleMember.Permissions(), string(PermUsersManage))
}

package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates pending user with normalized email", func(t *testing.T) {
		user, err := NewUser(tenantID, "  Alice@Example.COM ", "Password123", RoleMember)

		require.NoError(t, err)
		assert.Equal(t, tenantID, user.TenantID)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.NotEmpty(t, user.PasswordHash)
		assert.Equal(t, UserStatusPending, user.Status)
		assert.Equal(t, RoleMember, user.Role)
		assert.NotNil(t, user.PasswordChangedAt)

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeUserCreated, events[0].EventType())
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		_, err := NewUser(tenantID, "not-an-email", "Password123", RoleMember)
		assert.Equal(t, "INVALID_EMAIL", shared.GetErrorCode(err))
	})

	t.Run("fails with unknown role", func(t *testing.T) {
		_, err := NewUser(tenantID, "a@b.co", "Password123", Role("superuser"))
		assert.Equal(t, "INVALID_ROLE", shared.GetErrorCode(err))
	})

	t.Run("password rules", func(t *testing.T) {
		for _, pw := range []string{"", "Pass1", "passwordonly", "12345678"} {
			_, err := NewUser(tenantID, "a@b.co", pw, RoleMember)
			assert.Equal(t, "INVALID_PASSWORD", shared.GetErrorCode(err), pw)
		}
	})
}

func TestUser_PasswordOperations(t *testing.T) {
	tenantID := uuid.New()
	user, err := NewActiveUser(tenantID, "a@b.co", "Password123", RoleOwner)
	require.NoError(t, err)

	assert.True(t, user.VerifyPassword("Password123"))
	assert.False(t, user.VerifyPassword("WrongPassword1"))

	t.Run("wrong old password", func(t *testing.T) {
		err := user.ChangePassword("WrongPassword1", "NewPassword456")
		assert.Contains(t, err.Error(), "incorrect")
	})

	t.Run("same password rejected", func(t *testing.T) {
		err := user.ChangePassword("Password123", "Password123")
		assert.Equal(t, "INVALID_PASSWORD", shared.GetErrorCode(err))
	})

	t.Run("changes password and clears force flag", func(t *testing.T) {
		user.ForcePasswordChange()
		user.ClearDomainEvents()

		require.NoError(t, user.ChangePassword("Password123", "NewPassword456"))
		assert.True(t, user.VerifyPassword("NewPassword456"))
		assert.False(t, user.MustChangePassword)
		require.Len(t, user.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeUserPasswordChanged, user.GetDomainEvents()[0].EventType())
	})
}

func TestUser_ChangeRole(t *testing.T) {
	user, err := NewActiveUser(uuid.New(), "a@b.co", "Password123", RoleMember)
	require.NoError(t, err)
	user.ClearDomainEvents()

	require.NoError(t, user.ChangeRole(RoleAdmin))
	assert.Equal(t, RoleAdmin, user.Role)
	ev, ok := user.GetDomainEvents()[0].(*UserEvent)
	require.True(t, ok)
	assert.Equal(t, RoleMember, ev.PreviousRole)

	assert.Equal(t, "ROLE_UNCHANGED", shared.GetErrorCode(user.ChangeRole(RoleAdmin)))
	assert.Equal(t, "INVALID_ROLE", shared.GetErrorCode(user.ChangeRole("root")))
}

func TestUser_LoginOperations(t *testing.T) {
	tenantID := uuid.New()

	t.Run("records login success and activates pending user", func(t *testing.T) {
		user, _ := NewUser(tenantID, "a@b.co", "Password123", RoleMember)
		user.FailedAttempts = 3

		user.RecordLoginSuccess("192.168.1.1")

		assert.NotNil(t, user.LastLoginAt)
		assert.Equal(t, "192.168.1.1", user.LastLoginIP)
		assert.Equal(t, 0, user.FailedAttempts)
		assert.True(t, user.IsActive())
	})

	t.Run("locks after max attempts", func(t *testing.T) {
		user, _ := NewActiveUser(tenantID, "a@b.co", "Password123", RoleMember)

		for i := 0; i < 4; i++ {
			assert.False(t, user.RecordLoginFailure(5, 15*time.Minute))
			assert.Equal(t, i+1, user.FailedAttempts)
		}

		assert.True(t, user.RecordLoginFailure(5, 15*time.Minute))
		assert.True(t, user.IsLocked())
		assert.False(t, user.CanLogin())
	})

	t.Run("cannot login when deactivated", func(t *testing.T) {
		user, _ := NewActiveUser(tenantID, "a@b.co", "Password123", RoleMember)
		require.NoError(t, user.Deactivate())

		assert.False(t, user.CanLogin())
		assert.Error(t, user.Deactivate())
		assert.Error(t, user.Lock(time.Hour))
	})

	t.Run("can login when lock expired", func(t *testing.T) {
		user, _ := NewActiveUser(tenantID, "a@b.co", "Password123", RoleMember)
		user.Status = UserStatusLocked
		pastTime := time.Now().Add(-time.Hour)
		user.LockedUntil = &pastTime

		assert.False(t, user.IsLocked())
		assert.True(t, user.CanLogin())
	})

	t.Run("unlock", func(t *testing.T) {
		user, _ := NewActiveUser(tenantID, "a@b.co", "Password123", RoleMember)
		assert.Error(t, user.Unlock())
		require.NoError(t, user.Lock(time.Hour))
		require.NoError(t, user.Unlock())
		assert.True(t, user.IsActive())
		assert.Nil(t, user.LockedUntil)
	})
}

func TestUser_Can(t *testing.T) {
	user, _ := NewActiveUser(uuid.New(), "a@b.co", "Password123", RoleViewer)
	assert.True(t, user.Can(PermInvestorRead))
	assert.False(t, user.Can(PermInvestorWrite))

	user.Role = RoleAdmin
	assert.True(t, user.Can(PermInvestorDelete))

	require.NoError(t, user.Deactivate())
	assert.False(t, user.Can(PermInvestorRead))
}

func TestUser_DisplayName(t *testing.T) {
	user, _ := NewActiveUser(uuid.New(), "a@b.co", "Password123", RoleViewer)
	assert.Equal(t, "a@b.co", user.GetDisplayNameOrEmail())
	require.NoError(t, user.SetDisplayName(" Alice "))
	assert.Equal(t, "Alice", user.GetDisplayNameOrEmail())
	assert.Error(t, user.SetLinkedInURL("linkedin"))
}

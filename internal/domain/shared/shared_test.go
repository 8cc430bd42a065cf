package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches by code", func(t *testing.T) {
		err := NewDomainError("NOT_FOUND", "Investor not found")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrAlreadyExists))
	})

	t.Run("survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("loading investor: %w", ErrOptimisticLock)
		assert.True(t, errors.Is(err, ErrOptimisticLock))
		assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", GetErrorCode(err))
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := WrapDomainError("INTEGRATION_ERROR", "Gmail unavailable", cause)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("non domain error has empty code", func(t *testing.T) {
		assert.Empty(t, GetErrorCode(errors.New("boom")))
	})
}

func TestSoftDeletable(t *testing.T) {
	var s SoftDeletable
	assert.False(t, s.IsDeleted())

	require.NoError(t, s.MarkDeleted(time.Now()))
	assert.True(t, s.IsDeleted())
	assert.ErrorIs(t, s.MarkDeleted(time.Now()), ErrAlreadyDeleted)

	require.NoError(t, s.MarkRestored())
	assert.False(t, s.IsDeleted())
	assert.ErrorIs(t, s.MarkRestored(), ErrNotDeleted)
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, CheckVersion(0, 7))
	assert.NoError(t, CheckVersion(7, 7))
	assert.ErrorIs(t, CheckVersion(6, 7), ErrOptimisticLock)
}

func TestTenantAggregateRoot_SetActor(t *testing.T) {
	root := NewTenantAggregateRoot(uuid.New())
	actor := uuid.New()

	root.SetActor(uuid.Nil)
	assert.Nil(t, root.UpdatedBy)

	root.SetActor(actor)
	require.NotNil(t, root.CreatedBy)
	assert.Equal(t, actor, *root.CreatedBy)
	assert.Equal(t, actor, *root.UpdatedBy)

	other := uuid.New()
	root.SetActor(other)
	assert.Equal(t, actor, *root.CreatedBy, "creator is kept")
	assert.Equal(t, other, *root.UpdatedBy)

	evt := NewAggregateEvent("investor.updated", "Investor", &root)
	assert.Equal(t, root.ID, evt.AggregateID())
	assert.Equal(t, 1, evt.AggregateVersion())
	assert.Equal(t, &other, evt.ActorID())
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 500, OrderDir: "sideways"}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
	assert.NotNil(t, f.Filters)
	assert.Equal(t, 0, f.Offset())

	f.Page = 3
	assert.Equal(t, 200, f.Offset())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPaginated([]int{}, 0, 1, 0)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.TotalPages)
}

func TestValidation(t *testing.T) {
	assert.NoError(t, ValidateEmail("partner@sequoiacap.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.NoError(t, ValidatePhone("+1 (415) 555-0100"))
	assert.Error(t, ValidatePhone("call me"))
	assert.NoError(t, ValidateURL("https://www.linkedin.com/in/someone", "LinkedIn URL"))
	assert.Error(t, ValidateURL("linkedin.com/in/someone", "LinkedIn URL"))

	assert.Equal(t, "a16z.com", EmailDomain("Chris@A16Z.com"))
	assert.Empty(t, EmailDomain("nobody"))
	assert.Equal(t, []string{"fintech", "seed"}, NormalizeTags([]string{" Fintech", "seed", "FINTECH", ""}))
}

func TestBaseAggregateRoot_LoadedVersion(t *testing.T) {
	root := NewBaseAggregateRoot()
	root.IncrementVersion()
	assert.Equal(t, 1, root.LoadedVersion(), "unloaded roots assume one pending change")

	root.MarkLoaded()
	root.IncrementVersion()
	root.IncrementVersion()
	assert.Equal(t, 2, root.LoadedVersion())
	assert.Equal(t, 4, root.Version)
}

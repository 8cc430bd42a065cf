package task

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenTask(t *testing.T, due *time.Time) *Task {
	t.Helper()
	task, err := NewTask(uuid.New(), Details{Title: "Send deck", DueAt: due})
	require.NoError(t, err)
	return task
}

func TestNewTask(t *testing.T) {
	t.Run("creates open task with default priority", func(t *testing.T) {
		task := newOpenTask(t, nil)
		assert.Equal(t, StatusOpen, task.Status)
		assert.Equal(t, PriorityMedium, task.Priority)
		require.Len(t, task.GetDomainEvents(), 1)
	})

	t.Run("requires title", func(t *testing.T) {
		_, err := NewTask(uuid.New(), Details{Title: " "})
		assert.Equal(t, "INVALID_TITLE", shared.GetErrorCode(err))
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		_, err := NewTask(uuid.New(), Details{Title: "x", Priority: "urgent"})
		assert.Equal(t, "INVALID_PRIORITY", shared.GetErrorCode(err))
	})
}

func TestTask_Lifecycle(t *testing.T) {
	t.Run("complete then reopen", func(t *testing.T) {
		task := newOpenTask(t, nil)
		require.NoError(t, task.Start())
		assert.Equal(t, StatusInProgress, task.Status)

		require.NoError(t, task.Complete())
		assert.Equal(t, StatusDone, task.Status)
		assert.NotNil(t, task.CompletedAt)
		assert.Equal(t, "INVALID_STATE", shared.GetErrorCode(task.Complete()))
		assert.Equal(t, "TASK_CLOSED", shared.GetErrorCode(task.Update(Details{Title: "x"})))

		require.NoError(t, task.Reopen())
		assert.Equal(t, StatusOpen, task.Status)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("cancel", func(t *testing.T) {
		task := newOpenTask(t, nil)
		require.NoError(t, task.Cancel())
		assert.Equal(t, StatusCancelled, task.Status)
		assert.Equal(t, "INVALID_STATE", shared.GetErrorCode(task.Cancel()))
		assert.Equal(t, "INVALID_STATE", shared.GetErrorCode(task.Start()))
	})

	t.Run("reopen open task fails", func(t *testing.T) {
		task := newOpenTask(t, nil)
		assert.Equal(t, "INVALID_STATE", shared.GetErrorCode(task.Reopen()))
	})

	t.Run("deleted task is frozen", func(t *testing.T) {
		task := newOpenTask(t, nil)
		require.NoError(t, task.Delete())
		assert.Equal(t, "TASK_DELETED", shared.GetErrorCode(task.Complete()))
		require.NoError(t, task.Restore())
		require.NoError(t, task.Complete())
	})
}

func TestTask_Overdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, newOpenTask(t, nil).IsOverdue(now))
	assert.False(t, newOpenTask(t, &future).IsOverdue(now))

	task := newOpenTask(t, &past)
	assert.True(t, task.IsOverdue(now))

	assert.True(t, task.MarkOverdueNotified(now))
	assert.False(t, task.MarkOverdueNotified(now), "notified only once")

	later := now.Add(48 * time.Hour)
	require.NoError(t, task.Update(Details{Title: task.Title, DueAt: &later}))
	assert.Nil(t, task.OverdueNotifiedAt, "moving the due date re-arms the notice")

	require.NoError(t, task.Complete())
	assert.False(t, task.IsOverdue(later.Add(time.Hour)))
}

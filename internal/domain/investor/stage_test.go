package investor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Stage
		to   Stage
		want bool
	}{
		{StageTarget, StageContacted, true},
		{StageTarget, StageTermSheet, true},
		{StageContacted, StageMeeting, true},
		{StageMeeting, StageContacted, false},
		{StageTermSheet, StageCommitted, true},
		{StageDueDiligence, StagePassed, true},
		{StagePassed, StageTarget, true},
		{StagePassed, StageMeeting, false},
		{StageCommitted, StagePassed, false},
		{StageCommitted, StageTarget, false},
		{StageMeeting, StageMeeting, false},
		{StageTarget, Stage("lost"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStage_Classification(t *testing.T) {
	assert.Len(t, AllStages(), 7)
	for _, s := range AllStages() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Stage("").IsValid())
	assert.True(t, StageCommitted.IsTerminal())
	assert.True(t, StagePassed.IsTerminal())
	assert.True(t, StageDueDiligence.IsOpen())
	assert.False(t, StagePassed.IsOpen())
}

package investor

// Stage is the position of an investor in the fundraising pipeline
type Stage string

const (
	StageTarget       Stage = "target"
	StageContacted    Stage = "contacted"
	StageMeeting      Stage = "meeting"
	StageDueDiligence Stage = "due_diligence"
	StageTermSheet    Stage = "term_sheet"
	StageCommitted    Stage = "committed"
	StagePassed       Stage = "passed"
)

// stageRank orders the forward path. Passed sits outside it.
var stageRank = map[Stage]int{
	StageTarget:       0,
	StageContacted:    1,
	StageMeeting:      2,
	StageDueDiligence: 3,
	StageTermSheet:    4,
	StageCommitted:    5,
}

// AllStages returns every stage in board order
func AllStages() []Stage {
	return []Stage{
		StageTarget,
		StageContacted,
		StageMeeting,
		StageDueDiligence,
		StageTermSheet,
		StageCommitted,
		StagePassed,
	}
}

// IsValid reports whether s is a known stage
func (s Stage) IsValid() bool {
	if s == StagePassed {
		return true
	}
	_, ok := stageRank[s]
	return ok
}

// IsTerminal reports whether no further forward progress is possible
func (s Stage) IsTerminal() bool {
	return s == StageCommitted || s == StagePassed
}

// IsOpen reports whether the investor is still being worked
func (s Stage) IsOpen() bool {
	return s.IsValid() && !s.IsTerminal()
}

// CanTransitionTo applies the pipeline rules:
// open stages may move forward (skipping is allowed) or to passed,
// passed may only be re-opened to target, committed is final.
func (s Stage) CanTransitionTo(to Stage) bool {
	if !s.IsValid() || !to.IsValid() || s == to {
		return false
	}
	switch s {
	case StageCommitted:
		return false
	case StagePassed:
		return to == StageTarget
	}
	if to == StagePassed {
		return true
	}
	return stageRank[to] > stageRank[s]
}

// String implements fmt.Stringer
func (s Stage) String() string {
	return string(s)
}

package migrate

// State is the migration state machine's position, persisted in the
// project's connection file between runs.
type State string

const (
	// StateUnchecked is a freshly scaffolded project; no check has run.
	StateUnchecked State = "unchecked"

	// StateChecked means pending changes have been classified.
	StateChecked State = "checked"

	// StatePreviewed means a per-file preview of the pending changes exists.
	StatePreviewed State = "previewed"

	// StateApproved means the current preview carries the required sign-off.
	StateApproved State = "approved"

	// StateApplying is transient during an apply run. A connection stuck
	// here means the run crashed before recording an outcome.
	StateApplying State = "applying"

	// StateApplied means the last apply run completed and the project
	// version advanced.
	StateApplied State = "applied"

	// StateFailed means the last apply run halted; its backup is intact
	// and the project version was not advanced.
	StateFailed State = "failed"

	// StateRolledBack means a failed run's backup was restored.
	StateRolledBack State = "rolled_back"
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	switch s {
	case StateUnchecked, StateChecked, StatePreviewed, StateApproved,
		StateApplying, StateApplied, StateFailed, StateRolledBack:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state may move to target. check and
// preview are safe to re-run from any settled state; re-running preview
// after approval discards the stale approval.
func (s State) CanTransitionTo(target State) bool {
	switch s {
	case StateUnchecked:
		return target == StateChecked
	case StateChecked:
		return target == StateChecked || target == StatePreviewed
	case StatePreviewed:
		return target == StateChecked || target == StatePreviewed || target == StateApproved
	case StateApproved:
		// re-check or re-preview demotes; apply advances
		return target == StateChecked || target == StatePreviewed || target == StateApplying
	case StateApplying:
		return target == StateApplied || target == StateFailed
	case StateApplied:
		return target == StateChecked
	case StateFailed:
		return target == StateRolledBack || target == StateChecked
	case StateRolledBack:
		return target == StateChecked
	}
	return false
}

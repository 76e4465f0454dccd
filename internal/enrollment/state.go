package enrollment

import "wolontariat/models"

// State describes how far a volunteer's enrollment in one offer got across the
// two documents involved.
type State string

const (
	// StateNone: no application and no roster entry
	StateNone State = "none"
	// StateApplicationOnly: the application exists but the roster entry does not.
	// Signup leaves this behind when the join step cannot complete; Reconcile finishes it.
	StateApplicationOnly State = "application_only"
	// StateFullyJoined: application and roster entry both exist
	StateFullyJoined State = "fully_joined"
	// StateRosterOnly: a roster entry without an application. Signup never
	// produces it; it is only observed and repaired.
	StateRosterOnly State = "roster_only"
)

func (s State) String() string { return string(s) }

// stateOf derives the state from the two observations
func stateOf(hasApplication, isMember bool) State {
	switch {
	case hasApplication && isMember:
		return StateFullyJoined
	case hasApplication:
		return StateApplicationOnly
	case isMember:
		return StateRosterOnly
	}
	return StateNone
}

// Enrollment is a volunteer's enrollment in one offer
type Enrollment struct {
	OfferID     string              `json:"offerId"`
	VolunteerID string              `json:"volunteerId"`
	State       State               `json:"state"`
	Application *models.Application `json:"application,omitempty"`
}

// CancelResult reports what a cancellation changed
type CancelResult struct {
	OfferID            string `json:"offerId"`
	VolunteerID        string `json:"volunteerId"`
	RosterReleased     bool   `json:"rosterReleased"`
	ApplicationRemoved bool   `json:"applicationRemoved"`
	// RosterLeaveFailed is set when the roster step failed and a roster entry
	// may remain; Reconcile removes it.
	RosterLeaveFailed bool `json:"rosterLeaveFailed,omitempty"`
}

// SweepReport summarises a reconciliation sweep
type SweepReport struct {
	Checked  int      `json:"checked"`
	Repaired int      `json:"repaired"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

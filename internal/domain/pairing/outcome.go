package pairing

import "github.com/spin-match/spin-match/internal/domain/participant"

// Outcome is a resolved pairing's result.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeBothYes  Outcome = "both_yes"
	OutcomeMixed    Outcome = "mixed"
	OutcomeBothPass Outcome = "both_pass"
	OutcomeYesIdle  Outcome = "yes_idle"
	OutcomePassIdle Outcome = "pass_idle"
	OutcomeIdleIdle Outcome = "idle_idle"
)

// Disposition describes what happens to one side of a resolved pairing.
type Disposition struct {
	NextState participant.State
	Boosted   bool
}

// Resolve computes the outcome from the two votes. expired must be true
// when the vote window has passed; before expiry an outcome only exists
// once both votes are set. The second return value reports whether the
// outcome is determinable yet.
//
// The computation is symmetric in its inputs: swapping a and b yields the
// same outcome, so the resolution is independent of arrival order.
func Resolve(a, b Vote, expired bool) (Outcome, bool) {
	if a != VoteUnset && b != VoteUnset {
		switch {
		case a == VoteYes && b == VoteYes:
			return OutcomeBothYes, true
		case a == VotePass && b == VotePass:
			return OutcomeBothPass, true
		default:
			return OutcomeMixed, true
		}
	}
	if !expired {
		return OutcomeNone, false
	}
	set := a
	if set == VoteUnset {
		set = b
	}
	switch set {
	case VoteYes:
		return OutcomeYesIdle, true
	case VotePass:
		return OutcomePassIdle, true
	default:
		return OutcomeIdleIdle, true
	}
}

// DispositionFor maps an outcome to the effect on the side that cast the
// given vote. Yes-voters betrayed or abandoned by their partner receive a
// fairness boost; non-voters drop to idle and must re-initiate manually.
func DispositionFor(outcome Outcome, vote Vote) Disposition {
	switch outcome {
	case OutcomeBothYes:
		return Disposition{NextState: participant.StateInSession}
	case OutcomeMixed:
		if vote == VoteYes {
			return Disposition{NextState: participant.StateWaiting, Boosted: true}
		}
		return Disposition{NextState: participant.StateWaiting}
	case OutcomeBothPass:
		return Disposition{NextState: participant.StateWaiting}
	case OutcomeYesIdle:
		if vote == VoteYes {
			return Disposition{NextState: participant.StateWaiting, Boosted: true}
		}
		return Disposition{NextState: participant.StateIdle}
	case OutcomePassIdle:
		if vote == VotePass {
			return Disposition{NextState: participant.StateWaiting}
		}
		return Disposition{NextState: participant.StateIdle}
	default:
		return Disposition{NextState: participant.StateIdle}
	}
}

package policy

import (
	"time"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
)

// PhaseStatus is derived from a challenge's phase records on demand.
type PhaseStatus string

const (
	PhaseOpen      PhaseStatus = "Open"
	PhaseClosed    PhaseStatus = "Closed"
	PhaseScheduled PhaseStatus = "Scheduled"
	PhaseInvalid   PhaseStatus = "Invalid"
)

// Status resolves the named phase's status at now. A phase missing from
// the challenge is Invalid.
func Status(phaseName string, ch *challenge.Challenge, now time.Time) PhaseStatus {
	p, ok := ch.Phase(phaseName)
	switch {
	case !ok:
		return PhaseInvalid
	case p.IsOpen:
		return PhaseOpen
	case p.ActualEndDate != nil && p.ActualEndDate.Before(now):
		return PhaseClosed
	default:
		return PhaseScheduled
	}
}

// submissionPhases is consulted in order; the first open phase wins.
var submissionPhases = []string{
	challenge.PhaseCheckpointSubmission,
	challenge.PhaseSubmission,
	challenge.PhaseOpen,
	challenge.PhaseFinalFix,
	challenge.PhaseApproval,
}

// CurrentSubmissionPhase returns the open phase that currently accepts
// submissions.
func CurrentSubmissionPhase(ch *challenge.Challenge) (challenge.Phase, bool) {
	for _, name := range submissionPhases {
		if p, ok := ch.Phase(name); ok && p.IsOpen {
			return p, true
		}
	}
	return challenge.Phase{}, false
}

// Package challenge reads challenge, resource and resource-role data from the
// platform's Challenge and Resource APIs, and reconciles legacy numeric ids
// with v5 uuids.
package challenge

import (
	"time"

	"github.com/google/uuid"
)

// Phase names used by access rules.
const (
	PhaseRegistration         = "Registration"
	PhaseSubmission           = "Submission"
	PhaseCheckpointSubmission = "Checkpoint Submission"
	PhaseScreening            = "Screening"
	PhaseReview               = "Review"
	PhaseAppeals              = "Appeals"
	PhaseAppealsResponse      = "Appeals Response"
	PhaseOpen                 = "Open"
	PhaseFinalFix             = "Final Fix"
	PhaseApproval             = "Approval"
)

// Legacy subtracks with their own access rules.
const (
	SubTrackFirst2Finish  = "FIRST_2_FINISH"
	SubTrackMarathonMatch = "MARATHON_MATCH"
)

type Phase struct {
	ID               string     `json:"id"`
	PhaseID          string     `json:"phaseId"`
	Name             string     `json:"name"`
	IsOpen           bool       `json:"isOpen"`
	ScheduledEndDate *time.Time `json:"scheduledEndDate,omitempty"`
	ActualEndDate    *time.Time `json:"actualEndDate,omitempty"`
}

type Legacy struct {
	SubTrack string `json:"subTrack"`
}

type Challenge struct {
	ID       string  `json:"id"`
	LegacyID int64   `json:"legacyId,omitempty"`
	Legacy   Legacy  `json:"legacy"`
	Phases   []Phase `json:"phases"`
}

// Phase returns the phase with the given name.
func (c *Challenge) Phase(name string) (Phase, bool) {
	for _, p := range c.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// Resource is a member's role assignment on a challenge.
type Resource struct {
	ID          string `json:"id"`
	ChallengeID string `json:"challengeId"`
	MemberID    string `json:"memberId"`
	RoleID      string `json:"roleId"`
}

type ResourceRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IsUUID reports whether id is a canonical uuid.
func IsUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

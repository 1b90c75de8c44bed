// Package model holds the submission service's resources as they are stored
// and returned.
package model

import "time"

// Resource discriminators stored with every search document.
const (
	ResourceSubmission      = "submission"
	ResourceReview          = "review"
	ResourceReviewSummation = "reviewSummation"
	ResourceReviewType      = "reviewType"
)

// Review statuses.
const (
	ReviewStatusQueued    = "queued"
	ReviewStatusCompleted = "completed"
)

// Audit holds the fields every stored resource carries.
type Audit struct {
	Created   string `json:"created,omitempty" dynamodbav:"created,omitempty"`
	Updated   string `json:"updated,omitempty" dynamodbav:"updated,omitempty"`
	CreatedBy string `json:"createdBy,omitempty" dynamodbav:"createdBy,omitempty"`
	UpdatedBy string `json:"updatedBy,omitempty" dynamodbav:"updatedBy,omitempty"`

	// Version is the optimistic lock counter maintained by the store.
	Version int64 `json:"-" dynamodbav:"version,omitempty"`
}

type Submission struct {
	ID                 string     `json:"id" dynamodbav:"id"`
	Type               string     `json:"type" dynamodbav:"type"`
	URL                string     `json:"url,omitempty" dynamodbav:"url,omitempty"`
	MemberID           ID         `json:"memberId" dynamodbav:"memberId"`
	ChallengeID        ID         `json:"challengeId" dynamodbav:"challengeId"`
	LegacyChallengeID  ID         `json:"legacyChallengeId,omitempty" dynamodbav:"legacyChallengeId,omitempty"`
	LegacySubmissionID ID         `json:"legacySubmissionId,omitempty" dynamodbav:"legacySubmissionId,omitempty"`
	LegacyUploadID     ID         `json:"legacyUploadId,omitempty" dynamodbav:"legacyUploadId,omitempty"`
	SubmissionPhaseID  string     `json:"submissionPhaseId,omitempty" dynamodbav:"submissionPhaseId,omitempty"`
	FileType           string     `json:"fileType,omitempty" dynamodbav:"fileType,omitempty"`
	SubmittedDate      *time.Time `json:"submittedDate,omitempty" dynamodbav:"submittedDate,omitempty"`
	Audit

	// V5ChallengeID is set on responses only, see challenge.AdjustChallengeIDFields.
	V5ChallengeID ID `json:"v5ChallengeId,omitempty" dynamodbav:"-"`

	// Review and ReviewSummation are joined from the search index on read.
	Review          []Review          `json:"review,omitempty" dynamodbav:"-"`
	ReviewSummation []ReviewSummation `json:"reviewSummation,omitempty" dynamodbav:"-"`
}

type Review struct {
	ID            string         `json:"id" dynamodbav:"id"`
	Score         float64        `json:"score" dynamodbav:"score"`
	ReviewerID    string         `json:"reviewerId" dynamodbav:"reviewerId"`
	SubmissionID  string         `json:"submissionId" dynamodbav:"submissionId"`
	ScoreCardID   ID             `json:"scoreCardId" dynamodbav:"scoreCardId"`
	V5ScoreCardID string         `json:"v5ScoreCardId,omitempty" dynamodbav:"v5ScoreCardId,omitempty"`
	TypeID        string         `json:"typeId" dynamodbav:"typeId"`
	Status        string         `json:"status,omitempty" dynamodbav:"status,omitempty"`
	ReviewedDate  *time.Time     `json:"reviewedDate,omitempty" dynamodbav:"reviewedDate,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	Audit
}

type ReviewSummation struct {
	ID             string         `json:"id" dynamodbav:"id"`
	SubmissionID   string         `json:"submissionId" dynamodbav:"submissionId"`
	AggregateScore float64        `json:"aggregateScore" dynamodbav:"aggregateScore"`
	ScoreCardID    ID             `json:"scoreCardId" dynamodbav:"scoreCardId"`
	V5ScoreCardID  string         `json:"v5ScoreCardId,omitempty" dynamodbav:"v5ScoreCardId,omitempty"`
	IsPassing      bool           `json:"isPassing" dynamodbav:"isPassing"`
	IsFinal        *bool          `json:"isFinal,omitempty" dynamodbav:"isFinal,omitempty"`
	ReviewedDate   *time.Time     `json:"reviewedDate,omitempty" dynamodbav:"reviewedDate,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	Audit
}

type ReviewType struct {
	ID       string `json:"id" dynamodbav:"id"`
	Name     string `json:"name" dynamodbav:"name"`
	IsActive bool   `json:"isActive" dynamodbav:"isActive"`
	Audit
}

// StripPrivateMetadata removes metadata.private, which only privileged
// callers may see.
func StripPrivateMetadata(metadata map[string]any) map[string]any {
	if _, ok := metadata["private"]; !ok {
		return metadata
	}
	out := make(map[string]any, len(metadata)-1)
	for k, v := range metadata {
		if k != "private" {
			out[k] = v
		}
	}
	return out
}

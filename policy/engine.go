package policy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
)

// ChallengeSource fetches a challenge by v5 or legacy id.
type ChallengeSource interface {
	GetChallenge(ctx context.Context, id string) (*challenge.Challenge, error)
}

// SubmissionLookup finds a member's submissions on a challenge, with their
// review summations joined.
type SubmissionLookup interface {
	MemberSubmissions(ctx context.Context, challengeID, memberID string) ([]model.Submission, error)
}

// Engine evaluates the member access rules. Callers skip it for
// privileged principals.
type Engine struct {
	challenges  ChallengeSource
	roles       *RoleResolver
	submissions SubmissionLookup
	now         func() time.Time
	logger      *zap.Logger
}

// NewEngine creates an engine reading challenges, resource roles and prior
// submissions from the given sources.
func NewEngine(challenges ChallengeSource, roles *RoleResolver, submissions SubmissionLookup, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		challenges:  challenges,
		roles:       roles,
		submissions: submissions,
		now:         time.Now,
		logger:      logger,
	}
}

// SetClock replaces the engine's time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// CanCreateSubmission checks whether p may submit for memberID on ch. On
// success it returns the phase the submission belongs to.
func (e *Engine) CanCreateSubmission(ctx context.Context, p Principal, memberID string, ch *challenge.Challenge) (challenge.Phase, error) {
	if memberID != p.UserID {
		return challenge.Phase{}, apperr.Forbidden("You are not allowed to submit on behalf of others")
	}

	roles, err := e.resourceRoles(ctx, ch.ID, p.UserID)
	if err != nil {
		return challenge.Phase{}, err
	}
	switch {
	case roles.Has(ResourceReviewer):
		return challenge.Phase{}, apperr.BadRequest("You cannot create a submission for a challenge while you are a reviewer")
	case roles.Has(ResourceIterativeReviewer):
		return challenge.Phase{}, apperr.BadRequest("You cannot create a submission for a challenge while you are an iterative reviewer")
	case !roles.Has(ResourceSubmitter):
		return challenge.Phase{}, apperr.Forbidden("Register for the challenge %s before making a submission", ch.ID)
	}

	phase, ok := CurrentSubmissionPhase(ch)
	if !ok {
		return challenge.Phase{}, apperr.Forbidden("You cannot create a submission in the current phase")
	}

	if phase.Name == challenge.PhaseFinalFix || phase.Name == challenge.PhaseApproval {
		subs, err := e.submissions.MemberSubmissions(ctx, ch.ID, p.UserID)
		if err != nil {
			return challenge.Phase{}, e.lookupFailed(ch.ID, err)
		}
		if len(subs) == 0 {
			return challenge.Phase{}, apperr.Forbidden("You are not allowed to submit when submission phase is not open")
		}
	}
	return phase, nil
}

// CanReadSubmission checks whether p may read sub. Owners always may.
func (e *Engine) CanReadSubmission(ctx context.Context, p Principal, sub *model.Submission) error {
	if p.UserID != "" && sub.MemberID.String() == p.UserID {
		return nil
	}

	challengeID := sub.ChallengeID.String()
	ch, err := e.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		e.logger.Warn("challenge fetch failed", zap.String("challengeId", challengeID), zap.Error(err))
		return apperr.ServiceUnavailable("Could not fetch details of challenge with id %s", challengeID)
	}

	roles, err := e.resourceRoles(ctx, ch.ID, p.UserID)
	if err != nil {
		return err
	}
	if roles.Has(ResourceCopilot, ResourceClientManager, ResourceManager) {
		return nil
	}

	if ch.Legacy.SubTrack == challenge.SubTrackFirst2Finish {
		if roles.Has(ResourceIterativeReviewer) {
			return nil
		}
		return apperr.Forbidden("You cannot access other member submission")
	}

	now := e.now()
	if roles.Has(ResourcePrimaryScreener, ResourceReviewer) {
		if Status(challenge.PhaseScreening, ch, now) != PhaseScheduled ||
			Status(challenge.PhaseReview, ch, now) != PhaseScheduled {
			return nil
		}
		return apperr.Forbidden("You can access the submission only when Screening / Review is open")
	}

	if s := Status(challenge.PhaseAppealsResponse, ch, now); s != PhaseClosed && s != PhaseInvalid {
		return apperr.Forbidden("You cannot access other submissions before the end of Appeals Response phase")
	}

	own, err := e.submissions.MemberSubmissions(ctx, ch.ID, p.UserID)
	if err != nil {
		return e.lookupFailed(ch.ID, err)
	}
	if len(own) == 0 {
		return apperr.Forbidden("You did not submit to the challenge!")
	}
	if summations := own[0].ReviewSummation; len(summations) == 0 || !summations[0].IsPassing {
		return apperr.Forbidden("You should have passed the review to access other member submissions")
	}
	return nil
}

// CanReadReview reports whether p may read reviews of sub. Any upstream
// failure yields false.
func (e *Engine) CanReadReview(ctx context.Context, p Principal, sub *model.Submission) bool {
	challengeID := sub.ChallengeID.String()
	ch, err := e.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		e.logger.Warn("challenge fetch failed, denying review access",
			zap.String("challengeId", challengeID), zap.Error(err))
		return false
	}

	roles, err := e.roles.ResourceRoles(ctx, ch.ID, p.UserID)
	if err != nil {
		e.logger.Warn("resource roles unavailable, denying review access",
			zap.String("challengeId", ch.ID), zap.Error(err))
		return false
	}
	if roles.Has(ResourceCopilot, ResourceManager, ResourceObserver) {
		return true
	}
	if ch.Legacy.SubTrack == challenge.SubTrackMarathonMatch {
		return true
	}
	return Status(challenge.PhaseAppealsResponse, ch, e.now()) == PhaseClosed
}

func (e *Engine) lookupFailed(challengeID string, err error) error {
	e.logger.Warn("member submission lookup failed",
		zap.String("challengeId", challengeID), zap.Error(err))
	return apperr.Wrap(apperr.KindServiceUnavailable,
		fmt.Sprintf("Could not fetch submissions of the challenge with id %s", challengeID), err)
}

func (e *Engine) resourceRoles(ctx context.Context, challengeID, memberID string) (RoleSet, error) {
	roles, err := e.roles.ResourceRoles(ctx, challengeID, memberID)
	if err != nil {
		e.logger.Warn("resource roles unavailable",
			zap.String("challengeId", challengeID), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindServiceUnavailable,
			fmt.Sprintf("Could not determine the user's role in the challenge with id %s", challengeID), err)
	}
	return roles, nil
}

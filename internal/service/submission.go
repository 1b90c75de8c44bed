package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
	"github.com/topcoder-platform/submissions-api-sub000/internal/bus"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
	"github.com/topcoder-platform/submissions-api-sub000/search"
)

// SubmissionService manages submissions.
type SubmissionService struct {
	base
	repo       Repository[model.Submission]
	search     Searcher
	access     Access
	challenges policy.ChallengeSource
	reconciler *challenge.Reconciler
}

// NewSubmissionService creates the submission service.
func NewSubmissionService(
	repo Repository[model.Submission],
	searcher Searcher,
	access Access,
	challenges policy.ChallengeSource,
	reconciler *challenge.Reconciler,
	publisher bus.Publisher,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		base:       newBase(publisher, logger),
		repo:       repo,
		search:     searcher,
		access:     access,
		challenges: challenges,
		reconciler: reconciler,
	}
}

// Create stores a new submission. The challenge id may be legacy or v5;
// the v5 id is stored in challengeId and the legacy id alongside it.
func (s *SubmissionService) Create(ctx context.Context, p policy.Principal, body Body) (*model.Submission, error) {
	if err := requireFields(body, "type", "url", "memberId", "challengeId"); err != nil {
		return nil, err
	}
	sub, err := decode[model.Submission](body)
	if err != nil {
		return nil, err
	}

	ch, err := s.resolveChallenge(ctx, sub)
	if err != nil {
		return nil, err
	}

	var phase challenge.Phase
	if p.Privileged() {
		phase, _ = policy.CurrentSubmissionPhase(ch)
	} else {
		phase, err = s.access.CanCreateSubmission(ctx, p, sub.MemberID.String(), ch)
		if err != nil {
			return nil, err
		}
	}
	if sub.SubmissionPhaseID == "" {
		sub.SubmissionPhaseID = phaseID(phase)
	}

	now := s.now().UTC()
	if !p.Privileged() || sub.SubmittedDate == nil {
		sub.SubmittedDate = &now
	}
	sub.ID = uuid.NewString()
	sub.CreatedBy = p.Actor()
	sub.UpdatedBy = p.Actor()

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		return nil, err
	}
	s.logger.Info("submission created",
		zap.String("id", created.ID),
		zap.String("challengeId", created.ChallengeID.String()),
		zap.String("memberId", created.MemberID.String()),
	)
	s.publish(ctx, bus.TopicCreate, model.ResourceSubmission, created)

	challenge.AdjustChallengeIDFields(created)
	return created, nil
}

// Get returns a submission with its reviews and review summations joined
// from the search index.
func (s *SubmissionService) Get(ctx context.Context, p policy.Principal, id string) (*model.Submission, error) {
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Submission", id)
	}
	if !p.Privileged() {
		if err := s.access.CanReadSubmission(ctx, p, sub); err != nil {
			return nil, err
		}
	}

	s.joinNested(ctx, sub)
	if !p.Privileged() {
		stripNested(sub)
	}

	challenge.AdjustChallengeIDFields(sub)
	return sub, nil
}

// List searches submissions. A legacy challengeId filter is converted to
// its v5 id first.
func (s *SubmissionService) List(ctx context.Context, p policy.Principal, params map[string]any) (Page[model.Submission], error) {
	if raw, ok := params["challengeId"]; ok {
		id, _ := raw.(string)
		if !challenge.IsUUID(id) {
			v5, err := s.reconciler.ResolveV5ID(ctx, id)
			if err != nil {
				return Page[model.Submission]{}, apperr.Wrap(apperr.KindServiceUnavailable,
					"Could not fetch details of challenge with id "+id, err)
			}
			if v5 == "" {
				return emptyPage[model.Submission](model.ResourceSubmission, params)
			}
			params["challengeId"] = v5
		}
	}

	page, err := list[model.Submission](ctx, s.search, model.ResourceSubmission, params)
	if err != nil {
		return page, err
	}
	for i := range page.Rows {
		if !p.Privileged() {
			stripNested(&page.Rows[i])
		}
		challenge.AdjustChallengeIDFields(&page.Rows[i])
	}
	return page, nil
}

// Update replaces a submission. partial merges body into the stored record.
func (s *SubmissionService) Update(ctx context.Context, p policy.Principal, id string, body Body, partial bool) (*model.Submission, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Submission", id)
	}

	var next *model.Submission
	if partial {
		next, err = merge(current, body)
	} else {
		if err = requireFields(body, "type", "url", "memberId", "challengeId"); err != nil {
			return nil, err
		}
		next, err = decode[model.Submission](body)
	}
	if err != nil {
		return nil, err
	}

	if next.ChallengeID != current.ChallengeID && next.ChallengeID != current.LegacyChallengeID {
		if _, err := s.resolveChallenge(ctx, next); err != nil {
			return nil, err
		}
	} else {
		next.ChallengeID = current.ChallengeID
		if next.LegacyChallengeID == "" {
			next.LegacyChallengeID = current.LegacyChallengeID
		}
	}
	if !p.Privileged() || next.SubmittedDate == nil {
		next.SubmittedDate = current.SubmittedDate
	}

	next.ID = current.ID
	next.Audit = current.Audit
	next.UpdatedBy = p.Actor()

	updated, err := s.repo.Update(ctx, next, current.Version)
	if err != nil {
		return nil, notFound(err, "Submission", id)
	}
	s.publish(ctx, bus.TopicUpdate, model.ResourceSubmission, updated)

	challenge.AdjustChallengeIDFields(updated)
	return updated, nil
}

// Delete soft deletes a submission. Its reviews and summations follow
// through the stream handler.
func (s *SubmissionService) Delete(ctx context.Context, p policy.Principal, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFound(err, "Submission", id)
	}
	if err := s.repo.Delete(ctx, current); err != nil {
		return notFound(err, "Submission", id)
	}
	s.logger.Info("submission deleted", zap.String("id", id), zap.String("by", p.Actor()))
	s.publish(ctx, bus.TopicDelete, model.ResourceSubmission, map[string]any{"id": id})
	return nil
}

// resolveChallenge fetches the submission's challenge and normalises its
// challenge id fields.
func (s *SubmissionService) resolveChallenge(ctx context.Context, sub *model.Submission) (*challenge.Challenge, error) {
	id := sub.ChallengeID.String()
	ch, err := s.challenges.GetChallenge(ctx, id)
	if errors.Is(err, challenge.ErrNotFound) {
		return nil, apperr.Validation("Challenge with id %s not found", id)
	}
	if err != nil {
		s.logger.Warn("challenge fetch failed", zap.String("challengeId", id), zap.Error(err))
		return nil, apperr.ServiceUnavailable("Could not fetch details of challenge with id %s", id)
	}

	sub.ChallengeID = model.ID(ch.ID)
	switch {
	case !challenge.IsUUID(id):
		sub.LegacyChallengeID = model.ID(id)
	case ch.LegacyID != 0:
		sub.LegacyChallengeID = model.IDFromInt(ch.LegacyID)
	default:
		sub.LegacyChallengeID = ""
	}
	return ch, nil
}

func (s *SubmissionService) joinNested(ctx context.Context, sub *model.Submission) {
	doc, err := s.search.GetDocument(ctx, sub.ID)
	if err != nil {
		if !errors.Is(err, search.ErrNotFound) {
			s.logger.Warn("nested documents unavailable", zap.String("id", sub.ID), zap.Error(err))
		}
		return
	}
	nested := map[string]any{"review": doc["review"], "reviewSummation": doc["reviewSummation"]}
	rows, err := rowsAs[model.Submission]([]map[string]any{nested})
	if err != nil {
		s.logger.Warn("nested documents malformed", zap.String("id", sub.ID), zap.Error(err))
		return
	}
	sub.Review = rows[0].Review
	sub.ReviewSummation = rows[0].ReviewSummation
}

func stripNested(sub *model.Submission) {
	for i := range sub.Review {
		sub.Review[i].Metadata = model.StripPrivateMetadata(sub.Review[i].Metadata)
	}
	for i := range sub.ReviewSummation {
		sub.ReviewSummation[i].Metadata = model.StripPrivateMetadata(sub.ReviewSummation[i].Metadata)
	}
}

func phaseID(p challenge.Phase) string {
	if p.PhaseID != "" {
		return p.PhaseID
	}
	return p.ID
}

func emptyPage[T any](resource string, params map[string]any) (Page[T], error) {
	req, err := search.Build(resource, params)
	if err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Page: req.Page, PageSize: req.PerPage, Rows: []T{}}, nil
}

// SubmissionLookup finds a member's submissions in the search index, for
// the access policy.
type SubmissionLookup struct {
	search Searcher
}

// NewSubmissionLookup finds member submissions through the search index.
func NewSubmissionLookup(searcher Searcher) *SubmissionLookup {
	return &SubmissionLookup{search: searcher}
}

// MemberSubmissions returns memberID's submissions on challengeID.
func (l *SubmissionLookup) MemberSubmissions(ctx context.Context, challengeID, memberID string) ([]model.Submission, error) {
	page, err := list[model.Submission](ctx, l.search, model.ResourceSubmission, map[string]any{
		"challengeId":       challengeID,
		"memberId":          memberID,
		search.ParamPerPage: search.MaxPageSize,
	})
	if err != nil {
		return nil, err
	}
	return page.Rows, nil
}

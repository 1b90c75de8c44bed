package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/bus"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
)

var summationRequired = []string{"submissionId", "aggregateScore", "scoreCardId", "isPassing"}

// ReviewSummationService manages review summations.
type ReviewSummationService struct {
	base
	repo       Repository[model.ReviewSummation]
	search     Searcher
	reconciler *challenge.Reconciler
}

// NewReviewSummationService creates the review summation service.
func NewReviewSummationService(
	repo Repository[model.ReviewSummation],
	searcher Searcher,
	reconciler *challenge.Reconciler,
	publisher bus.Publisher,
	logger *zap.Logger,
) *ReviewSummationService {
	return &ReviewSummationService{
		base:       newBase(publisher, logger),
		repo:       repo,
		search:     searcher,
		reconciler: reconciler,
	}
}

// Create stores a review summation. isPassing is required.
func (s *ReviewSummationService) Create(ctx context.Context, p policy.Principal, body Body) (*model.ReviewSummation, error) {
	if err := requireFields(body, summationRequired...); err != nil {
		return nil, err
	}
	sum, err := decode[model.ReviewSummation](body)
	if err != nil {
		return nil, err
	}

	if sum.ScoreCardID, sum.V5ScoreCardID, err = s.reconciler.TranslateScoreCard(sum.ScoreCardID, ""); err != nil {
		return nil, err
	}
	sum.ReviewedDate = reviewedDate(p, sum.ReviewedDate, nil, s.now())
	sum.ID = uuid.NewString()
	sum.CreatedBy = p.Actor()
	sum.UpdatedBy = p.Actor()

	created, err := s.repo.Create(ctx, sum)
	if err != nil {
		return nil, err
	}
	s.logger.Info("review summation created",
		zap.String("id", created.ID),
		zap.String("submissionId", created.SubmissionID),
		zap.Bool("isPassing", created.IsPassing),
	)
	s.publish(ctx, bus.TopicCreate, model.ResourceReviewSummation, created)
	return presentSummation(p, created), nil
}

// Get returns a review summation.
func (s *ReviewSummationService) Get(ctx context.Context, p policy.Principal, id string) (*model.ReviewSummation, error) {
	sum, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Review summation", id)
	}
	return presentSummation(p, sum), nil
}

// List searches review summations.
func (s *ReviewSummationService) List(ctx context.Context, p policy.Principal, params map[string]any) (Page[model.ReviewSummation], error) {
	page, err := list[model.ReviewSummation](ctx, s.search, model.ResourceReviewSummation, params)
	if err != nil {
		return page, err
	}
	for i := range page.Rows {
		presentSummation(p, &page.Rows[i])
	}
	return page, nil
}

// Update replaces or patches a review summation.
func (s *ReviewSummationService) Update(ctx context.Context, p policy.Principal, id string, body Body, partial bool) (*model.ReviewSummation, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Review summation", id)
	}

	var next *model.ReviewSummation
	if partial {
		next, err = merge(current, body)
	} else {
		if err = requireFields(body, summationRequired...); err != nil {
			return nil, err
		}
		next, err = decode[model.ReviewSummation](body)
	}
	if err != nil {
		return nil, err
	}

	if _, supplied := body["scoreCardId"]; supplied {
		if next.ScoreCardID, next.V5ScoreCardID, err = s.reconciler.TranslateScoreCard(next.ScoreCardID, current.V5ScoreCardID); err != nil {
			return nil, err
		}
	} else {
		next.ScoreCardID, next.V5ScoreCardID = current.ScoreCardID, current.V5ScoreCardID
	}
	next.ReviewedDate = reviewedDate(p, next.ReviewedDate, current.ReviewedDate, s.now())
	next.ID = current.ID
	next.Audit = current.Audit
	next.UpdatedBy = p.Actor()

	updated, err := s.repo.Update(ctx, next, current.Version)
	if err != nil {
		return nil, notFound(err, "Review summation", id)
	}
	s.publish(ctx, bus.TopicUpdate, model.ResourceReviewSummation, updated)
	return presentSummation(p, updated), nil
}

// Delete soft deletes a review summation.
func (s *ReviewSummationService) Delete(ctx context.Context, p policy.Principal, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFound(err, "Review summation", id)
	}
	if err := s.repo.Delete(ctx, current); err != nil {
		return notFound(err, "Review summation", id)
	}
	s.logger.Info("review summation deleted", zap.String("id", id), zap.String("by", p.Actor()))
	s.publish(ctx, bus.TopicDelete, model.ResourceReviewSummation, map[string]any{"id": id})
	return nil
}

func presentSummation(p policy.Principal, s *model.ReviewSummation) *model.ReviewSummation {
	if !p.Privileged() {
		s.Metadata = model.StripPrivateMetadata(s.Metadata)
	}
	return s
}

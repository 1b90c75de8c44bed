package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
	"github.com/topcoder-platform/submissions-api-sub000/internal/bus"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
)

var reviewRequired = []string{"score", "reviewerId", "submissionId", "scoreCardId", "typeId"}

// ReviewService manages reviews.
type ReviewService struct {
	base
	repo        Repository[model.Review]
	submissions Repository[model.Submission]
	search      Searcher
	access      Access
	reconciler  *challenge.Reconciler
}

// NewReviewService creates the review service.
func NewReviewService(
	repo Repository[model.Review],
	submissions Repository[model.Submission],
	searcher Searcher,
	access Access,
	reconciler *challenge.Reconciler,
	publisher bus.Publisher,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		base:        newBase(publisher, logger),
		repo:        repo,
		submissions: submissions,
		search:      searcher,
		access:      access,
		reconciler:  reconciler,
	}
}

// Create stores a review of an existing submission and review type.
func (s *ReviewService) Create(ctx context.Context, p policy.Principal, body Body) (*model.Review, error) {
	if err := requireFields(body, reviewRequired...); err != nil {
		return nil, err
	}
	review, err := decode[model.Review](body)
	if err != nil {
		return nil, err
	}

	if review.ScoreCardID, review.V5ScoreCardID, err = s.reconciler.TranslateScoreCard(review.ScoreCardID, ""); err != nil {
		return nil, err
	}
	if err := normaliseStatus(review); err != nil {
		return nil, err
	}
	review.ReviewedDate = reviewedDate(p, review.ReviewedDate, nil, s.now())
	review.ID = uuid.NewString()
	review.CreatedBy = p.Actor()
	review.UpdatedBy = p.Actor()

	created, err := s.repo.Create(ctx, review)
	if err != nil {
		return nil, err
	}
	s.logger.Info("review created",
		zap.String("id", created.ID),
		zap.String("submissionId", created.SubmissionID),
	)
	s.publish(ctx, bus.TopicCreate, model.ResourceReview, created)
	return s.present(p, created), nil
}

// Get returns a review. Members only see it once the challenge allows
// review access.
func (s *ReviewService) Get(ctx context.Context, p policy.Principal, id string) (*model.Review, error) {
	review, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Review", id)
	}

	if !p.Privileged() {
		sub, err := s.submissions.Get(ctx, review.SubmissionID)
		if err != nil {
			return nil, notFound(err, "Submission", review.SubmissionID)
		}
		if !s.access.CanReadReview(ctx, p, sub) {
			return nil, apperr.Forbidden("You cannot access this review")
		}
	}
	return s.present(p, review), nil
}

// List searches reviews. Private metadata is stripped for members.
func (s *ReviewService) List(ctx context.Context, p policy.Principal, params map[string]any) (Page[model.Review], error) {
	page, err := list[model.Review](ctx, s.search, model.ResourceReview, params)
	if err != nil {
		return page, err
	}
	for i := range page.Rows {
		page.Rows[i] = *s.present(p, &page.Rows[i])
	}
	return page, nil
}

// Update replaces a review. A scorecard id that disagrees with the v5
// scorecard already stored is rejected.
func (s *ReviewService) Update(ctx context.Context, p policy.Principal, id string, body Body, partial bool) (*model.Review, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Review", id)
	}

	var next *model.Review
	if partial {
		next, err = merge(current, body)
	} else {
		if err = requireFields(body, reviewRequired...); err != nil {
			return nil, err
		}
		next, err = decode[model.Review](body)
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
	if err := normaliseStatus(next); err != nil {
		return nil, err
	}
	next.ReviewedDate = reviewedDate(p, next.ReviewedDate, current.ReviewedDate, s.now())
	next.ID = current.ID
	next.Audit = current.Audit
	next.UpdatedBy = p.Actor()

	updated, err := s.repo.Update(ctx, next, current.Version)
	if err != nil {
		return nil, notFound(err, "Review", id)
	}
	s.publish(ctx, bus.TopicUpdate, model.ResourceReview, updated)
	return s.present(p, updated), nil
}

// Delete soft deletes a review.
func (s *ReviewService) Delete(ctx context.Context, p policy.Principal, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFound(err, "Review", id)
	}
	if err := s.repo.Delete(ctx, current); err != nil {
		return notFound(err, "Review", id)
	}
	s.logger.Info("review deleted", zap.String("id", id), zap.String("by", p.Actor()))
	s.publish(ctx, bus.TopicDelete, model.ResourceReview, map[string]any{"id": id})
	return nil
}

func (s *ReviewService) present(p policy.Principal, r *model.Review) *model.Review {
	if !p.Privileged() {
		r.Metadata = model.StripPrivateMetadata(r.Metadata)
	}
	return r
}

func normaliseStatus(r *model.Review) error {
	switch r.Status {
	case "":
		r.Status = model.ReviewStatusCompleted
	case model.ReviewStatusQueued, model.ReviewStatusCompleted:
	default:
		return apperr.Validation("%q must be one of [%s, %s]", "status", model.ReviewStatusQueued, model.ReviewStatusCompleted)
	}
	return nil
}

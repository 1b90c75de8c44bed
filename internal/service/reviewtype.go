package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/internal/bus"
	"github.com/topcoder-platform/submissions-api-sub000/internal/cache"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
	"github.com/topcoder-platform/submissions-api-sub000/search"
)

const reviewTypesKey = "all"

// ReviewTypeService manages review types. Unfiltered lists are served from
// a cache that every write flushes.
type ReviewTypeService struct {
	base
	repo   ReviewTypeRepository
	search Searcher
	cache  *cache.Cache[[]model.ReviewType]
}

// NewReviewTypeService creates the review type service. Unfiltered lists
// are served from c.
func NewReviewTypeService(
	repo ReviewTypeRepository,
	searcher Searcher,
	c *cache.Cache[[]model.ReviewType],
	publisher bus.Publisher,
	logger *zap.Logger,
) *ReviewTypeService {
	return &ReviewTypeService{
		base:   newBase(publisher, logger),
		repo:   repo,
		search: searcher,
		cache:  c,
	}
}

// Create stores a review type with a unique name.
func (s *ReviewTypeService) Create(ctx context.Context, p policy.Principal, body Body) (*model.ReviewType, error) {
	if err := requireFields(body, "name", "isActive"); err != nil {
		return nil, err
	}
	rt, err := decode[model.ReviewType](body)
	if err != nil {
		return nil, err
	}
	rt.ID = uuid.NewString()
	rt.CreatedBy = p.Actor()
	rt.UpdatedBy = p.Actor()

	created, err := s.repo.Create(ctx, rt)
	if err != nil {
		return nil, err
	}
	s.cache.Flush()
	s.publish(ctx, bus.TopicCreate, model.ResourceReviewType, created)
	return created, nil
}

// Get returns a review type.
func (s *ReviewTypeService) Get(ctx context.Context, id string) (*model.ReviewType, error) {
	rt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Review type", id)
	}
	return rt, nil
}

// List returns review types. Requests without filters or sorting are
// answered from the cache, ordered by name.
func (s *ReviewTypeService) List(ctx context.Context, params map[string]any) (Page[model.ReviewType], error) {
	if !onlyPaging(params) {
		return list[model.ReviewType](ctx, s.search, model.ResourceReviewType, params)
	}

	req, err := search.Build(model.ResourceReviewType, params)
	if err != nil {
		return Page[model.ReviewType]{}, err
	}
	all, err := s.all(ctx)
	if err != nil {
		return Page[model.ReviewType]{}, err
	}

	start := min(req.From, len(all))
	end := min(start+req.PerPage, len(all))
	return Page[model.ReviewType]{
		Total:    len(all),
		PageSize: req.PerPage,
		Page:     req.Page,
		Rows:     slices.Clone(all[start:end]),
	}, nil
}

// Update replaces or patches a review type and flushes the list cache.
func (s *ReviewTypeService) Update(ctx context.Context, p policy.Principal, id string, body Body, partial bool) (*model.ReviewType, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Review type", id)
	}

	var next *model.ReviewType
	if partial {
		next, err = merge(current, body)
	} else {
		if err = requireFields(body, "name", "isActive"); err != nil {
			return nil, err
		}
		next, err = decode[model.ReviewType](body)
	}
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.Audit = current.Audit
	next.UpdatedBy = p.Actor()

	updated, err := s.repo.Update(ctx, next, current.Version)
	if err != nil {
		return nil, notFound(err, "Review type", id)
	}
	s.cache.Flush()
	s.publish(ctx, bus.TopicUpdate, model.ResourceReviewType, updated)
	return updated, nil
}

// Delete soft deletes a review type.
func (s *ReviewTypeService) Delete(ctx context.Context, p policy.Principal, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return notFound(err, "Review type", id)
	}
	if err := s.repo.Delete(ctx, current); err != nil {
		return notFound(err, "Review type", id)
	}
	s.cache.Flush()
	s.logger.Info("review type deleted", zap.String("id", id), zap.String("by", p.Actor()))
	s.publish(ctx, bus.TopicDelete, model.ResourceReviewType, map[string]any{"id": id})
	return nil
}

func (s *ReviewTypeService) all(ctx context.Context) ([]model.ReviewType, error) {
	if cached, ok := s.cache.Get(reviewTypesKey); ok {
		return cached, nil
	}
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, func(a, b model.ReviewType) int {
		return strings.Compare(a.Name, b.Name)
	})
	s.cache.Set(reviewTypesKey, all)
	return all, nil
}

func onlyPaging(params map[string]any) bool {
	for k := range params {
		if k != search.ParamPage && k != search.ParamPerPage {
			return false
		}
	}
	return true
}

// Package service implements the API's use cases on top of the repositories,
// the search index and the access policy.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
	"github.com/topcoder-platform/submissions-api-sub000/internal/bus"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
	"github.com/topcoder-platform/submissions-api-sub000/search"
	"github.com/topcoder-platform/submissions-api-sub000/store"
)

// Repository stores one resource type.
type Repository[T any] interface {
	Create(ctx context.Context, v *T) (*T, error)
	Get(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, v *T, version int64) (*T, error)
	Delete(ctx context.Context, v *T) error
}

// ReviewTypeRepository also lists every review type.
type ReviewTypeRepository interface {
	Repository[model.ReviewType]
	All(ctx context.Context) ([]model.ReviewType, error)
}

// Searcher queries the shared index. *search.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, req *search.Request) (*search.Result, error)
	GetDocument(ctx context.Context, id string) (map[string]any, error)
}

// Access evaluates member access rules. *policy.Engine satisfies it.
type Access interface {
	CanCreateSubmission(ctx context.Context, p policy.Principal, memberID string, ch *challenge.Challenge) (challenge.Phase, error)
	CanReadSubmission(ctx context.Context, p policy.Principal, sub *model.Submission) error
	CanReadReview(ctx context.Context, p policy.Principal, sub *model.Submission) bool
}

// Page is one page of a list result.
type Page[T any] struct {
	Total    int
	PageSize int
	Page     int
	Rows     []T
}

// TotalPages is the number of pages at the current page size.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// Body is a decoded JSON request body.
type Body = map[string]any

// fields a caller can never set.
var readOnlyFields = []string{"id", "created", "updated", "createdBy", "updatedBy", "v5ChallengeId"}

// base holds what every resource service shares.
type base struct {
	publisher bus.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func newBase(publisher bus.Publisher, logger *zap.Logger) base {
	if publisher == nil {
		publisher = bus.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{publisher: publisher, logger: logger, now: time.Now}
}

// publish sends a notification for a committed write. Failures are logged.
func (b base) publish(ctx context.Context, topic, resource string, v any) {
	payload, err := toMap(v)
	if err != nil {
		b.logger.Error("encode event payload", zap.String("topic", topic), zap.Error(err))
		return
	}
	payload["resource"] = resource
	if err := b.publisher.Publish(ctx, topic, payload); err != nil {
		b.logger.Error("publish event",
			zap.String("topic", topic),
			zap.String("resource", resource),
			zap.Error(err),
		)
	}
}

// notFound turns a missing record into a caller-facing 404.
func notFound(err error, name, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("%s with ID = %s is not found", name, id)
	}
	return err
}

func requireFields(body Body, fields ...string) error {
	for _, f := range fields {
		if v, ok := body[f]; !ok || v == nil || v == "" {
			return apperr.Validation("%q is required", f)
		}
	}
	return nil
}

// decode converts a body into a typed value, ignoring read-only fields.
func decode[T any](body Body) (*T, error) {
	clean := make(Body, len(body))
	for k, v := range body {
		clean[k] = v
	}
	for _, f := range readOnlyFields {
		delete(clean, f)
	}

	raw, err := json.Marshal(clean)
	if err != nil {
		return nil, apperr.Validation("Invalid request body: %v", err)
	}
	var v T
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&v); err != nil {
		return nil, apperr.Validation("Invalid request body: %v", err)
	}
	return &v, nil
}

// merge overlays a partial body onto current.
func merge[T any](current *T, patch Body) (*T, error) {
	merged, err := toMap(current)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		merged[k] = v
	}
	return decode[T](merged)
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	out := make(map[string]any)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

// rowsAs converts index rows into typed values.
func rowsAs[T any](rows []map[string]any) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encode row: %w", err)
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func list[T any](ctx context.Context, s Searcher, resource string, params map[string]any) (Page[T], error) {
	req, err := search.Build(resource, params)
	if err != nil {
		return Page[T]{}, err
	}
	res, err := s.Search(ctx, req)
	if err != nil {
		return Page[T]{}, fmt.Errorf("search %s: %w", resource, err)
	}
	rows, err := rowsAs[T](res.Rows)
	if err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Total: res.Total, PageSize: res.PageSize, Page: res.Page, Rows: rows}, nil
}

// reviewedDate applies the rule that only privileged callers choose the
// review date.
func reviewedDate(p policy.Principal, supplied, current *time.Time, now time.Time) *time.Time {
	switch {
	case p.Privileged() && supplied != nil:
		return supplied
	case current != nil:
		return current
	default:
		t := now.UTC()
		return &t
	}
}

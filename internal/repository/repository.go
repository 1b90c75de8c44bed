// Package repository stores the API's resources through package store.
package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/store"
)

// Store is the part of *store.Store the repositories use.
type Store interface {
	Create(ctx context.Context, entity store.Entity, item map[string]types.AttributeValue) error
	Get(ctx context.Context, table string, key store.PK) (*store.Item, error)
	Update(ctx context.Context, entity store.Entity, item map[string]types.AttributeValue, expectedVersion int64) error
	Delete(ctx context.Context, entity store.Entity, opts store.DeleteOptions) error
	Scan(ctx context.Context, input store.ScanInput) ([]*store.Item, error)
}

// Table reads and writes one resource type.
type Table[T any] struct {
	store    Store
	name     string
	entity   func(*T) store.Entity
	optional []string
	deletes  store.DeleteOptions
}

// NewSubmissions returns the submission table. cascade selects whether a
// delete leaves review cleanup to the stream handler or is refused while
// reviews remain.
func NewSubmissions(s Store, t Tables, cascade bool) *Table[model.Submission] {
	return &Table[model.Submission]{
		store:  s,
		name:   t.Submission,
		entity: submissionEntity(t),
		optional: []string{
			"url", "legacyChallengeId", "legacySubmissionId", "legacyUploadId",
			"submissionPhaseId", "fileType", "submittedDate",
		},
		deletes: store.DeleteOptions{Cascade: cascade, OrphanProtect: !cascade},
	}
}

// NewReviews binds the review table.
func NewReviews(s Store, t Tables) *Table[model.Review] {
	return &Table[model.Review]{
		store:    s,
		name:     t.Review,
		entity:   reviewEntityOf(t),
		optional: []string{"v5ScoreCardId", "status", "reviewedDate", "metadata"},
	}
}

// NewReviewSummations binds the review summation table.
func NewReviewSummations(s Store, t Tables) *Table[model.ReviewSummation] {
	return &Table[model.ReviewSummation]{
		store:    s,
		name:     t.ReviewSummation,
		entity:   summationEntityOf(t),
		optional: []string{"v5ScoreCardId", "isFinal", "reviewedDate", "metadata"},
	}
}

// NewReviewTypes binds the review type table. Names are unique.
func NewReviewTypes(s Store, t Tables) *Table[model.ReviewType] {
	return &Table[model.ReviewType]{
		store:  s,
		name:   t.ReviewType,
		entity: reviewTypeEntityOf(t),
	}
}

// Create stores v and returns it as stored.
func (t *Table[T]) Create(ctx context.Context, v *T) (*T, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", t.name, err)
	}
	entity := t.entity(v)
	if err := t.store.Create(ctx, entity, item); err != nil {
		return nil, err
	}
	return t.get(ctx, entity.GetKey())
}

// Get returns the live record with id.
func (t *Table[T]) Get(ctx context.Context, id string) (*T, error) {
	return t.get(ctx, store.IDKey(id))
}

// Update replaces the stored record with v, guarded by v's version.
// Optional attributes missing from v are removed.
func (t *Table[T]) Update(ctx context.Context, v *T, version int64) (*T, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", t.name, err)
	}
	for _, attr := range t.optional {
		if _, ok := item[attr]; !ok {
			item[attr] = &types.AttributeValueMemberNULL{Value: true}
		}
	}

	entity := t.entity(v)
	if err := t.store.Update(ctx, entity, item, version); err != nil {
		return nil, err
	}
	return t.get(ctx, entity.GetKey())
}

// Delete soft deletes v.
func (t *Table[T]) Delete(ctx context.Context, v *T) error {
	return t.store.Delete(ctx, t.entity(v), t.deletes)
}

// All returns every live record.
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	items, err := t.store.Scan(ctx, store.ScanInput{TableName: t.name})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := attributevalue.UnmarshalMap(item.Raw, &v); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", t.name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (t *Table[T]) get(ctx context.Context, key store.PK) (*T, error) {
	item, err := t.store.Get(ctx, t.name, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := attributevalue.UnmarshalMap(item.Raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", t.name, err)
	}
	return &v, nil
}

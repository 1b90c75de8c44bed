// Package stream consumes DynamoDB stream events for the submission tables.
// It propagates soft deletes to owned entities and keeps the search index in
// step with the primary store.
package stream

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/topcoder-platform/submissions-api-sub000/store"
)

// cascadeConcurrency caps parallel TTL writes to children of one entity.
const cascadeConcurrency = 8

// Cascader is the part of the store used to propagate deletes.
// *store.Store satisfies it.
type Cascader interface {
	QueryAllChildren(ctx context.Context, parentRef string) ([]store.ChildRef, error)
	SetTTLByKey(ctx context.Context, table string, key store.PK, ttl int64) error
	SetRelationshipTTL(ctx context.Context, childRef, parentRef string, ttl int64) error
	SetUniqueConstraintTTL(ctx context.Context, pk string, ttl int64) error
}

// Handler processes DynamoDB stream events.
type Handler struct {
	store    Cascader
	index    Indexer
	registry *store.Registry
	logger   *zap.Logger
}

// NewHandler creates a new stream handler. index may be nil to disable
// search synchronisation.
func NewHandler(s Cascader, index Indexer, registry *store.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    s,
		index:    index,
		registry: registry,
		logger:   logger,
	}
}

// Handle processes a batch of stream records in order. The first failure
// aborts the batch so Lambda retries it.
func (h *Handler) Handle(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				zap.String("eventID", record.EventID),
				zap.String("eventName", record.EventName),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	newImage := record.Change.NewImage
	oldImage := record.Change.OldImage

	switch record.EventName {
	case "REMOVE":
		return h.removeDocument(ctx, oldImage)
	case "INSERT", "MODIFY":
	default:
		return nil
	}

	oldTTL := getNumberAttr(oldImage, store.AttrTTL)
	newTTL := getNumberAttr(newImage, store.AttrTTL)

	switch {
	case newTTL == 0:
		return h.syncDocument(ctx, oldImage, newImage)
	case oldTTL == 0:
		if err := h.cascade(ctx, newImage, newTTL); err != nil {
			return err
		}
		return h.removeDocument(ctx, newImage)
	default:
		return nil
	}
}

// cascade sets ttl on every child of the deleted entity, its own relationship
// record and its unique constraint records. Children pick the cascade up from
// their own stream records.
func (h *Handler) cascade(ctx context.Context, image map[string]events.DynamoDBAttributeValue, ttl int64) error {
	entityRef := getStringAttr(image, store.AttrEntityRef)
	parentRef := getStringAttr(image, store.AttrParentRef)
	uniquePKs := getStringListAttr(image, store.AttrUniqueKeys)

	log := h.logger.With(zap.String("entityRef", entityRef))
	log.Info("processing cascade delete",
		zap.String("parentRef", parentRef),
		zap.Int64("ttl", ttl),
	)

	var children []store.ChildRef
	if h.registry.HasChildren(entityType(entityRef)) {
		var err error
		children, err = h.store.QueryAllChildren(ctx, entityRef)
		if err != nil {
			return fmt.Errorf("query children: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeConcurrency)
	for _, child := range children {
		g.Go(func() error {
			if err := h.store.SetTTLByKey(gctx, child.TableName, child.Key, ttl); err != nil {
				log.Warn("failed to set TTL on child",
					zap.String("child", child.Ref),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	if parentRef != "" {
		if err := h.store.SetRelationshipTTL(ctx, entityRef, parentRef, ttl); err != nil {
			log.Warn("failed to set relationship TTL",
				zap.String("parentRef", parentRef),
				zap.Error(err),
			)
		}
	}

	for _, pk := range uniquePKs {
		if err := h.store.SetUniqueConstraintTTL(ctx, pk, ttl); err != nil {
			log.Warn("failed to set unique constraint TTL",
				zap.String("pk", pk),
				zap.Error(err),
			)
		}
	}

	log.Info("cascade delete completed",
		zap.Int("childrenProcessed", len(children)),
		zap.Int("uniqueConstraints", len(uniquePKs)),
	)
	return nil
}

package stream

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/store"
)

// Indexer writes documents into the search index. *search.Client satisfies it.
type Indexer interface {
	IndexDocument(ctx context.Context, id string, doc map[string]any) error
	DeleteDocument(ctx context.Context, id string) error
	UpsertNested(ctx context.Context, parentID, path string, doc map[string]any) error
	RemoveNested(ctx context.Context, parentID, path, id string) error
}

// syncDocument writes a live entity to the search index. Owned entities are also
// copied into their parent's nested array so parent searches can filter on them.
func (h *Handler) syncDocument(ctx context.Context, oldImage, newImage map[string]events.DynamoDBAttributeValue) error {
	if h.index == nil {
		return nil
	}

	id := getStringAttr(newImage, store.AttrID)
	typ := entityType(getStringAttr(newImage, store.AttrEntityRef))
	if id == "" || typ == "" {
		return nil
	}

	doc, err := imageToDocument(newImage)
	if err != nil {
		return fmt.Errorf("decode %s %s: %w", typ, id, err)
	}
	doc["resource"] = typ

	if err := h.index.IndexDocument(ctx, id, doc); err != nil {
		return fmt.Errorf("index %s %s: %w", typ, id, err)
	}

	rel, owned := h.registry.ParentOf(typ)
	if !owned {
		return nil
	}

	parentID := getStringAttr(newImage, rel.ParentKeyAttr)
	if prevID := getStringAttr(oldImage, rel.ParentKeyAttr); prevID != "" && prevID != parentID {
		if err := h.index.RemoveNested(ctx, prevID, typ, id); err != nil {
			h.logger.Warn("failed to remove nested document from previous parent",
				zap.String("parentID", prevID),
				zap.String("id", id),
				zap.Error(err),
			)
		}
	}
	if parentID == "" {
		return nil
	}

	nested := make(map[string]any, len(doc))
	for k, v := range doc {
		if k != "resource" {
			nested[k] = v
		}
	}
	if err := h.index.UpsertNested(ctx, parentID, typ, nested); err != nil {
		return fmt.Errorf("upsert nested %s into %s: %w", typ, parentID, err)
	}
	return nil
}

// removeDocument removes a deleted entity and its nested copy from the search index.
func (h *Handler) removeDocument(ctx context.Context, image map[string]events.DynamoDBAttributeValue) error {
	if h.index == nil {
		return nil
	}

	id := getStringAttr(image, store.AttrID)
	if id == "" {
		return nil
	}
	typ := entityType(getStringAttr(image, store.AttrEntityRef))

	if err := h.index.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}

	if rel, owned := h.registry.ParentOf(typ); owned {
		if parentID := getStringAttr(image, rel.ParentKeyAttr); parentID != "" {
			if err := h.index.RemoveNested(ctx, parentID, typ, id); err != nil {
				return fmt.Errorf("remove nested %s from %s: %w", typ, parentID, err)
			}
		}
	}
	return nil
}

package store

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute names the store manages on every item. Callers never set them;
// Update silently skips them.
const (
	AttrID         = "id"
	AttrVersion    = "version"
	AttrCreated    = "created"
	AttrUpdated    = "updated"
	AttrEntityRef  = "entityRef"
	AttrParentRef  = "parentRef"
	AttrTTL        = "ttl"
	AttrUniqueKeys = "uniqueKeys"
)

// PK represents a DynamoDB primary key.
type PK map[string]types.AttributeValue

// IDKey builds the single-attribute key used by every table of the service.
func IDKey(id string) PK {
	return PK{AttrID: &types.AttributeValueMemberS{Value: id}}
}

// Entity is the base interface for all storable types.
type Entity interface {
	// TableName returns the DynamoDB table name for this entity type.
	TableName() string

	// GetKey returns the primary key for this entity.
	GetKey() PK

	// EntityRef returns the type-qualified reference (e.g., "review#uuid").
	EntityRef() string

	// EntityType returns the entity type name (e.g., "review").
	EntityType() string
}

// ParentChecker is implemented by entities holding foreign keys.
type ParentChecker interface {
	// ParentChecks returns one existence check per foreign key.
	ParentChecks() []ConditionCheck

	// ParentRef returns the owning parent's reference (e.g., "submission#uuid")
	// used for cascade deletes. Empty when the entity has no owner.
	ParentRef() string
}

// ConditionCheck defines a referenced-entity existence check for transactions.
type ConditionCheck struct {
	// Entity names the referenced type in error reports.
	Entity string

	// ID is the referenced id as supplied by the caller.
	ID string

	TableName string
	Key       PK

	// ConditionExpr is an optional custom condition expression.
	// If empty, ParentExistsCondition() is used.
	ConditionExpr string
}

// UniqueFielder is implemented by entities with unique field constraints.
type UniqueFielder interface {
	// UniqueFields returns field name to value mappings for fields
	// that must be unique within the parent scope (or the entity type for roots).
	UniqueFields() map[string]string
}

// Item represents a retrieved DynamoDB item with its managed fields decoded.
type Item struct {
	// Raw is the raw DynamoDB item.
	Raw map[string]types.AttributeValue

	Version   int64
	Created   string
	Updated   string
	EntityRef string
	ParentRef string
}

// ChildRef represents a reference to a child entity in the relationship table.
type ChildRef struct {
	Ref       string
	TableName string
	Key       PK

	// ShardPK is the relationship table partition key (for TTL updates).
	ShardPK string
}

// QueryInput defines parameters for querying entities.
type QueryInput struct {
	TableName                 string
	IndexName                 string
	KeyConditionExpression    string
	FilterExpression          string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]types.AttributeValue

	// Limit caps the items evaluated per page (0 = no limit).
	Limit int32

	ScanIndexForward *bool
}

// ScanInput defines a full-table scan with an optional filter. Deleted items
// are always filtered out.
type ScanInput struct {
	TableName                 string
	FilterExpression          string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]types.AttributeValue
}

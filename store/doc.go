// Package store is the DynamoDB data access layer behind the submissions API.
//
// Submissions, reviews, review summations and review types each live in their
// own table. The store adds the bookkeeping those tables share:
//
//   - foreign key checks executed inside the write transaction
//   - soft delete through a TTL attribute, cascaded to children via DynamoDB Streams
//   - optimistic locking with a version attribute
//   - unique field constraints scoped to a parent (or to the entity type for roots)
//   - a relationship table indexing children by parent for cascades
//
// # Entity Interfaces
//
// Every stored type is adapted to [Entity]:
//
//	type Entity interface {
//	    TableName() string
//	    GetKey() PK
//	    EntityRef() string
//	    EntityType() string
//	}
//
// Types holding foreign keys implement [ParentChecker]. Each returned
// [ConditionCheck] becomes a ConditionCheck item of the transaction; a failure
// is reported as a [*ReferenceError] naming the missing id:
//
//	type ParentChecker interface {
//	    ParentChecks() []ConditionCheck
//	    ParentRef() string
//	}
//
// Types with unique fields implement [UniqueFielder].
//
// # Deletes
//
// Delete never removes an item. It sets the ttl attribute to now; Get, Query
// and Scan treat such items as missing. The stream handler in package stream
// propagates the same TTL to every child recorded in the relationship table
// and DynamoDB's TTL sweeper removes the items later.
//
// # Sharding
//
// The relationship table partition key is parentRef#NN. With NumShards=1
// (default) a parent's children are read with one query; larger values spread
// writes and fan reads out across shards.
package store

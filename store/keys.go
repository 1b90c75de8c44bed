package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
)

// relationshipShardPK returns the relationship partition key for shard n.
func relationshipShardPK(parentRef string, n int) string {
	return fmt.Sprintf("%s#%02x", parentRef, n)
}

// relationshipPK places a child on one of numShards partitions by hashing its ref.
func relationshipPK(parentRef, childRef string, numShards int) string {
	if numShards <= 1 {
		return relationshipShardPK(parentRef, 0)
	}
	h := fnv.New32a()
	h.Write([]byte(childRef))
	return relationshipShardPK(parentRef, int(h.Sum32()%uint32(numShards)))
}

// uniqueScope is the namespace a unique value is checked in: the parent when
// the entity has one, otherwise every entity of the same type.
func uniqueScope(parentRef, entityType string) string {
	if parentRef != "" {
		return parentRef
	}
	return "root#" + entityType
}

// uniqueConstraintPK hashes a constraint so each value lands on its own partition.
func uniqueConstraintPK(scope, entityType, field, value string) string {
	h := sha256.Sum256([]byte(scope + "#" + entityType + "#" + field + "#" + value))
	return hex.EncodeToString(h[:16])
}

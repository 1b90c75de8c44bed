package store

import (
	"maps"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IsDeleted reports whether an item carries a TTL at or before now.
func IsDeleted(item map[string]types.AttributeValue) bool {
	ttlAttr, exists := item[AttrTTL]
	if !exists {
		return false
	}
	ttlNum, ok := ttlAttr.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	ttl, err := strconv.ParseInt(ttlNum.Value, 10, 64)
	if err != nil {
		return false
	}
	return ttl <= time.Now().Unix()
}

// TTLFilterExpr returns the filter expression excluding deleted items.
func TTLFilterExpr() string {
	return "attribute_not_exists(#ttl) OR #ttl > :now"
}

// TTLFilterNames returns expression attribute names for TTLFilterExpr.
func TTLFilterNames() map[string]string {
	return map[string]string{"#ttl": AttrTTL}
}

// TTLFilterValues returns expression attribute values for TTLFilterExpr.
func TTLFilterValues(now time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":now": numberAttr(now.Unix()),
	}
}

// ParentExistsCondition is the default foreign key condition: the referenced
// item exists and is not soft deleted.
func ParentExistsCondition() string {
	return "attribute_exists(id) AND (attribute_not_exists(#ttl) OR #ttl > :now)"
}

// withTTLFilter merges a caller filter with the TTL filter.
func withTTLFilter(filter string, names map[string]string, values map[string]types.AttributeValue, now time.Time) (string, map[string]string, map[string]types.AttributeValue) {
	expr := TTLFilterExpr()
	if filter != "" {
		expr = "(" + filter + ") AND (" + expr + ")"
	}
	mergedNames := TTLFilterNames()
	maps.Copy(mergedNames, names)
	mergedValues := TTLFilterValues(now)
	maps.Copy(mergedValues, values)
	return expr, mergedNames, mergedValues
}

func numberAttr(n int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func stringAttr(s string) *types.AttributeValueMemberS {
	return &types.AttributeValueMemberS{Value: s}
}

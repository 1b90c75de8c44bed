package stream

import (
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/topcoder-platform/submissions-api-sub000/store"
)

// internalAttrs are bookkeeping attributes kept out of search documents.
var internalAttrs = map[string]bool{
	store.AttrVersion:    true,
	store.AttrEntityRef:  true,
	store.AttrParentRef:  true,
	store.AttrTTL:        true,
	store.AttrUniqueKeys: true,
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}

// getStringListAttr extracts a string list attribute from a DynamoDB stream image.
func getStringListAttr(image map[string]events.DynamoDBAttributeValue, key string) []string {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeList {
			var result []string
			for _, item := range v.List() {
				if item.DataType() == events.DataTypeString {
					result = append(result, item.String())
				}
			}
			return result
		}
	}
	return nil
}

// entityType returns the type prefix of an entity reference ("review#id" -> "review").
func entityType(entityRef string) string {
	typ, _, _ := strings.Cut(entityRef, "#")
	return typ
}

// ConvertStreamKey converts a DynamoDB stream key to a store.PK.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) store.PK {
	result := make(store.PK, len(streamKey))
	for k, v := range streamKey {
		if av := convertAttr(v); av != nil {
			result[k] = av
		}
	}
	return result
}

// imageToDocument decodes a stream image into a search document without
// the store's bookkeeping attributes.
func imageToDocument(image map[string]events.DynamoDBAttributeValue) (map[string]any, error) {
	item := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		if internalAttrs[k] {
			continue
		}
		if av := convertAttr(v); av != nil {
			item[k] = av
		}
	}

	doc := make(map[string]any, len(item))
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// convertAttr maps a stream attribute onto the SDK's attribute value types.
func convertAttr(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(v.List()))
		for _, item := range v.List() {
			if av := convertAttr(item); av != nil {
				list = append(list, av)
			}
		}
		return &types.AttributeValueMemberL{Value: list}
	case events.DataTypeMap:
		m := make(map[string]types.AttributeValue, len(v.Map()))
		for k, item := range v.Map() {
			if av := convertAttr(item); av != nil {
				m[k] = av
			}
		}
		return &types.AttributeValueMemberM{Value: m}
	default:
		return nil
	}
}

package stream

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func TestGetStringAttr(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"name":  events.NewStringAttribute("test-value"),
		"count": events.NewNumberAttribute("3"),
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"name", "test-value"},
		{"missing", ""},
		{"count", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := getStringAttr(image, tt.key); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	if got := getStringAttr(nil, "name"); got != "" {
		t.Errorf("expected empty string for nil image, got %q", got)
	}
}

func TestGetNumberAttr(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"ttl":   events.NewNumberAttribute("1700000000"),
		"bad":   events.NewNumberAttribute("abc"),
		"str":   events.NewStringAttribute("12"),
		"float": events.NewNumberAttribute("1.5"),
	}

	tests := []struct {
		key      string
		expected int64
	}{
		{"ttl", 1700000000},
		{"bad", 0},
		{"str", 0},
		{"float", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := getNumberAttr(image, tt.key); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestGetStringListAttr(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"keys": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewStringAttribute("a"),
			events.NewNumberAttribute("1"),
			events.NewStringAttribute("b"),
		}),
		"notList": events.NewStringAttribute("a"),
	}

	got := getStringListAttr(image, "keys")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
	if getStringListAttr(image, "notList") != nil {
		t.Error("expected nil for non-list attribute")
	}
	if getStringListAttr(image, "missing") != nil {
		t.Error("expected nil for missing attribute")
	}
}

func TestEntityType(t *testing.T) {
	tests := map[string]string{
		"review#abc":          "review",
		"reviewSummation#x#y": "reviewSummation",
		"noHash":              "noHash",
		"":                    "",
	}
	for ref, expected := range tests {
		if got := entityType(ref); got != expected {
			t.Errorf("entityType(%q): expected %q, got %q", ref, expected, got)
		}
	}
}

func TestImageToDocument(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"id":        events.NewStringAttribute("r1"),
		"score":     events.NewNumberAttribute("100"),
		"isPassing": events.NewBooleanAttribute(true),
		"metadata": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
			"testType": events.NewStringAttribute("provisional"),
		}),
		"version":   events.NewNumberAttribute("3"),
		"ttl":       events.NewNumberAttribute("1"),
		"entityRef": events.NewStringAttribute("review#r1"),
	}

	doc, err := imageToDocument(image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc["id"] != "r1" {
		t.Errorf("expected id 'r1', got %v", doc["id"])
	}
	if doc["score"] != float64(100) {
		t.Errorf("expected score 100, got %v (%T)", doc["score"], doc["score"])
	}
	if doc["isPassing"] != true {
		t.Errorf("expected isPassing true, got %v", doc["isPassing"])
	}
	meta, ok := doc["metadata"].(map[string]any)
	if !ok || meta["testType"] != "provisional" {
		t.Errorf("expected nested metadata, got %v", doc["metadata"])
	}
	for _, attr := range []string{"version", "ttl", "entityRef"} {
		if _, ok := doc[attr]; ok {
			t.Errorf("expected %q to be dropped", attr)
		}
	}
}

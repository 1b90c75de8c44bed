package store_test

import (
	"testing"

	"github.com/topcoder-platform/submissions-api-sub000/store"
)

func newSubmissionRegistry() *store.Registry {
	r := store.NewRegistry()
	r.Register(store.Relationship{
		ParentType:     "submission",
		ChildType:      "review",
		ChildTableName: "Review",
		ParentKeyAttr:  "submissionId",
	})
	r.Register(store.Relationship{
		ParentType:     "submission",
		ChildType:      "reviewSummation",
		ChildTableName: "ReviewSummation",
		ParentKeyAttr:  "submissionId",
	})
	return r
}

func TestRegistry_ChildrenOf(t *testing.T) {
	r := newSubmissionRegistry()

	children := r.ChildrenOf("submission")
	if len(children) != 2 {
		t.Fatalf("expected 2 children for submission, got %d", len(children))
	}
	if children[0].ChildType != "review" {
		t.Errorf("expected first child 'review', got %q", children[0].ChildType)
	}
	if children[1].ChildTableName != "ReviewSummation" {
		t.Errorf("expected second child table 'ReviewSummation', got %q", children[1].ChildTableName)
	}

	if len(r.ChildrenOf("review")) != 0 {
		t.Error("expected review to be a leaf")
	}
}

func TestRegistry_HasChildren(t *testing.T) {
	r := newSubmissionRegistry()

	tests := []struct {
		entityType string
		expected   bool
	}{
		{"submission", true},
		{"review", false},
		{"reviewType", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.entityType, func(t *testing.T) {
			if got := r.HasChildren(tt.entityType); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRegistry_NilRegistry(t *testing.T) {
	var r *store.Registry

	if !r.HasChildren("submission") {
		t.Error("expected nil registry to report possible children")
	}
	if _, ok := r.ParentOf("review"); ok {
		t.Error("expected nil registry to know no parents")
	}
}

func TestRegistry_ParentOf(t *testing.T) {
	r := newSubmissionRegistry()

	rel, ok := r.ParentOf("reviewSummation")
	if !ok {
		t.Fatal("expected reviewSummation to have a parent")
	}
	if rel.ParentType != "submission" {
		t.Errorf("expected parent 'submission', got %q", rel.ParentType)
	}
	if rel.ParentKeyAttr != "submissionId" {
		t.Errorf("expected parent key 'submissionId', got %q", rel.ParentKeyAttr)
	}

	if _, ok := r.ParentOf("submission"); ok {
		t.Error("expected submission to be a root")
	}
}

func TestRegistry_AllRelationships_Order(t *testing.T) {
	r := store.NewRegistry()
	r.Register(store.Relationship{ParentType: "a", ChildType: "b"})
	r.Register(store.Relationship{ParentType: "c", ChildType: "d"})
	r.Register(store.Relationship{ParentType: "a", ChildType: "e"})

	rels := r.AllRelationships()
	if len(rels) != 3 {
		t.Fatalf("expected 3 relationships, got %d", len(rels))
	}
	for i, want := range []string{"b", "d", "e"} {
		if rels[i].ChildType != want {
			t.Errorf("relationship %d: expected child %q, got %q", i, want, rels[i].ChildType)
		}
	}
	if len(r.ChildrenOf("a")) != 2 {
		t.Errorf("expected 2 children for 'a', got %d", len(r.ChildrenOf("a")))
	}
}

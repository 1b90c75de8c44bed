package repository

import (
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/store"
)

// Tables names the DynamoDB table of each resource.
type Tables struct {
	Submission      string
	Review          string
	ReviewSummation string
	ReviewType      string
}

func DefaultTables() Tables {
	return Tables{
		Submission:      "Submission",
		Review:          "Review",
		ReviewSummation: "ReviewSummation",
		ReviewType:      "ReviewType",
	}
}

// NewRegistry declares the submission's ownership of its reviews and
// review summations.
func NewRegistry(t Tables) *store.Registry {
	r := store.NewRegistry()
	r.Register(store.Relationship{
		ParentType:     model.ResourceSubmission,
		ChildType:      model.ResourceReview,
		ChildTableName: t.Review,
		ParentKeyAttr:  "submissionId",
	})
	r.Register(store.Relationship{
		ParentType:     model.ResourceSubmission,
		ChildType:      model.ResourceReviewSummation,
		ChildTableName: t.ReviewSummation,
		ParentKeyAttr:  "submissionId",
	})
	return r
}

func ref(entityType, id string) string {
	return entityType + "#" + id
}

type baseEntity struct {
	table      string
	entityType string
	id         string
}

func (e baseEntity) TableName() string  { return e.table }
func (e baseEntity) GetKey() store.PK   { return store.IDKey(e.id) }
func (e baseEntity) EntityRef() string  { return ref(e.entityType, e.id) }
func (e baseEntity) EntityType() string { return e.entityType }

func submissionCheck(t Tables, id string) store.ConditionCheck {
	return store.ConditionCheck{
		Entity:    "Submission",
		ID:        id,
		TableName: t.Submission,
		Key:       store.IDKey(id),
	}
}

type reviewEntity struct {
	baseEntity
	tables       Tables
	submissionID string
	typeID       string
}

func (e reviewEntity) ParentChecks() []store.ConditionCheck {
	return []store.ConditionCheck{
		submissionCheck(e.tables, e.submissionID),
		{
			Entity:    "Review type",
			ID:        e.typeID,
			TableName: e.tables.ReviewType,
			Key:       store.IDKey(e.typeID),
		},
	}
}

func (e reviewEntity) ParentRef() string {
	return ref(model.ResourceSubmission, e.submissionID)
}

type summationEntity struct {
	baseEntity
	tables       Tables
	submissionID string
}

func (e summationEntity) ParentChecks() []store.ConditionCheck {
	return []store.ConditionCheck{submissionCheck(e.tables, e.submissionID)}
}

func (e summationEntity) ParentRef() string {
	return ref(model.ResourceSubmission, e.submissionID)
}

type reviewTypeEntity struct {
	baseEntity
	name string
}

func (e reviewTypeEntity) UniqueFields() map[string]string {
	return map[string]string{"name": e.name}
}

func submissionEntity(t Tables) func(*model.Submission) store.Entity {
	return func(s *model.Submission) store.Entity {
		return baseEntity{table: t.Submission, entityType: model.ResourceSubmission, id: s.ID}
	}
}

func reviewEntityOf(t Tables) func(*model.Review) store.Entity {
	return func(r *model.Review) store.Entity {
		return reviewEntity{
			baseEntity:   baseEntity{table: t.Review, entityType: model.ResourceReview, id: r.ID},
			tables:       t,
			submissionID: r.SubmissionID,
			typeID:       r.TypeID,
		}
	}
}

func summationEntityOf(t Tables) func(*model.ReviewSummation) store.Entity {
	return func(s *model.ReviewSummation) store.Entity {
		return summationEntity{
			baseEntity:   baseEntity{table: t.ReviewSummation, entityType: model.ResourceReviewSummation, id: s.ID},
			tables:       t,
			submissionID: s.SubmissionID,
		}
	}
}

func reviewTypeEntityOf(t Tables) func(*model.ReviewType) store.Entity {
	return func(rt *model.ReviewType) store.Entity {
		return reviewTypeEntity{
			baseEntity: baseEntity{table: t.ReviewType, entityType: model.ResourceReviewType, id: rt.ID},
			name:       rt.Name,
		}
	}
}

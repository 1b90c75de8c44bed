package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
	"github.com/topcoder-platform/submissions-api-sub000/internal/bus"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/search"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type submissionFixture struct {
	repo       *mockRepo[model.Submission]
	search     *mockSearcher
	access     *mockAccess
	challenges *mockChallenges
	publisher  *mockPublisher
	svc        *SubmissionService
}

func newSubmissionFixture() *submissionFixture {
	f := &submissionFixture{
		repo:       newMockRepo(submissionID),
		search:     &mockSearcher{docs: map[string]map[string]any{}},
		access:     &mockAccess{createPhase: challenge.Phase{Name: challenge.PhaseSubmission, PhaseID: "ph-access"}},
		challenges: testChallenges(),
		publisher:  &mockPublisher{},
	}
	reconciler := challenge.NewReconciler(f.challenges, nil)
	f.svc = NewSubmissionService(f.repo, f.search, f.access, f.challenges, reconciler, f.publisher, nil)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func submissionBody(challengeID any) Body {
	return Body{
		"type":          "Contest Submission",
		"url":           "https://example.com/submission.zip",
		"memberId":      40051,
		"challengeId":   challengeID,
		"submittedDate": "2020-01-01T00:00:00Z",
	}
}

func TestSubmissionService_CreateAsMember(t *testing.T) {
	f := newSubmissionFixture()

	created, err := f.svc.Create(context.Background(), member, submissionBody(30054163))
	require.NoError(t, err)

	assert.Equal(t, []string{"create"}, f.access.calls)
	assert.Equal(t, model.ID(legacyChallenge), created.ChallengeID)
	assert.Equal(t, model.ID(v5Challenge), created.V5ChallengeID)
	assert.Equal(t, "ph-access", created.SubmissionPhaseID)
	assert.Equal(t, fixedNow, *created.SubmittedDate, "members cannot choose the submitted date")
	assert.Equal(t, "denis", created.CreatedBy)

	stored := f.repo.items[created.ID]
	assert.Equal(t, model.ID(v5Challenge), stored.ChallengeID)
	assert.Equal(t, model.ID(legacyChallenge), stored.LegacyChallengeID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, bus.TopicCreate, f.publisher.events[0].topic)
	assert.Equal(t, model.ResourceSubmission, f.publisher.events[0].payload["resource"])
}

func TestSubmissionService_CreatePrivileged(t *testing.T) {
	for _, p := range []struct {
		name string
		fn   func(*submissionFixture) (*model.Submission, error)
	}{
		{"admin", func(f *submissionFixture) (*model.Submission, error) {
			return f.svc.Create(context.Background(), admin, submissionBody(v5Challenge))
		}},
		{"machine", func(f *submissionFixture) (*model.Submission, error) {
			return f.svc.Create(context.Background(), machine, submissionBody(v5Challenge))
		}},
	} {
		t.Run(p.name, func(t *testing.T) {
			f := newSubmissionFixture()
			created, err := p.fn(f)
			require.NoError(t, err)

			assert.Empty(t, f.access.calls)
			assert.Equal(t, "ph-sub", created.SubmissionPhaseID)
			assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), created.SubmittedDate.UTC())
			assert.Equal(t, model.ID(legacyChallenge), created.ChallengeID)
			assert.Equal(t, model.ID(v5Challenge), created.V5ChallengeID)
		})
	}
}

func TestSubmissionService_CreateFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing url", func(t *testing.T) {
		body := submissionBody(v5Challenge)
		delete(body, "url")
		_, err := newSubmissionFixture().svc.Create(ctx, admin, body)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, `"url" is required`, apperr.Message(err))
	})

	t.Run("unknown legacy challenge", func(t *testing.T) {
		_, err := newSubmissionFixture().svc.Create(ctx, admin, submissionBody(999))
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, "Challenge with id 999 not found", apperr.Message(err))
	})

	t.Run("challenge api down", func(t *testing.T) {
		f := newSubmissionFixture()
		f.challenges.err = errors.New("timeout")
		_, err := f.svc.Create(ctx, member, submissionBody(v5Challenge))
		assert.Equal(t, apperr.KindServiceUnavailable, apperr.KindOf(err))
	})

	t.Run("access denied", func(t *testing.T) {
		f := newSubmissionFixture()
		f.access.createErr = apperr.Forbidden("You are not allowed to submit on behalf of others")
		_, err := f.svc.Create(ctx, member, submissionBody(v5Challenge))
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
		assert.Empty(t, f.repo.items)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		f := newSubmissionFixture()
		f.publisher.err = errors.New("redis down")
		_, err := f.svc.Create(ctx, admin, submissionBody(v5Challenge))
		assert.NoError(t, err)
		assert.Len(t, f.repo.items, 1)
	})
}

func TestSubmissionService_Get(t *testing.T) {
	ctx := context.Background()
	f := newSubmissionFixture()
	f.repo.put(model.Submission{ID: "s1", MemberID: "40052", ChallengeID: v5Challenge, LegacyChallengeID: legacyChallenge})
	f.search.docs["s1"] = map[string]any{
		"id": "s1",
		"review": []any{
			map[string]any{"id": "r1", "score": 90, "metadata": map[string]any{"private": "x", "public": "y"}},
		},
		"reviewSummation": []any{
			map[string]any{"id": "rs1", "isPassing": true},
		},
	}

	t.Run("member", func(t *testing.T) {
		sub, err := f.svc.Get(ctx, member, "s1")
		require.NoError(t, err)
		assert.Contains(t, f.access.calls, "readSubmission")
		require.Len(t, sub.Review, 1)
		assert.Equal(t, map[string]any{"public": "y"}, sub.Review[0].Metadata)
		require.Len(t, sub.ReviewSummation, 1)
		assert.True(t, sub.ReviewSummation[0].IsPassing)
		assert.Equal(t, model.ID(legacyChallenge), sub.ChallengeID)
	})

	t.Run("admin sees private metadata", func(t *testing.T) {
		sub, err := f.svc.Get(ctx, admin, "s1")
		require.NoError(t, err)
		assert.Contains(t, sub.Review[0].Metadata, "private")
	})

	t.Run("member denied", func(t *testing.T) {
		f.access.readErr = apperr.Forbidden("You cannot access other member submission")
		defer func() { f.access.readErr = nil }()
		_, err := f.svc.Get(ctx, member, "s1")
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := f.svc.Get(ctx, admin, "nope")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, "Submission with ID = nope is not found", apperr.Message(err))
	})

	t.Run("not yet indexed", func(t *testing.T) {
		f.repo.put(model.Submission{ID: "s2", MemberID: "40051", ChallengeID: v5Challenge})
		sub, err := f.svc.Get(ctx, member, "s2")
		require.NoError(t, err)
		assert.Empty(t, sub.Review)
	})
}

func TestSubmissionService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("legacy challenge filter is converted", func(t *testing.T) {
		f := newSubmissionFixture()
		f.search.result = &search.Result{
			Total: 1, Page: 1, PageSize: 20,
			Rows: []map[string]any{{"id": "s1", "challengeId": v5Challenge, "legacyChallengeId": 30054163, "memberId": "40051"}},
		}

		page, err := f.svc.List(ctx, admin, map[string]any{"challengeId": legacyChallenge})
		require.NoError(t, err)
		require.Len(t, f.search.requests, 1)

		filters := f.search.requests[0].Filters()
		assert.Contains(t, filters, map[string]any{"match_phrase": map[string]any{"challengeId": v5Challenge}})

		require.Len(t, page.Rows, 1)
		assert.Equal(t, model.ID(legacyChallenge), page.Rows[0].ChallengeID)
		assert.Equal(t, model.ID(v5Challenge), page.Rows[0].V5ChallengeID)
		assert.Equal(t, 1, page.TotalPages())
	})

	t.Run("unknown legacy challenge yields an empty page", func(t *testing.T) {
		f := newSubmissionFixture()
		page, err := f.svc.List(ctx, admin, map[string]any{"challengeId": "999", "perPage": "5"})
		require.NoError(t, err)
		assert.Empty(t, f.search.requests)
		assert.Empty(t, page.Rows)
		assert.Equal(t, 5, page.PageSize)
		assert.Equal(t, 0, page.Total)
	})

	t.Run("invalid sort is rejected", func(t *testing.T) {
		f := newSubmissionFixture()
		_, err := f.svc.List(ctx, admin, map[string]any{"orderBy": "desc"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestSubmissionService_Update(t *testing.T) {
	ctx := context.Background()
	submitted := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := model.Submission{
		ID: "s1", Type: "Contest Submission", URL: "https://a", MemberID: "40051",
		ChallengeID: v5Challenge, LegacyChallengeID: legacyChallenge, SubmittedDate: &submitted,
		Audit: model.Audit{Created: "2021-01-01T00:00:00Z", CreatedBy: "denis", Version: 3},
	}

	t.Run("patch keeps untouched fields", func(t *testing.T) {
		f := newSubmissionFixture()
		f.repo.put(seed)

		updated, err := f.svc.Update(ctx, admin, "s1", Body{"url": "https://b", "id": "hijack"}, true)
		require.NoError(t, err)
		assert.Equal(t, "s1", updated.ID)
		assert.Equal(t, "https://b", updated.URL)
		assert.Equal(t, "Contest Submission", updated.Type)
		assert.Equal(t, "denis", updated.CreatedBy)
		assert.Equal(t, "admin", updated.UpdatedBy)
		assert.Equal(t, []int64{3}, f.repo.versions)
		assert.Equal(t, model.ID(legacyChallenge), updated.ChallengeID)

		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, bus.TopicUpdate, f.publisher.events[0].topic)
	})

	t.Run("put requires every field", func(t *testing.T) {
		f := newSubmissionFixture()
		f.repo.put(seed)
		_, err := f.svc.Update(ctx, admin, "s1", Body{"url": "https://b"}, false)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("legacy challenge id is kept as the same challenge", func(t *testing.T) {
		f := newSubmissionFixture()
		f.challenges.err = errors.New("should not be called")
		f.repo.put(seed)
		_, err := f.svc.Update(ctx, admin, "s1", submissionBody(30054163), false)
		require.NoError(t, err)
		assert.Equal(t, model.ID(v5Challenge), f.repo.items["s1"].ChallengeID)
	})

	t.Run("members cannot move the submitted date", func(t *testing.T) {
		f := newSubmissionFixture()
		f.repo.put(seed)
		_, err := f.svc.Update(ctx, member, "s1", Body{"submittedDate": "2030-01-01T00:00:00Z"}, true)
		require.NoError(t, err)
		assert.Equal(t, submitted, *f.repo.items["s1"].SubmittedDate)
	})
}

func TestSubmissionService_Delete(t *testing.T) {
	f := newSubmissionFixture()
	f.repo.put(model.Submission{ID: "s1"})

	require.NoError(t, f.svc.Delete(context.Background(), admin, "s1"))
	assert.Equal(t, []string{"s1"}, f.repo.deleted)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, bus.TopicDelete, f.publisher.events[0].topic)
	assert.Equal(t, "s1", f.publisher.events[0].payload["id"])

	err := f.svc.Delete(context.Background(), admin, "s1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSubmissionLookup(t *testing.T) {
	searcher := &mockSearcher{result: &search.Result{
		Rows: []map[string]any{{"id": "s1", "reviewSummation": []any{map[string]any{"isPassing": true}}}},
	}}
	subs, err := NewSubmissionLookup(searcher).MemberSubmissions(context.Background(), v5Challenge, "40051")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].ReviewSummation[0].IsPassing)

	req := searcher.requests[0]
	assert.Equal(t, search.MaxPageSize, req.PerPage)
	assert.Contains(t, req.Filters(), map[string]any{"match_phrase": map[string]any{"memberId": "40051"}})
}

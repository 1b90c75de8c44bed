package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/cache"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
	"github.com/topcoder-platform/submissions-api-sub000/search"
	"github.com/topcoder-platform/submissions-api-sub000/store"
)

type mockRepo[T any] struct {
	mu        sync.Mutex
	items     map[string]T
	idOf      func(*T) string
	createErr error
	updateErr error
	versions  []int64
	deleted   []string
	scans     int
}

func newMockRepo[T any](idOf func(*T) string) *mockRepo[T] {
	return &mockRepo[T]{items: make(map[string]T), idOf: idOf}
}

func (m *mockRepo[T]) Create(_ context.Context, v *T) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.items[m.idOf(v)] = *v
	out := *v
	return &out, nil
}

func (m *mockRepo[T]) Get(_ context.Context, id string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (m *mockRepo[T]) Update(_ context.Context, v *T, version int64) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.versions = append(m.versions, version)
	m.items[m.idOf(v)] = *v
	out := *v
	return &out, nil
}

func (m *mockRepo[T]) Delete(_ context.Context, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.idOf(v)
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRepo[T]) All(context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	out := make([]T, 0, len(m.items))
	for _, v := range m.items {
		out = append(out, v)
	}
	return out, nil
}

func (m *mockRepo[T]) put(v T) {
	m.items[m.idOf(&v)] = v
}

type mockSearcher struct {
	result   *search.Result
	docs     map[string]map[string]any
	err      error
	requests []*search.Request
}

func (m *mockSearcher) Search(_ context.Context, req *search.Request) (*search.Result, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &search.Result{PageSize: req.PerPage, Page: req.Page}, nil
	}
	return m.result, nil
}

func (m *mockSearcher) GetDocument(_ context.Context, id string) (map[string]any, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, search.ErrNotFound
	}
	return doc, nil
}

type mockAccess struct {
	createPhase challenge.Phase
	createErr   error
	readErr     error
	readReview  bool
	calls       []string
}

func (m *mockAccess) CanCreateSubmission(context.Context, policy.Principal, string, *challenge.Challenge) (challenge.Phase, error) {
	m.calls = append(m.calls, "create")
	return m.createPhase, m.createErr
}

func (m *mockAccess) CanReadSubmission(context.Context, policy.Principal, *model.Submission) error {
	m.calls = append(m.calls, "readSubmission")
	return m.readErr
}

func (m *mockAccess) CanReadReview(context.Context, policy.Principal, *model.Submission) bool {
	m.calls = append(m.calls, "readReview")
	return m.readReview
}

type mockChallenges struct {
	byID map[string]*challenge.Challenge
	err  error
}

func (m *mockChallenges) GetChallenge(_ context.Context, id string) (*challenge.Challenge, error) {
	if m.err != nil {
		return nil, m.err
	}
	ch, ok := m.byID[id]
	if !ok {
		return nil, challenge.ErrNotFound
	}
	return ch, nil
}

type published struct {
	topic   string
	payload map[string]any
}

type mockPublisher struct {
	events []published
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, topic string, payload any) error {
	m.events = append(m.events, published{topic: topic, payload: payload.(map[string]any)})
	return m.err
}

const (
	v5Challenge     = "a5b8b5c8-1c2d-4e5f-8a9b-0c1d2e3f4a5b"
	legacyChallenge = "30054163"
	v5ScoreCard     = "c56a4180-65aa-42ec-a945-5fd21dec0501"
)

var (
	admin   = policy.Human("1", "admin", policy.RoleAdministrator)
	member  = policy.Human("40051", "denis", policy.RoleTopcoderUser)
	machine = policy.Service("all:submission")
)

func testChallenges() *mockChallenges {
	ch := &challenge.Challenge{
		ID:       v5Challenge,
		LegacyID: 30054163,
		Phases: []challenge.Phase{
			{Name: challenge.PhaseSubmission, PhaseID: "ph-sub", IsOpen: true},
		},
	}
	return &mockChallenges{byID: map[string]*challenge.Challenge{v5Challenge: ch, legacyChallenge: ch}}
}

func submissionID(s *model.Submission) string { return s.ID }
func reviewID(r *model.Review) string { return r.ID }
func summationID(s *model.ReviewSummation) string { return s.ID }
func reviewTypeID(rt *model.ReviewType) string { return rt.ID }

func newReviewTypeCache(t *testing.T) *cache.Cache[[]model.ReviewType] {
	t.Helper()
	c, err := cache.New[[]model.ReviewType](cache.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

package policy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/cache"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
)

const (
	challengeID = "a5b8b5c8-1c2d-4e5f-8a9b-0c1d2e3f4a5b"
	memberID    = "40051"
	otherMember = "40052"
)

var (
	now  = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past = now.Add(-time.Hour)
)

var roleTable = []challenge.ResourceRole{
	{ID: "r-manager", Name: policy.ResourceManager},
	{ID: "r-copilot", Name: policy.ResourceCopilot},
	{ID: "r-observer", Name: policy.ResourceObserver},
	{ID: "r-reviewer", Name: policy.ResourceReviewer},
	{ID: "r-iterative", Name: policy.ResourceIterativeReviewer},
	{ID: "r-submitter", Name: policy.ResourceSubmitter},
	{ID: "r-client", Name: policy.ResourceClientManager},
	{ID: "r-screener", Name: policy.ResourcePrimaryScreener},
}

type fakeResources struct {
	mu        sync.Mutex
	byMember  map[string][]string
	roles     []challenge.ResourceRole
	err       error
	rolesErr  error
	roleCalls int
	resources int
}

func (f *fakeResources) GetResources(_ context.Context, _, member string) ([]challenge.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources++
	if f.err != nil {
		return nil, f.err
	}
	var out []challenge.Resource
	for _, roleID := range f.byMember[member] {
		out = append(out, challenge.Resource{MemberID: member, RoleID: roleID})
	}
	return out, nil
}

func (f *fakeResources) GetResourceRoles(context.Context) ([]challenge.ResourceRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleCalls++
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return f.roles, nil
}

type fakeChallenges struct {
	challenge *challenge.Challenge
	err       error
}

func (f *fakeChallenges) GetChallenge(context.Context, string) (*challenge.Challenge, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.challenge, nil
}

type fakeLookup struct {
	subs []model.Submission
	err  error
}

func (f *fakeLookup) MemberSubmissions(context.Context, string, string) ([]model.Submission, error) {
	return f.subs, f.err
}

var errUpstream = errors.New("upstream unavailable")

func newNameCache(t *testing.T) *cache.Cache[string] {
	t.Helper()
	c, err := cache.New[string](cache.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

type fixture struct {
	resources  *fakeResources
	challenges *fakeChallenges
	lookup     *fakeLookup
	engine     *policy.Engine
}

func newFixture(t *testing.T, ch *challenge.Challenge, roleIDs ...string) *fixture {
	t.Helper()
	f := &fixture{
		resources: &fakeResources{
			byMember: map[string][]string{memberID: roleIDs},
			roles:    roleTable,
		},
		challenges: &fakeChallenges{challenge: ch},
		lookup:     &fakeLookup{},
	}
	roles := policy.NewRoleResolver(f.resources, newNameCache(t))
	f.engine = policy.NewEngine(f.challenges, roles, f.lookup, nil)
	f.engine.SetClock(func() time.Time { return now })
	return f
}

func phase(name string, open bool) challenge.Phase {
	return challenge.Phase{Name: name, PhaseID: "ph-" + name, IsOpen: open}
}

func closedPhase(name string) challenge.Phase {
	end := past
	return challenge.Phase{Name: name, PhaseID: "ph-" + name, ActualEndDate: &end}
}

func newChallenge(subTrack string, phases ...challenge.Phase) *challenge.Challenge {
	return &challenge.Challenge{
		ID:     challengeID,
		Legacy: challenge.Legacy{SubTrack: subTrack},
		Phases: phases,
	}
}

func otherSubmission() *model.Submission {
	return &model.Submission{ID: "s-other", MemberID: otherMember, ChallengeID: challengeID}
}

func member() policy.Principal {
	return policy.Human(memberID, "denis", policy.RoleTopcoderUser)
}

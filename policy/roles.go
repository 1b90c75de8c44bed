package policy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/cache"
)

// Resource roles a member can hold on a challenge.
const (
	ResourceManager           = "Manager"
	ResourceCopilot           = "Copilot"
	ResourceObserver          = "Observer"
	ResourceReviewer          = "Reviewer"
	ResourceIterativeReviewer = "Iterative Reviewer"
	ResourceSubmitter         = "Submitter"
	ResourceClientManager     = "Client Manager"
	ResourcePrimaryScreener   = "Primary Screener"
)

var errUnknownRole = errors.New("unknown resource role")

// ResourceAPI reads resource assignments and the role table.
// *challenge.Client satisfies it.
type ResourceAPI interface {
	GetResources(ctx context.Context, challengeID, memberID string) ([]challenge.Resource, error)
	GetResourceRoles(ctx context.Context) ([]challenge.ResourceRole, error)
}

// RoleSet holds resolved resource role names.
type RoleSet []string

// Has reports whether any of names is in the set.
func (s RoleSet) Has(names ...string) bool {
	return slices.ContainsFunc(names, func(n string) bool {
		return slices.Contains(s, n)
	})
}

// RoleResolver maps a member's resources on a challenge to role names,
// memoizing the role id to name table.
type RoleResolver struct {
	api   ResourceAPI
	names *cache.Cache[string]
}

// NewRoleResolver memoizes role names in names.
func NewRoleResolver(api ResourceAPI, names *cache.Cache[string]) *RoleResolver {
	return &RoleResolver{api: api, names: names}
}

// ResourceRoles returns the names of the roles memberID holds on challengeID.
func (r *RoleResolver) ResourceRoles(ctx context.Context, challengeID, memberID string) (RoleSet, error) {
	resources, err := r.api.GetResources(ctx, challengeID, memberID)
	if err != nil {
		return nil, fmt.Errorf("get resources: %w", err)
	}

	roles := make(RoleSet, 0, len(resources))
	for _, res := range resources {
		if res.MemberID != "" && res.MemberID != memberID {
			continue
		}
		name, err := r.roleName(ctx, res.RoleID)
		if err != nil {
			return nil, err
		}
		if !roles.Has(name) {
			roles = append(roles, name)
		}
	}
	return roles, nil
}

// Flush drops the memoized role table.
func (r *RoleResolver) Flush() {
	r.names.Flush()
}

func (r *RoleResolver) roleName(ctx context.Context, roleID string) (string, error) {
	if name, ok := r.names.Get(roleID); ok {
		return name, nil
	}

	all, err := r.api.GetResourceRoles(ctx)
	if err != nil {
		return "", fmt.Errorf("get resource roles: %w", err)
	}
	for _, role := range all {
		r.names.Set(role.ID, role.Name)
	}

	if name, ok := r.names.Get(roleID); ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %s", errUnknownRole, roleID)
}

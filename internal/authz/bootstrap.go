package authz

import (
	"fmt"

	"github.com/quirkcart/quirkcart/internal/constants"
)

// RoleSeed is one built-in role with its allow rules.
type RoleSeed struct {
	Role     string
	Policies []Policy
}

// BuiltinRoleSeeds is the fixed role matrix. super_admin holds the
// wildcard; the two scoped staff roles split order handling from
// storefront administration.
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleSuperAdmin,
			Policies: []Policy{
				{Object: "*", Action: "*"},
			},
		},
		{
			Role: constants.RoleBusinessProcessing,
			Policies: []Policy{
				{Object: ResourceOrders, Action: ActionRead},
				{Object: ResourceOrders, Action: ActionWrite},
				{Object: ResourceGiftCards, Action: ActionRead},
				{Object: ResourceGiftCards, Action: ActionWrite},
				{Object: ResourceDiscounts, Action: ActionRead},
				{Object: ResourceAuditLogs, Action: ActionRead},
			},
		},
		{
			Role: constants.RoleWebsiteAdmin,
			Policies: []Policy{
				{Object: ResourceDiscounts, Action: ActionRead},
				{Object: ResourceDiscounts, Action: ActionWrite},
				{Object: ResourceOrders, Action: ActionRead},
				{Object: ResourceGiftCards, Action: ActionRead},
				{Object: ResourceSettings, Action: ActionRead},
				{Object: ResourceSettings, Action: ActionWrite},
			},
		},
	}
}

// BootstrapBuiltinRoles seeds the built-in role matrix. Existing rules
// are left alone so manual grants survive restarts.
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role := NormalizeRole(seed.Role)
		if role == "" {
			return fmt.Errorf("builtin role name is required")
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeResource(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}

package service

import "github.com/goaltime/goaltime/internal/model"

// fieldRule restricts who may write one field of a user patch.
type fieldRule struct {
	field   string
	present func(p model.UserPatch) bool
	roles   []string
}

// userFieldPolicy lists the user fields that only some roles may modify.
// Fields not listed are writable by anyone allowed to reach the update.
var userFieldPolicy = []fieldRule{
	{field: "role", present: func(p model.UserPatch) bool { return p.Role.Set }, roles: []string{model.RoleAdmin}},
	{field: "is_active", present: func(p model.UserPatch) bool { return p.IsActive.Set }, roles: []string{model.RoleAdmin}},
}

// checkFieldPolicy returns an AuthzError naming the first restricted field
// present in p that actor's role may not write.
func checkFieldPolicy(p model.UserPatch, actor model.UserView) error {
	for _, rule := range userFieldPolicy {
		if !rule.present(p) || hasRole(actor, rule.roles) {
			continue
		}
		return Authz("Only admin can update %s", rule.field)
	}
	return nil
}

func hasRole(actor model.UserView, roles []string) bool {
	for _, r := range roles {
		if actor.Role == r {
			return true
		}
	}
	return false
}

package policy

import "strings"

// satisfies maps a held role to every required role it fulfils.
// Every role fulfils itself; admin fulfils all of them.
var satisfies = buildSatisfies()

func buildSatisfies() map[Role]map[Role]struct{} {
	extra := map[Role][]Role{
		RoleAdmin:   AllRoles,
		RoleKaprodi: {RoleDosen},
	}

	table := make(map[Role]map[Role]struct{}, len(AllRoles))
	for _, held := range AllRoles {
		set := map[Role]struct{}{held: {}}
		for _, r := range extra[held] {
			set[r] = struct{}{}
		}
		table[held] = set
	}
	return table
}

// Satisfies reports whether a caller holding `held` meets a `required` role.
func Satisfies(held, required Role) bool {
	set, ok := satisfies[held]
	if !ok {
		return false
	}
	_, ok = set[required]
	return ok
}

// Guard is a pure allow/deny decision over an identity.
type Guard interface {
	Allow(id *Identity) Decision
	// Describe names the guard for logs.
	Describe() string
}

type roleGuard struct {
	required []Role
}

// RequireRole returns a guard that passes identities satisfying required,
// following the satisfies table (admin passes everything, kaprodi passes dosen).
func RequireRole(required Role) Guard {
	return &roleGuard{required: []Role{required}}
}

// RequireAnyRole passes identities satisfying at least one of roles.
func RequireAnyRole(roles ...Role) Guard {
	return &roleGuard{required: roles}
}

func (g *roleGuard) Allow(id *Identity) Decision {
	if id == nil {
		return deny("no identity")
	}
	if id.Role == RoleAdmin {
		return allow("admin")
	}
	for _, required := range g.required {
		if id.Role == required {
			return allow("exact role")
		}
		if Satisfies(id.Role, required) {
			return allow("role hierarchy")
		}
	}
	return deny("role not permitted")
}

func (g *roleGuard) Describe() string {
	names := make([]string, len(g.required))
	for i, r := range g.required {
		names[i] = string(r)
	}
	return "require_role:" + strings.Join(names, "|")
}

// kaprodiGuard admits the exact kaprodi role and nothing else. It
// deliberately skips the admin shortcut applied by RequireRole.
type kaprodiGuard struct{}

// KaprodiOnly returns the guard for actions reserved to the head of study program.
func KaprodiOnly() Guard {
	return kaprodiGuard{}
}

func (kaprodiGuard) Allow(id *Identity) Decision {
	if id == nil {
		return deny("no identity")
	}
	if id.Role == RoleKaprodi {
		return allow("exact role")
	}
	return deny("kaprodi only")
}

func (kaprodiGuard) Describe() string {
	return "kaprodi_only"
}

package auth

// Principal is the authenticated identity and its authorization claims,
// as decoded from a verified token.
type Principal struct {
	UserID      string   `json:"id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// RoleAllowed reports whether a principal satisfies a role requirement.
//
// An empty required set declares no restriction and allows any caller.
// A non-empty set denies unauthenticated callers and callers without
// roles, and allows when at least one of the principal's roles matches
// a required name (not all of them).
func RoleAllowed(required []string, p *Principal) bool {
	if len(required) == 0 {
		return true
	}

	if p == nil || len(p.Roles) == 0 {
		return false
	}

	return anyMatch(required, p.Roles)
}

// PermissionAllowed reports whether a principal satisfies a permission
// requirement. Same rule as RoleAllowed: no requirement allows, otherwise
// at least one match is needed.
func PermissionAllowed(required []string, p *Principal) bool {
	if len(required) == 0 {
		return true
	}

	if p == nil || len(p.Permissions) == 0 {
		return false
	}

	return anyMatch(required, p.Permissions)
}

// anyMatch reports whether the two sets intersect. Comparison is a
// case-sensitive exact match.
func anyMatch(required, held []string) bool {
	for _, want := range required {
		for _, have := range held {
			if have == want {
				return true
			}
		}
	}

	return false
}

package policy

import "strings"

// HasPermission decides whether a role's permission set satisfies a
// requested capability. The permission string is "<category>:<level>",
// e.g. "resources:read" or "provisioning:full".
//
// Rules:
//   - an absent category denies unconditionally (legacy roles predate the
//     optional categories; absence is never inferred as full)
//   - none denies
//   - full allows any requested level
//   - read allows only a requested read; a read-level role never
//     satisfies a full-level request
//
// Denial is a boolean, not an error: a malformed permission string or an
// unknown category simply denies.
func HasPermission(perms RolePermissions, permission string) bool {
	category, level, ok := strings.Cut(permission, ":")
	if !ok || category == "" || level == "" {
		return false
	}

	requested := Level(level)
	if requested != LevelRead && requested != LevelFull {
		return false
	}

	granted, present := perms[Category(category)]
	if !present {
		return false
	}

	switch granted {
	case LevelFull:
		return true
	case LevelRead:
		return requested == LevelRead
	default:
		return false
	}
}

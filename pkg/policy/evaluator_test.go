package policy

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name       string
		perms      RolePermissions
		permission string
		want       bool
	}{
		{
			name:       "read satisfies read",
			perms:      RolePermissions{CategoryResources: LevelRead},
			permission: "resources:read",
			want:       true,
		},
		{
			name:       "read never satisfies full",
			perms:      RolePermissions{CategoryResources: LevelRead},
			permission: "resources:full",
			want:       false,
		},
		{
			name:       "full satisfies full",
			perms:      RolePermissions{CategoryDocks: LevelFull},
			permission: "docks:full",
			want:       true,
		},
		{
			name:       "full implies read",
			perms:      RolePermissions{CategoryDocks: LevelFull},
			permission: "docks:read",
			want:       true,
		},
		{
			name:       "none denies read",
			perms:      RolePermissions{CategorySettings: LevelNone},
			permission: "settings:read",
			want:       false,
		},
		{
			name:       "absent optional category denies",
			perms:      RolePermissions{CategoryResources: LevelFull},
			permission: "provisioning:read",
			want:       false,
		},
		{
			name:       "absent monitoring category denies full",
			perms:      RolePermissions{CategoryResources: LevelFull},
			permission: "monitoring:full",
			want:       false,
		},
		{
			name:       "nil permission set denies everything",
			perms:      nil,
			permission: "resources:read",
			want:       false,
		},
		{
			name:       "malformed permission string denies",
			perms:      RolePermissions{CategoryResources: LevelFull},
			permission: "resources",
			want:       false,
		},
		{
			name:       "unknown requested level denies",
			perms:      RolePermissions{CategoryResources: LevelFull},
			permission: "resources:admin",
			want:       false,
		},
		{
			name:       "empty category denies",
			perms:      RolePermissions{CategoryResources: LevelFull},
			permission: ":read",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.perms, tt.permission); got != tt.want {
				t.Errorf("HasPermission(%v, %q) = %v, want %v",
					tt.perms, tt.permission, got, tt.want)
			}
		})
	}
}

func TestHasPermissionMatrix(t *testing.T) {
	// Every (granted, requested) pair, for one category.
	matrix := []struct {
		granted   Level
		requested Level
		want      bool
	}{
		{LevelNone, LevelRead, false},
		{LevelNone, LevelFull, false},
		{LevelRead, LevelRead, true},
		{LevelRead, LevelFull, false},
		{LevelFull, LevelRead, true},
		{LevelFull, LevelFull, true},
	}

	for _, tt := range matrix {
		perms := RolePermissions{CategoryOperations: tt.granted}
		permission := "operations:" + string(tt.requested)
		if got := HasPermission(perms, permission); got != tt.want {
			t.Errorf("granted=%s requested=%s: got %v, want %v",
				tt.granted, tt.requested, got, tt.want)
		}
	}
}

func TestLevelValidate(t *testing.T) {
	for _, l := range []Level{LevelNone, LevelRead, LevelFull} {
		if err := l.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", l, err)
		}
	}
	if err := Level("admin").Validate(); err == nil {
		t.Error("Validate(admin) = nil, want error")
	}
}

func TestCategoryValidate(t *testing.T) {
	for _, c := range Categories {
		if err := c.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", c, err)
		}
	}
	if err := Category("billing").Validate(); err == nil {
		t.Error("Validate(billing) = nil, want error")
	}
}

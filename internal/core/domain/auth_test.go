package domain

import "testing"

func TestAccessPolicyAllows(t *testing.T) {
	tests := []struct {
		name     string
		policy   AccessPolicy
		role     Role
		expected bool
	}{
		{"no required roles allows user", AccessPolicy{}, RoleUser, true},
		{"no required roles allows admin", AccessPolicy{}, RoleAdmin, true},
		{"admin-only allows admin", AccessPolicy{RequiredRoles: []Role{RoleAdmin}}, RoleAdmin, true},
		{"admin-only denies user", AccessPolicy{RequiredRoles: []Role{RoleAdmin}}, RoleUser, false},
		{"multiple roles allows either", AccessPolicy{RequiredRoles: []Role{RoleUser, RoleAdmin}}, RoleUser, true},
		{"empty role denied by role requirement", AccessPolicy{RequiredRoles: []Role{RoleAdmin}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Allows(tt.role); got != tt.expected {
				t.Errorf("expected Allows(%q) = %v, got %v", tt.role, tt.expected, got)
			}
		})
	}
}

func TestPolicyTableLookup(t *testing.T) {
	table := PolicyTable{
		"auth.login":   {Public: true},
		"books.delete": {RequiredRoles: []Role{RoleAdmin}},
	}

	if p := table.Lookup("auth.login"); !p.Public {
		t.Error("expected declared public policy")
	}
	if p := table.Lookup("books.delete"); len(p.RequiredRoles) != 1 {
		t.Error("expected declared role requirement")
	}
}

func TestPolicyTableLookup_UndeclaredFailsClosed(t *testing.T) {
	table := PolicyTable{}

	p := table.Lookup("books.export")
	if p.Public {
		t.Error("undeclared operation must not be public")
	}
	if len(p.RequiredRoles) != 0 {
		t.Error("undeclared operation must allow any authenticated role")
	}

	// Nil table behaves the same
	var nilTable PolicyTable
	if nilTable.Lookup("anything").Public {
		t.Error("nil table must not grant public access")
	}
}

func TestAuthContextIsAdmin(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			authCtx := &AuthContext{Role: tt.role}
			if authCtx.IsAdmin() != tt.expected {
				t.Errorf("expected IsAdmin() = %v for role %s", tt.expected, tt.role)
			}
		})
	}
}

package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleSet_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    RoleSet
		wantErr bool
	}{
		{name: "null", data: `null`},
		{name: "empty", data: `[]`, want: RoleSet{}},
		{name: "tags", data: `["ROLE_STUDENT","GUEST"]`, want: RoleSet{"ROLE_STUDENT", "GUEST"}},
		{name: "objects", data: `[{"id":1,"name":"ROLE_GUEST"}]`, want: RoleSet{"ROLE_GUEST"}},
		{name: "mixed", data: `["ROLE_STUDENT",{"name":"ROLE_GUEST"}]`, want: RoleSet{"ROLE_STUDENT", "ROLE_GUEST"}},
		{name: "not a list", data: `"ROLE_GUEST"`, wantErr: true},
		{name: "bad item", data: `[42]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got RoleSet
			err := json.Unmarshal([]byte(tt.data), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUser_UnmarshalJSON_roleShapes(t *testing.T) {
	var tagged, objects User
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"roles":["ROLE_GUEST"]}`), &tagged))
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"roles":[{"name":"ROLE_GUEST"}]}`), &objects))

	assert.True(t, tagged.IsGuest())
	assert.True(t, objects.IsGuest())
	assert.Equal(t, tagged.Roles, objects.Roles)
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		name  string
		roles RoleSet
		tag   string
		want  bool
	}{
		{name: "nil roles", tag: RoleGuest},
		{name: "empty tag", roles: RoleSet{"ROLE_GUEST"}},
		{name: "exact", roles: RoleSet{"ROLE_GUEST"}, tag: RoleGuest, want: true},
		{name: "bare role, prefixed tag", roles: RoleSet{"GUEST"}, tag: RoleGuest, want: true},
		{name: "prefixed role, bare tag", roles: RoleSet{"ROLE_GUEST"}, tag: "GUEST", want: true},
		{name: "case sensitive", roles: RoleSet{"role_guest", "guest"}, tag: RoleGuest},
		{name: "other role", roles: RoleSet{"ROLE_STUDENT"}, tag: RoleGuest},
		{name: "not a substring match", roles: RoleSet{"ROLE_GUESTBOOK"}, tag: RoleGuest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasRole(tt.roles, tt.tag))
		})
	}
}

type namedRole string

func (r namedRole) Name() string { return string(r) }

func TestNormalizeRoles(t *testing.T) {
	got := NormalizeRoles(
		"ROLE_STUDENT",
		Role{Name: "Guest", Value: RoleGuest},
		map[string]interface{}{"name": "ROLE_ADMIN"},
		map[string]interface{}{"id": 1},
		namedRole("ROLE_RECRUITER"),
		42,
	)
	assert.Equal(t, RoleSet{"ROLE_STUDENT", "ROLE_GUEST", "ROLE_ADMIN", "ROLE_RECRUITER"}, got)
	assert.True(t, IsGuest(got))
}

func TestHomePortal(t *testing.T) {
	tests := []struct {
		roles RoleSet
		want  string
	}{
		{roles: nil, want: PortalGuest},
		{roles: RoleSet{"GUEST"}, want: PortalGuest},
		{roles: RoleSet{RoleStudent}, want: PortalStudent},
		{roles: RoleSet{RoleStudent, RoleRecruiter}, want: PortalRecruiter},
		{roles: RoleSet{RoleRecruiter, RoleAdmin}, want: PortalAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, HomePortal(User{Roles: tt.roles}))
		})
	}
}

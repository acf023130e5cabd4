package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core/user"
)

func TestUserAPI_login(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
		wantErr  string
		wantKeys []string
	}{
		{
			name:     "ok",
			body:     LoginRequest{Username: " GUEST ", Password: testPassword},
			wantCode: http.StatusOK,
		},
		{
			name:     "login with email",
			body:     LoginRequest{Username: "guest@test.cd", Password: testPassword},
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     LoginRequest{Username: "guest", Password: "nope"},
			wantCode: http.StatusBadRequest,
			wantErr:  "authentication failed",
		},
		{
			name:     "unknown user",
			body:     LoginRequest{Username: "ghost", Password: testPassword},
			wantCode: http.StatusBadRequest,
			wantErr:  "authentication failed",
		},
		{
			name:     "missing fields",
			body:     LoginRequest{},
			wantCode: http.StatusBadRequest,
			wantKeys: []string{"username", "password"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/users/login", "", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			switch {
			case tt.wantErr != "":
				assert.Equal(t, tt.wantErr, errorOf(t, rec))
			case tt.wantKeys != nil:
				var fields map[string]string
				decode(t, rec, &fields)
				for _, k := range tt.wantKeys {
					assert.Equal(t, "this field is required", fields[k])
				}
			default:
				var resp LoginResponse
				decode(t, rec, &resp)
				assert.NotEmpty(t, resp.Token)
				assert.Equal(t, env.guest.ID, resp.User.ID)
				assert.True(t, resp.User.IsGuest())

				me := env.do(http.MethodGet, "/api/users/me", resp.Token, nil)
				require.Equal(t, http.StatusOK, me.Code)
			}
		})
	}
}

func TestUserAPI_auth(t *testing.T) {
	env := setup(t)

	rec := env.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := *env.conf
	other.Server.SecretKey = "another-secret"
	forged, err := GenerateToken(&other, env.admin)
	require.NoError(t, err)
	rec = env.do(http.MethodGet, "/api/users/me", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserAPI_me(t *testing.T) {
	env := setup(t)

	rec := env.do(http.MethodGet, "/api/users/me", env.token(t, env.student), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var usr user.User
	decode(t, rec, &usr)
	assert.Equal(t, env.student.ID, usr.ID)
	assert.Equal(t, completeProfile, usr.Profile)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUserAPI_register(t *testing.T) {
	env := setup(t)
	nu := user.NewUser{Name: "Zawadi", Username: "zawadi", Password: testPassword, Roles: []string{user.RoleStudent}}

	rec := env.do(http.MethodPost, "/api/users/register", env.token(t, env.student), nu)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/api/users/register", env.token(t, env.admin), nu)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var usr user.User
	decode(t, rec, &usr)
	assert.Equal(t, "zawadi", usr.Username)
	assert.True(t, usr.IsStudent())

	rec = env.do(http.MethodPost, "/api/users/register", env.token(t, env.admin), nu)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fields map[string]string
	decode(t, rec, &fields)
	assert.Equal(t, user.ErrUsernameExists.Error(), fields["username"])

	nu.Username, nu.Password = "weak", "weak"
	rec = env.do(http.MethodPost, "/api/users/register", env.token(t, env.admin), nu)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &fields)
	assert.Contains(t, fields, "password")
}

func TestUserAPI_updateProfile(t *testing.T) {
	env := setup(t)
	token := env.token(t, env.newcomer)

	rec := env.do(http.MethodPut, "/api/users/me/profile", token, user.Profile{Phone: "call me"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/users/me/profile", token, completeProfile)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var usr user.User
	decode(t, rec, &usr)
	assert.Equal(t, completeProfile, usr.Profile)
}

func TestUserAPI_queryRoles(t *testing.T) {
	env := setup(t)

	rec := env.do(http.MethodGet, "/api/users/roles", env.token(t, env.guest), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/users/roles", env.token(t, env.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []user.Role
	decode(t, rec, &roles)
	assert.Equal(t, user.Roles, roles)
}

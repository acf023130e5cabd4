package user

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Roles, as named by the backend's vocabulary.
const (
	RoleAdmin     = "ROLE_ADMIN"
	RoleRecruiter = "ROLE_RECRUITER"
	RoleStudent   = "ROLE_STUDENT"
	RoleGuest     = "ROLE_GUEST"

	rolePrefix = "ROLE_"
)

// Portals a user lands on after login.
const (
	PortalAdmin     = "admin"
	PortalRecruiter = "recruiter"
	PortalStudent   = "student"
	PortalGuest     = "guest"
)

// RoleSet is the normalized list of role tags of a user.
//
// The backend sends roles either as plain tags (["ROLE_GUEST"]) or as objects
// carrying a name ([{"name": "ROLE_GUEST"}]); both decode to the same RoleSet.
type RoleSet []string

func (rs *RoleSet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decoding roles")
	}
	if raw == nil {
		*rs = nil
		return nil
	}

	roles := make(RoleSet, 0, len(raw))
	for _, item := range raw {
		var tag string
		if err := json.Unmarshal(item, &tag); err == nil {
			roles = append(roles, tag)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return errors.Wrapf(err, "decoding role %s", string(item))
		}
		roles = append(roles, obj.Name)
	}
	*rs = roles
	return nil
}

// NormalizeRoles flattens role values of any supported shape into plain tags.
// Supported shapes: string, Role, map with a "name" key, anything with a Name() string method.
func NormalizeRoles(values ...interface{}) RoleSet {
	roles := make(RoleSet, 0, len(values))
	for _, v := range values {
		switch r := v.(type) {
		case string:
			roles = append(roles, r)
		case Role:
			roles = append(roles, r.Value)
		case map[string]interface{}:
			if name, ok := r["name"].(string); ok {
				roles = append(roles, name)
			}
		case map[string]string:
			roles = append(roles, r["name"])
		case interface{ Name() string }:
			roles = append(roles, r.Name())
		}
	}
	return roles
}

// HasRole reports whether roles contain tag. Matching is case-sensitive and
// accepts the tag with or without the "ROLE_" prefix on either side.
func HasRole(roles RoleSet, tag string) bool {
	want := strings.TrimPrefix(strings.TrimSpace(tag), rolePrefix)
	if want == "" {
		return false
	}
	for _, role := range roles {
		if strings.TrimPrefix(strings.TrimSpace(role), rolePrefix) == want {
			return true
		}
	}
	return false
}

// IsGuest reports whether roles contain the guest marker (ROLE_GUEST or GUEST).
func IsGuest(roles RoleSet) bool {
	return HasRole(roles, RoleGuest)
}

// HomePortal returns the portal a user is routed to, the most privileged role winning.
func HomePortal(usr User) string {
	switch {
	case usr.IsAdmin():
		return PortalAdmin
	case usr.IsRecruiter():
		return PortalRecruiter
	case usr.IsStudent():
		return PortalStudent
	default:
		return PortalGuest
	}
}

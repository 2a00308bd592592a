package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role 用户角色，只有管理员和住户两种取值
type Role uint8

const (
	roleInvalid Role = iota
	// RoleAdmin 管理员，可访问所有资源
	RoleAdmin
	// RoleResident 住户，只能操作属于自己的资源
	RoleResident
)

var roleNames = map[Role]string{
	RoleAdmin:    "admin",
	RoleResident: "resident",
}

// ParseRole 将字符串解析为角色，未知取值返回错误
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return roleInvalid, fmt.Errorf("invalid role %q", s)
}

// String returns the stored name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "invalid"
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// IsAdmin reports whether r is the administrator role.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// MarshalJSON encodes the role as its name.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON rejects unknown role names.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return r.String(), nil
}

// Scan implements sql.Scanner.
func (r *Role) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

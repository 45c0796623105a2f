package domain

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// RoleAdministrator is the only role with a dedicated route constraint.
// Regular accounts carry whatever tipo_usuario the backend issued
// ("Personal", "Empresa", ...); the gate only ever compares for equality.
const RoleAdministrator = "administrador"

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserExists = errors.New("user already exists")
var ErrNotFound = errors.New("resource not found")
var ErrUnauthorized = errors.New("authentication required")

// User is the typed view of the backend's user record. The session store keeps
// the backend's raw JSON as source of truth, so profile fields the gateway
// does not know about survive round-trips; this struct only surfaces what the
// gateway itself reads.
type User struct {
	ID        int64   `json:"id"`
	Username  string  `json:"usuario"`
	Email     string  `json:"email,omitempty"`
	FirstName string  `json:"primer_nombre,omitempty"`
	LastName  string  `json:"primer_apellido,omitempty"`
	Role      string  `json:"tipo_usuario"`
	Onboarded IntBool `json:"onboarded"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdministrator
}

// IntBool is a bool that tolerates the backend's loose encoding of the
// onboarded flag: 0/1, true/false, or the same values as strings. It always
// marshals back to 0/1 so a record never changes representation after a
// merge through the session store.
type IntBool bool

func (b IntBool) Bool() bool { return bool(b) }

func (b IntBool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (b *IntBool) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	switch s {
	case "", "null", "0", "false":
		*b = false
	case "1", "true":
		*b = true
	default:
		// Mirrors JS truthiness: any non-zero number counts as set.
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			*b = n != 0
			return nil
		}
		return fmt.Errorf("invalid bool value %q", s)
	}
	return nil
}

// BackendError is a non-2xx reply from the external JuthWorks API, carrying
// the upstream status and the message from its {"error": ...} envelope.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// PasswordPolicyError is returned by registration when the backend rejects
// the password and lists the individual rule violations.
type PasswordPolicyError struct {
	Message string
	Errors  []string
}

func (e *PasswordPolicyError) Error() string {
	if e.Message == "" {
		return "password does not meet policy"
	}
	return e.Message
}

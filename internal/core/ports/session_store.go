package ports

import (
	"context"
	"encoding/json"

	"github.com/juthworks/webapp/internal/core/domain"
)

// Well-known per-session UI keys. Stored as strings ("true"/"false", step
// numbers) next to the session record.
const (
	KeyOnboardingSeen = "onboarding_seen"
	KeyOnboardingStep = "onboarding_step"
	KeyDarkMode       = "dark_mode"
)

// SessionStore is the single source of truth for the authenticated identity
// of one browser session, keyed by the opaque session ID from the cookie.
//
// Contract details the implementations must honour:
//   - Load never fails on malformed persisted data; a record that cannot be
//     decoded reads as an absent session.
//   - Load drops a token that has no accompanying user.
//   - Login overwrites any prior session atomically from the caller's view.
//   - Logout is idempotent.
//   - UpdateUser shallow-merges the patch into the stored record, preserving
//     fields the gateway does not model, and is a no-op without a user.
//   - Every mutation is visible to the very next Load.
type SessionStore interface {
	Load(ctx context.Context, sid string) (*domain.Session, error)
	Login(ctx context.Context, sid string, user json.RawMessage, token string) error
	Logout(ctx context.Context, sid string) error
	UpdateUser(ctx context.Context, sid string, patch map[string]any) error

	// Get returns "" for an absent key.
	Get(ctx context.Context, sid, key string) (string, error)
	Set(ctx context.Context, sid, key, value string) error
	Delete(ctx context.Context, sid, key string) error
}

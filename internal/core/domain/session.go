package domain

import "strings"

// Session is the client-held pair of authenticated user record and credential
// token, durable across page loads. A token without a user is meaningless and
// is dropped by the store on read; the reverse (user without token) is legal
// for pre-verification flows.
type Session struct {
	User  *User
	Token string
}

// Authenticated reports whether anyone is logged in.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

// SanitizeToken normalises a persisted credential before use. The storage
// layer has historically round-tripped tokens wrapped in stray quotes, so one
// leading and one trailing quote character (single or double) are stripped
// along with surrounding whitespace. Applied on every read, not just at write
// time, to tolerate already-corrupted values.
func SanitizeToken(raw string) string {
	t := strings.TrimSpace(raw)
	if len(t) > 0 && (t[0] == '"' || t[0] == '\'') {
		t = t[1:]
	}
	if len(t) > 0 && (t[len(t)-1] == '"' || t[len(t)-1] == '\'') {
		t = t[:len(t)-1]
	}
	return strings.TrimSpace(t)
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/domain"
)

type stubStore struct {
	loadFn func(ctx context.Context, sid string) (*domain.Session, error)
}

func (s *stubStore) Load(ctx context.Context, sid string) (*domain.Session, error) {
	return s.loadFn(ctx, sid)
}

func (s *stubStore) Login(context.Context, string, json.RawMessage, string) error { return nil }
func (s *stubStore) Logout(context.Context, string) error                         { return nil }
func (s *stubStore) UpdateUser(context.Context, string, map[string]any) error     { return nil }
func (s *stubStore) Get(context.Context, string, string) (string, error)          { return "", nil }
func (s *stubStore) Set(context.Context, string, string, string) error            { return nil }
func (s *stubStore) Delete(context.Context, string, string) error                 { return nil }

func runSession(t *testing.T, store *stubStore, cookie *http.Cookie) (sess *domain.Session, sid string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		sess, _ = c.Get(CtxSession).(*domain.Session)
		sid, _ = c.Get(CtxSID).(string)
		return nil
	}
	if err := Session("juthworks_sid", store, zerolog.Nop())(next)(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return sess, sid
}

func TestSessionNoCookieIsAnonymous(t *testing.T) {
	store := &stubStore{loadFn: func(context.Context, string) (*domain.Session, error) {
		t.Fatal("store must not be consulted without a cookie")
		return nil, nil
	}}

	sess, sid := runSession(t, store, nil)
	if sess == nil {
		t.Fatal("session must always be injected")
	}
	if sess.Authenticated() || sid != "" {
		t.Fatalf("expected anonymous, got %+v sid=%q", sess, sid)
	}
}

func TestSessionCookieResolvesIdentity(t *testing.T) {
	user := &domain.User{ID: 7, Username: "ana", Role: "Personal", Onboarded: true}
	store := &stubStore{loadFn: func(_ context.Context, sid string) (*domain.Session, error) {
		if sid != "abc123" {
			t.Fatalf("sid = %q", sid)
		}
		return &domain.Session{User: user, Token: "tok"}, nil
	}}

	sess, sid := runSession(t, store, &http.Cookie{Name: "juthworks_sid", Value: "abc123"})
	if !sess.Authenticated() || sess.User.ID != 7 {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sid != "abc123" {
		t.Fatalf("sid = %q", sid)
	}
}

func TestSessionStoreFailureDegradesToAnonymous(t *testing.T) {
	store := &stubStore{loadFn: func(context.Context, string) (*domain.Session, error) {
		return nil, errors.New("redis down")
	}}

	sess, _ := runSession(t, store, &http.Cookie{Name: "juthworks_sid", Value: "abc123"})
	if sess == nil || sess.Authenticated() {
		t.Fatalf("store failure must read as anonymous, got %+v", sess)
	}
}

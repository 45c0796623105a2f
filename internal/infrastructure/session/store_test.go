package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/juthworks/webapp/internal/core/ports"
)

var _ ports.SessionStore = (*MemoryStore)(nil)
var _ ports.SessionStore = (*RedisStore)(nil)

func TestLoginThenLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	raw := json.RawMessage(`{"id":7,"usuario":"ana","tipo_usuario":"Personal","onboarded":1}`)
	if err := store.Login(ctx, "sid", raw, "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}

	sess, err := store.Load(ctx, "sid")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !sess.Authenticated() {
		t.Fatal("expected authenticated session")
	}
	if sess.User.ID != 7 || sess.User.Username != "ana" {
		t.Fatalf("unexpected user: %+v", sess.User)
	}
	if !sess.User.Onboarded.Bool() {
		t.Fatal("onboarded flag lost")
	}
	if sess.Token != "tok" {
		t.Fatalf("token = %q, want tok", sess.Token)
	}
}

func TestLoadUnknownSessionIsAnonymous(t *testing.T) {
	sess, err := NewMemoryStore().Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("unknown session must read as anonymous")
	}
}

func TestLoadMalformedUserIsAnonymous(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("sid", fieldUser, `{"id": not json`)
	store.Seed("sid", fieldToken, "tok")

	sess, err := store.Load(ctx, "sid")
	if err != nil {
		t.Fatalf("malformed data must not error, got %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("malformed user must read as anonymous")
	}
	if sess.Token != "" {
		t.Fatal("token without decodable user must be dropped")
	}
}

func TestLoadSanitizesToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Seed("sid", fieldUser, `{"id":1,"usuario":"ana","tipo_usuario":"Personal","onboarded":1}`)
	store.Seed("sid", fieldToken, `"quoted.tok"`)

	sess, err := store.Load(ctx, "sid")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.Token != "quoted.tok" {
		t.Fatalf("token = %q, want quoted.tok", sess.Token)
	}
}

func TestLogoutIsIdempotentAndKeepsFlags(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	raw := json.RawMessage(`{"id":1,"usuario":"ana","tipo_usuario":"Personal","onboarded":1}`)
	if err := store.Login(ctx, "sid", raw, "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := store.Set(ctx, "sid", ports.KeyDarkMode, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.Logout(ctx, "sid"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := store.Logout(ctx, "sid"); err != nil {
		t.Fatalf("second logout: %v", err)
	}

	sess, _ := store.Load(ctx, "sid")
	if sess.Authenticated() {
		t.Fatal("session survived logout")
	}
	if dark, _ := store.Get(ctx, "sid", ports.KeyDarkMode); dark != "true" {
		t.Fatal("UI preference must survive logout")
	}
}

func TestUpdateUserMergePreservesUnknownFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	raw := json.RawMessage(`{"id":1,"usuario":"ana","tipo_usuario":"Personal","onboarded":0,"direccion":"Calle 5","telefono":"555"}`)
	if err := store.Login(ctx, "sid", raw, "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := store.UpdateUser(ctx, "sid", map[string]any{"onboarded": 1}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Update is visible to the very next load.
	sess, _ := store.Load(ctx, "sid")
	if !sess.User.Onboarded.Bool() {
		t.Fatal("patch not applied")
	}

	stored, _ := store.Get(ctx, "sid", fieldUser)
	var rec map[string]any
	if err := json.Unmarshal([]byte(stored), &rec); err != nil {
		t.Fatalf("stored record unparseable: %v", err)
	}
	if rec["direccion"] != "Calle 5" || rec["telefono"] != "555" {
		t.Fatalf("unmodelled fields dropped: %+v", rec)
	}
}

func TestUpdateUserWithoutUserIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.UpdateUser(ctx, "sid", map[string]any{"onboarded": 1}); err != nil {
		t.Fatalf("update without user must be a no-op, got %v", err)
	}
	sess, _ := store.Load(ctx, "sid")
	if sess.Authenticated() {
		t.Fatal("no-op update created a user")
	}
}

func TestLoginOverwritesPreviousIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := json.RawMessage(`{"id":1,"usuario":"ana","tipo_usuario":"Personal","onboarded":1}`)
	second := json.RawMessage(`{"id":2,"usuario":"beto","tipo_usuario":"Empresa","onboarded":0}`)
	if err := store.Login(ctx, "sid", first, "tok1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := store.Login(ctx, "sid", second, "tok2"); err != nil {
		t.Fatalf("relogin: %v", err)
	}

	sess, _ := store.Load(ctx, "sid")
	if sess.User.ID != 2 || sess.Token != "tok2" {
		t.Fatalf("stale identity after relogin: %+v %q", sess.User, sess.Token)
	}
}

func TestFlagRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if v, err := store.Get(ctx, "sid", ports.KeyOnboardingSeen); err != nil || v != "" {
		t.Fatalf("absent key = %q, %v; want empty, nil", v, err)
	}
	if err := store.Set(ctx, "sid", ports.KeyOnboardingSeen, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := store.Get(ctx, "sid", ports.KeyOnboardingSeen); v != "true" {
		t.Fatalf("get = %q, want true", v)
	}
	if err := store.Delete(ctx, "sid", ports.KeyOnboardingSeen); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v, _ := store.Get(ctx, "sid", ports.KeyOnboardingSeen); v != "" {
		t.Fatalf("get after delete = %q, want empty", v)
	}
}

func TestMergeUser(t *testing.T) {
	merged, ok := mergeUser(`{"a":1,"b":"x"}`, map[string]any{"a": 2})
	if !ok {
		t.Fatal("merge refused a valid record")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(merged), &rec); err != nil {
		t.Fatalf("merged unparseable: %v", err)
	}
	if rec["a"].(float64) != 2 || rec["b"] != "x" {
		t.Fatalf("unexpected merge result: %+v", rec)
	}

	if _, ok := mergeUser("", map[string]any{"a": 1}); ok {
		t.Fatal("merge into empty record must report not-ok")
	}
	if _, ok := mergeUser("not json", map[string]any{"a": 1}); ok {
		t.Fatal("merge into malformed record must report not-ok")
	}
}

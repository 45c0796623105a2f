package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/domain"
	"github.com/juthworks/webapp/internal/core/ports"
)

type stubUserAPI struct {
	updateFn func(ctx context.Context, token string, onboarded bool) error
	calls    chan bool
}

func (s *stubUserAPI) UpdateOnboarding(ctx context.Context, token string, onboarded bool) error {
	var err error
	if s.updateFn != nil {
		err = s.updateFn(ctx, token, onboarded)
	}
	if s.calls != nil {
		s.calls <- onboarded
	}
	return err
}

func (s *stubUserAPI) DeleteAccount(context.Context, string) error { return nil }

func (s *stubUserAPI) UserRequests(context.Context, string, int64) (json.RawMessage, error) {
	return nil, nil
}

// stubSessionStore is a minimal in-memory ports.SessionStore for exercising
// the flow without the real store implementations.
type stubSessionStore struct {
	user  string
	token string
	flags map[string]string
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{flags: make(map[string]string)}
}

func (s *stubSessionStore) Load(context.Context, string) (*domain.Session, error) {
	if s.user == "" {
		return &domain.Session{}, nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(s.user), &u); err != nil {
		return &domain.Session{}, nil
	}
	return &domain.Session{User: &u, Token: domain.SanitizeToken(s.token)}, nil
}

func (s *stubSessionStore) Login(_ context.Context, _ string, user json.RawMessage, token string) error {
	s.user = string(user)
	s.token = token
	return nil
}

func (s *stubSessionStore) Logout(context.Context, string) error {
	s.user, s.token = "", ""
	return nil
}

func (s *stubSessionStore) UpdateUser(_ context.Context, _ string, patch map[string]any) error {
	if s.user == "" {
		return nil
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(s.user), &rec); err != nil {
		return nil
	}
	for k, v := range patch {
		rec[k] = v
	}
	merged, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.user = string(merged)
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, _ string, key string) (string, error) {
	return s.flags[key], nil
}

func (s *stubSessionStore) Set(_ context.Context, _ string, key, value string) error {
	s.flags[key] = value
	return nil
}

func (s *stubSessionStore) Delete(_ context.Context, _ string, key string) error {
	delete(s.flags, key)
	return nil
}

func newTestFlow(users ports.UserAPI) (*OnboardingService, *stubSessionStore) {
	store := newStubSessionStore()
	return NewOnboardingService(store, users, zerolog.Nop()), store
}

func loginTestUser(t *testing.T, store *stubSessionStore) {
	t.Helper()
	raw := json.RawMessage(`{"id":7,"usuario":"ana","tipo_usuario":"Personal","onboarded":0,"telefono":"555"}`)
	if err := store.Login(context.Background(), "sid", raw, "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestStepDefaultsToZero(t *testing.T) {
	flow, _ := newTestFlow(&stubUserAPI{})

	step, err := flow.Step(context.Background(), "sid")
	if err != nil || step != 0 {
		t.Fatalf("fresh session step = %d, %v; want 0, nil", step, err)
	}
}

func TestStepClampsPersistedValue(t *testing.T) {
	flow, store := newTestFlow(&stubUserAPI{})
	ctx := context.Background()
	total := len(flow.Steps())

	for raw, want := range map[string]int{
		"99":      total - 1,
		"-3":      0,
		"garbage": 0,
		"2":       2,
	} {
		store.flags[ports.KeyOnboardingStep] = raw
		step, err := flow.Step(ctx, "sid")
		if err != nil || step != want {
			t.Fatalf("persisted %q: step = %d, %v; want %d, nil", raw, step, err, want)
		}
	}
}

func TestAdvanceAndBackClamp(t *testing.T) {
	flow, _ := newTestFlow(&stubUserAPI{})
	ctx := context.Background()
	total := len(flow.Steps())

	// Back from the first step stays on it.
	if step, err := flow.Back(ctx, "sid"); err != nil || step != 0 {
		t.Fatalf("back from 0 = %d, %v; want 0, nil", step, err)
	}

	// Advancing past the end stays on the last step.
	for i := 0; i < total+3; i++ {
		if _, err := flow.Advance(ctx, "sid"); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if step, err := flow.Step(ctx, "sid"); err != nil || step != total-1 {
		t.Fatalf("step after overshoot = %d, %v; want %d, nil", step, err, total-1)
	}
}

func TestFinishMarksOnboardedAndSyncs(t *testing.T) {
	users := &stubUserAPI{calls: make(chan bool, 1)}
	flow, store := newTestFlow(users)
	ctx := context.Background()
	loginTestUser(t, store)

	if err := flow.Finish(ctx, "sid", "tok"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	sess, err := store.Load(ctx, "sid")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !sess.User.Onboarded.Bool() {
		t.Fatal("user not marked onboarded locally")
	}
	if store.flags[ports.KeyOnboardingSeen] != "true" {
		t.Fatalf("seen flag = %q, want true", store.flags[ports.KeyOnboardingSeen])
	}
	if step := store.flags[ports.KeyOnboardingStep]; step != "" {
		t.Fatalf("step key not cleared: %q", step)
	}

	select {
	case onboarded := <-users.calls:
		if !onboarded {
			t.Fatal("backend sync sent onboarded=false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("backend sync never happened")
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	users := &stubUserAPI{calls: make(chan bool, 2)}
	flow, store := newTestFlow(users)
	ctx := context.Background()
	loginTestUser(t, store)

	if err := flow.Finish(ctx, "sid", "tok"); err != nil {
		t.Fatalf("first finish: %v", err)
	}
	if err := flow.Finish(ctx, "sid", "tok"); err != nil {
		t.Fatalf("second finish: %v", err)
	}

	sess, _ := store.Load(ctx, "sid")
	if !sess.User.Onboarded.Bool() {
		t.Fatal("user lost onboarded flag")
	}
}

func TestFinishSyncFailureDoesNotSurface(t *testing.T) {
	users := &stubUserAPI{
		calls:    make(chan bool, 1),
		updateFn: func(context.Context, string, bool) error { return errors.New("backend down") },
	}
	flow, store := newTestFlow(users)
	ctx := context.Background()
	loginTestUser(t, store)

	if err := flow.Finish(ctx, "sid", "tok"); err != nil {
		t.Fatalf("finish must not surface sync failures, got %v", err)
	}

	select {
	case <-users.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("backend sync never attempted")
	}

	sess, _ := store.Load(ctx, "sid")
	if !sess.User.Onboarded.Bool() {
		t.Fatal("local flag must hold despite sync failure")
	}
}

func TestFinishWithoutTokenSkipsSync(t *testing.T) {
	users := &stubUserAPI{calls: make(chan bool, 1)}
	flow, store := newTestFlow(users)
	ctx := context.Background()
	loginTestUser(t, store)

	if err := flow.Finish(ctx, "sid", ""); err != nil {
		t.Fatalf("finish: %v", err)
	}

	select {
	case <-users.calls:
		t.Fatal("sync attempted without a token")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFinishPreservesUnknownProfileFields(t *testing.T) {
	flow, store := newTestFlow(&stubUserAPI{})
	ctx := context.Background()
	loginTestUser(t, store)

	if err := flow.Finish(ctx, "sid", ""); err != nil {
		t.Fatalf("finish: %v", err)
	}

	// The raw record still carries the phone number the gateway never models.
	var rec map[string]any
	if err := json.Unmarshal([]byte(store.user), &rec); err != nil {
		t.Fatalf("raw user unparseable: %v", err)
	}
	if rec["telefono"] != "555" {
		t.Fatalf("unknown field dropped by merge: %+v", rec)
	}
}

func TestResetReportsSyncOutcome(t *testing.T) {
	ctx := context.Background()

	users := &stubUserAPI{}
	flow, store := newTestFlow(users)
	loginTestUser(t, store)
	if err := flow.Finish(ctx, "sid", ""); err != nil {
		t.Fatalf("finish: %v", err)
	}

	synced, err := flow.Reset(ctx, "sid", "tok")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !synced {
		t.Fatal("expected synced=true when backend accepts")
	}

	sess, _ := store.Load(ctx, "sid")
	if sess.User.Onboarded.Bool() {
		t.Fatal("onboarded flag not cleared")
	}
	if store.flags[ports.KeyOnboardingSeen] != "" {
		t.Fatal("seen flag not cleared")
	}
}

func TestResetSurvivesBackendFailure(t *testing.T) {
	ctx := context.Background()

	users := &stubUserAPI{
		updateFn: func(context.Context, string, bool) error { return errors.New("backend down") },
	}
	flow, store := newTestFlow(users)
	loginTestUser(t, store)

	synced, err := flow.Reset(ctx, "sid", "tok")
	if err != nil {
		t.Fatalf("reset must not fail on sync errors, got %v", err)
	}
	if synced {
		t.Fatal("expected synced=false when backend rejects")
	}

	sess, _ := store.Load(ctx, "sid")
	if sess.User.Onboarded.Bool() {
		t.Fatal("local reset must hold despite sync failure")
	}
}

func TestStepClampHelpers(t *testing.T) {
	if got := NextStep(3, 4); got != 3 {
		t.Fatalf("NextStep(3, 4) = %d, want 3", got)
	}
	if got := NextStep(1, 4); got != 2 {
		t.Fatalf("NextStep(1, 4) = %d, want 2", got)
	}
	if got := PreviousStep(0); got != 0 {
		t.Fatalf("PreviousStep(0) = %d, want 0", got)
	}
	if got := PreviousStep(2); got != 1 {
		t.Fatalf("PreviousStep(2) = %d, want 1", got)
	}
}

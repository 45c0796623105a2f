package service

import (
	"testing"

	"github.com/juthworks/webapp/internal/core/domain"
)

func onboardedUser(role string) *domain.User {
	return &domain.User{ID: 7, Username: "ana", Role: role, Onboarded: true}
}

func freshUser(role string) *domain.User {
	return &domain.User{ID: 7, Username: "ana", Role: role, Onboarded: false}
}

func TestDecideAnonymous(t *testing.T) {
	for _, sess := range []*domain.Session{
		nil,
		{},
		{Token: "tok"}, // token without user does not count
	} {
		d := Decide(sess, Route{}, "/dashboard")
		if d.Outcome != RedirectLogin || d.Target != LoginPath {
			t.Fatalf("anonymous session: got %v -> %q, want RedirectLogin -> %s", d.Outcome, d.Target, LoginPath)
		}
	}
}

func TestDecideWrongRole(t *testing.T) {
	sess := &domain.Session{User: onboardedUser("Personal"), Token: "tok"}
	d := Decide(sess, Route{RequiredRole: domain.RoleAdministrator}, "/admin")
	if d.Outcome != RedirectRoleDefault || d.Target != DefaultPath {
		t.Fatalf("wrong role: got %v -> %q, want RedirectRoleDefault -> %s", d.Outcome, d.Target, DefaultPath)
	}
}

func TestDecideRoleOutranksOnboarding(t *testing.T) {
	// A non-admin who has not onboarded is still sent to the dashboard from
	// an admin route, not to onboarding: the role rule runs first.
	sess := &domain.Session{User: freshUser("Personal"), Token: "tok"}
	d := Decide(sess, Route{RequiredRole: domain.RoleAdministrator}, "/admin")
	if d.Outcome != RedirectRoleDefault {
		t.Fatalf("got %v, want RedirectRoleDefault", d.Outcome)
	}
}

func TestDecideNotOnboarded(t *testing.T) {
	sess := &domain.Session{User: freshUser("Personal"), Token: "tok"}
	d := Decide(sess, Route{}, "/dashboard")
	if d.Outcome != RedirectOnboarding || d.Target != OnboardingPath {
		t.Fatalf("got %v -> %q, want RedirectOnboarding -> %s", d.Outcome, d.Target, OnboardingPath)
	}
}

func TestDecideOnboardingPathExempt(t *testing.T) {
	sess := &domain.Session{User: freshUser("Personal"), Token: "tok"}
	d := Decide(sess, Route{}, OnboardingPath)
	if d.Outcome != Render {
		t.Fatalf("onboarding route must render for non-onboarded user, got %v", d.Outcome)
	}
}

func TestDecideAdminNotOnboarded(t *testing.T) {
	// Admins go through onboarding like everyone else.
	sess := &domain.Session{User: freshUser(domain.RoleAdministrator), Token: "tok"}
	d := Decide(sess, Route{RequiredRole: domain.RoleAdministrator}, "/admin")
	if d.Outcome != RedirectOnboarding {
		t.Fatalf("got %v, want RedirectOnboarding", d.Outcome)
	}
}

func TestDecideRender(t *testing.T) {
	sess := &domain.Session{User: onboardedUser("Personal"), Token: "tok"}
	d := Decide(sess, Route{}, "/dashboard")
	if d.Outcome != Render || d.Target != "" {
		t.Fatalf("got %v -> %q, want Render with empty target", d.Outcome, d.Target)
	}
}

func TestDecideAdminRender(t *testing.T) {
	sess := &domain.Session{User: onboardedUser(domain.RoleAdministrator), Token: "tok"}
	d := Decide(sess, Route{RequiredRole: domain.RoleAdministrator}, "/admin")
	if d.Outcome != Render {
		t.Fatalf("got %v, want Render", d.Outcome)
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{
		Render:              "render",
		RedirectLogin:       "redirect_login",
		RedirectRoleDefault: "redirect_role_default",
		RedirectOnboarding:  "redirect_onboarding",
		Outcome(99):         "unknown",
	} {
		if got := o.String(); got != want {
			t.Fatalf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}

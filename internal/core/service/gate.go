package service

import (
	"github.com/juthworks/webapp/internal/core/domain"
)

// Well-known navigation targets.
const (
	LoginPath      = "/login"
	DefaultPath    = "/dashboard"
	OnboardingPath = "/onboarding"
)

// Outcome is the result of an admission check for one navigation.
type Outcome int

const (
	Render Outcome = iota
	RedirectLogin
	RedirectRoleDefault
	RedirectOnboarding
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectRoleDefault:
		return "redirect_role_default"
	case RedirectOnboarding:
		return "redirect_onboarding"
	default:
		return "unknown"
	}
}

// Route is the access constraint attached to a route definition. It is route
// data, not user data; an empty RequiredRole means any authenticated user.
type Route struct {
	RequiredRole string
}

// Decision pairs an outcome with the redirect target, empty for Render.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Decide is the admission check run on every navigation to a protected route.
// It is a pure function of (session, route, path); the caller performs the
// actual redirect. Rules apply in order, first match wins:
//
//  1. no user            → redirect to /login
//  2. wrong role         → redirect to /dashboard
//  3. not onboarded      → redirect to /onboarding, unless already there
//  4. otherwise          → render
//
// Rule 2 outranks rule 3: a user of the wrong role is sent away before their
// onboarding status is considered. Rule 3 exempts the onboarding path itself
// or the redirect would loop. A nil or empty session falls to rule 1, so
// unparseable persisted state denies access rather than granting it.
func Decide(sess *domain.Session, route Route, path string) Decision {
	if !sess.Authenticated() {
		return Decision{Outcome: RedirectLogin, Target: LoginPath}
	}
	if route.RequiredRole != "" && sess.User.Role != route.RequiredRole {
		return Decision{Outcome: RedirectRoleDefault, Target: DefaultPath}
	}
	if !sess.User.Onboarded.Bool() && path != OnboardingPath {
		return Decision{Outcome: RedirectOnboarding, Target: OnboardingPath}
	}
	return Decision{Outcome: Render}
}

// Package guard decides whether a caller may view a page.
package guard

import "github.com/spec-kit/inventory-console/internal/domain"

// Page is one of the console pages.
type Page string

const (
	PageLanding      Page = "landing"
	PageUnauthorized Page = "unauthorized"
	PageAdmin        Page = "admin"
	PageManager      Page = "manager"
	PageVolunteer    Page = "volunteer"
)

const (
	LandingPath      = "/"
	UnauthorizedPath = "/unauthorized"
)

var required = map[Page][]domain.RoleKey{
	PageAdmin:     {domain.RolePrimary},
	PageManager:   {domain.RolePrimary, domain.RoleSecondary},
	PageVolunteer: {domain.RoleVolunteer},
}

// Path returns the route serving page.
func (p Page) Path() string {
	switch p {
	case PageLanding:
		return LandingPath
	case PageUnauthorized:
		return UnauthorizedPath
	default:
		return "/" + string(p)
	}
}

// Public reports whether page needs no role.
func (p Page) Public() bool {
	_, gated := required[p]
	return !gated
}

// Requires returns the role set allowed on page. Public pages return nil.
func (p Page) Requires() []domain.RoleKey {
	return append([]domain.RoleKey(nil), required[p]...)
}

// Decision is the outcome of a guard check. Redirect is empty when Allow is set.
// SignOut asks the caller to end the session before acting on the rest.
type Decision struct {
	Allow    bool
	Redirect string
	SignOut  bool
}

// Decide evaluates user against page. It performs no I/O.
func Decide(page Page, user *domain.UserContext) Decision {
	if user == nil {
		if page == PageLanding {
			return Decision{Allow: true}
		}
		return Decision{Redirect: LandingPath}
	}
	if !user.HasRole() {
		if page == PageLanding {
			return Decision{Allow: true, SignOut: true}
		}
		return Decision{Redirect: LandingPath, SignOut: true}
	}
	roles, gated := required[page]
	if !gated {
		return Decision{Allow: true}
	}
	for _, role := range roles {
		if user.RoleKey == role {
			return Decision{Allow: true}
		}
	}
	return Decision{Redirect: UnauthorizedPath}
}

// Home returns the dashboard a role lands on after sign-in.
func Home(role domain.RoleKey) (Page, bool) {
	switch role {
	case domain.RolePrimary:
		return PageAdmin, true
	case domain.RoleSecondary:
		return PageManager, true
	case domain.RoleVolunteer:
		return PageVolunteer, true
	default:
		return "", false
	}
}

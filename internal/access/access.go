// Package access decides whether a session may reach a route and, when it
// may not, where it should be sent instead. The decision is pure: callers
// (HTTP middleware, page renderers) translate it into status codes or
// redirects.
package access

import (
	"github.com/google/uuid"

	"github.com/agendly/agenda-api/internal/model"
)

// Session is the authenticated context an access decision is made against.
// A nil Session means the visitor is anonymous. Establishing reports a
// credentials check still in flight, during which no allow/deny decision
// may be taken yet.
type Session struct {
	AccountID       uuid.UUID
	Role            model.Role
	EstablishmentID *uuid.UUID
	Establishing    bool
}

// Verdict is the outcome of an authorization check.
type Verdict int

const (
	// Allow grants access to the requested route.
	Allow Verdict = iota
	// Pending means the session is still being established and the caller
	// must hold a neutral state rather than allow or redirect.
	Pending
	// Redirect denies access and names the path the session belongs at.
	Redirect
)

// Decision pairs a verdict with the redirect target when the verdict is
// Redirect.
type Decision struct {
	Verdict Verdict
	Path    string
}

// PublicEntryPath is where anonymous or unrecognized sessions are sent.
const PublicEntryPath = "/"

// Authorize maps a session and the roles a route requires to a decision.
//
// An in-flight session yields Pending. An absent session redirects to the
// public entry surface. A session whose role is not among the required
// roles redirects to its own role's landing page, or to the public entry
// surface when the role is unrecognized. Otherwise access is allowed.
func Authorize(session *Session, requiredRoles ...model.Role) Decision {
	if session != nil && session.Establishing {
		return Decision{Verdict: Pending}
	}
	if session == nil {
		return Decision{Verdict: Redirect, Path: PublicEntryPath}
	}
	if !session.Role.Valid() {
		return Decision{Verdict: Redirect, Path: PublicEntryPath}
	}
	for _, role := range requiredRoles {
		if session.Role == role {
			return Decision{Verdict: Allow}
		}
	}
	return Decision{Verdict: Redirect, Path: session.Role.LandingPath()}
}

package auth

import (
	"context"
	"fmt"
)

// Actions checked by the proxy.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// Authorizer determines if an identity is allowed to perform an action.
type Authorizer interface {
	// Authorize returns nil if permitted, or an *AuthzError if denied.
	Authorize(ctx context.Context, req *AuthzRequest) error
}

// AuthzRequest contains the information needed for authorization.
type AuthzRequest struct {
	// Subject is the identity making the request.
	Subject *Identity

	// Action is the requested action (ActionRead or ActionWrite).
	Action string

	// Resource is the target, e.g. an item id (optional).
	Resource string
}

// AuthzError represents an authorization failure.
type AuthzError struct {
	Subject  string
	Action   string
	Resource string
	Reason   string
}

// Error returns the error message.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q action=%q resource=%q reason=%q",
		e.Subject, e.Action, e.Resource, e.Reason)
}

// Is reports whether this error matches the target.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

// ScopeAuthorizer maps each action to the scope it requires.
type ScopeAuthorizer struct {
	// Required maps action to scope. Actions not listed are denied.
	Required map[string]string
}

// DefaultScopeAuthorizer requires ScopeRead for reads and ScopeWrite for writes.
func DefaultScopeAuthorizer() *ScopeAuthorizer {
	return &ScopeAuthorizer{Required: map[string]string{
		ActionRead:  ScopeRead,
		ActionWrite: ScopeWrite,
	}}
}

// Authorize implements Authorizer.
func (a *ScopeAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	deny := func(reason string) error {
		e := &AuthzError{Action: req.Action, Resource: req.Resource, Reason: reason}
		if req.Subject != nil {
			e.Subject = req.Subject.Principal
		}
		return e
	}
	if req.Subject == nil {
		return deny("no identity")
	}
	scope, ok := a.Required[req.Action]
	if !ok {
		return deny("unknown action")
	}
	if !req.Subject.HasScope(scope) {
		return deny("missing scope " + scope)
	}
	return nil
}

// AllowAllAuthorizer permits all requests.
type AllowAllAuthorizer struct{}

// Authorize always returns nil (permitted).
func (AllowAllAuthorizer) Authorize(context.Context, *AuthzRequest) error {
	return nil
}

var (
	_ Authorizer = (*ScopeAuthorizer)(nil)
	_ Authorizer = AllowAllAuthorizer{}
)

// Package auth gates gateway operations by caller role.
package auth

import (
	"context"
	"net/http"
)

// Role labels the privilege level an operation requires.
type Role string

const (
	// RolePublic covers read-only market data endpoints.
	RolePublic Role = "PUBLIC"
	// RoleTrader covers account access and order mutation.
	RoleTrader Role = "TRADER"
)

// Authorizer decides whether an inbound request may act with the given role.
type Authorizer interface {
	Authorize(ctx context.Context, r *http.Request, role Role) error
}

// AllowAll permits every request. Suitable for deployments where access
// control is delegated to a fronting proxy.
type AllowAll struct{}

// Authorize always succeeds.
func (AllowAll) Authorize(context.Context, *http.Request, Role) error { return nil }

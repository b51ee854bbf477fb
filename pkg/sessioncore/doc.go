// Package sessioncore reconciles the two identity paths of the Siplan
// Skills platform into a single authoritative auth state.
//
// Tenant users (cartório staff) authenticate through the trusted login
// exchange and carry a signed session token persisted between runs.
// Administrators authenticate natively against the hosted backend and are
// additionally gated by the administrator roster. The Reconciler merges
// both paths, with an active tenant session always taking precedence over
// a backend session, and publishes every transition to subscribers as one
// consolidated AuthState.
package sessioncore

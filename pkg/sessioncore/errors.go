package sessioncore

import "fmt"

// ErrorKind classifies every failure the auth core can surface.
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindTenantInactive     ErrorKind = "tenant_inactive"
	KindAccessDenied       ErrorKind = "access_denied"
	KindSessionExpired     ErrorKind = "session_expired"
	KindRefreshFailed      ErrorKind = "refresh_failed"
	KindNetworkError       ErrorKind = "network_error"
	KindServerError        ErrorKind = "server_error"
	KindStorageError       ErrorKind = "storage_error"
	KindNotAuthenticated   ErrorKind = "not_authenticated"
)

// AuthError is the error type returned by every sessioncore operation.
// Message is user-displayable; Kind drives programmatic handling.
type AuthError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *AuthError) Unwrap() error { return e.cause }

// Is lets errors.Is match on the kind sentinels below.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

func newAuthError(kind ErrorKind, message string, cause error) *AuthError {
	return &AuthError{Kind: kind, Message: message, cause: cause}
}

// Kind sentinels for errors.Is comparisons.
var (
	ErrInvalidCredentials = &AuthError{Kind: KindInvalidCredentials}
	ErrTenantInactive     = &AuthError{Kind: KindTenantInactive}
	ErrAccessDenied       = &AuthError{Kind: KindAccessDenied}
	ErrSessionExpired     = &AuthError{Kind: KindSessionExpired}
	ErrRefreshFailed      = &AuthError{Kind: KindRefreshFailed}
	ErrNetwork            = &AuthError{Kind: KindNetworkError}
	ErrServer             = &AuthError{Kind: KindServerError}
	ErrStorage            = &AuthError{Kind: KindStorageError}
	ErrNotAuthenticated   = &AuthError{Kind: KindNotAuthenticated}
)

// KindOf extracts the ErrorKind from any error, or "" for non-auth errors.
func KindOf(err error) ErrorKind {
	if ae, ok := err.(*AuthError); ok {
		return ae.Kind
	}
	return ""
}

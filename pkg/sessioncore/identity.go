package sessioncore

import "time"

// IdentityKind discriminates the three shapes an identity can take.
type IdentityKind string

const (
	KindAnonymous IdentityKind = "anonymous"
	KindTenant    IdentityKind = "tenant"
	KindAdmin     IdentityKind = "admin"
)

// TenantIdentity is a cartório user authenticated through the login
// exchange. SignedSessionToken is the JWT the data endpoints accept.
type TenantIdentity struct {
	UserID             string
	Username           string
	Email              string
	CartorioID         string
	CartorioNome       string
	SignedSessionToken string
	RefreshToken       string
}

// AdminIdentity is a roster-approved administrator backed by a native
// backend session.
type AdminIdentity struct {
	IdentityID  string
	Email       string
	AccessToken string
}

// Identity is the resolved authority of the current user. Exactly one of
// Tenant and Admin is non-nil unless Kind is KindAnonymous.
type Identity struct {
	Kind   IdentityKind
	Tenant *TenantIdentity
	Admin  *AdminIdentity
}

func anonymousIdentity() Identity { return Identity{Kind: KindAnonymous} }

func (i Identity) IsAnonymous() bool { return i.Kind == KindAnonymous || i.Kind == "" }
func (i Identity) IsTenant() bool    { return i.Kind == KindTenant }
func (i Identity) IsAdmin() bool     { return i.Kind == KindAdmin }

// AuthState is the single consolidated snapshot consumers observe.
type AuthState struct {
	Identity      Identity
	IsLoading     bool
	IsInitialized bool
	LastError     *AuthError
}

// Session is a backend-native admin session held by the BackendClient.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Email        string
	IdentityID   string
}

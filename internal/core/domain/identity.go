package domain

import "time"

// IdentityKind distinguishes the two principal types a signed session can
// represent.
type IdentityKind string

const (
	KindTenant IdentityKind = "tenant"
	KindAdmin  IdentityKind = "admin"
)

// BackendIdentity is the auth principal a signed session token binds to.
// Tenant identities are minted by the login exchange (exactly one per
// TenantUser, enforced by a unique index) and carry no password. Admin
// identities are provisioned out of band and authenticate with bcrypt-hashed
// passwords.
type BackendIdentity struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	Kind         IdentityKind `json:"kind" bson:"kind"`
	Email        string       `json:"email" bson:"email"`
	PasswordHash string       `json:"-" bson:"password_hash,omitempty"`
	TenantUserID string       `json:"tenant_user_id,omitempty" bson:"tenant_user_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
}

// AdminProfile is a roster entry. Presence in the roster — not the identity
// record alone — is what grants administrative access.
type AdminProfile struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Email       string    `json:"email" bson:"email"`
	DisplayName string    `json:"display_name" bson:"display_name"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

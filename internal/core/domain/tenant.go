package domain

import "time"

// Cartorio is a notary-office client organisation — the unit of content-access
// scoping. Inactive cartorios cannot log in and their sessions are rejected at
// the exchange.
type Cartorio struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Nome      string    `json:"nome" bson:"nome"`
	Cidade    string    `json:"cidade,omitempty" bson:"cidade,omitempty"`
	Estado    string    `json:"estado,omitempty" bson:"estado,omitempty"`
	Ativo     bool      `json:"ativo" bson:"ativo"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// TenantUser is a named person inside a cartorio. Tenant users never carry a
// password: they authenticate with the cartorio's login token and are bound
// 1:1 to a BackendIdentity on first successful exchange.
type TenantUser struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	CartorioID  string    `json:"cartorio_id" bson:"cartorio_id"`
	Username    string    `json:"username" bson:"username"`
	DisplayName string    `json:"display_name" bson:"display_name"`
	Email       string    `json:"email,omitempty" bson:"email,omitempty"`
	Ativo       bool      `json:"ativo" bson:"ativo"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// LoginToken is the opaque access token ("CART-...") handed to a cartorio by
// an administrator. A token is valid while Ativo and, when ExpiresAt is set,
// until that instant.
type LoginToken struct {
	ID         string     `json:"id" bson:"_id,omitempty"`
	CartorioID string     `json:"cartorio_id" bson:"cartorio_id"`
	Token      string     `json:"token" bson:"token"`
	Ativo      bool       `json:"ativo" bson:"ativo"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

// Usable reports whether the token can still authenticate a login at instant t.
func (lt *LoginToken) Usable(t time.Time) bool {
	if !lt.Ativo {
		return false
	}
	if lt.ExpiresAt != nil && t.After(*lt.ExpiresAt) {
		return false
	}
	return true
}

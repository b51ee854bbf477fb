package domain

import "time"

// AccessLevel is the coarse level attached to a grant. Only visibility is
// enforced today; the level is kept for reporting.
type AccessLevel string

const (
	AccessFull    AccessLevel = "full"
	AccessViewer  AccessLevel = "viewer"
	AccessPreview AccessLevel = "preview"
)

// AccessGrant restricts a cartorio to a subset of the catalog. A grant
// references either a whole system (SystemID set, ProductID empty) or a single
// product. The absence of any active grant row for a cartorio means
// unrestricted access to the full catalog.
type AccessGrant struct {
	ID          string      `json:"id" bson:"_id,omitempty"`
	CartorioID  string      `json:"cartorio_id" bson:"cartorio_id"`
	SystemID    string      `json:"system_id,omitempty" bson:"system_id,omitempty"`
	ProductID   string      `json:"product_id,omitempty" bson:"product_id,omitempty"`
	AccessLevel AccessLevel `json:"access_level" bson:"access_level"`
	Active      bool        `json:"active" bson:"active"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}

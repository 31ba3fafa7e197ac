package events

import "time"

// Routing keys for catalog changes.
const (
	RKProductCreated     = "product.created"
	RKProductUpdated     = "product.updated"
	RKProductPublished   = "product.published"
	RKProductUnpublished = "product.unpublished"
	RKProductDeleted     = "product.deleted"
)

// ProductChanged is the payload of every product.* event.
type ProductChanged struct {
	ProductID   string    `json:"product_id"`
	OwnerID     string    `json:"owner_id"`
	ProductName string    `json:"product_name,omitempty"`
	IsPublished bool      `json:"is_published"`
	ImageCount  int       `json:"image_count"`
	At          time.Time `json:"at"`
}

package vendors

import "time"

// Vendor is a counterparty the console raises bills and purchase orders
// against. Documents take a snapshot of the contact fields at creation;
// edits here never rewrite existing documents.
type Vendor struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"omitempty,email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	GSTIN     string    `json:"gstin" validate:"omitempty,len=15"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalogue entry. Weight is in kilograms. PurchasePrice is
// optional: products without one still sell, they just never contribute to
// profit figures.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Image         string           `json:"image,omitempty"`
	Weight        decimal.Decimal  `json:"weight"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	SalePrice     decimal.Decimal  `json:"sale_price"`
	Variants      []ProductVariant `json:"variants,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProductVariant is owned by its parent product. Its sale and purchase
// prices fully override the parent's; its weight is the parent weight
// multiplied by WeightModifier.
type ProductVariant struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	SalePrice      decimal.Decimal  `json:"sale_price"`
	PurchasePrice  *decimal.Decimal `json:"purchase_price,omitempty"`
	WeightModifier decimal.Decimal  `json:"weight_modifier"`
}

// Clone returns a deep copy, detached from the catalogue entry it came from.
func (p Product) Clone() Product {
	out := p
	if p.PurchasePrice != nil {
		v := *p.PurchasePrice
		out.PurchasePrice = &v
	}
	if p.Variants != nil {
		out.Variants = make([]ProductVariant, len(p.Variants))
		for i, variant := range p.Variants {
			out.Variants[i] = variant.Clone()
		}
	}
	return out
}

func (v ProductVariant) Clone() ProductVariant {
	out := v
	if v.PurchasePrice != nil {
		p := *v.PurchasePrice
		out.PurchasePrice = &p
	}
	return out
}

// Client is a directory entry. Orders copy the client by value at creation
// time, so later edits never rewrite order history.
type Client struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DeliveryRule maps a weight range [MinWeight, MaxWeight) to a flat price
// for one delivery mode. Rules of the same mode must not overlap; that is
// enforced at the edit boundary, not by the fee calculator.
type DeliveryRule struct {
	ID        string          `json:"id"`
	Mode      DeliveryMode    `json:"delivery_mode"`
	MinWeight decimal.Decimal `json:"min_weight"`
	MaxWeight decimal.Decimal `json:"max_weight"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// VATSettings is process-wide configuration. Rate is a percentage.
// When disabled, totals are computed with a zero rate.
type VATSettings struct {
	Enabled bool            `json:"enabled"`
	Rate    decimal.Decimal `json:"rate"`
}

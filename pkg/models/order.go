package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem freezes a line at add-to-cart time: unit price, purchase price
// and weight are resolved once and never re-read from the catalogue, so
// later catalogue edits cannot retroactively change carts or past orders.
type CartItem struct {
	Product           Product          `json:"product"`
	Variant           *ProductVariant  `json:"variant,omitempty"`
	Quantity          int              `json:"quantity"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	UnitPurchasePrice *decimal.Decimal `json:"unit_purchase_price,omitempty"`
	UnitWeight        decimal.Decimal  `json:"unit_weight"`
}

func (c CartItem) Clone() CartItem {
	out := c
	out.Product = c.Product.Clone()
	if c.Variant != nil {
		v := c.Variant.Clone()
		out.Variant = &v
	}
	if c.UnitPurchasePrice != nil {
		p := *c.UnitPurchasePrice
		out.UnitPurchasePrice = &p
	}
	return out
}

// Order is an immutable snapshot of a cart plus its computed totals. After
// creation only Status, PaymentMethod and UpdatedAt ever change.
type Order struct {
	ID            string          `json:"id"`
	Client        *Client         `json:"client,omitempty"`
	Items         []CartItem      `json:"items"`
	DeliveryMode  DeliveryMode    `json:"delivery_mode"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	TotalWeight   decimal.Decimal `json:"total_weight"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod *PaymentMethod  `json:"payment_method,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type OrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Order   *Order `json:"order,omitempty"`
}

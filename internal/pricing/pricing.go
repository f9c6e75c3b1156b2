// Package pricing holds the pure numeric core: line resolution, delivery
// fee lookup and order totals. Everything here is value-in/value-out with
// no side effects, so callers can recompute freely.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/roosmar/backoffice/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// LineResolution is the effective unit pricing for a product or one of its
// variants. UnitPurchasePrice is nil when neither the product nor the
// variant declares one.
type LineResolution struct {
	UnitPrice         decimal.Decimal
	UnitPurchasePrice *decimal.Decimal
	UnitWeight        decimal.Decimal
}

// ResolveLine resolves effective unit sale price, purchase price and weight
// for a product and an optional variant. Variant prices fully override the
// parent's; variant weight is the parent weight times the modifier. Input
// validation (weight > 0, sale price > 0) happens at the catalogue edit
// boundary, not here.
func ResolveLine(product models.Product, variant *models.ProductVariant) LineResolution {
	if variant == nil {
		return LineResolution{
			UnitPrice:         product.SalePrice,
			UnitPurchasePrice: clonePrice(product.PurchasePrice),
			UnitWeight:        product.Weight,
		}
	}

	purchase := variant.PurchasePrice
	if purchase == nil {
		purchase = product.PurchasePrice
	}

	return LineResolution{
		UnitPrice:         variant.SalePrice,
		UnitPurchasePrice: clonePrice(purchase),
		UnitWeight:        product.Weight.Mul(variant.WeightModifier),
	}
}

// ComputeFee returns the flat delivery price for a shipment weight. The
// first rule in iteration order with a matching mode and
// min_weight <= weight < max_weight wins; with a well-formed (non
// overlapping) rule set at most one can match, and for malformed sets
// first-match is the tie-break. A weight outside every configured range
// resolves to zero rather than an error.
func ComputeFee(totalWeight decimal.Decimal, mode models.DeliveryMode, rules []models.DeliveryRule) decimal.Decimal {
	for _, rule := range rules {
		if rule.Mode != mode {
			continue
		}
		if totalWeight.GreaterThanOrEqual(rule.MinWeight) && totalWeight.LessThan(rule.MaxWeight) {
			return rule.Price
		}
	}
	return decimal.Zero
}

// Totals is the financial summary of a cart under one delivery mode and
// VAT rate. No rounding is applied; currency formatting is a presentation
// concern.
type Totals struct {
	Subtotal    decimal.Decimal     `json:"subtotal"`
	TotalWeight decimal.Decimal     `json:"total_weight"`
	Mode        models.DeliveryMode `json:"delivery_mode"`
	DeliveryFee decimal.Decimal     `json:"delivery_fee"`
	VATRate     decimal.Decimal     `json:"vat_rate"`
	VATAmount   decimal.Decimal     `json:"vat_amount"`
	Total       decimal.Decimal     `json:"total"`
}

// ComputeTotals sums a cart into subtotal, weight, delivery fee, VAT and
// grand total. VAT applies to the product subtotal only, never to the
// delivery fee. An empty cart yields zero totals apart from the echoed VAT
// rate and whatever fee a zero-weight shipment resolves to.
func ComputeTotals(cart []models.CartItem, rules []models.DeliveryRule, mode models.DeliveryMode, vatRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	totalWeight := decimal.Zero

	for _, item := range cart {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.UnitPrice.Mul(qty))
		totalWeight = totalWeight.Add(item.UnitWeight.Mul(qty))
	}

	deliveryFee := ComputeFee(totalWeight, mode, rules)
	vatAmount := subtotal.Mul(vatRate).Div(hundred)

	return Totals{
		Subtotal:    subtotal,
		TotalWeight: totalWeight,
		Mode:        mode,
		DeliveryFee: deliveryFee,
		VATRate:     vatRate,
		VATAmount:   vatAmount,
		Total:       subtotal.Add(deliveryFee).Add(vatAmount),
	}
}

func clonePrice(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Package orders owns order creation and the order status lifecycle. The
// numeric work is delegated to the pricing package; this package decides
// what gets frozen into an order and what may still change afterwards.
package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roosmar/backoffice/internal/pricing"
	"github.com/roosmar/backoffice/pkg/models"
)

var (
	// ErrEmptyCart is returned when order creation is attempted with zero
	// line items. No order is created and no state changes.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOrderNotFound is returned when a status update targets an
	// identity no order carries.
	ErrOrderNotFound = errors.New("order not found")
)

// Materialize snapshots a cart and optional client into an immutable order
// record: items and client are deep-copied, totals are computed once and
// frozen. The caller supplies identity and clock so the function stays
// deterministic.
func Materialize(cart []models.CartItem, client *models.Client, mode models.DeliveryMode,
	rules []models.DeliveryRule, vatRate decimal.Decimal, notes, id string, now time.Time) (models.Order, error) {

	if len(cart) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	items := make([]models.CartItem, len(cart))
	for i, item := range cart {
		items[i] = item.Clone()
	}

	var clientCopy *models.Client
	if client != nil {
		c := *client
		clientCopy = &c
	}

	totals := pricing.ComputeTotals(items, rules, mode, vatRate)

	return models.Order{
		ID:           id,
		Client:       clientCopy,
		Items:        items,
		DeliveryMode: mode,
		DeliveryFee:  totals.DeliveryFee,
		TotalWeight:  totals.TotalWeight,
		Subtotal:     totals.Subtotal,
		VATRate:      totals.VATRate,
		VATAmount:    totals.VATAmount,
		Total:        totals.Total,
		Status:       models.StatusPendingValidation,
		Notes:        notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyStatus returns the order with its status reassigned. Any of the six
// statuses may be set at any time; the progression shown in the UI is a
// convention, not an enforced automaton. The payment method is only
// touched when one is provided. Nothing else changes besides UpdatedAt.
func ApplyStatus(order models.Order, status models.OrderStatus, paymentMethod *models.PaymentMethod, now time.Time) models.Order {
	order.Status = status
	if paymentMethod != nil {
		pm := *paymentMethod
		order.PaymentMethod = &pm
	}
	order.UpdatedAt = now
	return order
}

package models

// DeliveryMode selects which carrier's tier table prices a shipment.
type DeliveryMode string

const (
	DeliveryColissimo DeliveryMode = "colissimo"
	DeliveryGLS       DeliveryMode = "gls"
)

// DefaultDeliveryMode is what the cart resets to after an order is created.
const DefaultDeliveryMode = DeliveryColissimo

// OrderStatus is a plain enumerated field, not an enforced state machine:
// any status can be assigned at any time.
type OrderStatus string

const (
	StatusPendingValidation OrderStatus = "pending_validation"
	StatusValidated         OrderStatus = "validated"
	StatusUnpaid            OrderStatus = "unpaid"
	StatusPaid              OrderStatus = "paid"
	StatusShipped           OrderStatus = "shipped"
	StatusDelivered         OrderStatus = "delivered"
)

type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
	PaymentLink         PaymentMethod = "payment_link"
	PaymentCash         PaymentMethod = "cash"
)

// AllOrderStatuses returns every status in display order. Aggregations rely
// on this for total bucket coverage.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPendingValidation,
		StatusValidated,
		StatusUnpaid,
		StatusPaid,
		StatusShipped,
		StatusDelivered,
	}
}

func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentBankTransfer,
		PaymentCard,
		PaymentLink,
		PaymentCash,
	}
}

func AllDeliveryModes() []DeliveryMode {
	return []DeliveryMode{DeliveryColissimo, DeliveryGLS}
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingValidation, StatusValidated, StatusUnpaid,
		StatusPaid, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentBankTransfer, PaymentCard, PaymentLink, PaymentCash:
		return true
	}
	return false
}

func (d DeliveryMode) Valid() bool {
	switch d {
	case DeliveryColissimo, DeliveryGLS:
		return true
	}
	return false
}

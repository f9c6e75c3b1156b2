package models

import "github.com/shopspring/decimal"

// BucketStat is one count/value cell of a dashboard breakdown.
type BucketStat struct {
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// DashboardStats is the aggregated view over a filtered order set. Every
// status, payment-method and delivery-mode bucket is always present with
// zero defaults; consumers rely on total key coverage, not sparse maps.
type DashboardStats struct {
	TotalOrders                  int                              `json:"total_orders"`
	TotalRevenue                 decimal.Decimal                  `json:"total_revenue"`
	ProductsWithPurchasePrice    decimal.Decimal                  `json:"products_with_purchase_price"`
	ProductsWithoutPurchasePrice decimal.Decimal                  `json:"products_without_purchase_price"`
	DeliveryRevenueByMode        map[DeliveryMode]decimal.Decimal `json:"delivery_revenue_by_mode"`
	TotalProfit                  decimal.Decimal                  `json:"total_profit"`
	TotalVATCollected            decimal.Decimal                  `json:"total_vat_collected"`
	OrdersByStatus               map[OrderStatus]BucketStat       `json:"orders_by_status"`
	OrdersByPaymentMethod        map[PaymentMethod]BucketStat     `json:"orders_by_payment_method"`
	OrdersByDeliveryMode         map[DeliveryMode]BucketStat      `json:"orders_by_delivery_mode"`
}

// Package dashboard reduces the order collection into the revenue, profit
// and breakdown figures shown on the dashboard.
package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roosmar/backoffice/pkg/models"
)

type Period string

const (
	PeriodAll          Period = "all"
	PeriodCurrentMonth Period = "current_month"
	PeriodCurrentYear  Period = "current_year"
	PeriodCustom       Period = "custom"
)

// Filter selects which orders enter the aggregation. Custom bounds are
// dates in "2006-01-02" form; the end bound covers its whole day. A custom
// filter with a missing or unparsable bound fails open and includes every
// order — losing figures to a typo is worse than showing too many.
type Filter struct {
	Period      Period `json:"period"`
	CustomStart string `json:"custom_start,omitempty"`
	CustomEnd   string `json:"custom_end,omitempty"`
}

const dateLayout = "2006-01-02"

// Aggregate walks the order collection once and produces the full stats
// record. Every status, payment-method and delivery-mode bucket is present
// in the result even when empty. The caller supplies the clock so
// current-month/current-year filters stay testable.
func Aggregate(orders []models.Order, filter Filter, now time.Time) models.DashboardStats {
	stats := emptyStats()

	for _, order := range orders {
		if !matches(order.CreatedAt, filter, now) {
			continue
		}

		stats.TotalOrders++
		stats.TotalRevenue = stats.TotalRevenue.Add(order.Total)

		statusBucket := stats.OrdersByStatus[order.Status]
		statusBucket.Count++
		statusBucket.Value = statusBucket.Value.Add(order.Total)
		stats.OrdersByStatus[order.Status] = statusBucket

		// Orders without a payment method contribute to no payment bucket.
		if order.PaymentMethod != nil {
			pmBucket := stats.OrdersByPaymentMethod[*order.PaymentMethod]
			pmBucket.Count++
			pmBucket.Value = pmBucket.Value.Add(order.Total)
			stats.OrdersByPaymentMethod[*order.PaymentMethod] = pmBucket
		}

		modeBucket := stats.OrdersByDeliveryMode[order.DeliveryMode]
		modeBucket.Count++
		modeBucket.Value = modeBucket.Value.Add(order.Total)
		stats.OrdersByDeliveryMode[order.DeliveryMode] = modeBucket

		stats.DeliveryRevenueByMode[order.DeliveryMode] =
			stats.DeliveryRevenueByMode[order.DeliveryMode].Add(order.DeliveryFee)

		stats.TotalVATCollected = stats.TotalVATCollected.Add(order.VATAmount)

		for _, item := range order.Items {
			qty := decimal.NewFromInt(int64(item.Quantity))
			lineTotal := item.UnitPrice.Mul(qty)

			if item.UnitPurchasePrice != nil {
				stats.ProductsWithPurchasePrice = stats.ProductsWithPurchasePrice.Add(lineTotal)
				margin := item.UnitPrice.Sub(*item.UnitPurchasePrice).Mul(qty)
				stats.TotalProfit = stats.TotalProfit.Add(margin)
			} else {
				stats.ProductsWithoutPurchasePrice = stats.ProductsWithoutPurchasePrice.Add(lineTotal)
			}
		}
	}

	return stats
}

func emptyStats() models.DashboardStats {
	stats := models.DashboardStats{
		DeliveryRevenueByMode: make(map[models.DeliveryMode]decimal.Decimal),
		OrdersByStatus:        make(map[models.OrderStatus]models.BucketStat),
		OrdersByPaymentMethod: make(map[models.PaymentMethod]models.BucketStat),
		OrdersByDeliveryMode:  make(map[models.DeliveryMode]models.BucketStat),
	}
	for _, status := range models.AllOrderStatuses() {
		stats.OrdersByStatus[status] = models.BucketStat{Value: decimal.Zero}
	}
	for _, pm := range models.AllPaymentMethods() {
		stats.OrdersByPaymentMethod[pm] = models.BucketStat{Value: decimal.Zero}
	}
	for _, mode := range models.AllDeliveryModes() {
		stats.OrdersByDeliveryMode[mode] = models.BucketStat{Value: decimal.Zero}
		stats.DeliveryRevenueByMode[mode] = decimal.Zero
	}
	return stats
}

func matches(createdAt time.Time, filter Filter, now time.Time) bool {
	switch filter.Period {
	case PeriodCurrentMonth:
		return createdAt.Year() == now.Year() && createdAt.Month() == now.Month()
	case PeriodCurrentYear:
		return createdAt.Year() == now.Year()
	case PeriodCustom:
		if filter.CustomStart == "" || filter.CustomEnd == "" {
			return true
		}
		start, err := parseBound(filter.CustomStart)
		if err != nil {
			return true
		}
		end, err := time.Parse(dateLayout, filter.CustomEnd)
		if err == nil {
			end = end.Add(24*time.Hour - time.Second) // date bound covers its whole day
		} else if end, err = time.Parse(time.RFC3339, filter.CustomEnd); err != nil {
			return true
		}
		return !createdAt.Before(start) && !createdAt.After(end)
	default:
		return true
	}
}

func parseBound(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

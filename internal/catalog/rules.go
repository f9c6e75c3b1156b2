package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roosmar/backoffice/pkg/models"
)

// ValidateDeliveryRules rejects malformed tier tables before they reach
// the fee calculator: non-positive ranges, negative prices, or two rules
// of the same mode whose [min, max) ranges intersect. Gaps between tiers
// are allowed; weights falling in a gap simply resolve to a zero fee.
func ValidateDeliveryRules(rules []models.DeliveryRule) error {
	for i, rule := range rules {
		if !rule.Mode.Valid() {
			return fmt.Errorf("rule %d: unknown delivery mode %q", i, rule.Mode)
		}
		if rule.MinWeight.IsNegative() {
			return fmt.Errorf("rule %d: min weight must not be negative", i)
		}
		if !rule.MaxWeight.GreaterThan(rule.MinWeight) {
			return fmt.Errorf("rule %d: max weight must exceed min weight", i)
		}
		if rule.Price.IsNegative() {
			return fmt.Errorf("rule %d: price must not be negative", i)
		}
		for j := 0; j < i; j++ {
			prev := rules[j]
			if prev.Mode != rule.Mode {
				continue
			}
			if rule.MinWeight.LessThan(prev.MaxWeight) && prev.MinWeight.LessThan(rule.MaxWeight) {
				return fmt.Errorf("rules %d and %d overlap for mode %s", j, i, rule.Mode)
			}
		}
	}
	return nil
}

// DefaultDeliveryRules is the tier table a fresh install starts with.
func DefaultDeliveryRules() []models.DeliveryRule {
	tiers := []struct {
		mode     models.DeliveryMode
		min, max string
		price    string
	}{
		{models.DeliveryColissimo, "0", "5", "5"},
		{models.DeliveryColissimo, "5", "10", "8"},
		{models.DeliveryColissimo, "10", "20", "12"},
		{models.DeliveryColissimo, "20", "999", "18"},
		{models.DeliveryGLS, "0", "5", "6"},
		{models.DeliveryGLS, "5", "10", "9"},
		{models.DeliveryGLS, "10", "20", "14"},
		{models.DeliveryGLS, "20", "999", "20"},
	}

	rules := make([]models.DeliveryRule, len(tiers))
	for i, t := range tiers {
		rules[i] = models.DeliveryRule{
			ID:        fmt.Sprintf("%d", i+1),
			Mode:      t.mode,
			MinWeight: decimal.RequireFromString(t.min),
			MaxWeight: decimal.RequireFromString(t.max),
			Price:     decimal.RequireFromString(t.price),
		}
	}
	return rules
}

// DefaultVATSettings: VAT starts disabled with the standard 20% rate
// preconfigured.
func DefaultVATSettings() models.VATSettings {
	return models.VATSettings{Enabled: false, Rate: decimal.NewFromInt(20)}
}

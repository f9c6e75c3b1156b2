package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/roosmar/backoffice/pkg/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	store, err := NewStore(t.TempDir(), logger)
	require.NoError(t, err)
	return store
}

func TestOrdersRoundTrip(t *testing.T) {
	store := newTestStore(t)
	pm := models.PaymentCard
	orders := []models.Order{
		{
			ID:            "o1",
			DeliveryMode:  models.DeliveryColissimo,
			DeliveryFee:   dec("5"),
			Subtotal:      dec("31.80"),
			VATRate:       dec("20"),
			VATAmount:     dec("6.36"),
			Total:         dec("43.16"),
			Status:        models.StatusPaid,
			PaymentMethod: &pm,
			Items: []models.CartItem{
				{Quantity: 2, UnitPrice: dec("15.90"), UnitWeight: dec("0.5")},
			},
			CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		},
	}

	require.NoError(t, store.SaveOrders(orders))
	loaded := store.LoadOrders()

	require.Len(t, loaded, 1)
	require.Equal(t, "o1", loaded[0].ID)
	require.True(t, loaded[0].Total.Equal(dec("43.16")))
	require.Equal(t, models.StatusPaid, loaded[0].Status)
	require.NotNil(t, loaded[0].PaymentMethod)
	require.Equal(t, models.PaymentCard, *loaded[0].PaymentMethod)
	require.Len(t, loaded[0].Items, 1)
	require.True(t, loaded[0].Items[0].UnitPrice.Equal(dec("15.90")))
}

func TestMissingFilesYieldDefaults(t *testing.T) {
	store := newTestStore(t)

	require.Empty(t, store.LoadOrders())
	require.Empty(t, store.LoadProducts())
	require.Empty(t, store.LoadClients())

	defaults := []models.DeliveryRule{
		{ID: "1", Mode: models.DeliveryGLS, MinWeight: dec("0"), MaxWeight: dec("5"), Price: dec("6")},
	}
	require.Equal(t, defaults, store.LoadDeliveryRules(defaults))

	vat := store.LoadVATSettings(models.VATSettings{Enabled: false, Rate: dec("20")})
	require.False(t, vat.Enabled)
	require.True(t, vat.Rate.Equal(dec("20")))
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	dir := t.TempDir()
	store, err := NewStore(dir, logger)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "delivery_rules.json"), []byte("{not json"), 0o644))

	defaults := []models.DeliveryRule{
		{ID: "1", Mode: models.DeliveryGLS, MinWeight: dec("0"), MaxWeight: dec("5"), Price: dec("6")},
	}
	require.Equal(t, defaults, store.LoadDeliveryRules(defaults))
}

func TestVATSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveVATSettings(models.VATSettings{Enabled: true, Rate: dec("5.5")}))
	vat := store.LoadVATSettings(models.VATSettings{})
	require.True(t, vat.Enabled)
	require.True(t, vat.Rate.Equal(dec("5.5")))
}

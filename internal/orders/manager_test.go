package orders

import (
	"errors"
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

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func testRules() []models.DeliveryRule {
	return []models.DeliveryRule{
		{ID: "1", Mode: models.DeliveryColissimo, MinWeight: dec("0"), MaxWeight: dec("5"), Price: dec("5")},
		{ID: "2", Mode: models.DeliveryGLS, MinWeight: dec("0"), MaxWeight: dec("5"), Price: dec("6")},
	}
}

func testProduct() models.Product {
	return models.Product{
		ID:            "p1",
		Name:          "Café Premium Bio",
		Description:   "Arabica",
		Weight:        dec("0.5"),
		PurchasePrice: decPtr("8.50"),
		SalePrice:     dec("15.90"),
	}
}

type recordingStore struct {
	orderSaves int
	ruleSaves  int
	vatSaves   int
	fail       bool
}

func (r *recordingStore) SaveOrders([]models.Order) error {
	r.orderSaves++
	if r.fail {
		return errors.New("disk full")
	}
	return nil
}

func (r *recordingStore) SaveDeliveryRules([]models.DeliveryRule) error {
	r.ruleSaves++
	return nil
}

func (r *recordingStore) SaveVATSettings(models.VATSettings) error {
	r.vatSaves++
	return nil
}

type recordingPublisher struct {
	published []models.Order
	fail      bool
}

func (r *recordingPublisher) PublishOrderCreated(order models.Order) error {
	r.published = append(r.published, order)
	if r.fail {
		return errors.New("broker unreachable")
	}
	return nil
}

type recordingHub struct {
	messages []string
}

func (r *recordingHub) Broadcast(messageType string, data interface{}, source string) {
	r.messages = append(r.messages, messageType)
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(Config{
		DeliveryRules: testRules(),
		VAT:           models.VATSettings{Enabled: true, Rate: dec("20")},
	}, testLogger())
}

func TestCreateOrderEmptyCart(t *testing.T) {
	m := newTestManager(t)
	client := models.Client{ID: "c1", Name: "Marie Dupont"}
	m.SetSelectedClient(&client)
	m.SetSelectedDeliveryMode(models.DeliveryGLS)

	_, err := m.CreateOrder("")

	require.ErrorIs(t, err, ErrEmptyCart)
	// A failed creation leaves the order collection and selection untouched.
	require.Empty(t, m.Orders())
	require.NotNil(t, m.SelectedClient())
	require.Equal(t, "Marie Dupont", m.SelectedClient().Name)
	require.Equal(t, models.DeliveryGLS, m.SelectedDeliveryMode())
}

func TestCreateOrderSnapshotsAndClears(t *testing.T) {
	m := newTestManager(t)
	m.AddToCart(testProduct(), nil, 2)
	client := models.Client{ID: "c1", Name: "Marie Dupont", City: "Paris"}
	m.SetSelectedClient(&client)

	order, err := m.CreateOrder("livraison express")
	require.NoError(t, err)

	require.NotEmpty(t, order.ID)
	require.Equal(t, models.StatusPendingValidation, order.Status)
	require.Nil(t, order.PaymentMethod)
	require.Equal(t, "livraison express", order.Notes)
	require.Len(t, order.Items, 1)
	require.Equal(t, 2, order.Items[0].Quantity)
	require.True(t, order.Subtotal.Equal(dec("31.80")))
	require.True(t, order.TotalWeight.Equal(dec("1.0")))
	require.True(t, order.DeliveryFee.Equal(dec("5")))
	require.True(t, order.VATAmount.Equal(dec("6.36")))
	require.True(t, order.Total.Equal(dec("43.16")))
	require.NotNil(t, order.Client)
	require.Equal(t, "Marie Dupont", order.Client.Name)

	// Success clears the cart and the selection atomically.
	require.Empty(t, m.Cart())
	require.Nil(t, m.SelectedClient())
	require.Equal(t, models.DefaultDeliveryMode, m.SelectedDeliveryMode())
	require.Len(t, m.Orders(), 1)
}

func TestCreateOrderClientSnapshotIsDetached(t *testing.T) {
	m := newTestManager(t)
	m.AddToCart(testProduct(), nil, 1)
	client := models.Client{ID: "c1", Name: "Marie Dupont"}
	m.SetSelectedClient(&client)

	order, err := m.CreateOrder("")
	require.NoError(t, err)

	// Later directory edits must not rewrite order history.
	client.Name = "Marie Martin"
	stored, err := m.Order(order.ID)
	require.NoError(t, err)
	require.Equal(t, "Marie Dupont", stored.Client.Name)
}

func TestCartLinesFrozenAgainstCatalogueEdits(t *testing.T) {
	m := newTestManager(t)
	product := testProduct()
	m.AddToCart(product, nil, 1)

	// A price hike after add-to-cart does not touch the frozen line.
	product.SalePrice = dec("99.99")
	cart := m.Cart()
	require.True(t, cart[0].UnitPrice.Equal(dec("15.90")))
}

func TestCreateOrderVATDisabledUsesZeroRate(t *testing.T) {
	m := NewManager(Config{
		DeliveryRules: testRules(),
		VAT:           models.VATSettings{Enabled: false, Rate: dec("20")},
	}, testLogger())
	m.AddToCart(testProduct(), nil, 2)

	order, err := m.CreateOrder("")
	require.NoError(t, err)

	require.True(t, order.VATRate.IsZero())
	require.True(t, order.VATAmount.IsZero())
	require.True(t, order.Total.Equal(dec("36.80")))
}

func TestAddToCartResolvesVariant(t *testing.T) {
	m := newTestManager(t)
	product := models.Product{
		ID:        "p2",
		Name:      "Thé Vert Sencha",
		Weight:    dec("0.1"),
		SalePrice: dec("24.90"),
		Variants: []models.ProductVariant{
			{ID: "v2", Name: "200g", SalePrice: dec("45.90"), PurchasePrice: decPtr("22.00"), WeightModifier: dec("2")},
		},
	}

	item := m.AddToCart(product, &product.Variants[0], 1)

	require.True(t, item.UnitPrice.Equal(dec("45.90")))
	require.True(t, item.UnitWeight.Equal(dec("0.2")))
	require.NotNil(t, item.UnitPurchasePrice)
	require.True(t, item.UnitPurchasePrice.Equal(dec("22.00")))
}

func TestUpdateCartItem(t *testing.T) {
	m := newTestManager(t)
	m.AddToCart(testProduct(), nil, 1)

	m.UpdateCartItem(0, 4)
	require.Equal(t, 4, m.Cart()[0].Quantity)

	// Quantity zero removes the line.
	m.UpdateCartItem(0, 0)
	require.Empty(t, m.Cart())

	// Out-of-range indexes are ignored.
	m.UpdateCartItem(7, 3)
	m.RemoveFromCart(-1)
	require.Empty(t, m.Cart())
}

func TestSetOrderStatus(t *testing.T) {
	m := newTestManager(t)
	m.AddToCart(testProduct(), nil, 1)
	order, err := m.CreateOrder("")
	require.NoError(t, err)

	pm := models.PaymentCard
	updated, err := m.SetOrderStatus(order.ID, models.StatusPaid, &pm)
	require.NoError(t, err)
	require.Equal(t, models.StatusPaid, updated.Status)
	require.NotNil(t, updated.PaymentMethod)
	require.Equal(t, models.PaymentCard, *updated.PaymentMethod)
	require.False(t, updated.UpdatedAt.Before(order.UpdatedAt))

	// Omitting the payment method leaves the stored one unchanged.
	updated, err = m.SetOrderStatus(order.ID, models.StatusShipped, nil)
	require.NoError(t, err)
	require.Equal(t, models.StatusShipped, updated.Status)
	require.NotNil(t, updated.PaymentMethod)
	require.Equal(t, models.PaymentCard, *updated.PaymentMethod)

	// Financial fields never move.
	require.True(t, updated.Total.Equal(order.Total))
	require.Equal(t, order.CreatedAt, updated.CreatedAt)
}

func TestSetOrderStatusBackwards(t *testing.T) {
	m := newTestManager(t)
	m.AddToCart(testProduct(), nil, 1)
	order, err := m.CreateOrder("")
	require.NoError(t, err)

	// The lifecycle is a convention, not an automaton: any reassignment
	// is accepted, including backwards from delivered.
	_, err = m.SetOrderStatus(order.ID, models.StatusDelivered, nil)
	require.NoError(t, err)
	updated, err := m.SetOrderStatus(order.ID, models.StatusPendingValidation, nil)
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingValidation, updated.Status)
}

func TestSetOrderStatusUnknownOrder(t *testing.T) {
	m := newTestManager(t)

	_, err := m.SetOrderStatus("missing", models.StatusPaid, nil)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCreateOrderFiresCollaborators(t *testing.T) {
	store := &recordingStore{}
	producer := &recordingPublisher{}
	hub := &recordingHub{}
	m := NewManager(Config{
		DeliveryRules: testRules(),
		Store:         store,
		Producer:      producer,
		Hub:           hub,
	}, testLogger())
	m.AddToCart(testProduct(), nil, 1)

	order, err := m.CreateOrder("")
	require.NoError(t, err)

	require.Equal(t, 1, store.orderSaves)
	require.Len(t, producer.published, 1)
	require.Equal(t, order.ID, producer.published[0].ID)
	require.Equal(t, []string{"order_created"}, hub.messages)

	_, err = m.SetOrderStatus(order.ID, models.StatusValidated, nil)
	require.NoError(t, err)
	require.Equal(t, 2, store.orderSaves)
	require.Equal(t, []string{"order_created", "order_status_updated"}, hub.messages)
}

func TestCollaboratorFailuresDoNotFailCreation(t *testing.T) {
	store := &recordingStore{fail: true}
	producer := &recordingPublisher{fail: true}
	m := NewManager(Config{
		DeliveryRules: testRules(),
		Store:         store,
		Producer:      producer,
	}, testLogger())
	m.AddToCart(testProduct(), nil, 1)

	// Persistence and publishing are fire-and-forget: their failures are
	// logged, the order still exists.
	order, err := m.CreateOrder("")
	require.NoError(t, err)
	require.Len(t, m.Orders(), 1)
	require.Equal(t, order.ID, m.Orders()[0].ID)
}

func TestMaterializeDeterministic(t *testing.T) {
	cart := []models.CartItem{
		{Product: testProduct(), Quantity: 2, UnitPrice: dec("15.90"), UnitWeight: dec("0.5")},
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a, err := Materialize(cart, nil, models.DeliveryColissimo, testRules(), dec("20"), "", "id-1", now)
	require.NoError(t, err)
	b, err := Materialize(cart, nil, models.DeliveryColissimo, testRules(), dec("20"), "", "id-1", now)
	require.NoError(t, err)

	require.Equal(t, a.ID, b.ID)
	require.True(t, a.Total.Equal(b.Total))
	require.Equal(t, a.CreatedAt, b.CreatedAt)
}

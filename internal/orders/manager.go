package orders

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/roosmar/backoffice/internal/pricing"
	"github.com/roosmar/backoffice/pkg/models"
)

// EventPublisher pushes order-created events downstream. Failures are
// logged and never fail the originating operation.
type EventPublisher interface {
	PublishOrderCreated(order models.Order) error
}

// Broadcaster fans order events out to connected dashboard clients.
type Broadcaster interface {
	Broadcast(messageType string, data interface{}, source string)
}

// Snapshotter persists the manager's collections after they change.
type Snapshotter interface {
	SaveOrders(orders []models.Order) error
	SaveDeliveryRules(rules []models.DeliveryRule) error
	SaveVATSettings(settings models.VATSettings) error
}

// Manager is the stateful shell around the pure order core. It owns the
// cart, the current client/delivery-mode selection, the delivery rules,
// the VAT settings and the order collection. All persistence and event
// fan-out happens after the core has produced its result and is
// fire-and-forget: a storage or broker failure never rolls an order back.
type Manager struct {
	mu sync.Mutex

	cart         []models.CartItem
	selected     *models.Client
	deliveryMode models.DeliveryMode
	rules        []models.DeliveryRule
	vat          models.VATSettings
	orders       []models.Order

	store    Snapshotter
	producer EventPublisher
	hub      Broadcaster
	logger   *logrus.Logger
}

// Config carries the manager's collaborators plus previously persisted
// state. Store, Producer and Hub are all optional.
type Config struct {
	Orders        []models.Order
	DeliveryRules []models.DeliveryRule
	VAT           models.VATSettings
	Store         Snapshotter
	Producer      EventPublisher
	Hub           Broadcaster
}

func NewManager(cfg Config, logger *logrus.Logger) *Manager {
	return &Manager{
		deliveryMode: models.DefaultDeliveryMode,
		rules:        cfg.DeliveryRules,
		vat:          cfg.VAT,
		orders:       cfg.Orders,
		store:        cfg.Store,
		producer:     cfg.Producer,
		hub:          cfg.Hub,
		logger:       logger,
	}
}

// AddToCart resolves the effective unit price, purchase price and weight
// once and freezes them into the line. Later catalogue edits do not reach
// back into the cart.
func (m *Manager) AddToCart(product models.Product, variant *models.ProductVariant, quantity int) models.CartItem {
	if quantity < 1 {
		quantity = 1
	}

	res := pricing.ResolveLine(product, variant)
	item := models.CartItem{
		Product:           product.Clone(),
		Quantity:          quantity,
		UnitPrice:         res.UnitPrice,
		UnitPurchasePrice: res.UnitPurchasePrice,
		UnitWeight:        res.UnitWeight,
	}
	if variant != nil {
		v := variant.Clone()
		item.Variant = &v
	}

	m.mu.Lock()
	m.cart = append(m.cart, item)
	size := len(m.cart)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"quantity":   quantity,
		"cart_size":  size,
	}).Info("Item added to cart")

	return item
}

// UpdateCartItem changes a line's quantity; a quantity of zero or less
// removes the line. Out-of-range indexes are ignored.
func (m *Manager) UpdateCartItem(index, quantity int) {
	if quantity <= 0 {
		m.RemoveFromCart(index)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.cart) {
		m.logger.WithField("index", index).Warn("Cart update targets unknown line")
		return
	}
	m.cart[index].Quantity = quantity
}

func (m *Manager) RemoveFromCart(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.cart) {
		m.logger.WithField("index", index).Warn("Cart removal targets unknown line")
		return
	}
	m.cart = append(m.cart[:index], m.cart[index+1:]...)
}

// ClearCart drops the cart, the selected client and resets the delivery
// mode to the default.
func (m *Manager) ClearCart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCartLocked()
}

func (m *Manager) clearCartLocked() {
	m.cart = nil
	m.selected = nil
	m.deliveryMode = models.DefaultDeliveryMode
}

func (m *Manager) Cart() []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CartItem, len(m.cart))
	for i, item := range m.cart {
		out[i] = item.Clone()
	}
	return out
}

func (m *Manager) SetSelectedClient(client *models.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if client == nil {
		m.selected = nil
		return
	}
	c := *client
	m.selected = &c
}

func (m *Manager) SelectedClient() *models.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return nil
	}
	c := *m.selected
	return &c
}

func (m *Manager) SetSelectedDeliveryMode(mode models.DeliveryMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveryMode = mode
}

func (m *Manager) SelectedDeliveryMode() models.DeliveryMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliveryMode
}

func (m *Manager) SetVAT(settings models.VATSettings) {
	m.mu.Lock()
	m.vat = settings
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveVATSettings(settings); err != nil {
			m.logger.WithError(err).Error("Failed to persist VAT settings")
		}
	}
}

func (m *Manager) VAT() models.VATSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vat
}

// SetDeliveryRules replaces the tier table. Overlap validation happens at
// the catalog edit boundary before the rules reach the manager.
func (m *Manager) SetDeliveryRules(rules []models.DeliveryRule) {
	m.mu.Lock()
	m.rules = append([]models.DeliveryRule(nil), rules...)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveDeliveryRules(rules); err != nil {
			m.logger.WithError(err).Error("Failed to persist delivery rules")
		}
	}
}

func (m *Manager) DeliveryRules() []models.DeliveryRule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.DeliveryRule(nil), m.rules...)
}

// CurrentTotals prices the cart as it stands, under the selected delivery
// mode and the effective VAT rate (zero while VAT is disabled).
func (m *Manager) CurrentTotals() pricing.Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pricing.ComputeTotals(m.cart, m.rules, m.deliveryMode, m.effectiveVATRateLocked())
}

func (m *Manager) effectiveVATRateLocked() decimal.Decimal {
	if !m.vat.Enabled {
		return decimal.Zero
	}
	return m.vat.Rate
}

// CreateOrder materializes the cart into an immutable order, appends it to
// the collection, then atomically clears the cart, the selected client and
// the delivery-mode selection. A failed creation leaves all of that
// untouched.
func (m *Manager) CreateOrder(notes string) (models.Order, error) {
	m.mu.Lock()

	order, err := Materialize(m.cart, m.selected, m.deliveryMode, m.rules,
		m.effectiveVATRateLocked(), notes, uuid.New().String(), time.Now())
	if err != nil {
		m.mu.Unlock()
		m.logger.WithError(err).Warn("Order creation rejected")
		return models.Order{}, err
	}

	m.orders = append(m.orders, order)
	m.clearCartLocked()
	snapshot := append([]models.Order(nil), m.orders...)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"items_count": len(order.Items),
		"total":       order.Total.String(),
		"mode":        order.DeliveryMode,
	}).Info("Order created")

	m.afterMutation(snapshot)

	if m.producer != nil {
		if err := m.producer.PublishOrderCreated(order); err != nil {
			m.logger.WithError(err).Error("Failed to publish order created event")
		}
	}
	if m.hub != nil {
		m.hub.Broadcast("order_created", order, "orders")
	}

	return order, nil
}

// SetOrderStatus reassigns an order's status and, when provided, its
// payment method. Both fields are freely settable; no transition is
// blocked.
func (m *Manager) SetOrderStatus(orderID string, status models.OrderStatus, paymentMethod *models.PaymentMethod) (models.Order, error) {
	m.mu.Lock()

	idx := -1
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		m.logger.WithField("order_id", orderID).Warn("Status update targets unknown order")
		return models.Order{}, ErrOrderNotFound
	}

	m.orders[idx] = ApplyStatus(m.orders[idx], status, paymentMethod, time.Now())
	updated := m.orders[idx]
	snapshot := append([]models.Order(nil), m.orders...)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   status,
	}).Info("Order status updated")

	m.afterMutation(snapshot)

	if m.hub != nil {
		m.hub.Broadcast("order_status_updated", updated, "orders")
	}

	return updated, nil
}

func (m *Manager) Orders() []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Order(nil), m.orders...)
}

func (m *Manager) Order(orderID string) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			return m.orders[i], nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

func (m *Manager) afterMutation(orders []models.Order) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveOrders(orders); err != nil {
		m.logger.WithError(err).Error("Failed to persist orders")
	}
}

// Package api exposes the back office over HTTP. Handlers stay thin:
// validation happens in catalog, all order semantics in orders, and the
// handlers only translate between JSON and those packages.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/roosmar/backoffice/internal/catalog"
	"github.com/roosmar/backoffice/internal/dashboard"
	"github.com/roosmar/backoffice/internal/mirror"
	"github.com/roosmar/backoffice/internal/orders"
	"github.com/roosmar/backoffice/pkg/models"
)

type OrderEventHub interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
	ClientCount() int
}

type Handler struct {
	catalog *catalog.Service
	manager *orders.Manager
	mirror  *mirror.Store
	hub     OrderEventHub
	logger  *logrus.Logger
}

func NewHandler(catalogSvc *catalog.Service, manager *orders.Manager, logger *logrus.Logger) *Handler {
	return &Handler{
		catalog: catalogSvc,
		manager: manager,
		logger:  logger,
	}
}

// SetMirror enables the optional Postgres mirror endpoints and the
// fire-and-forget mirroring of created orders.
func (h *Handler) SetMirror(store *mirror.Store) {
	h.mirror = store
}

func (h *Handler) SetHub(hub OrderEventHub) {
	h.hub = hub
}

func (h *Handler) Routes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	router.HandleFunc("/products", h.ListProducts).Methods("GET")
	router.HandleFunc("/products", h.CreateProduct).Methods("POST")
	router.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
	router.HandleFunc("/products/{id}", h.UpdateProduct).Methods("PUT")
	router.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE")

	router.HandleFunc("/clients", h.ListClients).Methods("GET")
	router.HandleFunc("/clients", h.CreateClient).Methods("POST")
	router.HandleFunc("/clients/{id}", h.UpdateClient).Methods("PUT")
	router.HandleFunc("/clients/{id}", h.DeleteClient).Methods("DELETE")

	router.HandleFunc("/settings/delivery-rules", h.GetDeliveryRules).Methods("GET")
	router.HandleFunc("/settings/delivery-rules", h.PutDeliveryRules).Methods("PUT")
	router.HandleFunc("/settings/vat", h.GetVAT).Methods("GET")
	router.HandleFunc("/settings/vat", h.PutVAT).Methods("PUT")

	router.HandleFunc("/cart", h.GetCart).Methods("GET")
	router.HandleFunc("/cart", h.ClearCart).Methods("DELETE")
	router.HandleFunc("/cart/items", h.AddCartItem).Methods("POST")
	router.HandleFunc("/cart/items/{index}", h.UpdateCartItem).Methods("PATCH")
	router.HandleFunc("/cart/items/{index}", h.RemoveCartItem).Methods("DELETE")
	router.HandleFunc("/cart/client", h.SelectClient).Methods("PUT")
	router.HandleFunc("/cart/delivery-mode", h.SelectDeliveryMode).Methods("PUT")

	router.HandleFunc("/orders", h.CreateOrder).Methods("POST")
	router.HandleFunc("/orders", h.ListOrders).Methods("GET")
	router.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET")
	router.HandleFunc("/orders/{id}/status", h.UpdateOrderStatus).Methods("PATCH")

	router.HandleFunc("/dashboard", h.Dashboard).Methods("GET")

	router.HandleFunc("/mirror/commandes", h.ListCommandes).Methods("GET")
	router.HandleFunc("/mirror/commandes", h.CreateCommande).Methods("POST")
	router.HandleFunc("/mirror/commandes/{id}/status", h.UpdateCommandeStatus).Methods("PATCH")

	if h.hub != nil {
		router.HandleFunc("/ws", h.hub.HandleWebSocket)
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":  "healthy",
		"service": "backoffice",
	}
	if h.hub != nil {
		payload["ws_clients"] = h.hub.ClientCount()
	}
	if h.mirror != nil {
		payload["mirror_breaker"] = h.mirror.BreakerState()
	}
	h.respondWithJSON(w, http.StatusOK, payload)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.Products()
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.catalog.AddProduct(input)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusCreated, product)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Product(mux.Vars(r)["id"])
	if err != nil {
		h.respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var input catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.catalog.UpdateProduct(mux.Vars(r)["id"], input)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(mux.Vars(r)["id"]); err != nil {
		h.respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients := h.catalog.Clients()
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"clients": clients,
		"count":   len(clients),
	})
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var input catalog.ClientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	client, err := h.catalog.AddClient(input)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusCreated, client)
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var input catalog.ClientInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	client, err := h.catalog.UpdateClient(mux.Vars(r)["id"], input)
	if err != nil {
		if errors.Is(err, catalog.ErrClientNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Client not found")
			return
		}
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, client)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteClient(mux.Vars(r)["id"]); err != nil {
		h.respondWithError(w, http.StatusNotFound, "Client not found")
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) GetDeliveryRules(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"rules": h.manager.DeliveryRules(),
	})
}

func (h *Handler) PutDeliveryRules(w http.ResponseWriter, r *http.Request) {
	var rules []models.DeliveryRule
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := catalog.ValidateDeliveryRules(rules); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.manager.SetDeliveryRules(rules)
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

func (h *Handler) GetVAT(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.manager.VAT())
}

func (h *Handler) PutVAT(w http.ResponseWriter, r *http.Request) {
	var settings models.VATSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if settings.Rate.IsNegative() {
		h.respondWithError(w, http.StatusBadRequest, "VAT rate must not be negative")
		return
	}

	h.manager.SetVAT(settings)
	h.respondWithJSON(w, http.StatusOK, settings)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items":           h.manager.Cart(),
		"selected_client": h.manager.SelectedClient(),
		"delivery_mode":   h.manager.SelectedDeliveryMode(),
		"totals":          h.manager.CurrentTotals(),
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.manager.ClearCart()
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.catalog.Product(req.ProductID)
	if err != nil {
		h.respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	var variant *models.ProductVariant
	if req.VariantID != "" {
		for i := range product.Variants {
			if product.Variants[i].ID == req.VariantID {
				variant = &product.Variants[i]
				break
			}
		}
		if variant == nil {
			h.respondWithError(w, http.StatusNotFound, "Variant not found")
			return
		}
	}

	item := h.manager.AddToCart(product, variant, req.Quantity)
	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"item":   item,
		"totals": h.manager.CurrentTotals(),
	})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	index, ok := h.cartIndex(w, r)
	if !ok {
		return
	}
	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.manager.UpdateCartItem(index, req.Quantity)
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items":  h.manager.Cart(),
		"totals": h.manager.CurrentTotals(),
	})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	index, ok := h.cartIndex(w, r)
	if !ok {
		return
	}
	h.manager.RemoveFromCart(index)
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items":  h.manager.Cart(),
		"totals": h.manager.CurrentTotals(),
	})
}

type selectClientRequest struct {
	ClientID string `json:"client_id"`
}

func (h *Handler) SelectClient(w http.ResponseWriter, r *http.Request) {
	var req selectClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ClientID == "" {
		h.manager.SetSelectedClient(nil)
		h.respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	client, err := h.catalog.Client(req.ClientID)
	if err != nil {
		h.respondWithError(w, http.StatusNotFound, "Client not found")
		return
	}
	h.manager.SetSelectedClient(&client)
	h.respondWithJSON(w, http.StatusOK, client)
}

type selectModeRequest struct {
	DeliveryMode models.DeliveryMode `json:"delivery_mode"`
}

func (h *Handler) SelectDeliveryMode(w http.ResponseWriter, r *http.Request) {
	var req selectModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.DeliveryMode.Valid() {
		h.respondWithError(w, http.StatusBadRequest, "Unknown delivery mode")
		return
	}

	h.manager.SetSelectedDeliveryMode(req.DeliveryMode)
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"delivery_mode": req.DeliveryMode,
		"totals":        h.manager.CurrentTotals(),
	})
}

type createOrderRequest struct {
	Notes string `json:"notes,omitempty"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	order, err := h.manager.CreateOrder(req.Notes)
	if err != nil {
		if errors.Is(err, orders.ErrEmptyCart) {
			h.respondWithError(w, http.StatusBadRequest, "Cart is empty")
			return
		}
		h.logger.WithError(err).Error("Failed to create order")
		h.respondWithError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	h.mirrorOrder(order)

	h.respondWithJSON(w, http.StatusCreated, models.OrderResponse{
		Success: true,
		Message: "Order created successfully",
		Order:   &order,
	})
}

// mirrorOrder pushes a narrow projection of the order to the optional
// remote backend without blocking or failing the response.
func (h *Handler) mirrorOrder(order models.Order) {
	if h.mirror == nil {
		return
	}
	clientName := ""
	if order.Client != nil {
		clientName = order.Client.Name
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := h.mirror.Create(ctx, clientName, order.Total); err != nil {
			h.logger.WithError(err).WithField("order_id", order.ID).Error("Failed to mirror order")
		}
	}()
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list := h.manager.Orders()
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"orders": list,
		"count":  len(list),
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.manager.Order(mux.Vars(r)["id"])
	if err != nil {
		h.respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

type statusUpdateRequest struct {
	Status        models.OrderStatus    `json:"status"`
	PaymentMethod *models.PaymentMethod `json:"payment_method,omitempty"`
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Status.Valid() {
		h.respondWithError(w, http.StatusBadRequest, "Unknown order status")
		return
	}
	if req.PaymentMethod != nil && !req.PaymentMethod.Valid() {
		h.respondWithError(w, http.StatusBadRequest, "Unknown payment method")
		return
	}

	order, err := h.manager.SetOrderStatus(mux.Vars(r)["id"], req.Status, req.PaymentMethod)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.WithError(err).Error("Failed to update order status")
		h.respondWithError(w, http.StatusInternalServerError, "Failed to update order status")
		return
	}
	h.respondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := dashboard.Filter{
		Period:      dashboard.Period(query.Get("period")),
		CustomStart: query.Get("start"),
		CustomEnd:   query.Get("end"),
	}
	if filter.Period == "" {
		filter.Period = dashboard.PeriodAll
	}

	stats := dashboard.Aggregate(h.manager.Orders(), filter, time.Now())
	h.respondWithJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListCommandes(w http.ResponseWriter, r *http.Request) {
	if h.mirror == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Mirror backend not configured")
		return
	}

	commandes, err := h.mirror.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list commandes")
		h.respondWithError(w, http.StatusBadGateway, "Mirror backend unavailable")
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"commandes": commandes,
		"count":     len(commandes),
	})
}

type createCommandeRequest struct {
	ClientName  string          `json:"client_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func (h *Handler) CreateCommande(w http.ResponseWriter, r *http.Request) {
	if h.mirror == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Mirror backend not configured")
		return
	}

	var req createCommandeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClientName == "" || !req.TotalAmount.IsPositive() {
		h.respondWithError(w, http.StatusBadRequest, "client_name and a positive total_amount are required")
		return
	}

	commande, err := h.mirror.Create(r.Context(), req.ClientName, req.TotalAmount)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create commande")
		h.respondWithError(w, http.StatusBadGateway, "Mirror backend unavailable")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, commande)
}

type commandeStatusRequest struct {
	Status mirror.Status `json:"status"`
}

func (h *Handler) UpdateCommandeStatus(w http.ResponseWriter, r *http.Request) {
	if h.mirror == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Mirror backend not configured")
		return
	}

	var req commandeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Status.Valid() {
		h.respondWithError(w, http.StatusBadRequest, "Unknown commande status")
		return
	}

	err := h.mirror.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		if errors.Is(err, mirror.ErrCommandeNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Commande not found")
			return
		}
		h.logger.WithError(err).Error("Failed to update commande status")
		h.respondWithError(w, http.StatusBadGateway, "Mirror backend unavailable")
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) cartIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 {
		h.respondWithError(w, http.StatusBadRequest, "Invalid cart index")
		return 0, false
	}
	return index, true
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

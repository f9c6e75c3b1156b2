// Package catalog is the edit boundary for products, clients and delivery
// rules. All required-field and positivity validation lives here so the
// calculators can stay total functions over well-formed data.
package catalog

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/roosmar/backoffice/pkg/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrClientNotFound  = errors.New("client not found")
)

// Persister saves the catalogue collections after an edit. Save errors are
// logged, not surfaced: an edit that validated is accepted.
type Persister interface {
	SaveProducts(products []models.Product) error
	SaveClients(clients []models.Client) error
}

type Service struct {
	mu       sync.Mutex
	validate *validator.Validate
	store    Persister
	logger   *logrus.Logger

	products []models.Product
	clients  []models.Client
}

func NewService(products []models.Product, clients []models.Client, store Persister, logger *logrus.Logger) *Service {
	return &Service{
		validate: validator.New(),
		store:    store,
		logger:   logger,
		products: products,
		clients:  clients,
	}
}

// ProductInput is the editable shape of a product. Positivity of decimal
// fields is checked by hand since validator tags only cover the scalar and
// string constraints.
type ProductInput struct {
	Name          string           `json:"name" validate:"required"`
	Description   string           `json:"description"`
	Image         string           `json:"image"`
	Weight        decimal.Decimal  `json:"weight"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal  `json:"sale_price"`
	Variants      []VariantInput   `json:"variants" validate:"omitempty,dive"`
}

type VariantInput struct {
	Name           string           `json:"name" validate:"required"`
	SalePrice      decimal.Decimal  `json:"sale_price"`
	PurchasePrice  *decimal.Decimal `json:"purchase_price"`
	WeightModifier decimal.Decimal  `json:"weight_modifier"`
}

type ClientInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Notes      string `json:"notes"`
}

func (s *Service) checkProductInput(input ProductInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("invalid product: %w", err)
	}
	if !input.Weight.IsPositive() {
		return errors.New("invalid product: weight must be positive")
	}
	if !input.SalePrice.IsPositive() {
		return errors.New("invalid product: sale price must be positive")
	}
	for _, variant := range input.Variants {
		if !variant.SalePrice.IsPositive() {
			return fmt.Errorf("invalid variant %q: sale price must be positive", variant.Name)
		}
		if !variant.WeightModifier.IsPositive() {
			return fmt.Errorf("invalid variant %q: weight modifier must be positive", variant.Name)
		}
	}
	return nil
}

func (s *Service) AddProduct(input ProductInput) (models.Product, error) {
	if err := s.checkProductInput(input); err != nil {
		return models.Product{}, err
	}

	now := time.Now()
	product := models.Product{
		ID:            uuid.New().String(),
		Name:          input.Name,
		Description:   input.Description,
		Image:         input.Image,
		Weight:        input.Weight,
		PurchasePrice: input.PurchasePrice,
		SalePrice:     input.SalePrice,
		Variants:      buildVariants(input.Variants),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	s.products = append(s.products, product)
	snapshot := append([]models.Product(nil), s.products...)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("Product added")

	s.persistProducts(snapshot)
	return product, nil
}

func (s *Service) UpdateProduct(id string, input ProductInput) (models.Product, error) {
	if err := s.checkProductInput(input); err != nil {
		return models.Product{}, err
	}

	s.mu.Lock()
	idx := -1
	for i := range s.products {
		if s.products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.Product{}, ErrProductNotFound
	}

	existing := s.products[idx]
	existing.Name = input.Name
	existing.Description = input.Description
	existing.Image = input.Image
	existing.Weight = input.Weight
	existing.PurchasePrice = input.PurchasePrice
	existing.SalePrice = input.SalePrice
	existing.Variants = buildVariants(input.Variants)
	existing.UpdatedAt = time.Now()
	s.products[idx] = existing
	snapshot := append([]models.Product(nil), s.products...)
	s.mu.Unlock()

	s.logger.WithField("product_id", id).Info("Product updated")
	s.persistProducts(snapshot)
	return existing, nil
}

func (s *Service) DeleteProduct(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.products {
		if s.products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrProductNotFound
	}
	s.products = append(s.products[:idx], s.products[idx+1:]...)
	snapshot := append([]models.Product(nil), s.products...)
	s.mu.Unlock()

	s.logger.WithField("product_id", id).Info("Product deleted")
	s.persistProducts(snapshot)
	return nil
}

func (s *Service) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out
}

func (s *Service) Product(id string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			return s.products[i].Clone(), nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (s *Service) AddClient(input ClientInput) (models.Client, error) {
	if err := s.validate.Struct(input); err != nil {
		return models.Client{}, fmt.Errorf("invalid client: %w", err)
	}

	now := time.Now()
	client := models.Client{
		ID:         uuid.New().String(),
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Address:    input.Address,
		City:       input.City,
		PostalCode: input.PostalCode,
		Notes:      input.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.clients = append(s.clients, client)
	snapshot := append([]models.Client(nil), s.clients...)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"client_id": client.ID,
		"name":      client.Name,
	}).Info("Client added")

	s.persistClients(snapshot)
	return client, nil
}

func (s *Service) UpdateClient(id string, input ClientInput) (models.Client, error) {
	if err := s.validate.Struct(input); err != nil {
		return models.Client{}, fmt.Errorf("invalid client: %w", err)
	}

	s.mu.Lock()
	idx := -1
	for i := range s.clients {
		if s.clients[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.Client{}, ErrClientNotFound
	}

	existing := s.clients[idx]
	existing.Name = input.Name
	existing.Email = input.Email
	existing.Phone = input.Phone
	existing.Address = input.Address
	existing.City = input.City
	existing.PostalCode = input.PostalCode
	existing.Notes = input.Notes
	existing.UpdatedAt = time.Now()
	s.clients[idx] = existing
	snapshot := append([]models.Client(nil), s.clients...)
	s.mu.Unlock()

	s.logger.WithField("client_id", id).Info("Client updated")
	s.persistClients(snapshot)
	return existing, nil
}

func (s *Service) DeleteClient(id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.clients {
		if s.clients[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrClientNotFound
	}
	s.clients = append(s.clients[:idx], s.clients[idx+1:]...)
	snapshot := append([]models.Client(nil), s.clients...)
	s.mu.Unlock()

	s.logger.WithField("client_id", id).Info("Client deleted")
	s.persistClients(snapshot)
	return nil
}

func (s *Service) Clients() []models.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Client(nil), s.clients...)
}

func (s *Service) Client(id string) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.clients {
		if s.clients[i].ID == id {
			return s.clients[i], nil
		}
	}
	return models.Client{}, ErrClientNotFound
}

func buildVariants(inputs []VariantInput) []models.ProductVariant {
	if len(inputs) == 0 {
		return nil
	}
	out := make([]models.ProductVariant, len(inputs))
	for i, in := range inputs {
		out[i] = models.ProductVariant{
			ID:             uuid.New().String(),
			Name:           in.Name,
			SalePrice:      in.SalePrice,
			PurchasePrice:  in.PurchasePrice,
			WeightModifier: in.WeightModifier,
		}
	}
	return out
}

func (s *Service) persistProducts(products []models.Product) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveProducts(products); err != nil {
		s.logger.WithError(err).Error("Failed to persist products")
	}
}

func (s *Service) persistClients(clients []models.Client) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveClients(clients); err != nil {
		s.logger.WithError(err).Error("Failed to persist clients")
	}
}

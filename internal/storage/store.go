// Package storage persists the application's collections as JSON files,
// one file per collection, under a single data directory. Reads that fail
// (missing file, corrupt JSON) fall back to the provided defaults so a
// damaged file degrades to a fresh collection instead of a dead service.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/roosmar/backoffice/pkg/models"
)

const (
	keyProducts      = "products"
	keyClients       = "clients"
	keyOrders        = "orders"
	keyDeliveryRules = "delivery_rules"
	keyVATSettings   = "vat_settings"
)

type Store struct {
	dir    string
	logger *logrus.Logger
}

func NewStore(dir string, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) LoadProducts() []models.Product {
	var products []models.Product
	s.load(keyProducts, &products)
	return products
}

func (s *Store) SaveProducts(products []models.Product) error {
	return s.save(keyProducts, products)
}

func (s *Store) LoadClients() []models.Client {
	var clients []models.Client
	s.load(keyClients, &clients)
	return clients
}

func (s *Store) SaveClients(clients []models.Client) error {
	return s.save(keyClients, clients)
}

func (s *Store) LoadOrders() []models.Order {
	var orders []models.Order
	s.load(keyOrders, &orders)
	return orders
}

func (s *Store) SaveOrders(orders []models.Order) error {
	return s.save(keyOrders, orders)
}

func (s *Store) LoadDeliveryRules(defaults []models.DeliveryRule) []models.DeliveryRule {
	var rules []models.DeliveryRule
	if !s.load(keyDeliveryRules, &rules) || len(rules) == 0 {
		return defaults
	}
	return rules
}

func (s *Store) SaveDeliveryRules(rules []models.DeliveryRule) error {
	return s.save(keyDeliveryRules, rules)
}

func (s *Store) LoadVATSettings(defaults models.VATSettings) models.VATSettings {
	var settings models.VATSettings
	if !s.load(keyVATSettings, &settings) {
		return defaults
	}
	return settings
}

func (s *Store) SaveVATSettings(settings models.VATSettings) error {
	return s.save(keyVATSettings, settings)
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// load reports whether the key was read successfully; on any failure the
// target is left untouched.
func (s *Store) load(key string, target interface{}) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("key", key).Error("Failed to read collection")
		}
		return false
	}
	if err := json.Unmarshal(data, target); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to decode collection, falling back to defaults")
		return false
	}
	return true
}

// save writes through a temp file and renames it into place, so a crash
// mid-write can't leave a half-written collection.
func (s *Store) save(key string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file for %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

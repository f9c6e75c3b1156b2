// Package mirror pushes a simplified order record ("commande") to an
// external Postgres backend. The mirror keeps its own status vocabulary
// (pending/completed/cancelled); it is deliberately not mapped onto the
// six local order statuses, the two schemas evolved independently.
package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrCommandeNotFound = errors.New("commande not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Commande is the mirror's own record shape, narrower than a local order.
type Commande struct {
	ID          string          `json:"id"`
	ClientName  string          `json:"client_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Store struct {
	db      *sql.DB
	breaker *Breaker
	logger  *logrus.Logger
}

func NewStore(db *sql.DB, logger *logrus.Logger) (*Store, error) {
	if err := createTable(db); err != nil {
		return nil, fmt.Errorf("failed to prepare mirror schema: %w", err)
	}
	return &Store{
		db:      db,
		breaker: NewBreaker(3, 30*time.Second, logger),
		logger:  logger,
	}, nil
}

func createTable(db *sql.DB) error {
	query := `CREATE TABLE IF NOT EXISTS commandes (
		id VARCHAR(255) PRIMARY KEY,
		client_name VARCHAR(255) NOT NULL,
		total_amount DECIMAL(10,2) NOT NULL,
		status VARCHAR(50) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	_, err := db.Exec(query)
	return err
}

func (s *Store) Create(ctx context.Context, clientName string, totalAmount decimal.Decimal) (Commande, error) {
	now := time.Now()
	commande := Commande{
		ID:          uuid.New().String(),
		ClientName:  clientName,
		TotalAmount: totalAmount,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.breaker.Execute(func() error {
		query := `INSERT INTO commandes (id, client_name, total_amount, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`
		_, err := s.db.ExecContext(ctx, query, commande.ID, commande.ClientName,
			commande.TotalAmount, commande.Status, commande.CreatedAt, commande.UpdatedAt)
		return err
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to mirror commande")
		return Commande{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"commande_id": commande.ID,
		"client_name": commande.ClientName,
	}).Info("Commande mirrored")

	return commande, nil
}

func (s *Store) List(ctx context.Context) ([]Commande, error) {
	var commandes []Commande

	err := s.breaker.Execute(func() error {
		query := `SELECT id, client_name, total_amount, status, created_at, updated_at
			FROM commandes ORDER BY created_at DESC`
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c Commande
			if err := rows.Scan(&c.ID, &c.ClientName, &c.TotalAmount,
				&c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return err
			}
			commandes = append(commandes, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return commandes, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown mirror status %q", status)
	}

	// A missing row is a caller mistake, not a backend failure; it must
	// not trip the breaker.
	var affected int64
	err := s.breaker.Execute(func() error {
		query := `UPDATE commandes SET status = $1, updated_at = $2 WHERE id = $3`
		res, err := s.db.ExecContext(ctx, query, status, time.Now(), id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCommandeNotFound
	}
	return nil
}

func (s *Store) BreakerState() string {
	return s.breaker.State()
}

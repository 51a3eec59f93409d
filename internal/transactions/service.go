package transactions

import (
	"errors"

	"go.uber.org/zap"
)

// ErrEmptyCart is returned when a sale is requested with no products.
var ErrEmptyCart = errors.New("no products in transaction")

// ErrInvalidQuantity is returned when a cart line has a non-positive quantity
// or a missing product id.
var ErrInvalidQuantity = errors.New("line quantity must be positive")

// DefaultCustomer is recorded when the sale has no customer name.
const DefaultCustomer = "Walk-in Customer"

// DefaultStatus is recorded when the sale has no explicit status.
const DefaultStatus = "completed"

// Service provides high-level transaction operations on a Storage backend.
type Service struct {
	storage   Storage
	logger    *zap.Logger
	listLimit int
}

// NewService creates a new Service. listLimit bounds GetRecent; values <= 0
// fall back to 50.
func NewService(storage Storage, logger *zap.Logger, listLimit int) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if listLimit <= 0 {
		listLimit = 50
	}
	return &Service{
		storage:   storage,
		logger:    logger,
		listLimit: listLimit,
	}
}

// Create turns a cart into a durable transaction. The cart is validated as a
// whole before anything is persisted; pricing and stock decrements happen
// atomically in the storage layer, so a failed line never leaves a recorded
// sale behind.
func (s *Service) Create(customerName string, cart []CartLine, status string) (*Transaction, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	for _, cl := range cart {
		if cl.ProductID <= 0 || cl.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	if customerName == "" {
		customerName = DefaultCustomer
	}
	if status == "" {
		status = DefaultStatus
	}

	tx, err := s.storage.CreateSale(customerName, cart, status)
	if err != nil {
		s.logger.Error("failed to create transaction",
			zap.String("customer_name", customerName),
			zap.Int("lines", len(cart)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.Int64("id", tx.ID),
		zap.String("receipt_number", tx.ReceiptNumber),
		zap.Float64("total", tx.Total),
		zap.Int("lines", len(tx.Products)),
	)
	return tx, nil
}

// GetRecent returns the most recent transactions, newest first. limit values
// outside (0, listLimit] are clamped to the configured maximum.
func (s *Service) GetRecent(limit int) ([]Transaction, error) {
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}
	return s.storage.GetRecent(limit)
}

// GetByID returns a single transaction by its ID.
func (s *Service) GetByID(id int64) (*Transaction, error) {
	return s.storage.GetByID(id)
}

// GetByReceiptNumber returns a single transaction by its receipt number.
func (s *Service) GetByReceiptNumber(receipt string) (*Transaction, error) {
	return s.storage.GetByReceiptNumber(receipt)
}

// Delete removes the transaction record only. Stock decremented by the sale
// is deliberately not restored; reconciliation is manual.
func (s *Service) Delete(id int64) error {
	if err := s.storage.Delete(id); err != nil {
		return err
	}
	s.logger.Info("transaction deleted, stock not restored", zap.Int64("id", id))
	return nil
}

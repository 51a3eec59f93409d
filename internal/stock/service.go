package stock

import (
	"errors"

	"go.uber.org/zap"
)

// ErrInvalidInput is returned for missing or malformed stock fields.
var ErrInvalidInput = errors.New("invalid stock input")

// Service provides high-level stock management operations on a Storage backend.
type Service struct {
	storage Storage
	logger  *zap.Logger
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// GetAll returns every stock item.
func (s *Service) GetAll() ([]Item, error) {
	return s.storage.GetAll()
}

// GetByID returns a single stock item by its ID.
func (s *Service) GetByID(id int64) (*Item, error) {
	return s.storage.GetByID(id)
}

// Add creates a new stock item. If an item with the same name already exists
// the incoming quantity is merged into it and its price is updated, instead
// of erroring on the duplicate name.
func (s *Service) Add(name string, price float64, quantity int) (*Item, error) {
	if name == "" || price <= 0 || quantity < 0 {
		return nil, ErrInvalidInput
	}

	existing, err := s.storage.GetByName(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to look up stock item by name", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	if existing != nil {
		merged := existing.Quantity + quantity
		item, err := s.storage.Update(existing.ID, &merged, &price)
		if err != nil {
			s.logger.Error("failed to merge stock item", zap.Int64("id", existing.ID), zap.Error(err))
			return nil, err
		}
		s.logger.Info("stock item merged",
			zap.Int64("id", item.ID),
			zap.String("name", item.Name),
			zap.Int("quantity", item.Quantity),
		)
		return item, nil
	}

	item, err := s.storage.Create(name, quantity, price)
	if err != nil {
		s.logger.Error("failed to create stock item", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	s.logger.Info("stock item created",
		zap.Int64("id", item.ID),
		zap.String("name", item.Name),
		zap.Int("quantity", item.Quantity),
		zap.Float64("price", item.Price),
	)
	return item, nil
}

// UpdateQuantity records quantity units as sold, decrementing the item's
// stock. A negative quantity restocks. Fails with ErrInsufficientStock when
// the decrement would go negative, leaving the quantity unchanged.
func (s *Service) UpdateQuantity(productID int64, quantity int) (*Item, error) {
	item, err := s.storage.AdjustQuantity(productID, -quantity)
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock quantity updated",
		zap.Int64("id", item.ID),
		zap.Int("sold", quantity),
		zap.Int("remaining", item.Quantity),
	)
	return item, nil
}

// Delete removes a stock item. Historical transactions keep their embedded
// product snapshots, so deleting a referenced item does not touch them.
func (s *Service) Delete(id int64) error {
	if err := s.storage.Delete(id); err != nil {
		return err
	}
	s.logger.Info("stock item deleted", zap.Int64("id", id))
	return nil
}

// Search returns items whose name contains term, case-insensitively.
func (s *Service) Search(term string) ([]Item, error) {
	return s.storage.Search(term)
}

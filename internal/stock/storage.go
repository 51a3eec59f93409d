package stock

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pos_api/internal/database"
)

// ErrNotFound is returned when a stock item with the given ID or name is not found.
var ErrNotFound = errors.New("stock item not found")

// ErrDuplicateName is returned when creating an item whose name already exists.
var ErrDuplicateName = errors.New("stock item name already exists")

// ErrInsufficientStock is returned when a quantity adjustment would drive the
// quantity below zero. The adjustment is rejected, never partially applied.
var ErrInsufficientStock = errors.New("insufficient stock")

// Storage is the main interface for the stock storage layer.
type Storage interface {
	GetAll() ([]Item, error)
	GetByID(id int64) (*Item, error)
	GetByName(name string) (*Item, error)
	Create(name string, quantity int, price float64) (*Item, error)
	Update(id int64, quantity *int, price *float64) (*Item, error)
	Delete(id int64) error
	AdjustQuantity(id int64, delta int) (*Item, error)
	Search(term string) ([]Item, error)
}

// SQLStorage implements Storage on a sqlx database handle.
type SQLStorage struct {
	db *sqlx.DB
}

// NewSQLStorage instantiates a stock storage backed by db.
func NewSQLStorage(db *sqlx.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) GetAll() ([]Item, error) {
	items := []Item{}
	if err := s.db.Select(&items, `SELECT id, item_name, quantity, price FROM stocks`); err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	return items, nil
}

func (s *SQLStorage) GetByID(id int64) (*Item, error) {
	var item Item
	err := s.db.Get(&item, `SELECT id, item_name, quantity, price FROM stocks WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get stock item %d: %w", id, err)
	}
	return &item, nil
}

func (s *SQLStorage) GetByName(name string) (*Item, error) {
	var item Item
	err := s.db.Get(&item, `SELECT id, item_name, quantity, price FROM stocks WHERE item_name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get stock item %q: %w", name, err)
	}
	return &item, nil
}

func (s *SQLStorage) Create(name string, quantity int, price float64) (*Item, error) {
	res, err := s.db.Exec(
		`INSERT INTO stocks (item_name, quantity, price) VALUES (?, ?, ?)`,
		name, quantity, price,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create stock item %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new stock item id: %w", err)
	}
	return &Item{ID: id, Name: name, Quantity: quantity, Price: price}, nil
}

// Update applies a partial update of quantity and/or price. Nil fields are
// left unchanged. Not safe for concurrent quantity mutation; sale decrements
// go through AdjustQuantity instead.
func (s *SQLStorage) Update(id int64, quantity *int, price *float64) (*Item, error) {
	item, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if quantity != nil {
		item.Quantity = *quantity
	}
	if price != nil {
		item.Price = *price
	}
	_, err = s.db.Exec(
		`UPDATE stocks SET quantity = ?, price = ? WHERE id = ?`,
		item.Quantity, item.Price, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock item %d: %w", id, err)
	}
	return item, nil
}

func (s *SQLStorage) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM stocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stock item %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustQuantity atomically applies quantity += delta. The guard in the WHERE
// clause is evaluated by the database in the same statement, so concurrent
// callers on the same row can never both succeed when only one should.
func (s *SQLStorage) AdjustQuantity(id int64, delta int) (*Item, error) {
	res, err := s.db.Exec(
		`UPDATE stocks SET quantity = quantity + ? WHERE id = ? AND quantity + ? >= 0`,
		delta, id, delta,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock item %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetByID(id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientStock
	}
	return s.GetByID(id)
}

// Search returns items whose name contains term, case-insensitively.
func (s *SQLStorage) Search(term string) ([]Item, error) {
	items := []Item{}
	err := s.db.Select(&items,
		`SELECT id, item_name, quantity, price FROM stocks WHERE item_name LIKE '%' || ? || '%'`,
		term,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search stock for %q: %w", term, err)
	}
	return items, nil
}

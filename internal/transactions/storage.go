package transactions

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"pos_api/internal/database"
)

// ErrNotFound is returned when a transaction with the given ID or receipt
// number is not found.
var ErrNotFound = errors.New("transaction not found")

// ErrUnknownProduct is returned when a cart line references a stock item that
// does not exist.
var ErrUnknownProduct = errors.New("unknown product in cart")

// ErrInsufficientStock is returned when a cart line asks for more units than
// are on hand. The whole sale is rolled back.
var ErrInsufficientStock = errors.New("insufficient stock for sale")

// ErrDuplicateReceipt is returned when the allocated receipt number collides
// even after retries.
var ErrDuplicateReceipt = errors.New("duplicate receipt number")

// Storage is the main interface for the transaction storage layer.
type Storage interface {
	GetRecent(limit int) ([]Transaction, error)
	GetByID(id int64) (*Transaction, error)
	GetByReceiptNumber(receipt string) (*Transaction, error)
	CreateSale(customerName string, cart []CartLine, status string) (*Transaction, error)
	Delete(id int64) error
}

// SQLStorage implements Storage on a sqlx database handle. It reads and
// decrements the stocks table inside the sale unit, so both tables live in
// the same database.
type SQLStorage struct {
	db *sqlx.DB
}

// NewSQLStorage instantiates a transaction storage backed by db.
func NewSQLStorage(db *sqlx.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

const selectColumns = `id, receipt_number, date, customer_name, products, total, status`

func (s *SQLStorage) GetRecent(limit int) ([]Transaction, error) {
	txs := []Transaction{}
	err := s.db.Select(&txs,
		`SELECT `+selectColumns+` FROM transactions ORDER BY date DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *SQLStorage) GetByID(id int64) (*Transaction, error) {
	var tx Transaction
	err := s.db.Get(&tx, `SELECT `+selectColumns+` FROM transactions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return &tx, nil
}

func (s *SQLStorage) GetByReceiptNumber(receipt string) (*Transaction, error) {
	var tx Transaction
	err := s.db.Get(&tx, `SELECT `+selectColumns+` FROM transactions WHERE receipt_number = ?`, receipt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %q: %w", receipt, err)
	}
	return &tx, nil
}

// receiptAttempts bounds the retries when concurrent sales race the
// max-id-plus-one allocation and the unique index rejects the loser.
const receiptAttempts = 3

// CreateSale runs the whole sale as one database transaction: snapshot and
// price every cart line from the current stock rows, allocate the receipt
// number, insert the transaction, and apply every stock decrement. Either all
// effects apply or none do.
func (s *SQLStorage) CreateSale(customerName string, cart []CartLine, status string) (*Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < receiptAttempts; attempt++ {
		dbtx, err := s.db.Beginx()
		if err != nil {
			return nil, fmt.Errorf("failed to begin sale: %w", err)
		}
		created, err := createSaleTx(dbtx, customerName, cart, status)
		if err != nil {
			dbtx.Rollback()
			if errors.Is(err, ErrDuplicateReceipt) {
				lastErr = err
				continue
			}
			return nil, err
		}
		if err := dbtx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit sale: %w", err)
		}
		return created, nil
	}
	return nil, lastErr
}

func createSaleTx(dbtx *sqlx.Tx, customerName string, cart []CartLine, status string) (*Transaction, error) {
	lines := make(LineItems, 0, len(cart))
	total := decimal.Zero
	for _, cl := range cart {
		var p struct {
			ID    int64   `db:"id"`
			Name  string  `db:"item_name"`
			Price float64 `db:"price"`
		}
		err := dbtx.Get(&p, `SELECT id, item_name, price FROM stocks WHERE id = ?`, cl.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("product %d: %w", cl.ProductID, ErrUnknownProduct)
			}
			return nil, fmt.Errorf("failed to read product %d: %w", cl.ProductID, err)
		}
		lines = append(lines, LineItem{
			Product:  ProductSnapshot{ID: p.ID, Name: p.Name, Price: p.Price},
			Quantity: cl.Quantity,
		})
		total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(cl.Quantity))))
	}

	var maxID sql.NullInt64
	if err := dbtx.Get(&maxID, `SELECT MAX(id) FROM transactions`); err != nil {
		return nil, fmt.Errorf("failed to read max transaction id: %w", err)
	}
	receipt := fmt.Sprintf("T-%05d", maxID.Int64+1)

	now := time.Now().UTC()
	res, err := dbtx.Exec(
		`INSERT INTO transactions (receipt_number, date, customer_name, products, total, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		receipt, now, customerName, lines, total.InexactFloat64(), status,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateReceipt
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new transaction id: %w", err)
	}

	for _, cl := range cart {
		r, err := dbtx.Exec(
			`UPDATE stocks SET quantity = quantity - ? WHERE id = ? AND quantity - ? >= 0`,
			cl.Quantity, cl.ProductID, cl.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement product %d: %w", cl.ProductID, err)
		}
		if n, _ := r.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("product %d: %w", cl.ProductID, ErrInsufficientStock)
		}
	}

	return &Transaction{
		ID:            id,
		ReceiptNumber: receipt,
		Date:          now,
		CustomerName:  customerName,
		Products:      lines,
		Total:         total.InexactFloat64(),
		Status:        status,
	}, nil
}

func (s *SQLStorage) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

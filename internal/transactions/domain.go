package transactions

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ProductSnapshot is the product id/name/price captured at sale time.
// Transactions embed snapshots rather than foreign keys, so later price
// changes or stock deletions never alter a recorded sale.
type ProductSnapshot struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// LineItem is one (product snapshot, quantity) pair within a transaction.
type LineItem struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
}

// LineItems stores the ordered line items as a JSON column.
type LineItems []LineItem

func (l LineItems) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *LineItems) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into LineItems", src)
	}
}

// Transaction represents a recorded sale.
type Transaction struct {
	ID            int64     `db:"id" json:"id"`
	ReceiptNumber string    `db:"receipt_number" json:"receiptNumber"`
	Date          time.Time `db:"date" json:"date"`
	CustomerName  string    `db:"customer_name" json:"customerName"`
	Products      LineItems `db:"products" json:"products"`
	Total         float64   `db:"total" json:"total"`
	Status        string    `db:"status" json:"status"`
}

// CartLine is one requested (product, quantity) pair before pricing. Prices
// come from the stock store at sale time, not from the client.
type CartLine struct {
	ProductID int64
	Quantity  int
}

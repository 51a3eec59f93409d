package stock

// Item represents one inventory-tracked product type: a name, the quantity
// on hand, and a unit price. The quantity serializes as "stock" on the wire.
type Item struct {
	ID       int64   `db:"id" json:"id"`
	Name     string  `db:"item_name" json:"name"`
	Quantity int     `db:"quantity" json:"stock"`
	Price    float64 `db:"price" json:"price"`
}

package database

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS stocks (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	item_name TEXT    NOT NULL UNIQUE,
	quantity  INTEGER NOT NULL,
	price     REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id             INTEGER  PRIMARY KEY AUTOINCREMENT,
	receipt_number TEXT     NOT NULL UNIQUE,
	date           DATETIME NOT NULL,
	customer_name  TEXT     NOT NULL DEFAULT 'Walk-in Customer',
	products       TEXT     NOT NULL,
	total          REAL     NOT NULL,
	status         TEXT     NOT NULL DEFAULT 'completed'
);
`

// Open connects to the sqlite database at path. WAL keeps readers from
// blocking the single writer; busy_timeout makes concurrent writers queue
// instead of failing immediately.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}
	return db, nil
}

// InitSchema creates the stocks and transactions tables if they do not exist.
func InitSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a sqlite UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

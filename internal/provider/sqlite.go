package provider

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"autosuggest/internal/domain"
)

// SQLite answers searches with a query against a SQLite database. The query
// takes the term as its only parameter; the first column is the label and
// every column becomes an item field.
type SQLite struct {
	db    *sql.DB
	query string
}

// OpenSQLite opens the database at path for read-only suggestion lookups
func OpenSQLite(path, query string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set busy timeout so lookups wait out writers
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return NewSQLite(db, query), nil
}

// NewSQLite wraps an open database
func NewSQLite(db *sql.DB, query string) *SQLite {
	return &SQLite{db: db, query: query}
}

// Search implements Provider
func (s *SQLite) Search(ctx context.Context, term string) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, s.query, term)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("suggestion query returns no columns")
	}

	var items []domain.Item
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}

		if len(columns) == 1 {
			items = append(items, domain.Text(values[0].String))
			continue
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			fields[col] = values[i].String
		}
		items = append(items, domain.Item{Label: values[0].String, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestions: %w", err)
	}

	return items, nil
}

// Close releases the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viktsys/varbreach/models"
	_ "modernc.org/sqlite"
)

// SQLiteSource reads prices from a local SQLite file. The view or table it
// reads must expose the same two columns as the server view.
type SQLiteSource struct {
	db    *sql.DB
	query SeriesQuery
}

// OpenSQLiteSource opens the SQLite file at path.
func OpenSQLiteSource(path string, query SeriesQuery) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return NewSQLiteSource(db, query), nil
}

func NewSQLiteSource(db *sql.DB, query SeriesQuery) *SQLiteSource {
	return &SQLiteSource{db: db, query: query}
}

func (s *SQLiteSource) LoadPrices(ctx context.Context) ([]models.PriceObservation, error) {
	query, err := s.query.SQL()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.query.View, err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

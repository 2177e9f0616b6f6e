package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viktsys/varbreach/models"
	"gorm.io/gorm"
)

// Source yields the price series in ascending date order.
type Source interface {
	LoadPrices(ctx context.Context) ([]models.PriceObservation, error)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SeriesQuery names the view and columns the price series is read from.
type SeriesQuery struct {
	View        string
	DateColumn  string
	PriceColumn string
}

// SQL renders the single read query. Names are checked against a strict
// identifier pattern since they cannot be bound as parameters.
func (q SeriesQuery) SQL() (string, error) {
	for _, name := range []string{q.View, q.DateColumn, q.PriceColumn} {
		if !identifierPattern.MatchString(name) {
			return "", fmt.Errorf("invalid identifier %q", name)
		}
	}
	if strings.Contains(q.DateColumn, ".") || strings.Contains(q.PriceColumn, ".") {
		return "", fmt.Errorf("column names must not be qualified")
	}
	return fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s",
		q.DateColumn, q.PriceColumn, q.View, q.DateColumn), nil
}

// GormSource reads prices through a gorm connection (postgres or mysql).
type GormSource struct {
	db    *gorm.DB
	query SeriesQuery
}

func NewGormSource(db *gorm.DB, query SeriesQuery) *GormSource {
	return &GormSource{db: db, query: query}
}

func (s *GormSource) LoadPrices(ctx context.Context) ([]models.PriceObservation, error) {
	query, err := s.query.SQL()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.query.View, err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

func scanPrices(rows *sql.Rows) ([]models.PriceObservation, error) {
	var prices []models.PriceObservation
	row := 0
	for rows.Next() {
		row++

		var rawDate any
		var price decimal.NullDecimal
		if err := rows.Scan(&rawDate, &price); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", row, err)
		}

		date, err := parseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, models.NewDataError(time.Time{}, err))
		}
		if !price.Valid {
			return nil, models.NewDataError(date, models.ErrMissingPrice)
		}

		f, _ := price.Decimal.Float64()
		prices = append(prices, models.PriceObservation{Date: date, Price: f})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return prices, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseDate normalizes whatever the driver hands back for a date column
// to a UTC midnight.
func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return truncateDay(d), nil
	case string:
		return parseDateString(d)
	case []byte:
		return parseDateString(string(d))
	case nil:
		return time.Time{}, models.ErrMissingDate
	}
	return time.Time{}, fmt.Errorf("%w: unsupported value %T", models.ErrMalformedDate, v)
}

func parseDateString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", models.ErrMalformedDate, s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package database

import (
	"fmt"
	"strings"

	"github.com/viktsys/varbreach/models"
	"gorm.io/gorm"
)

// Migrate creates the price table and the view the backtest reads from.
func Migrate(db *gorm.DB, query SeriesQuery) error {
	if _, err := query.SQL(); err != nil {
		return err
	}

	if err := db.AutoMigrate(&models.DailyPrice{}); err != nil {
		return fmt.Errorf("failed to migrate daily_prices: %w", err)
	}

	if schema, _, ok := strings.Cut(query.View, "."); ok {
		// CREATE SCHEMA is an alias of CREATE DATABASE on mysql
		if err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + schema).Error; err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}

	table := models.DailyPrice{}.TableName()
	if db.Dialector.Name() == "postgres" {
		// the view must point at the schema AutoMigrate used, which is the
		// first one on search_path
		var current string
		if err := db.Raw("SELECT current_schema()").Scan(&current).Error; err != nil {
			return fmt.Errorf("failed to resolve current schema: %w", err)
		}
		if current != "" {
			table = `"` + strings.ReplaceAll(current, `"`, `""`) + `".` + table
		}
	}

	view := fmt.Sprintf(`
		CREATE OR REPLACE VIEW %s AS
		SELECT trade_date AS %s, close_price AS %s
		FROM %s`,
		query.View, query.DateColumn, query.PriceColumn, table)
	if err := db.Exec(view).Error; err != nil {
		return fmt.Errorf("failed to create view %s: %w", query.View, err)
	}

	return nil
}

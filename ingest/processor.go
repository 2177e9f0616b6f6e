package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viktsys/varbreach/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultBatchSize = 2000

// getEnvInt returns environment variable as int or default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

// PriceRecord is one raw CSV row before parsing.
type PriceRecord struct {
	TradeDate  string
	ClosePrice string
}

// Options describes the CSV layout.
type Options struct {
	Separator   rune
	DateColumn  int
	PriceColumn int
	SkipHeader  bool
}

func DefaultOptions() Options {
	return Options{Separator: ';', DateColumn: 0, PriceColumn: 1, SkipHeader: true}
}

// ParsePriceRecord converts a raw record. Prices may use either a comma or
// a dot as decimal separator.
func ParsePriceRecord(record PriceRecord) (models.DailyPrice, error) {
	var price models.DailyPrice

	tradeDate, err := time.Parse("2006-01-02", strings.TrimSpace(record.TradeDate))
	if err != nil {
		return price, fmt.Errorf("invalid date format: %w", err)
	}

	priceStr := strings.Replace(strings.TrimSpace(record.ClosePrice), ",", ".", -1)
	if priceStr == "" {
		return price, models.NewDataError(tradeDate, models.ErrMissingPrice)
	}
	closePrice, err := decimal.NewFromString(priceStr)
	if err != nil {
		return price, models.NewDataError(tradeDate, fmt.Errorf("%w: %q", models.ErrMalformedPrice, record.ClosePrice))
	}
	if !closePrice.IsPositive() {
		return price, models.NewDataError(tradeDate, fmt.Errorf("%w: %s", models.ErrMalformedPrice, closePrice))
	}

	price.TradeDate = tradeDate
	price.ClosePrice = closePrice
	return price, nil
}

// ReadCSV parses every data row of r. The first malformed row aborts the
// read with its line number. Blank lines are skipped.
func ReadCSV(r io.Reader, opts Options) ([]models.DailyPrice, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.Separator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	minFields := max(opts.DateColumn, opts.PriceColumn) + 1

	var prices []models.DailyPrice
	seen := make(map[time.Time]int)
	recordNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		recordNum++
		lineNum, _ := reader.FieldPos(0)

		if recordNum == 1 && opts.SkipHeader {
			continue
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < minFields {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", lineNum, minFields, len(record))
		}

		price, err := ParsePriceRecord(PriceRecord{
			TradeDate:  record[opts.DateColumn],
			ClosePrice: record[opts.PriceColumn],
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if first, ok := seen[price.TradeDate]; ok {
			return nil, fmt.Errorf("line %d: %w", lineNum,
				models.NewDataError(price.TradeDate, fmt.Errorf("%w (first seen on line %d)", models.ErrDuplicateDate, first)))
		}
		seen[price.TradeDate] = lineNum
		prices = append(prices, price)
	}
	return prices, nil
}

// Loader writes CSV prices into the daily_prices table.
type Loader struct {
	db     *gorm.DB
	opts   Options
	logger *zap.Logger
}

func NewLoader(db *gorm.DB, opts Options, logger *zap.Logger) *Loader {
	return &Loader{db: db, opts: opts, logger: logger}
}

// LoadFile upserts every row of the CSV at path and returns the row count.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	prices, err := ReadCSV(file, l.opts)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price rows found in %s", path)
	}

	now := time.Now()
	for i := range prices {
		prices[i].CreatedAt = now
	}

	batchSize := getEnvInt("BATCH_SIZE", DefaultBatchSize)
	start := time.Now()
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "trade_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"close_price"}),
		}).CreateInBatches(prices, batchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store prices: %w", err)
	}

	l.logger.Info("prices loaded",
		zap.String("file", path),
		zap.Int("rows", len(prices)),
		zap.Int("batch_size", batchSize),
		zap.Duration("took", time.Since(start)))
	return len(prices), nil
}

// CSVSource serves prices straight from a CSV file.
type CSVSource struct {
	path string
	opts Options
}

func NewCSVSource(path string, opts Options) *CSVSource {
	return &CSVSource{path: path, opts: opts}
}

// LoadPrices reads the file and returns the rows sorted by date, the same
// order the database view query yields.
func (s *CSVSource) LoadPrices(ctx context.Context) ([]models.PriceObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	rows, err := ReadCSV(file, s.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TradeDate.Before(rows[j].TradeDate)
	})

	prices := make([]models.PriceObservation, len(rows))
	for i, r := range rows {
		f, _ := r.ClosePrice.Float64()
		prices[i] = models.PriceObservation{Date: r.TradeDate, Price: f}
	}
	return prices, nil
}

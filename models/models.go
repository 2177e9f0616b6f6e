package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyPrice is a row of the table behind the risk series view
type DailyPrice struct {
	TradeDate  time.Time       `gorm:"primaryKey;type:date" json:"trade_date"`
	ClosePrice decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"close_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName pins the table the view is defined over.
func (DailyPrice) TableName() string {
	return "daily_prices"
}

// PriceObservation is one (date, price) pair read from storage.
type PriceObservation struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// ReturnObservation is the return realized on Date relative to the previous observation.
type ReturnObservation struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// VaREstimate holds the rolling VaR for a day. Threshold is a non-positive
// return quantile and Loss is the same figure expressed as a positive loss.
type VaREstimate struct {
	Date      time.Time `json:"date"`
	Threshold float64   `json:"threshold"`
	Loss      float64   `json:"loss"`
}

// BreachFlag marks whether the realized return fell below that day's threshold.
type BreachFlag struct {
	Date      time.Time `json:"date"`
	Return    float64   `json:"return"`
	Threshold float64   `json:"threshold"`
	Breached  bool      `json:"breached"`
}

// VolatilityPoint is the trailing sample standard deviation of returns.
type VolatilityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// KupiecTest is the proportion-of-failures likelihood ratio test of the breach count.
type KupiecTest struct {
	LR     float64 `json:"lr"`
	PValue float64 `json:"p_value"`
}

// Summary is the backtest summary of a run
type Summary struct {
	Rows              int        `json:"rows"`
	FirstDate         time.Time  `json:"first_date"`
	LastDate          time.Time  `json:"last_date"`
	Window            int        `json:"window"`
	Confidence        float64    `json:"confidence"`
	DaysTested        int        `json:"days_tested"`
	Breaches          int        `json:"breaches"`
	BreachPct         float64    `json:"breach_pct"`
	ExpectedBreachPct float64    `json:"expected_breach_pct"`
	Kupiec            KupiecTest `json:"kupiec"`
}

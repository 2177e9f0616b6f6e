package risk

import (
	"fmt"

	"github.com/viktsys/varbreach/models"
)

// Result carries every series produced by one backtest run.
type Result struct {
	Params     Params                     `json:"-"`
	Prices     []models.PriceObservation  `json:"-"`
	Returns    []models.ReturnObservation `json:"-"`
	Volatility []models.VolatilityPoint   `json:"-"`
	Estimates  []models.VaREstimate       `json:"estimates"`
	Flags      []models.BreachFlag        `json:"flags"`
	Summary    models.Summary             `json:"summary"`
}

// Insufficient reports whether no day had a full window.
func (r *Result) Insufficient() bool {
	return len(r.Estimates) == 0
}

// Run computes returns, rolling VaR, breaches and the summary. Too little
// data is not an error: the result simply has no tested days.
func Run(prices []models.PriceObservation, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	returns, err := ComputeReturns(prices, params.Returns)
	if err != nil {
		return nil, fmt.Errorf("compute returns: %w", err)
	}

	estimates, err := RollingVaR(returns, params)
	if err != nil {
		return nil, fmt.Errorf("rolling var: %w", err)
	}

	vol, err := RollingVolatility(returns, params.VolWindow)
	if err != nil {
		return nil, fmt.Errorf("rolling volatility: %w", err)
	}

	flags := DetectBreaches(returns, estimates)

	return &Result{
		Params:     params,
		Prices:     prices,
		Returns:    returns,
		Volatility: vol,
		Estimates:  estimates,
		Flags:      flags,
		Summary:    Summarize(prices, flags, params),
	}, nil
}

package risk

import (
	"math"
	"time"

	"github.com/viktsys/varbreach/models"
)

// RollingVaR computes the historical VaR for every day with a full window.
// The threshold is the alpha quantile of the window's returns, capped at
// zero so it always reads as a loss.
func RollingVaR(returns []models.ReturnObservation, params Params) ([]models.VaREstimate, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	alpha := params.Alpha()
	window := newSortedWindow(params.Window + 1)
	estimates := make([]models.VaREstimate, 0, max(len(returns)-params.Window+1, 0))

	for i, r := range returns {
		if !params.IncludeCurrent && window.len() == params.Window {
			estimates = append(estimates, estimate(r.Date, window.values, alpha))
		}

		window.insert(r.Return)
		if window.len() > params.Window {
			window.remove(returns[i-params.Window].Return)
		}

		if params.IncludeCurrent && window.len() == params.Window {
			estimates = append(estimates, estimate(r.Date, window.values, alpha))
		}
	}
	return estimates, nil
}

func estimate(date time.Time, sorted []float64, alpha float64) models.VaREstimate {
	threshold := math.Min(Quantile(sorted, alpha), 0)
	return models.VaREstimate{
		Date:      date,
		Threshold: threshold,
		Loss:      math.Abs(threshold),
	}
}

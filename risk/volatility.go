package risk

import (
	"errors"

	"github.com/viktsys/varbreach/models"
	"gonum.org/v1/gonum/stat"
)

// RollingVolatility returns the sample standard deviation of each full
// trailing window of returns, the window ending on the dated day.
func RollingVolatility(returns []models.ReturnObservation, window int) ([]models.VolatilityPoint, error) {
	if window < 2 {
		return nil, errors.New("volatility window must be at least 2")
	}
	if len(returns) < window {
		return []models.VolatilityPoint{}, nil
	}

	values := make([]float64, len(returns))
	for i, r := range returns {
		values[i] = r.Return
	}

	points := make([]models.VolatilityPoint, 0, len(returns)-window+1)
	for i := window - 1; i < len(values); i++ {
		points = append(points, models.VolatilityPoint{
			Date:  returns[i].Date,
			Value: stat.StdDev(values[i-window+1:i+1], nil),
		})
	}
	return points, nil
}

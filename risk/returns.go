package risk

import (
	"fmt"
	"math"

	"github.com/viktsys/varbreach/models"
)

// ValidatePrices checks that every price is a positive finite number and
// that dates are strictly ascending.
func ValidatePrices(prices []models.PriceObservation) error {
	for i, p := range prices {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
			return models.NewDataError(p.Date, fmt.Errorf("%w: %v", models.ErrMalformedPrice, p.Price))
		}
		if i > 0 && !p.Date.After(prices[i-1].Date) {
			return models.NewDataError(p.Date, models.ErrUnorderedDates)
		}
	}
	return nil
}

// ComputeReturns derives one return per consecutive price pair, dated on
// the later observation.
func ComputeReturns(prices []models.PriceObservation, kind ReturnKind) ([]models.ReturnObservation, error) {
	if err := ValidatePrices(prices); err != nil {
		return nil, err
	}
	if len(prices) < 2 {
		return []models.ReturnObservation{}, nil
	}

	returns := make([]models.ReturnObservation, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		ratio := prices[i].Price / prices[i-1].Price

		var r float64
		switch kind {
		case SimpleReturns, "":
			r = ratio - 1
		case LogReturns:
			r = math.Log(ratio)
		default:
			return nil, fmt.Errorf("unknown return kind %q", kind)
		}

		returns = append(returns, models.ReturnObservation{Date: prices[i].Date, Return: r})
	}
	return returns, nil
}

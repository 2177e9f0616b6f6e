package risk

import (
	"math"

	"github.com/viktsys/varbreach/models"
	"gonum.org/v1/gonum/stat/distuv"
)

// DetectBreaches pairs each estimate with the return realized on the same
// date. Both inputs must be in ascending date order; returns without an
// estimate are not tested.
func DetectBreaches(returns []models.ReturnObservation, estimates []models.VaREstimate) []models.BreachFlag {
	flags := make([]models.BreachFlag, 0, len(estimates))

	j := 0
	for _, est := range estimates {
		for j < len(returns) && returns[j].Date.Before(est.Date) {
			j++
		}
		if j == len(returns) {
			break
		}
		if !returns[j].Date.Equal(est.Date) {
			continue
		}

		r := returns[j].Return
		flags = append(flags, models.BreachFlag{
			Date:      est.Date,
			Return:    r,
			Threshold: est.Threshold,
			Breached:  r < est.Threshold,
		})
	}
	return flags
}

// Summarize counts breaches over the tested days and compares the rate
// with the expected 1 - confidence.
func Summarize(prices []models.PriceObservation, flags []models.BreachFlag, params Params) models.Summary {
	s := models.Summary{
		Rows:              len(prices),
		Window:            params.Window,
		Confidence:        params.Confidence,
		DaysTested:        len(flags),
		ExpectedBreachPct: round2(100 * params.Alpha()),
	}
	if len(prices) > 0 {
		s.FirstDate = prices[0].Date
		s.LastDate = prices[len(prices)-1].Date
	}

	for _, f := range flags {
		if f.Breached {
			s.Breaches++
		}
	}
	if s.DaysTested > 0 {
		s.BreachPct = round2(100 * float64(s.Breaches) / float64(s.DaysTested))
	}
	s.Kupiec = Kupiec(s.DaysTested, s.Breaches, params.Alpha())
	return s
}

// Kupiec runs the proportion-of-failures test for x breaches in n days at
// tail probability p. The LR statistic is chi-square with one degree of freedom.
func Kupiec(n, x int, p float64) models.KupiecTest {
	if n == 0 {
		return models.KupiecTest{LR: 0, PValue: 1}
	}

	fn, fx := float64(n), float64(x)
	phat := fx / fn

	null := (fn-fx)*math.Log(1-p) + xlogy(fx, p)
	alt := xlogy(fn-fx, 1-phat) + xlogy(fx, phat)

	lr := -2 * (null - alt)
	if lr < 0 {
		lr = 0
	}
	chi := distuv.ChiSquared{K: 1}
	return models.KupiecTest{LR: lr, PValue: chi.Survival(lr)}
}

// xlogy is x*log(y) with 0*log(0) taken as 0.
func xlogy(x, y float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(y)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

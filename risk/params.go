package risk

import (
	"errors"
	"fmt"
)

const (
	DefaultWindow     = 250
	DefaultConfidence = 0.95
	DefaultVolWindow  = 20
)

// ReturnKind selects how daily returns are derived from consecutive prices.
type ReturnKind string

const (
	SimpleReturns ReturnKind = "simple"
	LogReturns    ReturnKind = "log"
)

// ParseReturnKind maps a config or flag value to a ReturnKind.
func ParseReturnKind(s string) (ReturnKind, error) {
	switch ReturnKind(s) {
	case SimpleReturns, LogReturns:
		return ReturnKind(s), nil
	case "":
		return SimpleReturns, nil
	}
	return "", fmt.Errorf("unknown return kind %q", s)
}

// Params controls the rolling VaR backtest.
type Params struct {
	Window     int
	Confidence float64
	Returns    ReturnKind
	// IncludeCurrent makes the window end on the day being tested. When
	// false the window is the Window returns strictly before that day.
	IncludeCurrent bool
	VolWindow      int
}

func DefaultParams() Params {
	return Params{
		Window:         DefaultWindow,
		Confidence:     DefaultConfidence,
		Returns:        SimpleReturns,
		IncludeCurrent: true,
		VolWindow:      DefaultVolWindow,
	}
}

// Alpha is the left tail probability, 1 - Confidence.
func (p Params) Alpha() float64 {
	return 1 - p.Confidence
}

func (p Params) Validate() error {
	if p.Window < 1 {
		return errors.New("window must be positive")
	}
	if p.Confidence <= 0 || p.Confidence >= 1 {
		return errors.New("confidence must be in (0, 1)")
	}
	if _, err := ParseReturnKind(string(p.Returns)); err != nil {
		return err
	}
	if p.VolWindow < 2 {
		return errors.New("volatility window must be at least 2")
	}
	return nil
}

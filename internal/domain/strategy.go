package domain

import (
	"fmt"
	"strings"
)

// Strategy selects the statistical method used to derive thresholds.
type Strategy string

const (
	StrategySigma    Strategy = "sigma"
	StrategyQuartile Strategy = "quartile"
)

// Strategies lists every supported strategy in display order.
var Strategies = []Strategy{StrategySigma, StrategyQuartile}

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategySigma, StrategyQuartile:
		return true
	}
	return false
}

// ParseStrategy normalizes name and returns the matching Strategy.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("%w %q (supported: sigma, quartile)", ErrUnknownStrategy, name)
	}
	return s, nil
}

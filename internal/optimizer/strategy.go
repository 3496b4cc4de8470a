package optimizer

import (
	"fmt"
	"strings"
)

// Strategy names an optimization aggressiveness level. It selects which
// filler terms get stripped and which fixed quality score the result carries.
type Strategy string

const (
	Conservative Strategy = "conservative"
	Balanced     Strategy = "balanced"
	Aggressive   Strategy = "aggressive"
)

// profile pairs a strategy's ordered filler list with its quality constant.
type profile struct {
	fillers []string
	quality float64
}

// Each tier extends the previous one, so aggressive always strips a strict
// superset of what conservative strips.
var (
	conservativeFillers = []string{"please", "kindly"}
	balancedFillers     = append(append([]string{}, conservativeFillers...),
		"very", "really")
	aggressiveFillers = append(append([]string{}, balancedFillers...),
		"actually", "basically", "essentially", "super", "extremely", "highly")
)

// The quality constants are fixed per strategy rather than measured from
// content: heavier stripping is assumed to cost more fidelity.
var profiles = map[Strategy]profile{
	Conservative: {fillers: conservativeFillers, quality: 0.97},
	Balanced:     {fillers: balancedFillers, quality: 0.95},
	Aggressive:   {fillers: aggressiveFillers, quality: 0.92},
}

// Strategies lists all valid strategies from least to most aggressive.
func Strategies() []Strategy {
	return []Strategy{Conservative, Balanced, Aggressive}
}

// Parse validates a strategy name, case-insensitively.
func Parse(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := profiles[s]; !ok {
		return "", fmt.Errorf("unknown strategy %q (want conservative, balanced, or aggressive)", name)
	}
	return s, nil
}

// Quality returns the fixed quality constant attributed to results produced
// under this strategy.
func (s Strategy) Quality() float64 {
	return profiles[s].quality
}

// Fillers returns a copy of the strategy's filler term list, in removal order.
func (s Strategy) Fillers() []string {
	src := profiles[s].fillers
	out := make([]string, len(src))
	copy(out, src)
	return out
}

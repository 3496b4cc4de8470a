// Package carbon converts token counts into energy and emissions estimates.
package carbon

// Default model constants. FLOPs-per-token and joules-per-FLOP are coarse
// published figures for large-model inference; grid intensity is a global
// average in grams of CO2 per kWh.
const (
	DefaultFLOPsPerToken = 40e9
	DefaultJoulesPerFLOP = 2.5e-11
	DefaultGridIntensity = 350.0
)

const joulesPerKWh = 3.6e6

// Estimate holds the energy and emissions attributed to a token count.
type Estimate struct {
	KWh  float64 `json:"kwh"`
	CO2G float64 `json:"co2_g"`
}

// Model maps token counts to energy and CO2 under a fixed per-token energy
// cost. It is pure and deterministic; zero tokens yields zero everything.
type Model struct {
	FLOPsPerToken float64
	JoulesPerFLOP float64
	GridIntensity float64 // gCO2/kWh applied when no per-call override is given
}

// Default returns a Model with the stock constants.
func Default() Model {
	return Model{
		FLOPsPerToken: DefaultFLOPsPerToken,
		JoulesPerFLOP: DefaultJoulesPerFLOP,
		GridIntensity: DefaultGridIntensity,
	}
}

// Estimate returns energy and emissions for tokens at the model's configured
// grid intensity.
func (m Model) Estimate(tokens int64) Estimate {
	return m.EstimateAt(tokens, m.GridIntensity)
}

// EstimateAt is Estimate with a per-call grid intensity, for regional grids
// that differ from the configured default.
func (m Model) EstimateAt(tokens int64, gridIntensity float64) Estimate {
	joules := float64(tokens) * m.FLOPsPerToken * m.JoulesPerFLOP
	kwh := joules / joulesPerKWh
	return Estimate{KWh: kwh, CO2G: kwh * gridIntensity}
}

// Package model defines the domain types shared across packages.
package model

import "time"

// Receipt is the immutable record of one prompt-optimization event.
// Once written it is never updated in place; re-submission under the same
// ReceiptID replaces the whole record.
type Receipt struct {
	ReceiptID     string    `json:"receipt_id"`
	AccountID     string    `json:"account_id"`
	TokensBefore  int64     `json:"tokens_before"`
	TokensAfter   int64     `json:"tokens_after"`
	KWhBefore     float64   `json:"kwh_before"`
	KWhAfter      float64   `json:"kwh_after"`
	CO2GBefore    float64   `json:"co2_g_before"`
	CO2GAfter     float64   `json:"co2_g_after"`
	QualityScore  *float64  `json:"quality_score"` // nil means unscored
	Model         string    `json:"model,omitempty"`
	Region        string    `json:"region,omitempty"`
	Optimizations []string  `json:"optimizations_applied"`
	Timestamp     time.Time `json:"timestamp"`
}

// TokensSaved returns the signed token delta. Negative means the
// optimization expanded the prompt.
func (r Receipt) TokensSaved() int64 {
	return r.TokensBefore - r.TokensAfter
}

// KWhSaved returns the signed energy delta.
func (r Receipt) KWhSaved() float64 {
	return r.KWhBefore - r.KWhAfter
}

// CO2GSaved returns the signed emissions delta in grams.
func (r Receipt) CO2GSaved() float64 {
	return r.CO2GBefore - r.CO2GAfter
}

// Summary holds the top-level aggregate across an account's receipts.
type Summary struct {
	Events      int     `json:"events"`
	TokensSaved int64   `json:"tokens_saved"`
	CO2GSaved   float64 `json:"co2_g_saved"`
	AvgQuality  float64 `json:"avg_quality"`
}

// DayStats holds savings for a single UTC calendar day.
type DayStats struct {
	Day         time.Time `json:"-"`
	Events      int       `json:"events"`
	TokensSaved int64     `json:"tokens_saved"`
	CO2GSaved   float64   `json:"co2_g_saved"`
}

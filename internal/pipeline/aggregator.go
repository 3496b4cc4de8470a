package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/ecotracehq/ecotrace/internal/model"
	"github.com/ecotracehq/ecotrace/internal/store"
)

// FallbackQuality is the average quality reported when no receipt carries a
// quality score, so an empty account never divides by zero.
const FallbackQuality = 0.95

// DefaultWindowDays is the trailing window for timeseries queries.
const DefaultWindowDays = 30

// Summarize computes totals across receipts. Savings sums are signed: an
// optimization that expanded text contributes negatively instead of being
// clamped, so regressions stay visible.
func Summarize(receipts []model.Receipt) model.Summary {
	sum := model.Summary{Events: len(receipts)}

	var qualityTotal float64
	var scored int
	for _, r := range receipts {
		sum.TokensSaved += r.TokensSaved()
		sum.CO2GSaved += r.CO2GSaved()
		if r.QualityScore != nil {
			qualityTotal += *r.QualityScore
			scored++
		}
	}

	if scored > 0 {
		sum.AvgQuality = qualityTotal / float64(scored)
	} else {
		sum.AvgQuality = FallbackQuality
	}
	return sum
}

// Timeseries groups receipts by UTC calendar day, oldest first. Days without
// receipts are omitted rather than zero-filled; callers wanting a dense
// series pad it themselves.
func Timeseries(receipts []model.Receipt) []model.DayStats {
	dayMap := make(map[string]*model.DayStats)

	for _, r := range receipts {
		key := r.Timestamp.UTC().Format("2006-01-02")
		ds, ok := dayMap[key]
		if !ok {
			day, _ := time.Parse("2006-01-02", key)
			ds = &model.DayStats{Day: day}
			dayMap[key] = ds
		}
		ds.Events++
		ds.TokensSaved += r.TokensSaved()
		ds.CO2GSaved += r.CO2GSaved()
	}

	days := make([]model.DayStats, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Day.Before(days[j].Day)
	})
	return days
}

// Aggregator computes account metrics straight from the store.
type Aggregator struct {
	Store *store.Store
}

// Summary aggregates the account's full receipt history.
func (a Aggregator) Summary(accountID string) (model.Summary, error) {
	receipts, err := a.Store.AggregateRange(accountID, time.Time{})
	if err != nil {
		return model.Summary{}, fmt.Errorf("loading receipts: %w", err)
	}
	return Summarize(receipts), nil
}

// Timeseries aggregates per-day savings over the trailing windowDays.
func (a Aggregator) Timeseries(accountID string, windowDays int) ([]model.DayStats, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	receipts, err := a.Store.AggregateRange(accountID, since)
	if err != nil {
		return nil, fmt.Errorf("loading receipts: %w", err)
	}
	return Timeseries(receipts), nil
}

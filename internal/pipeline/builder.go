// Package pipeline assembles optimization results into receipts and
// aggregates account metrics over the receipt store.
package pipeline

import (
	"crypto/md5" //nolint:gosec // content fingerprint for ids, not a credential
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ecotracehq/ecotrace/internal/carbon"
	"github.com/ecotracehq/ecotrace/internal/model"
	"github.com/ecotracehq/ecotrace/internal/optimizer"
)

// Builder packages one optimization outcome into a receipt. It only
// constructs the value; persisting it is the caller's job.
type Builder struct {
	Carbon carbon.Model
}

// NewReceiptID derives a receipt id from the creation time and a short digest
// of the optimized text. A collision needs the same second and the same
// digest prefix; the store's upsert semantics absorb that case.
func NewReceiptID(optimizedText string, at time.Time) string {
	sum := md5.Sum([]byte(optimizedText)) //nolint:gosec
	return fmt.Sprintf("receipt_%d_%s", at.Unix(), hex.EncodeToString(sum[:])[:8])
}

// Build converts an optimization result into a receipt owned by accountID.
// Both carbon estimates use the builder's single grid intensity, so the
// before/after CO2-to-energy ratios stay consistent within the receipt.
func (b Builder) Build(accountID string, res optimizer.Result, modelName, region string) model.Receipt {
	now := time.Now().UTC()
	before := b.Carbon.Estimate(res.TokensBefore)
	after := b.Carbon.Estimate(res.TokensAfter)

	quality := res.QualityScore
	opts := res.Optimizations
	if opts == nil {
		opts = []string{}
	}

	return model.Receipt{
		ReceiptID:     NewReceiptID(res.OptimizedText, now),
		AccountID:     accountID,
		TokensBefore:  res.TokensBefore,
		TokensAfter:   res.TokensAfter,
		KWhBefore:     before.KWh,
		KWhAfter:      after.KWh,
		CO2GBefore:    before.CO2G,
		CO2GAfter:     after.CO2G,
		QualityScore:  &quality,
		Model:         modelName,
		Region:        region,
		Optimizations: opts,
		Timestamp:     now,
	}
}

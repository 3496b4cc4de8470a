package ingest

import (
	"time"

	"github.com/ecotracehq/ecotrace/internal/store"

	"go.uber.org/zap"
)

// Ingestor writes batches of receipt events into the store.
type Ingestor struct {
	Store *store.Store
	Log   *zap.Logger // optional; nil skips logging
}

// IngestBatch upserts each valid event independently and returns how many
// made it in. A bad event — wrong type, missing fields, or a store error on
// that one row — is skipped; it never aborts the rest of the batch.
func (in Ingestor) IngestBatch(accountID string, events []Event) int {
	now := time.Now().UTC()

	ingested := 0
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			in.skip(ev.ReceiptID, err)
			continue
		}
		if err := in.Store.Upsert(ev.Receipt(accountID, now)); err != nil {
			in.skip(ev.ReceiptID, err)
			continue
		}
		ingested++
	}
	return ingested
}

func (in Ingestor) skip(receiptID string, err error) {
	if in.Log == nil {
		return
	}
	in.Log.Warn("skipping event",
		zap.String("receipt_id", receiptID),
		zap.Error(err),
	)
}

// Package ingest decodes receipt events from SDK batches and spool files and
// writes them into the store with per-event isolation.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecotracehq/ecotrace/internal/model"
)

// EventTypeReceipt is the only event type the ingest boundary processes.
const EventTypeReceipt = "receipt"

// Event is one item in an ingest batch.
type Event struct {
	Type      string   `json:"type"`
	ReceiptID string   `json:"receipt_id"`
	Payload   *Payload `json:"payload"`

	// rawPayload keeps the undecoded body so Validate can tell an empty
	// object apart from one whose fields all happen to be zero.
	rawPayload json.RawMessage
}

// UnmarshalJSON decodes the event, retaining the raw payload bytes. A null
// payload leaves Payload nil, same as an absent one.
func (e *Event) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type      string          `json:"type"`
		ReceiptID string          `json:"receipt_id"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.Type = aux.Type
	e.ReceiptID = aux.ReceiptID
	e.rawPayload = aux.Payload
	e.Payload = nil

	if len(aux.Payload) > 0 && string(aux.Payload) != "null" {
		var p Payload
		if err := json.Unmarshal(aux.Payload, &p); err != nil {
			return err
		}
		e.Payload = &p
	}
	return nil
}

// payloadEmpty reports whether the decoded payload was an empty JSON object.
// Events built in-process have no raw bytes and are never considered empty.
func (e Event) payloadEmpty() bool {
	if len(e.rawPayload) == 0 {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.rawPayload, &fields); err != nil {
		return false
	}
	return len(fields) == 0
}

// Payload is the typed receipt body. Decoding into it at the boundary means
// mistyped fields fail that one event instead of leaking untyped data into
// the store. Missing numeric fields default to zero.
type Payload struct {
	TokensBefore  int64    `json:"tokens_before"`
	TokensAfter   int64    `json:"tokens_after"`
	KWhBefore     float64  `json:"kwh_before"`
	KWhAfter      float64  `json:"kwh_after"`
	CO2GBefore    float64  `json:"co2_g_before"`
	CO2GAfter     float64  `json:"co2_g_after"`
	QualityScore  *float64 `json:"quality_score"`
	Route         Route    `json:"route"`
	Optimizations []string `json:"optimizations_applied"`
	Timestamp     string   `json:"timestamp,omitempty"` // optional RFC3339
}

// Route labels where the optimized call was headed.
type Route struct {
	Model  string `json:"model"`
	Region string `json:"region"`
}

// Validate reports why an event cannot be ingested, or nil.
func (e Event) Validate() error {
	if e.Type != EventTypeReceipt {
		return fmt.Errorf("unsupported event type %q", e.Type)
	}
	if e.ReceiptID == "" {
		return errors.New("missing receipt_id")
	}
	if e.Payload == nil {
		return errors.New("missing payload")
	}
	if e.payloadEmpty() {
		return errors.New("empty payload")
	}
	return nil
}

// Receipt converts a validated event into a domain receipt owned by
// accountID. An absent or unparsable payload timestamp falls back to now.
func (e Event) Receipt(accountID string, now time.Time) model.Receipt {
	p := e.Payload

	opts := p.Optimizations
	if opts == nil {
		opts = []string{}
	}

	ts := now.UTC()
	if p.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
			ts = parsed.UTC()
		}
	}

	return model.Receipt{
		ReceiptID:     e.ReceiptID,
		AccountID:     accountID,
		TokensBefore:  p.TokensBefore,
		TokensAfter:   p.TokensAfter,
		KWhBefore:     p.KWhBefore,
		KWhAfter:      p.KWhAfter,
		CO2GBefore:    p.CO2GBefore,
		CO2GAfter:     p.CO2GAfter,
		QualityScore:  p.QualityScore,
		Model:         p.Route.Model,
		Region:        p.Route.Region,
		Optimizations: opts,
		Timestamp:     ts,
	}
}

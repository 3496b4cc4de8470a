package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/ecotracehq/ecotrace/internal/carbon"
	"github.com/ecotracehq/ecotrace/internal/optimizer"
)

func TestNewReceiptIDFormat(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewReceiptID("write a detailed summary.", at)

	want := regexp.MustCompile(fmt.Sprintf(`^receipt_%d_[0-9a-f]{8}$`, at.Unix()))
	if !want.MatchString(id) {
		t.Fatalf("id = %q", id)
	}

	// Same text and second yields the same id.
	if again := NewReceiptID("write a detailed summary.", at); again != id {
		t.Errorf("id not deterministic: %q vs %q", again, id)
	}

	// Different text yields a different digest.
	if other := NewReceiptID("something else", at); other == id {
		t.Errorf("distinct texts collided on %q", id)
	}
}

func TestBuildReceipt(t *testing.T) {
	b := Builder{Carbon: carbon.Default()}
	res := optimizer.Optimize("Please kindly write a very detailed summary.", optimizer.Balanced)

	r := b.Build("acct_1", res, "gpt-x", "eu-west")

	if r.AccountID != "acct_1" || r.Model != "gpt-x" || r.Region != "eu-west" {
		t.Errorf("labels not carried: %+v", r)
	}
	if r.TokensBefore != res.TokensBefore || r.TokensAfter != res.TokensAfter {
		t.Errorf("token counts not carried: %+v", r)
	}
	if r.QualityScore == nil || *r.QualityScore != res.QualityScore {
		t.Errorf("quality = %v, want %g", r.QualityScore, res.QualityScore)
	}
	if r.Timestamp.IsZero() || r.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp = %v, want non-zero UTC", r.Timestamp)
	}

	// Both sides use the same grid intensity, so the CO2/energy ratio matches.
	if r.KWhBefore > 0 {
		ratio := r.CO2GBefore / r.KWhBefore
		if math.Abs(ratio-carbon.DefaultGridIntensity) > 1e-9 {
			t.Errorf("before ratio = %g, want %g", ratio, carbon.DefaultGridIntensity)
		}
	}
	if r.TokensBefore > r.TokensAfter && r.CO2GSaved() <= 0 {
		t.Errorf("positive token savings but CO2GSaved = %g", r.CO2GSaved())
	}
}

func TestBuildNeverNilOptimizations(t *testing.T) {
	b := Builder{Carbon: carbon.Default()}
	res := optimizer.Optimize("nothing to strip here", optimizer.Conservative)
	if res.Optimizations != nil {
		t.Fatalf("precondition: expected nil optimizations, got %v", res.Optimizations)
	}

	r := b.Build("acct_1", res, "", "")
	if r.Optimizations == nil {
		t.Error("receipt optimizations is nil, want empty slice")
	}
}

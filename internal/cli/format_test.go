package cli

import "testing"

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234, "1.2K"},
		{1_234_567, "1.2M"},
		{1_234_567_890, "1.2B"},
		{-1500, "-1.5K"},
	}

	for _, tt := range tests {
		if got := FormatTokens(tt.in); got != tt.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCO2(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0g"},
		{1234.5, "1.23kg"},
		{42.0, "42.00g"},
		{0.0042, "4.20mg"},
		{0.0000005, "0.5µg"},
	}

	for _, tt := range tests {
		if got := FormatCO2(tt.in); got != tt.want {
			t.Errorf("FormatCO2(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatEnergy(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0Wh"},
		{1.5, "1.50kWh"},
		{0.25, "250.00Wh"},
	}

	for _, tt := range tests {
		if got := FormatEnergy(tt.in); got != tt.want {
			t.Errorf("FormatEnergy(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatQuality(t *testing.T) {
	if got := FormatQuality(nil); got != "—" {
		t.Errorf("FormatQuality(nil) = %q", got)
	}
	v := 0.97
	if got := FormatQuality(&v); got != "0.97" {
		t.Errorf("FormatQuality(0.97) = %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0%"},
		{0.455, "45.5%"},
		{1, "100.0%"},
		{-0.25, "-25.0%"},
	}

	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateID(t *testing.T) {
	if got := TruncateID("short", 10); got != "short" {
		t.Errorf("TruncateID(short) = %q", got)
	}
	if got := TruncateID("receipt_1773480413_0a1b2c3d", 12); got != "receipt_177…" {
		t.Errorf("TruncateID = %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("empty sparkline = %q", got)
	}

	got := RenderSparkline([]float64{0, 0.5, 1})
	if len([]rune(got)) != 3 {
		t.Errorf("sparkline = %q, want 3 cells", got)
	}

	// All-zero input must not divide by zero.
	if got := RenderSparkline([]float64{0, 0, 0}); len([]rune(got)) != 3 {
		t.Errorf("zero sparkline = %q", got)
	}
}

package optimizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestOptimizeBalanced(t *testing.T) {
	res := Optimize("Please kindly write a very detailed summary.", Balanced)

	if res.OptimizedText != "write a detailed summary." {
		t.Errorf("optimized = %q", res.OptimizedText)
	}
	if res.TokensBefore != 11 {
		t.Errorf("tokens before = %d, want 11", res.TokensBefore)
	}
	if res.TokensAfter != 6 {
		t.Errorf("tokens after = %d, want 6", res.TokensAfter)
	}

	want := []string{"Removed 'please'", "Removed 'kindly'", "Removed 'very'"}
	if !reflect.DeepEqual(res.Optimizations, want) {
		t.Errorf("optimizations = %v, want %v", res.Optimizations, want)
	}
	if res.QualityScore != 0.95 {
		t.Errorf("quality = %g, want 0.95", res.QualityScore)
	}
}

func TestOptimizeEmptyPrompt(t *testing.T) {
	res := Optimize("", Aggressive)

	if res.OptimizedText != "" {
		t.Errorf("optimized = %q, want empty", res.OptimizedText)
	}
	if res.TokensBefore != 0 || res.TokensAfter != 0 {
		t.Errorf("tokens = %d/%d, want 0/0", res.TokensBefore, res.TokensAfter)
	}
	if len(res.Optimizations) != 0 {
		t.Errorf("optimizations = %v, want none", res.Optimizations)
	}
}

func TestOptimizeNoFillersNormalizesWhitespace(t *testing.T) {
	res := Optimize("  hello \t  world  ", Conservative)

	if res.OptimizedText != "hello world" {
		t.Errorf("optimized = %q", res.OptimizedText)
	}
	if len(res.Optimizations) != 0 {
		t.Errorf("optimizations = %v, want none", res.Optimizations)
	}
}

func TestOptimizeCaseInsensitiveWholeWords(t *testing.T) {
	// "pleasehold" must survive; the standalone "PLEASE" must not.
	res := Optimize("PLEASE pleasehold the line", Conservative)

	if res.OptimizedText != "pleasehold the line" {
		t.Errorf("optimized = %q", res.OptimizedText)
	}
}

func TestStrategyFillersNested(t *testing.T) {
	cons := Conservative.Fillers()
	bal := Balanced.Fillers()
	agg := Aggressive.Fillers()

	if !reflect.DeepEqual(bal[:len(cons)], cons) {
		t.Errorf("balanced %v does not extend conservative %v", bal, cons)
	}
	if !reflect.DeepEqual(agg[:len(bal)], bal) {
		t.Errorf("aggressive %v does not extend balanced %v", agg, bal)
	}
}

func TestStrategyQualityOrdering(t *testing.T) {
	if !(Conservative.Quality() > Balanced.Quality() && Balanced.Quality() > Aggressive.Quality()) {
		t.Fatalf("quality not decreasing: %g %g %g",
			Conservative.Quality(), Balanced.Quality(), Aggressive.Quality())
	}
}

func TestHeavierStrategySavesAtLeastAsMuch(t *testing.T) {
	prompt := "Please kindly give me a really super detailed and highly actually useful answer"

	var prev int64 = -1 << 62
	for _, s := range Strategies() {
		res := Optimize(prompt, s)
		saved := res.TokensBefore - res.TokensAfter
		if saved < prev {
			t.Fatalf("strategy %s saved %d, less than the lighter tier's %d", s, saved, prev)
		}
		prev = saved
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"balanced", Balanced, false},
		{" Conservative ", Conservative, false},
		{"AGGRESSIVE", Aggressive, false},
		{"turbo", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{strings.Repeat("x", 43), 10},
		{"日本語のテキストです", 2}, // runes, not bytes
	}

	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

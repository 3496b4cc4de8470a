// Package optimizer rewrites prompts by stripping strategy-selected filler
// terms and estimating the token savings.
package optimizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Result holds the outcome of one prompt optimization.
type Result struct {
	Strategy      Strategy `json:"strategy"`
	OptimizedText string   `json:"optimized"`
	TokensBefore  int64    `json:"tokens_before"`
	TokensAfter   int64    `json:"tokens_after"`
	Optimizations []string `json:"optimizations_applied"`
	QualityScore  float64  `json:"quality_score"`
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// fillerPatterns caches one case-insensitive whole-word pattern per filler
// term. The aggressive list is a superset of every other strategy's list.
var fillerPatterns = make(map[string]*regexp.Regexp, len(aggressiveFillers))

func init() {
	for _, term := range aggressiveFillers {
		fillerPatterns[term] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
}

// EstimateTokens approximates a token count as one token per four characters.
// A crude proxy, but every before/after delta in the system is derived from
// it, so it must stay byte-for-byte stable across versions.
func EstimateTokens(s string) int64 {
	return int64(utf8.RuneCountInString(s) / 4)
}

// Optimize removes the strategy's filler terms from prompt, collapses the
// leftover whitespace, and reports token counts for both sides. It is total
// over all inputs: an empty prompt yields an empty result with no log entries.
func Optimize(prompt string, strategy Strategy) Result {
	p := profiles[strategy]

	text := prompt
	var applied []string
	for _, term := range p.fillers {
		re := fillerPatterns[term]
		if !re.MatchString(text) {
			continue
		}
		text = re.ReplaceAllString(text, "")
		applied = append(applied, fmt.Sprintf("Removed '%s'", term))
	}

	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	return Result{
		Strategy:      strategy,
		OptimizedText: text,
		TokensBefore:  EstimateTokens(prompt),
		TokensAfter:   EstimateTokens(text),
		Optimizations: applied,
		QualityScore:  p.quality,
	}
}

// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTokens formats a token count with human-readable suffixes.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M", 1234567890 -> "1.2B"
func FormatTokens(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatCO2 formats a CO2 mass given in grams, scaling the unit so small
// single-prompt savings stay legible.
// e.g., 1234.5 -> "1.23kg", 0.0042 -> "4.20mg"
func FormatCO2(grams float64) string {
	abs := math.Abs(grams)
	switch {
	case abs >= 1000:
		return fmt.Sprintf("%.2fkg", grams/1000)
	case abs >= 1:
		return fmt.Sprintf("%.2fg", grams)
	case abs >= 0.001:
		return fmt.Sprintf("%.2fmg", grams*1000)
	case abs == 0:
		return "0g"
	default:
		return fmt.Sprintf("%.1fµg", grams*1_000_000)
	}
}

// FormatEnergy formats an energy amount given in kWh.
func FormatEnergy(kwh float64) string {
	abs := math.Abs(kwh)
	switch {
	case abs >= 1:
		return fmt.Sprintf("%.2fkWh", kwh)
	case abs >= 0.001:
		return fmt.Sprintf("%.2fWh", kwh*1000)
	case abs == 0:
		return "0Wh"
	default:
		return fmt.Sprintf("%.2fmWh", kwh*1_000_000)
	}
}

// FormatQuality renders a nullable quality score; nil means unscored.
func FormatQuality(q *float64) string {
	if q == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *q)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}

// TruncateID shortens a receipt id for table display.
func TruncateID(id string, max int) string {
	if len(id) <= max {
		return id
	}
	if max <= 1 {
		return id[:max]
	}
	return id[:max-1] + "…"
}

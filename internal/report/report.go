// Package report renders the plain-text draft report that accompanies an analysis.
package report

import (
	"fmt"
	"math"
	"strings"
)

const (
	// Filename is the suggested download name for a rendered report
	Filename = "draft_report.txt"

	// ContentType is served with rendered reports
	ContentType = "text/plain; charset=utf-8"
)

// FormatReport renders the draft report for the given statistics. Every number is printed
// with two decimals; pct is expected to be within 0-100.
//
// The wording is fixed apart from the three figures.
func FormatReport(mean, std, pct float64) string {
	var b strings.Builder

	b.WriteString("Draft Report (automatically generated):\n\n")

	b.WriteString("Findings:\n")
	fmt.Fprintf(&b, "- Mean tissue intensity: %.2f\n", clean(mean))
	fmt.Fprintf(&b, "- Intensity variability (std): %.2f\n", clean(std))
	fmt.Fprintf(&b, "- Suspicious regions detected covering approximately %.2f%% of the slide area.\n\n", clean(pct))

	b.WriteString("Impression:\n")
	b.WriteString("- Areas flagged may indicate regions of interest requiring pathologist review.\n")
	b.WriteString("- Recommend targeted review and, if needed, additional stains or higher-power examination.\n\n")

	b.WriteString("Notes:\n")
	b.WriteString("- This is a demo. Final diagnosis must be confirmed by a qualified pathologist.\n")

	return b.String()
}

// clean maps NaN to 0 and folds negative zero so the report never prints "-0.00"
func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if math.Abs(v) < 0.005 {
		return 0
	}
	return v
}

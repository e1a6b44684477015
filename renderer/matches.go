package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/fifo"
)

// MatchesMarkdown renders, for each sell, the lots it consumed.
func MatchesMarkdown(r *fifo.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprint(&b, "# FIFO Matches\n\n")
	if len(r.Matches) == 0 {
		fmt.Fprint(&b, "No sell transaction.\n")
		return b.String()
	}

	for _, m := range r.Matches {
		fmt.Fprintf(&b, "## Sell of %s on %s at %s\n\n", m.Sell.Quantity, m.Sell.Date, m.Sell.Price)
		fmt.Fprintln(&b, "| Lot | Acquired | Quantity | Unit Cost | Cost | Fees | Proceeds | Gain |")
		fmt.Fprintln(&b, "|---:|:---|---:|---:|---:|---:|---:|---:|")
		for _, s := range m.Slices {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s |\n",
				s.LotID,
				s.Acquired,
				s.Quantity,
				s.UnitCost,
				s.Cost,
				s.Fees,
				s.Proceeds,
				s.Gain.SignedString(),
			)
		}
		fmt.Fprintf(&b, "| **%s** | | **%s** | | **%s** | **%s** | **%s** | **%s** |\n\n",
			"Total",
			m.Sell.Quantity,
			m.Cost,
			m.Sell.Fees,
			m.Proceeds,
			m.Gain.SignedString(),
		)
		if !m.Tax.IsZero() {
			fmt.Fprintf(&b, "Tax withheld %s, net gain %s.\n\n", m.Tax, m.NetGain.SignedString())
		}
	}
	return b.String()
}

// LotsMarkdown renders the lots still open at the end of the analysis.
func LotsMarkdown(r *fifo.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Open Lots\n\n")
	if len(r.OpenLots) == 0 {
		fmt.Fprint(&b, "No open lot.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Lot | Acquired | Original | Remaining | Unit Cost | Cost |")
	fmt.Fprintln(&b, "|---:|:---|---:|---:|---:|---:|")
	for _, l := range r.OpenLots {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			l.ID,
			l.Date,
			l.Original,
			l.Remaining,
			l.UnitCost,
			l.Cost(),
		)
	}
	fmt.Fprintf(&b, "| **%s** | | | **%s** | **%s** | **%s** |\n",
		"Total",
		r.OpenQuantity,
		optional(r.AverageCost, fifo.Money.String),
		r.OpenCost,
	)
	return b.String()
}

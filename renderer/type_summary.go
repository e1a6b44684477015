package renderer

import (
	"github.com/etnz/fifo"
)

// notAvailable stands for a value the analysis leaves undefined.
const notAvailable = "n/a"

// Summary is the analysis result prepared for rendering: every figure is
// already formatted.
type Summary struct {
	Security string `json:"security,omitempty"`
	Currency string `json:"currency,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Buys     int    `json:"buys"`
	Sells    int    `json:"sells"`

	TotalInvested  string `json:"totalInvested"`
	TotalWithdrawn string `json:"totalWithdrawn"`
	NetCashflow    string `json:"netCashflow"`

	HasOpenPosition bool   `json:"hasOpenPosition"`
	OpenQuantity    string `json:"openQuantity"`
	OpenLots        int    `json:"openLots"`
	OpenCost        string `json:"openCost"`
	AverageCost     string `json:"averageCost"`
	CurrentPrice    string `json:"currentPrice"`
	MarketValue     string `json:"marketValue"`

	RealizedGains    string `json:"realizedGains"`
	TotalTaxes       string `json:"totalTaxes"`
	NetRealizedGains string `json:"netRealizedGains"`
	UnrealizedGains  string `json:"unrealizedGains"`
	TotalGains       string `json:"totalGains"`
	TotalReturn      string `json:"totalReturn"`
}

// NewSummary formats r.
func NewSummary(r *fifo.AnalysisResult) *Summary {
	s := &Summary{
		Security: r.Security,
		Currency: r.Currency,
		Buys:     r.Buys,
		Sells:    r.Sells,

		TotalInvested:  r.TotalInvested.String(),
		TotalWithdrawn: r.TotalWithdrawn.String(),
		NetCashflow:    r.NetCashflow.SignedString(),

		HasOpenPosition: r.HasOpenPosition(),
		OpenQuantity:    r.OpenQuantity.String(),
		OpenLots:        len(r.OpenLots),
		OpenCost:        r.OpenCost.String(),
		AverageCost:     optional(r.AverageCost, fifo.Money.String),
		CurrentPrice:    optional(r.CurrentPrice, fifo.Money.String),
		MarketValue:     optional(r.MarketValue, fifo.Money.String),

		RealizedGains:    r.RealizedGains.SignedString(),
		TotalTaxes:       r.TotalTaxes.String(),
		NetRealizedGains: r.NetRealizedGains.SignedString(),
		UnrealizedGains:  optional(r.UnrealizedGains, fifo.Money.SignedString),
		TotalGains:       r.TotalGains.SignedString(),
		TotalReturn:      optional(r.TotalReturn, fifo.Percent.SignedString),
	}
	if !r.First.IsZero() {
		s.From, s.To = r.First.String(), r.Last.String()
	}
	return s
}

// optional formats v, or returns notAvailable for nil.
func optional[T any](v *T, format func(T) string) string {
	if v == nil {
		return notAvailable
	}
	return format(*v)
}

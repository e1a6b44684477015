package fifo

import (
	"github.com/etnz/fifo/date"
)

// Slice is the part of a sell matched against one lot.
type Slice struct {
	LotID    int       // LotID references Lot.ID.
	Acquired date.Date // Acquired is the lot acquisition date.
	Quantity Quantity  // Quantity taken from the lot.
	UnitCost Money     // UnitCost of the lot.
	Cost     Money     // Cost is Quantity * UnitCost.
	Fees     Money     // Fees is the share of the sell fees for this slice.
	Proceeds Money     // Proceeds is Quantity * sell price - Fees.
	Gain     Money     // Gain is Proceeds - Cost.
}

// MatchEvent records how one sell was matched against the open lots.
type MatchEvent struct {
	Index    int // Index of the sell in the input sequence.
	Sell     Transaction
	Slices   []Slice
	Cost     Money // Cost basis of the sold quantity.
	Proceeds Money // Proceeds net of fees.
	Gain     Money // Gain is the gross realized gain.
	Tax      Money // Tax withheld.
	NetGain  Money // NetGain is Gain - Tax.
}

// AnalysisResult is the outcome of a FIFO run over a transaction sequence.
//
// Optional values are nil when undefined: UnrealizedGains and MarketValue
// without a current price, AverageCost without an open position, TotalReturn
// when nothing was invested.
type AnalysisResult struct {
	Security string // Security is a display label.
	Currency string // Currency is a display label.

	Buys, Sells int
	First, Last date.Date // First and Last transaction dates.

	TotalInvested    Money // Sum of buy costs, fees included.
	TotalWithdrawn   Money // Sum of sell proceeds, net of fees.
	RealizedGains    Money // Gross realized gains.
	TotalTaxes       Money
	NetRealizedGains Money // RealizedGains - TotalTaxes.
	UnrealizedGains  *Money
	TotalGains       Money // NetRealizedGains + UnrealizedGains.
	NetCashflow      Money // TotalWithdrawn - TotalInvested.
	TotalReturn      *Percent

	OpenQuantity Quantity
	OpenCost     Money // OpenCost is the open position at cost.
	AverageCost  *Money
	CurrentPrice *Money
	MarketValue  *Money

	OpenLots []Lot
	Matches  []MatchEvent
}

// HasOpenPosition reports whether some quantity is still held.
func (r *AnalysisResult) HasOpenPosition() bool { return r.OpenQuantity.IsPositive() }

// MarshalJSON implements the json.Marshaler interface for AnalysisResult.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("security", r.Security)
	w.Optional("currency", r.Currency)
	w.Append("buys", r.Buys)
	w.Append("sells", r.Sells)
	if !r.First.IsZero() {
		w.Append("first", r.First)
		w.Append("last", r.Last)
	}
	w.Append("totalInvested", r.TotalInvested)
	w.Append("totalWithdrawn", r.TotalWithdrawn)
	w.Append("realizedGains", r.RealizedGains)
	w.Append("totalTaxes", r.TotalTaxes)
	w.Append("netRealizedGains", r.NetRealizedGains)
	w.Optional("unrealizedGains", r.UnrealizedGains)
	w.Append("totalGains", r.TotalGains)
	w.Append("netCashflow", r.NetCashflow)
	w.Optional("totalReturn", r.TotalReturn)
	w.Append("openQuantity", r.OpenQuantity)
	w.Append("openCost", r.OpenCost)
	w.Optional("averageCost", r.AverageCost)
	w.Optional("currentPrice", r.CurrentPrice)
	w.Optional("marketValue", r.MarketValue)
	w.Append("openLots", nonNil(r.OpenLots))
	w.Append("matches", nonNil(r.Matches))
	return w.MarshalJSON()
}

// nonNil makes an empty list appear as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// MarshalJSON implements the json.Marshaler interface for Lot.
func (l Lot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", l.ID)
	w.Append("date", l.Date)
	w.Append("original", l.Original)
	w.Append("remaining", l.Remaining)
	w.Append("unitCost", l.UnitCost)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for Slice.
func (s Slice) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("lot", s.LotID)
	w.Append("acquired", s.Acquired)
	w.Append("quantity", s.Quantity)
	w.Append("unitCost", s.UnitCost)
	w.Append("cost", s.Cost)
	w.Append("fees", s.Fees)
	w.Append("proceeds", s.Proceeds)
	w.Append("gain", s.Gain)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for MatchEvent.
func (m MatchEvent) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("index", m.Index)
	w.Append("sell", m.Sell)
	w.Append("slices", m.Slices)
	w.Append("cost", m.Cost)
	w.Append("proceeds", m.Proceeds)
	w.Append("gain", m.Gain)
	w.Append("tax", m.Tax)
	w.Append("netGain", m.NetGain)
	return w.MarshalJSON()
}

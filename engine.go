package fifo

import (
	"errors"
	"fmt"
	"log/slog"
)

// Options configures a single run of the Engine.
type Options struct {
	// CurrentPrice values the open position. nil leaves unrealized gains undefined.
	CurrentPrice *Money
	// Currency is a display label carried to the result. Transactions with
	// another currency are rejected, nothing is converted.
	Currency string
	// Security is a display label carried to the result.
	Security string
	// Logger receives a debug record per processed transaction. Defaults to slog.Default().
	Logger *slog.Logger
}

// state of an Engine, it only moves forward.
type state int

const (
	idle state = iota
	processing
	finalized
)

// Engine folds an ordered transaction sequence into an AnalysisResult using
// FIFO lot accounting.
//
// An Engine runs once. Use Analyze, or a new Engine, for every run.
type Engine struct {
	opts  Options
	log   *slog.Logger
	state state
	queue LotQueue

	buys, sells int
	invested    Money
	withdrawn   Money
	realized    Money
	taxes       Money
	matches     []MatchEvent
}

// NewEngine returns an idle engine for opts.
func NewEngine(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	cur := opts.Currency
	return &Engine{
		opts:      opts,
		log:       log,
		invested:  M(0, cur),
		withdrawn: M(0, cur),
		realized:  M(0, cur),
		taxes:     M(0, cur),
	}
}

// Analyze runs a new Engine over txs.
func Analyze(txs []Transaction, opts Options) (*AnalysisResult, error) {
	return NewEngine(opts).Run(txs)
}

// Run validates txs, then processes them in order and returns the result.
//
// txs must be sorted by date, ties are processed in slice order. Validation
// failures are *MalformedInputError, a sell above the open position is an
// *InsufficientPositionError. Either way the engine is finalized.
func (e *Engine) Run(txs []Transaction) (*AnalysisResult, error) {
	if e.state != idle {
		return nil, ErrFinalized
	}
	e.state = processing
	defer func() { e.state = finalized }()

	if p := e.opts.CurrentPrice; p != nil && !p.IsPositive() {
		return nil, fmt.Errorf("current price must be positive, got %s", p.Decimal())
	}
	if err := ValidateSequence(txs, e.opts.Currency); err != nil {
		return nil, err
	}
	if p := e.opts.CurrentPrice; p != nil {
		cur := sequenceCurrency(txs, e.opts.Currency)
		if p.Currency() != "" && cur != "" && p.Currency() != cur {
			return nil, fmt.Errorf("current price currency %s differs from %s", p.Currency(), cur)
		}
	}

	for i, tx := range txs {
		switch tx.Side {
		case Buy:
			e.buy(tx)
		case Sell:
			if err := e.sell(i, tx); err != nil {
				return nil, err
			}
		}
	}
	return e.finalize(txs), nil
}

// sequenceCurrency returns the run currency, or the currency shared by txs
// when no run currency is set.
func sequenceCurrency(txs []Transaction, currency string) string {
	if currency != "" {
		return currency
	}
	for _, tx := range txs {
		if c := tx.Currency(); c != "" {
			return c
		}
	}
	return ""
}

func (e *Engine) buy(tx Transaction) {
	e.buys++
	lot := e.queue.Push(tx.Date, tx.Quantity, tx.Cost())
	e.invested = e.invested.Add(tx.Cost())
	e.log.Debug("buy",
		"date", tx.Date.String(),
		"lot", lot.ID,
		"quantity", tx.Quantity.String(),
		"unitCost", lot.UnitCost.Decimal().String(),
	)
}

func (e *Engine) sell(i int, tx Transaction) error {
	taken, err := e.queue.consume(tx.Quantity)
	if err != nil {
		var short *InsufficientPositionError
		if errors.As(err, &short) {
			short.Index, short.Tx = i, tx
		}
		return err
	}
	e.sells++

	m := MatchEvent{
		Index:    i,
		Sell:     tx,
		Slices:   make([]Slice, 0, len(taken)),
		Cost:     M(0, e.opts.Currency),
		Proceeds: tx.Proceeds(),
		Gain:     M(0, e.opts.Currency),
		Tax:      tx.Tax,
	}
	feesLeft := tx.Fees
	for k, c := range taken {
		// fees are pro-rated by quantity, the last slice takes the remainder
		// so that slices add up to the sell fees exactly.
		fees := tx.Fees.Mul(c.quantity).Div(tx.Quantity)
		if k == len(taken)-1 {
			fees = feesLeft
		}
		feesLeft = feesLeft.Sub(fees)

		cost := c.cost
		proceeds := tx.Price.Mul(c.quantity).Sub(fees)
		s := Slice{
			LotID:    c.lot.ID,
			Acquired: c.lot.Date,
			Quantity: c.quantity,
			UnitCost: c.lot.UnitCost,
			Cost:     cost,
			Fees:     fees,
			Proceeds: proceeds,
			Gain:     proceeds.Sub(cost),
		}
		m.Slices = append(m.Slices, s)
		m.Cost = m.Cost.Add(s.Cost)
		m.Gain = m.Gain.Add(s.Gain)
	}
	m.NetGain = m.Gain.Sub(m.Tax)
	e.matches = append(e.matches, m)

	e.withdrawn = e.withdrawn.Add(m.Proceeds)
	e.realized = e.realized.Add(m.Gain)
	e.taxes = e.taxes.Add(m.Tax)
	e.log.Debug("sell",
		"date", tx.Date.String(),
		"quantity", tx.Quantity.String(),
		"lots", len(m.Slices),
		"gain", m.Gain.Decimal().String(),
		"open", e.queue.Open().String(),
	)
	return nil
}

// finalize derives the aggregates once the stream is consumed.
func (e *Engine) finalize(txs []Transaction) *AnalysisResult {
	cur := e.opts.Currency
	r := &AnalysisResult{
		Security:         e.opts.Security,
		Currency:         cur,
		Buys:             e.buys,
		Sells:            e.sells,
		TotalInvested:    e.invested,
		TotalWithdrawn:   e.withdrawn,
		RealizedGains:    e.realized,
		TotalTaxes:       e.taxes,
		NetRealizedGains: e.realized.Sub(e.taxes),
		NetCashflow:      e.withdrawn.Sub(e.invested),
		OpenQuantity:     e.queue.Open(),
		OpenCost:         M(0, cur).Add(e.queue.Cost()),
		OpenLots:         e.queue.Lots(),
		Matches:          e.matches,
	}
	if len(txs) > 0 {
		r.First, r.Last = txs[0].Date, txs[len(txs)-1].Date
	}

	avg, open := e.queue.AverageCost()
	if open {
		avg = M(0, cur).Add(avg)
		r.AverageCost = &avg
	}

	r.TotalGains = r.NetRealizedGains
	if p := e.opts.CurrentPrice; p != nil {
		price := M(0, cur).Add(*p)
		value := price.Mul(r.OpenQuantity)
		unrealized := value.Sub(r.OpenCost)
		r.CurrentPrice = &price
		r.MarketValue = &value
		r.UnrealizedGains = &unrealized
		r.TotalGains = r.TotalGains.Add(unrealized)
	}

	if !r.TotalInvested.IsZero() {
		pct := percentOf(r.TotalGains, r.TotalInvested)
		r.TotalReturn = &pct
	}

	e.log.Debug("finalized",
		"buys", r.Buys,
		"sells", r.Sells,
		"open", r.OpenQuantity.String(),
		"realized", r.RealizedGains.Decimal().String(),
	)
	return r
}

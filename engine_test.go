package fifo

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/etnz/fifo/date"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

// resultComparer compares results on values rather than decimal internals.
var resultComparer = cmp.Options{
	cmp.Comparer(func(a, b Money) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
	cmp.AllowUnexported(Lot{}),
}

func TestAnalyze_EndToEnd(t *testing.T) {
	txs := []Transaction{
		NewBuy(day("2024-01-01"), Q(10), EUR(50), EUR(5)),
		NewSell(day("2024-06-01"), Q(10), EUR(80), EUR(5), EUR(9)),
	}
	r, err := Analyze(txs, Options{Currency: "EUR"})
	if err != nil {
		t.Fatalf("Analyze() failed: %v", err)
	}

	checks := []struct {
		name string
		got  Money
		want Money
	}{
		{"TotalInvested", r.TotalInvested, EUR(505)},
		{"TotalWithdrawn", r.TotalWithdrawn, EUR(795)},
		{"RealizedGains", r.RealizedGains, EUR(290)},
		{"TotalTaxes", r.TotalTaxes, EUR(9)},
		{"NetRealizedGains", r.NetRealizedGains, EUR(281)},
		{"TotalGains", r.TotalGains, EUR(281)},
		{"NetCashflow", r.NetCashflow, EUR(290)},
		{"OpenCost", r.OpenCost, EUR(0)},
	}
	for _, c := range checks {
		if !c.got.Equal(c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if !r.OpenQuantity.IsZero() {
		t.Errorf("OpenQuantity = %v, want 0", r.OpenQuantity)
	}
	if r.UnrealizedGains != nil {
		t.Errorf("UnrealizedGains = %v, want undefined", *r.UnrealizedGains)
	}
	if r.AverageCost != nil {
		t.Errorf("AverageCost = %v, want undefined", *r.AverageCost)
	}
	if r.TotalReturn == nil || !r.TotalReturn.Equal(Percent(281.0/505.0*100)) {
		t.Errorf("TotalReturn = %v, want %v", r.TotalReturn, 281.0/505.0*100)
	}
	if r.Buys != 1 || r.Sells != 1 || r.First != day("2024-01-01") || r.Last != day("2024-06-01") {
		t.Errorf("counts and dates = %d %d %v %v", r.Buys, r.Sells, r.First, r.Last)
	}

	if len(r.Matches) != 1 {
		t.Fatalf("got %d match events, want 1", len(r.Matches))
	}
	m := r.Matches[0]
	if m.Index != 1 || len(m.Slices) != 1 {
		t.Fatalf("match = %+v", m)
	}
	if !m.Slices[0].UnitCost.Equal(EUR(50.5)) {
		t.Errorf("lot unit cost = %v, want 50.5", m.Slices[0].UnitCost)
	}
	if !m.Gain.Equal(EUR(290)) || !m.NetGain.Equal(EUR(281)) || !m.Proceeds.Equal(EUR(795)) || !m.Cost.Equal(EUR(505)) {
		t.Errorf("match gain=%v net=%v proceeds=%v cost=%v", m.Gain, m.NetGain, m.Proceeds, m.Cost)
	}
}

func TestAnalyze_FIFOOrdering(t *testing.T) {
	txs := []Transaction{
		NewBuy(day("2024-01-01"), Q(10), EUR(100), EUR(0)),
		NewBuy(day("2024-02-01"), Q(10), EUR(120), EUR(0)),
		NewSell(day("2024-03-01"), Q(15), EUR(150), EUR(0), EUR(0)),
	}
	r, err := Analyze(txs, Options{Currency: "EUR", CurrentPrice: ptr(EUR(130))})
	if err != nil {
		t.Fatalf("Analyze() failed: %v", err)
	}

	// 10*(150-100) + 5*(150-120), an average cost of 110 would give 600.
	if !r.RealizedGains.Equal(EUR(650)) {
		t.Errorf("RealizedGains = %v, want 650", r.RealizedGains)
	}
	slices := r.Matches[0].Slices
	if len(slices) != 2 {
		t.Fatalf("got %d slices, want 2", len(slices))
	}
	wantSlices := []struct {
		lot      int
		quantity Quantity
		unitCost Money
		gain     Money
	}{
		{1, Q(10), EUR(100), EUR(500)},
		{2, Q(5), EUR(120), EUR(150)},
	}
	for i, w := range wantSlices {
		s := slices[i]
		if s.LotID != w.lot || !s.Quantity.Equal(w.quantity) || !s.UnitCost.Equal(w.unitCost) || !s.Gain.Equal(w.gain) {
			t.Errorf("slice %d = lot %d %v@%v gain %v, want lot %d %v@%v gain %v",
				i, s.LotID, s.Quantity, s.UnitCost, s.Gain, w.lot, w.quantity, w.unitCost, w.gain)
		}
	}

	if !r.OpenQuantity.Equal(Q(5)) {
		t.Errorf("OpenQuantity = %v, want 5", r.OpenQuantity)
	}
	if r.AverageCost == nil || !r.AverageCost.Equal(EUR(120)) {
		t.Errorf("AverageCost = %v, want 120", r.AverageCost)
	}
	if r.UnrealizedGains == nil || !r.UnrealizedGains.Equal(EUR(50)) {
		t.Errorf("UnrealizedGains = %v, want 50", r.UnrealizedGains)
	}
	if r.MarketValue == nil || !r.MarketValue.Equal(EUR(650)) {
		t.Errorf("MarketValue = %v, want 650", r.MarketValue)
	}
	if !r.TotalGains.Equal(EUR(700)) {
		t.Errorf("TotalGains = %v, want 700", r.TotalGains)
	}
}

func TestAnalyze_SellFeesAreProrated(t *testing.T) {
	txs := []Transaction{
		NewBuy(day("2024-01-01"), Q(1), EUR(10), EUR(0)),
		NewBuy(day("2024-01-02"), Q(1), EUR(10), EUR(0)),
		NewBuy(day("2024-01-03"), Q(1), EUR(10), EUR(0)),
		NewSell(day("2024-01-04"), Q(3), EUR(20), EUR(1), EUR(0)),
	}
	r, err := Analyze(txs, Options{Currency: "EUR"})
	if err != nil {
		t.Fatalf("Analyze() failed: %v", err)
	}
	m := r.Matches[0]
	fees := EUR(0)
	for _, s := range m.Slices {
		fees = fees.Add(s.Fees)
	}
	if !fees.Equal(EUR(1)) {
		t.Errorf("slice fees add up to %v, want exactly 1", fees)
	}
	if !m.Gain.Equal(EUR(29)) {
		t.Errorf("Gain = %v, want 29", m.Gain)
	}
}

func TestAnalyze_Oversell(t *testing.T) {
	txs := []Transaction{
		NewBuy(day("2024-01-01"), Q(10), EUR(100), EUR(0)),
		NewBuy(day("2024-02-01"), Q(5), EUR(120), EUR(0)),
		NewSell(day("2024-03-01"), Q(20), EUR(150), EUR(0), EUR(0)),
	}
	r, err := Analyze(txs, Options{Currency: "EUR"})
	if r != nil {
		t.Errorf("Analyze() returned a result on oversell: %+v", r)
	}
	var short *InsufficientPositionError
	if !errors.As(err, &short) {
		t.Fatalf("Analyze() error = %v, want *InsufficientPositionError", err)
	}
	if short.Index != 2 || short.Tx.Side != Sell || !short.Open.Equal(Q(15)) || !short.Shortfall.Equal(Q(5)) {
		t.Errorf("error = %+v", short)
	}
	if !strings.Contains(err.Error(), "short by 5") {
		t.Errorf("error message %q does not name the shortfall", err)
	}
}

func TestAnalyze_MalformedInput(t *testing.T) {
	buy := NewBuy(day("2024-01-01"), Q(10), EUR(100), EUR(0))
	testCases := []struct {
		name      string
		txs       []Transaction
		currency  string
		wantIndex int
	}{
		{
			name: "unsorted",
			txs: []Transaction{
				NewBuy(day("2024-02-01"), Q(10), EUR(100), EUR(0)),
				NewBuy(day("2024-01-01"), Q(10), EUR(100), EUR(0)),
			},
			currency:  "EUR",
			wantIndex: 1,
		},
		{
			name:      "zero quantity",
			txs:       []Transaction{buy, NewSell(day("2024-03-01"), Q(0), EUR(150), EUR(0), EUR(0))},
			currency:  "EUR",
			wantIndex: 1,
		},
		{
			name:     "negative fees",
			txs:      []Transaction{NewBuy(day("2024-01-01"), Q(10), EUR(100), EUR(-1))},
			currency: "EUR",
		},
		{
			name: "tax on a buy",
			txs: []Transaction{func() Transaction {
				tx := buy
				tx.Tax = EUR(1)
				return tx
			}()},
			currency: "EUR",
		},
		{
			name:     "other currency",
			txs:      []Transaction{NewBuy(day("2024-01-01"), Q(10), USD(100), USD(0))},
			currency: "EUR",
		},
		{
			name:      "mixed currencies without label",
			txs:       []Transaction{buy, NewBuy(day("2024-01-02"), Q(10), USD(100), USD(0))},
			wantIndex: 1,
		},
		{
			name:     "missing side",
			txs:      []Transaction{{Date: day("2024-01-01"), Quantity: Q(1), Price: EUR(1)}},
			currency: "EUR",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Analyze(tc.txs, Options{Currency: tc.currency})
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Fatalf("Analyze() error = %v, want *MalformedInputError", err)
			}
			if malformed.Index != tc.wantIndex {
				t.Errorf("error index = %d, want %d", malformed.Index, tc.wantIndex)
			}
		})
	}
}

func TestAnalyze_Conservation(t *testing.T) {
	// money in plus realized gains is money out plus what remains at cost.
	testCases := []struct {
		name string
		txs  []Transaction
	}{
		{
			name: "round trip",
			txs: []Transaction{
				NewBuy(day("2024-01-01"), Q(10), EUR(50), EUR(5)),
				NewSell(day("2024-06-01"), Q(10), EUR(80), EUR(5), EUR(9)),
			},
		},
		{
			name: "open position",
			txs: []Transaction{
				NewBuy(day("2024-01-01"), Q(3), EUR(33.33), EUR(1)),
				NewBuy(day("2024-01-15"), Q(7), EUR(41.1), EUR(2.5)),
				NewSell(day("2024-02-01"), Q(4), EUR(45), EUR(1.25), EUR(0.3)),
				NewBuy(day("2024-03-01"), Q(2.5), EUR(39), EUR(0.99)),
				NewSell(day("2024-04-01"), Q(6.5), EUR(38.2), EUR(3), EUR(0)),
			},
		},
		{
			name: "losses",
			txs: []Transaction{
				NewBuy(day("2024-01-01"), Q(100), EUR(12), EUR(9.9)),
				NewSell(day("2024-01-02"), Q(30), EUR(8), EUR(4.5), EUR(0)),
				NewSell(day("2024-01-03"), Q(30), EUR(7), EUR(4.5), EUR(0)),
			},
		},
	}
	tolerance := decimal.New(1, -9)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Analyze(tc.txs, Options{Currency: "EUR"})
			if err != nil {
				t.Fatalf("Analyze() failed: %v", err)
			}
			balance := r.TotalInvested.Add(r.RealizedGains).Sub(r.TotalWithdrawn).Sub(r.OpenCost)
			if balance.Decimal().Abs().GreaterThan(tolerance) {
				t.Errorf("invested + realized - withdrawn - open cost = %v, want 0", balance.Decimal())
			}
			for _, l := range r.OpenLots {
				if !l.Remaining.IsPositive() || l.Remaining.GreaterThan(l.Original) {
					t.Errorf("lot %d remaining %v out of (0, %v]", l.ID, l.Remaining, l.Original)
				}
			}
		})
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	txs := []Transaction{
		NewBuy(day("2024-01-01"), Q(3), EUR(33.33), EUR(1)),
		NewBuy(day("2024-01-15"), Q(7), EUR(41.1), EUR(2.5)),
		NewSell(day("2024-02-01"), Q(4), EUR(45), EUR(1.25), EUR(0.3)),
	}
	opts := Options{Currency: "EUR", Security: "ACME", CurrentPrice: ptr(EUR(50))}
	first, err := Analyze(txs, opts)
	if err != nil {
		t.Fatalf("Analyze() failed: %v", err)
	}
	second, err := Analyze(txs, opts)
	if err != nil {
		t.Fatalf("Analyze() failed: %v", err)
	}
	if diff := cmp.Diff(first, second, resultComparer); diff != "" {
		t.Errorf("two runs differ (-first +second):\n%s", diff)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Errorf("two runs marshal differently:\n%s\n%s", a, b)
	}
}

func TestAnalyze_UndefinedValues(t *testing.T) {
	t.Run("no transactions", func(t *testing.T) {
		r, err := Analyze(nil, Options{Currency: "EUR"})
		if err != nil {
			t.Fatalf("Analyze() failed: %v", err)
		}
		if r.UnrealizedGains != nil || r.TotalReturn != nil || r.AverageCost != nil {
			t.Errorf("empty run should leave optionals undefined: %+v", r)
		}
	})
	t.Run("closed position with a price", func(t *testing.T) {
		txs := []Transaction{
			NewBuy(day("2024-01-01"), Q(1), EUR(10), EUR(0)),
			NewSell(day("2024-01-02"), Q(1), EUR(12), EUR(0), EUR(0)),
		}
		r, err := Analyze(txs, Options{Currency: "EUR", CurrentPrice: ptr(EUR(20))})
		if err != nil {
			t.Fatalf("Analyze() failed: %v", err)
		}
		if r.UnrealizedGains == nil || !r.UnrealizedGains.IsZero() {
			t.Errorf("UnrealizedGains = %v, want a defined 0", r.UnrealizedGains)
		}
		if r.AverageCost != nil {
			t.Errorf("AverageCost = %v, want undefined", *r.AverageCost)
		}
	})
	t.Run("free shares", func(t *testing.T) {
		txs := []Transaction{NewBuy(day("2024-01-01"), Q(1), EUR(0), EUR(0))}
		r, err := Analyze(txs, Options{Currency: "EUR"})
		if err != nil {
			t.Fatalf("Analyze() failed: %v", err)
		}
		if r.TotalReturn != nil {
			t.Errorf("TotalReturn = %v, want undefined when nothing is invested", *r.TotalReturn)
		}
	})
}

func TestEngine_RunsOnce(t *testing.T) {
	e := NewEngine(Options{Currency: "EUR"})
	if _, err := e.Run(nil); err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}
	if _, err := e.Run(nil); !errors.Is(err, ErrFinalized) {
		t.Errorf("second Run() error = %v, want ErrFinalized", err)
	}
}

func TestEngine_InvalidCurrentPrice(t *testing.T) {
	for _, price := range []Money{EUR(0), EUR(-1), USD(10)} {
		_, err := Analyze(nil, Options{Currency: "EUR", CurrentPrice: ptr(price)})
		if err == nil {
			t.Errorf("Analyze() with current price %v expected an error", price)
		}
	}
}

func TestEngine_CurrentPriceCurrency(t *testing.T) {
	txs := []Transaction{NewBuy(day("2024-01-01"), Q(10), EUR(50), EUR(5))}

	if _, err := Analyze(txs, Options{CurrentPrice: ptr(USD(80))}); err == nil {
		t.Error("Analyze() with a USD price over EUR transactions expected an error")
	}

	for _, price := range []Money{EUR(80), NO(80)} {
		r, err := Analyze(txs, Options{CurrentPrice: ptr(price)})
		if err != nil {
			t.Fatalf("Analyze() with current price %v failed: %v", price, err)
		}
		if r.UnrealizedGains == nil || !r.UnrealizedGains.Equal(EUR(295)) {
			t.Errorf("UnrealizedGains = %v, want 295", r.UnrealizedGains)
		}
	}
}

func TestAnalyze_WholeLotGainIsExact(t *testing.T) {
	txs := []Transaction{
		NewBuy(day("2024-01-01"), Q(3), EUR(50), EUR(5)),
		NewSell(day("2024-02-01"), Q(3), EUR(60), EUR(0), EUR(0)),
	}
	r, err := Analyze(txs, Options{Currency: "EUR"})
	if err != nil {
		t.Fatalf("Analyze() failed: %v", err)
	}
	if !r.RealizedGains.Equal(EUR(25)) {
		t.Errorf("RealizedGains = %v, want exactly 25", r.RealizedGains.Decimal())
	}
	if got := r.Matches[0].Slices[0].Cost; !got.Equal(EUR(155)) {
		t.Errorf("slice cost = %v, want exactly 155", got.Decimal())
	}
}

func TestEngine_Logs(t *testing.T) {
	var b bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}))
	txs := []Transaction{
		NewBuy(day("2024-01-01"), Q(10), EUR(50), EUR(5)),
		NewSell(day("2024-06-01"), Q(10), EUR(80), EUR(5), EUR(9)),
	}
	if _, err := Analyze(txs, Options{Currency: "EUR", Logger: logger}); err != nil {
		t.Fatalf("Analyze() failed: %v", err)
	}
	for _, want := range []string{"msg=buy", "msg=sell", "msg=finalized", "unitCost=50.5"} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("log output does not contain %q:\n%s", want, b.String())
		}
	}
}

func TestAnalysisResult_MarshalJSON(t *testing.T) {
	txs := []Transaction{
		NewBuy(day("2024-01-01"), Q(10), EUR(50), EUR(5)),
		NewSell(day("2024-06-01"), Q(10), EUR(80), EUR(5), EUR(9)),
	}
	r, err := Analyze(txs, Options{Currency: "EUR", Security: "ACME"})
	if err != nil {
		t.Fatalf("Analyze() failed: %v", err)
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	got := string(b)
	for _, want := range []string{
		`{"security":"ACME","currency":"EUR","buys":1,"sells":1,"first":"2024-01-01","last":"2024-06-01",`,
		`"realizedGains":290,`,
		`"netRealizedGains":281,`,
		`"openLots":[]`,
		`"slices":[{"lot":1,"acquired":"2024-01-01","quantity":10,"unitCost":50.5,`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("JSON does not contain %s:\n%s", want, got)
		}
	}
	for _, absent := range []string{"unrealizedGains", "averageCost", "marketValue"} {
		if strings.Contains(got, absent) {
			t.Errorf("JSON contains undefined %q:\n%s", absent, got)
		}
	}
}

// Package normalizer turns a brokerage CSV export into the ordered
// transaction sequence expected by the fifo engine.
//
// It owns every locale heuristic: delimiter, decimal separator, German or
// English column names, date layouts and sign conventions. Rows that are
// neither a buy nor a sell (dividends, deposits, ...) are skipped.
package normalizer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/fifo"
	"github.com/etnz/fifo/date"
	"github.com/shopspring/decimal"
)

// Options tunes the heuristics.
type Options struct {
	Currency string // Currency labels every amount read.
	DayFirst bool   // DayFirst reads 01/02/2006 as the 1st of February.
	Comma    rune   // Comma forces the delimiter, 0 to detect it.
}

// Result is a normalized export.
type Result struct {
	Transactions []fifo.Transaction // sorted by date, file order within a day.
	Security     string             // Security is the first name found in the file, if any.
	Dialect      Dialect
	Skipped      int // Skipped counts rows that are neither a buy nor a sell.
}

// LineError reports a row that cannot be read.
type LineError struct {
	Line int // 1-based line in the file.
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }

// ErrNoTransactions is returned when the file holds no buy or sell row.
var ErrNoTransactions = errors.New("no buy or sell transaction found")

// layouts returns the date layouts tried, in order.
func (o Options) layouts() []string {
	l := []string{"2006-01-02", "2006-1-2", "2006/01/02", "02.01.2006", "2.1.2006", "02.01.06"}
	if o.DayFirst {
		return append(l, "02/01/2006", "2/1/2006", "02-01-2006")
	}
	return append(l, "01/02/2006", "1/2/2006", "01-02-2006")
}

// Normalize reads a CSV export from r.
//
// Every unreadable row is reported, joined in the returned error as
// *LineError values.
func Normalize(r io.Reader, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read export: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	res := &Result{}
	res.Dialect.Delimiter = opts.Comma
	if res.Dialect.Delimiter == 0 {
		res.Dialect.Delimiter = detectDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = res.Dialect.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx, language := mapHeader(header)
	res.Dialect.Language = language
	if idx[colDate] < 0 {
		return nil, fmt.Errorf("no date column in header %q", header)
	}
	if idx[colQuantity] < 0 {
		return nil, fmt.Errorf("no quantity column in header %q", header)
	}
	if idx[colPrice] < 0 && idx[colAmount] < 0 {
		return nil, fmt.Errorf("neither a price nor an amount column in header %q", header)
	}

	type row struct {
		line   int
		fields []string
	}
	var rows []row
	var numbers []string
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(fields) {
			continue
		}
		rows = append(rows, row{line: line, fields: fields})
		for _, c := range []column{colQuantity, colPrice, colFees, colTax, colAmount} {
			numbers = append(numbers, cell(fields, idx[c]))
		}
	}
	res.Dialect.DecimalComma = detectDecimalComma(numbers, res.Dialect.Delimiter)

	p := rowParser{idx: idx, opts: opts, decimalComma: res.Dialect.DecimalComma, layouts: opts.layouts()}
	var errs error
	for _, rw := range rows {
		tx, ok, err := p.parse(rw.fields)
		if err != nil {
			errs = errors.Join(errs, &LineError{Line: rw.line, Err: err})
			continue
		}
		if !ok {
			res.Skipped++
			continue
		}
		if res.Security == "" {
			res.Security = strings.TrimSpace(cell(rw.fields, idx[colName]))
		}
		res.Transactions = append(res.Transactions, tx)
	}
	if errs != nil {
		return nil, errs
	}
	if len(res.Transactions) == 0 {
		return nil, ErrNoTransactions
	}
	fifo.SortTransactions(res.Transactions)
	return res, nil
}

// rowParser converts a record into a transaction.
type rowParser struct {
	idx          [numColumns]int
	opts         Options
	decimalComma bool
	layouts      []string
}

// parse returns false when the row is neither a buy nor a sell.
func (p rowParser) parse(fields []string) (tx fifo.Transaction, ok bool, err error) {
	num := func(c column) (decimal.Decimal, error) {
		return parseNumber(cell(fields, p.idx[c]), p.decimalComma)
	}

	quantity, err := num(colQuantity)
	if err != nil {
		return tx, false, err
	}

	var side fifo.Side
	if p.idx[colSide] >= 0 {
		buy, sell := sideWord(cell(fields, p.idx[colSide]))
		switch {
		case buy:
			side = fifo.Buy
		case sell:
			side = fifo.Sell
		default:
			return tx, false, nil
		}
	} else {
		// no side column, the export signs the quantity.
		switch quantity.Sign() {
		case 1:
			side = fifo.Buy
		case -1:
			side = fifo.Sell
		default:
			return tx, false, nil
		}
	}
	quantity = quantity.Abs()
	if quantity.IsZero() {
		return tx, false, fmt.Errorf("%s without quantity", side)
	}

	on, err := date.ParseAny(cell(fields, p.idx[colDate]), p.layouts...)
	if err != nil {
		return tx, false, err
	}

	price, err := num(colPrice)
	if err != nil {
		return tx, false, err
	}
	if price.IsZero() && p.idx[colAmount] >= 0 {
		// the amount is quantity times price, fees excluded.
		amount, err := num(colAmount)
		if err != nil {
			return tx, false, err
		}
		price = amount.Abs().Div(quantity)
	}
	fees, err := num(colFees)
	if err != nil {
		return tx, false, err
	}
	tax, err := num(colTax)
	if err != nil {
		return tx, false, err
	}

	cur := p.opts.Currency
	fees, tax = fees.Abs(), tax.Abs()
	if side == fifo.Buy {
		// a tax on a purchase is a cost of the lot.
		fees, tax = fees.Add(tax), decimal.Zero
	}
	tx = fifo.Transaction{
		Date:     on,
		Side:     side,
		Quantity: fifo.Q(quantity),
		Price:    fifo.M(price.Abs(), cur),
		Fees:     fifo.M(fees, cur),
		Tax:      fifo.M(tax, cur),
		Memo:     strings.TrimSpace(cell(fields, p.idx[colMemo])),
	}
	return tx, true, nil
}

// cell returns fields[i] or "" when i is out of range.
func cell(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

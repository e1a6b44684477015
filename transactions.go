package fifo

import (
	"encoding/json"
	"fmt"

	"github.com/etnz/fifo/date"
	"github.com/shopspring/decimal"
)

// Transaction is a single buy or sell of the analysed security.
//
// Transactions are values: the engine reads them and never modifies them.
type Transaction struct {
	Date     date.Date // Date is the ordering key.
	Side     Side      // Side is either Buy or Sell.
	Quantity Quantity  // Quantity is the number of units traded, always positive.
	Price    Money     // Price is the unit price.
	Fees     Money     // Fees increase the cost of a buy and reduce the proceeds of a sell.
	Tax      Money     // Tax withheld on a sell.
	Memo     string    // Memo is a free text carried from the source, if any.
}

// NewBuy creates a new Buy transaction.
func NewBuy(day date.Date, quantity Quantity, price, fees Money) Transaction {
	return Transaction{
		Date:     day,
		Side:     Buy,
		Quantity: quantity,
		Price:    price,
		Fees:     fees,
		Tax:      M(0, price.Currency()),
	}
}

// NewSell creates a new Sell transaction.
func NewSell(day date.Date, quantity Quantity, price, fees, tax Money) Transaction {
	return Transaction{
		Date:     day,
		Side:     Sell,
		Quantity: quantity,
		Price:    price,
		Fees:     fees,
		Tax:      tax,
	}
}

// Amount returns quantity times price, fees excluded.
func (t Transaction) Amount() Money { return t.Price.Mul(t.Quantity) }

// Cost returns the cash spent by a buy, fees included.
func (t Transaction) Cost() Money { return t.Amount().Add(t.Fees) }

// Proceeds returns the cash received by a sell, net of fees (tax is accounted separately).
func (t Transaction) Proceeds() Money { return t.Amount().Sub(t.Fees) }

// Currency returns the first currency label found on the transaction amounts.
func (t Transaction) Currency() string {
	for _, m := range []Money{t.Price, t.Fees, t.Tax} {
		if m.Currency() != "" {
			return m.Currency()
		}
	}
	return ""
}

// String returns a short human description used in error messages.
func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s @ %s", t.Date, t.Side, t.Quantity, t.Price)
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
//
// Amounts are plain numbers, the currency is written once.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", t.Date)
	w.Append("side", t.Side)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	if !t.Fees.IsZero() {
		w.Append("fees", t.Fees)
	}
	if !t.Tax.IsZero() {
		w.Append("tax", t.Tax)
	}
	w.Optional("currency", t.Currency())
	w.Optional("memo", t.Memo)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp struct {
		Date     date.Date       `json:"date"`
		Side     Side            `json:"side"`
		Quantity decimal.Decimal `json:"quantity"`
		Price    decimal.Decimal `json:"price"`
		Fees     decimal.Decimal `json:"fees"`
		Tax      decimal.Decimal `json:"tax"`
		Currency string          `json:"currency"`
		Memo     string          `json:"memo"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = Transaction{
		Date:     temp.Date,
		Side:     temp.Side,
		Quantity: Q(temp.Quantity),
		Price:    M(temp.Price, temp.Currency),
		Fees:     M(temp.Fees, temp.Currency),
		Tax:      M(temp.Tax, temp.Currency),
		Memo:     temp.Memo,
	}
	return nil
}

package fifo

// ValidateSequence checks the engine input contract and returns a
// *MalformedInputError for the first transaction that breaks it.
//
// currency is the run label: a transaction carrying another non empty
// currency is rejected, there is no conversion.
func ValidateSequence(txs []Transaction, currency string) error {
	for i, tx := range txs {
		fail := func(reason string) error {
			return &MalformedInputError{Index: i, Tx: tx, Reason: reason}
		}
		switch {
		case tx.Side != Buy && tx.Side != Sell:
			return fail("unknown side")
		case tx.Date.IsZero():
			return fail("missing date")
		case !tx.Quantity.IsPositive():
			return fail("quantity must be positive")
		case tx.Price.IsNegative():
			return fail("price must not be negative")
		case tx.Fees.IsNegative():
			return fail("fees must not be negative")
		case tx.Tax.IsNegative():
			return fail("tax must not be negative")
		case tx.Side == Buy && !tx.Tax.IsZero():
			return fail("tax withheld is only allowed on a sell")
		}
		for _, m := range []Money{tx.Price, tx.Fees, tx.Tax} {
			if m.Currency() != "" && currency != "" && m.Currency() != currency {
				return fail("currency " + m.Currency() + " differs from " + currency)
			}
		}
		if tx.Currency() != "" && currency == "" {
			// every amount has to share the transaction currency.
			for _, m := range []Money{tx.Price, tx.Fees, tx.Tax} {
				if m.Currency() != "" && m.Currency() != tx.Currency() {
					return fail("mixed currencies in transaction")
				}
			}
		}
		if i > 0 && tx.Date.Before(txs[i-1].Date) {
			return fail("not sorted by date, previous transaction is on " + txs[i-1].Date.String())
		}
	}
	if currency == "" {
		// without a label, all transactions must at least agree with each other.
		var first string
		for i, tx := range txs {
			c := tx.Currency()
			if c == "" {
				continue
			}
			if first == "" {
				first = c
				continue
			}
			if c != first {
				return &MalformedInputError{Index: i, Tx: tx, Reason: "currency " + c + " differs from " + first}
			}
		}
	}
	return nil
}

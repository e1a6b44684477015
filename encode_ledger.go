package fifo

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// This file contains the ledger format: a JSONL stream, one transaction per line.
// It should remain human readable and git friendly.

// DecodeLedger decodes transactions from a stream of JSONL data and returns
// them sorted by date, transactions on the same day keep their file order.
func DecodeLedger(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var tx Transaction
		if err := json.Unmarshal(lineBytes, &tx); err != nil {
			return nil, fmt.Errorf("format error on line %d %q: %w", line, string(lineBytes), err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read ledger: %w", err)
	}
	SortTransactions(txs)
	return txs, nil
}

// EncodeLedger writes transactions to w in the JSONL ledger format.
func EncodeLedger(w io.Writer, txs []Transaction) error {
	for _, tx := range txs {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// EncodeTransaction writes a single transaction as one JSONL line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	line, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("cannot encode transaction %s: %w", tx, err)
	}
	line = append(line, '\n')
	_, err = w.Write(line)
	return err
}

// SortTransactions sorts txs by date in place, keeping the relative order of
// transactions on the same day.
func SortTransactions(txs []Transaction) {
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		return a.Date.Compare(b.Date)
	})
}

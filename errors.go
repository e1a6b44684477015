package fifo

import (
	"errors"
	"fmt"
)

// ErrFinalized is returned when an Engine that already ran is asked to run again.
var ErrFinalized = errors.New("engine already finalized, create a new one")

// MalformedInputError reports a transaction that breaks the input contract:
// unsorted dates, non positive quantity, negative amounts and the like.
// It is detected before any lot is touched.
type MalformedInputError struct {
	Index  int // Index of the offending transaction in the input.
	Tx     Transaction
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed transaction #%d (%s): %s", e.Index+1, e.Tx, e.Reason)
}

// InsufficientPositionError reports a sell larger than the open position.
type InsufficientPositionError struct {
	Index     int // Index of the sell in the input.
	Tx        Transaction
	Open      Quantity // Open is the position held before the sell.
	Shortfall Quantity // Shortfall is the quantity sold but not held.
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("transaction #%d (%s): selling %s but only %s held, short by %s",
		e.Index+1, e.Tx, e.Tx.Quantity, e.Open, e.Shortfall)
}

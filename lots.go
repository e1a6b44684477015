package fifo

import (
	"github.com/etnz/fifo/date"
)

// Lot represents a single purchase of the security, used for cost basis calculations.
type Lot struct {
	ID        int       // ID is the 1-based acquisition order of the lot.
	Date      date.Date // Date of acquisition.
	Original  Quantity  // Original is the quantity bought.
	Remaining Quantity  // Remaining is the quantity not yet sold.
	UnitCost  Money     // UnitCost is the unit price plus the buy fees per unit.

	cost Money // cost basis of the remaining quantity, exact.
}

// Cost returns the cost basis of the remaining quantity.
func (l Lot) Cost() Money { return l.cost }

// consumption is the part of a lot taken by a sell.
type consumption struct {
	lot      Lot // lot as it was before the sell.
	quantity Quantity
	cost     Money // cost basis of quantity.
}

// LotQueue holds the open lots in acquisition order.
// Its zero value is an empty queue ready to use.
type LotQueue struct {
	lots []Lot
	seq  int // last lot ID handed out.
}

// Push appends a new lot of quantity bought for cost, fees included, at the
// tail of the queue and returns it.
func (q *LotQueue) Push(on date.Date, quantity Quantity, cost Money) Lot {
	q.seq++
	l := Lot{
		ID:        q.seq,
		Date:      on,
		Original:  quantity,
		Remaining: quantity,
		UnitCost:  cost.Div(quantity),
		cost:      cost,
	}
	q.lots = append(q.lots, l)
	return l
}

// Len returns the number of open lots.
func (q *LotQueue) Len() int { return len(q.lots) }

// Open returns the total remaining quantity.
func (q *LotQueue) Open() Quantity {
	var open Quantity
	for _, l := range q.lots {
		open = open.Add(l.Remaining)
	}
	return open
}

// Cost returns the cost basis of all open lots.
func (q *LotQueue) Cost() Money {
	var cost Money
	for _, l := range q.lots {
		cost = cost.Add(l.Cost())
	}
	return cost
}

// AverageCost returns the quantity weighted unit cost of the open lots, or
// false when nothing is open.
func (q *LotQueue) AverageCost() (Money, bool) {
	open := q.Open()
	if open.IsZero() {
		return Money{}, false
	}
	return q.Cost().Div(open), true
}

// Lots returns a copy of the open lots, oldest first.
func (q *LotQueue) Lots() []Lot {
	out := make([]Lot, len(q.lots))
	copy(out, q.lots)
	return out
}

// consume takes quantity from the oldest lots first and drops exhausted
// lots from the head.
//
// When the queue holds less than quantity it returns an
// *InsufficientPositionError and leaves the queue untouched.
func (q *LotQueue) consume(quantity Quantity) ([]consumption, error) {
	if open := q.Open(); open.LessThan(quantity) {
		return nil, &InsufficientPositionError{Open: open, Shortfall: quantity.Sub(open)}
	}

	var taken []consumption
	left := quantity
	for left.IsPositive() {
		head := &q.lots[0]
		n := MinQuantity(head.Remaining, left)
		// a slice emptying the lot takes its remaining cost.
		cost := head.cost
		if n.LessThan(head.Remaining) {
			cost = head.UnitCost.Mul(n)
		}
		taken = append(taken, consumption{lot: *head, quantity: n, cost: cost})

		head.Remaining = head.Remaining.Sub(n)
		head.cost = head.cost.Sub(cost)
		left = left.Sub(n)
		if head.Remaining.IsZero() {
			q.lots = q.lots[1:]
		}
	}
	if len(q.lots) == 0 {
		q.lots = nil
	}
	return taken, nil
}

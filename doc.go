// Package fifo analyzes the position in a single security with FIFO lot
// accounting.
//
// Buys open lots whose unit cost includes the purchase fees. Sells consume the
// oldest open lots first, each matched part of a sell being recorded as a
// Slice of a MatchEvent. An Engine folds an ordered Transaction sequence into
// an AnalysisResult:
//   - cash flows: total invested, total withdrawn, net cash flow,
//   - realized gains, before and after the taxes withheld,
//   - the open position, its cost, average cost and, given a current price,
//     its market value and unrealized gains.
//
// Values that cannot be defined are nil pointers in the result, never zero.
//
// Transactions are usually read from a JSONL ledger with DecodeLedger, or from
// a brokerage CSV export with the normalizer package. The renderer package
// formats a result as markdown.
package fifo

package ledger

import "fmt"

// Position is the net outcome of replaying an active transaction sequence:
// quantity held and the weighted-average acquisition price of those units.
type Position struct {
	Quantity float64
	AvgCost  float64
}

// Held reports whether the position is non-empty.
func (p Position) Held() bool {
	return p.Quantity > 0
}

// Replay folds an ordered sequence of active transactions for one
// (portfolio, instrument) into a Position. It is a pure function: repeated
// calls over the same sequence return identical results.
//
// Buys and corporate-action rows move the weighted average; sells only reduce
// quantity. The input must be ordered ascending by (occurred_on, id). If the
// held quantity would go negative at any step, Replay returns ErrConsistency
// identifying the offending row; it never clamps.
func Replay(txs []*Transaction) (Position, error) {
	var pos Position

	for _, tx := range txs {
		if tx.Kind.IsAcquisition() {
			total := pos.Quantity + tx.Quantity
			pos.AvgCost = (pos.AvgCost*pos.Quantity + tx.Price*tx.Quantity) / total
			pos.Quantity = total

			continue
		}

		pos.Quantity -= tx.Quantity
		if pos.Quantity < 0 {
			return Position{}, fmt.Errorf("transaction %d on %s: %w",
				tx.ID, tx.OccurredOn.Format("2006-01-02"), ErrConsistency)
		}
	}

	return pos, nil
}

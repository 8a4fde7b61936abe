package negotiate

// #region imports
import (
	"context"

	"github.com/synklabs/ordergate/internal/consensus"
	"github.com/synklabs/ordergate/internal/order"
)

// #endregion

// #region round-summary

// RoundSummary is the immutable record of one completed round: the exact
// request evaluated, the five gate results, and the aggregated outcome.
// Summaries are appended to the history and never edited afterwards.
type RoundSummary struct {
	RoundNumber int               `json:"round_number"`
	Request     order.Request     `json:"order"`
	Gates       consensus.GateSet `json:"gates"`
	Consensus   consensus.Result  `json:"consensus"`
}

// #endregion

// #region result

// Result is the full outcome of a bounded negotiation.
type Result struct {
	OrderID   string           `json:"order_id"`
	Rounds    []RoundSummary   `json:"rounds"`
	Consensus consensus.Result `json:"consensus"`
}

// FinalRequest returns the order terms evaluated in the last round.
func (r Result) FinalRequest() order.Request {
	if len(r.Rounds) == 0 {
		return order.Request{}
	}
	return r.Rounds[len(r.Rounds)-1].Request
}

// #endregion

// #region recorder

// Recorder persists a finished negotiation. A nil recorder skips persistence.
type Recorder interface {
	RecordNegotiation(ctx context.Context, res Result) error
}

// #endregion

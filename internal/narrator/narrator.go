// Package narrator enriches gate reasoning text. A narrator may only append
// or rewrite the human-facing reasoning string; it never touches the boolean
// or numeric fields of a verdict, so the deterministic decision stands with
// or without one.
package narrator

// #region imports
import (
	"fmt"

	"github.com/synklabs/ordergate/internal/gates"
	"github.com/synklabs/ordergate/internal/order"
)

// #endregion

// #region interface

// Narrator produces the enriched reasoning line for one gate verdict.
// Returning an empty string keeps the verdict's own reasoning.
type Narrator interface {
	Narrate(req order.Request, v gates.Verdict) string
}

// Apply runs the narrator over a verdict and returns the verdict with its
// reasoning replaced when the narrator produced text.
func Apply(n Narrator, req order.Request, v gates.Verdict) gates.Verdict {
	if n == nil {
		return v
	}
	if text := n.Narrate(req, v); text != "" {
		v.Reasoning = text
	}
	return v
}

// #endregion

// #region noop

// Noop leaves every verdict untouched.
type Noop struct{}

func (Noop) Narrate(order.Request, gates.Verdict) string { return "" }

// #endregion

// #region template

// Template writes a per-round position line in front of the gate's own
// reasoning. It is the deterministic stand-in for an external narrative
// service.
type Template struct{}

func (Template) Narrate(req order.Request, v gates.Verdict) string {
	ctx := req.EnsureContext()
	stance := "approves"
	if !v.CanProceed {
		stance = "blocks"
	}
	return fmt.Sprintf("Round %d: %s %s the proposal. %s", ctx.RoundNumber, v.Gate, stance, v.Reasoning)
}

// #endregion

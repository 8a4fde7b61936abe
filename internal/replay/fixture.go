package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/synklabs/ordergate/internal/order"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a batch of
// recorded orders with the outcome each is expected to reach.
type Fixture struct {
	Description string        `json:"description"`
	Orders      []FixtureCase `json:"orders"`
}

// FixtureCase pairs one order with its expected negotiation outcome.
type FixtureCase struct {
	Name     string          `json:"name"`
	Order    order.Request   `json:"order"`
	Expected ExpectedOutcome `json:"expected"`
}

// ExpectedOutcome captures the assertions for one case. Zero-valued fields
// are not checked, so fixtures only pin what they care about.
type ExpectedOutcome struct {
	Decision      string   `json:"decision"`
	RoundsUsed    int      `json:"rounds_used,omitempty"`
	BlockingGates []string `json:"blocking_gates,omitempty"`
	FinalPrice    float64  `json:"final_price,omitempty"`
	FinalQuantity int      `json:"final_quantity,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Orders) == 0 {
		return nil, fmt.Errorf("fixture %s contains no orders", path)
	}
	return &f, nil
}

// #endregion fixture-loader

// Package analysis produces short LLM commentary for completed sells. It is
// an optional enrichment: callers must treat failures as degradable and fall
// back to a placeholder rather than blocking the sell recording.
package analysis

import (
	"context"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

// Placeholder is the text callers substitute when analysis fails or is
// disabled.
const Placeholder = "AI analysis unavailable."

// Analyzer generates a one-sentence review of a sell.
type Analyzer interface {
	AnalyzeSell(ctx context.Context, trade *models.Trade, sellPrice float64, sellQuantity int) (string, error)
}

// Noop is the analyzer used when analysis is disabled in config.
type Noop struct{}

// AnalyzeSell always returns the placeholder text.
func (Noop) AnalyzeSell(context.Context, *models.Trade, float64, int) (string, error) {
	return Placeholder, nil
}

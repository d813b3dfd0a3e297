package analysis

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

// BreakerAnalyzer wraps an Analyzer with a circuit breaker so a flapping
// API fails fast instead of delaying every sell until its timeout.
type BreakerAnalyzer struct {
	inner   Analyzer
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings configures circuit breaker behavior.
type BreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// NewBreakerAnalyzer wraps inner with sensible defaults.
func NewBreakerAnalyzer(inner Analyzer) *BreakerAnalyzer {
	return NewBreakerAnalyzerWithSettings(inner, BreakerSettings{
		MaxRequests:  2,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	})
}

// NewBreakerAnalyzerWithSettings wraps inner with custom settings.
func NewBreakerAnalyzerWithSettings(inner Analyzer, settings BreakerSettings) *BreakerAnalyzer {
	gbSettings := gobreaker.Settings{
		Name:        "AnalysisCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	}

	return &BreakerAnalyzer{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// AnalyzeSell runs the wrapped analyzer through the breaker.
func (b *BreakerAnalyzer) AnalyzeSell(ctx context.Context, trade *models.Trade, sellPrice float64, sellQuantity int) (string, error) {
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.AnalyzeSell(ctx, trade, sellPrice, sellQuantity)
	})
	if err != nil {
		return "", err
	}
	out, ok := res.(string)
	if !ok {
		return "", errors.New("analysis: type assertion failed")
	}
	return out, nil
}

// Package bot composes storage, ledger, stats and analysis into the command
// service behind the chat surface: record a buy (merging into an open
// position when one matches), record a sell, list and delete trades, and
// produce the daily summary.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/eddiefleurent/trade_scribe/internal/analysis"
	"github.com/eddiefleurent/trade_scribe/internal/ledger"
	"github.com/eddiefleurent/trade_scribe/internal/models"
	"github.com/eddiefleurent/trade_scribe/internal/notify"
	"github.com/eddiefleurent/trade_scribe/internal/render"
	"github.com/eddiefleurent/trade_scribe/internal/stats"
	"github.com/eddiefleurent/trade_scribe/internal/storage"
)

// ErrValidation is returned for bad numeric or date input rejected before it
// reaches the ledger.
var ErrValidation = errors.New("validation failed")

// Service is the command service. All writes go through a bounded
// read-modify-write retry: a revision conflict from the store triggers a
// re-fetch and recompute rather than an overwrite.
type Service struct {
	store        storage.Interface
	analyzer     analysis.Analyzer
	notifier     notify.Notifier
	logger       *log.Logger
	writeRetries int
	summaryUsers []string
}

// Option configures a Service.
type Option func(*Service)

// WithWriteRetries bounds conflict retries (default 3).
func WithWriteRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.writeRetries = n
		}
	}
}

// WithSummaryUsers restricts the daily summary to the given user ids.
func WithSummaryUsers(users []string) Option {
	return func(s *Service) { s.summaryUsers = users }
}

// WithNotifier sets where buy/sell alerts and summaries are published.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService builds the command service.
func NewService(store storage.Interface, analyzer analysis.Analyzer, logger *log.Logger, opts ...Option) *Service {
	if analyzer == nil {
		analyzer = analysis.Noop{}
	}
	s := &Service{
		store:        store,
		analyzer:     analyzer,
		logger:       logger,
		writeRetries: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuyRequest describes a reported buy. Contract may carry the combined
// "CALL $150 05/17" form, in which case Expiration must be empty and the
// last field is taken as the expiration token.
type BuyRequest struct {
	UserID     string  `json:"user_id"`
	Symbol     string  `json:"symbol"`
	Contract   string  `json:"contract"`
	Expiration string  `json:"expiration,omitempty"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Notes      string  `json:"notes,omitempty"`
}

// BuyResult is the outcome of a recorded buy.
type BuyResult struct {
	Trade            models.Trade `json:"trade"`
	Merged           bool         `json:"merged"`
	PreviousAvgPrice float64      `json:"previous_avg_price,omitempty"`
	AddedQuantity    int          `json:"added_quantity"`
	AddedPrice       float64      `json:"added_price"`
	DayStats         stats.Stats  `json:"day_stats"`
}

// RecordBuy validates the request, merges it into a matching open position
// or opens a new one, and persists the result.
func (s *Service) RecordBuy(ctx context.Context, req BuyRequest) (*BuyResult, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if req.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrValidation)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	rawContract, expToken := req.Contract, req.Expiration
	if expToken == "" {
		var err error
		rawContract, expToken, err = ledger.SplitContractExpiration(req.Contract)
		if err != nil {
			return nil, err
		}
	}

	contract, err := ledger.ParseContract(rawContract)
	if err != nil {
		return nil, err
	}
	expiration, err := ledger.ParseExpiration(expToken)
	if err != nil {
		return nil, err
	}
	// Policy check: the parser only decodes formats.
	if models.DaysBetween(time.Now().UTC(), expiration) < 0 {
		return nil, fmt.Errorf("%w: expiration date cannot be in the past", ErrValidation)
	}

	result := &BuyResult{AddedQuantity: req.Quantity, AddedPrice: req.Price}
	err = s.withConflictRetry(ctx, "record buy", func() error {
		open, err := s.store.GetOpenTrades(req.UserID)
		if err != nil {
			return err
		}

		if existing := ledger.FindMergeCandidate(open, req.UserID, req.Symbol, contract, expiration); existing != nil {
			merged, err := ledger.MergeBuy(*existing, req.Price, req.Quantity, req.Notes)
			if err != nil {
				return err
			}
			if err := s.store.Update(&merged); err != nil {
				return err
			}
			result.Trade = merged
			result.Merged = true
			result.PreviousAvgPrice = existing.BuyPrice
			return nil
		}

		rec := ledger.New(req.UserID, req.Symbol, contract, expiration, req.Price, req.Quantity, req.Notes)
		if err := s.store.Insert(&rec); err != nil {
			return err
		}
		result.Trade = rec
		result.Merged = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.DayStats = s.dayStats(req.UserID)
	s.announce(ctx, render.BuyAlert(result.Trade, result.Merged, result.PreviousAvgPrice,
		req.Price, req.Quantity, result.DayStats))
	return result, nil
}

// SellRequest describes a reported sell against an existing trade.
type SellRequest struct {
	UserID   string  `json:"user_id"`
	TradeID  string  `json:"trade_id"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Notes    string  `json:"notes,omitempty"`
}

// SellResult is the outcome of a recorded sell.
type SellResult struct {
	Trade         models.Trade `json:"trade"`
	Profit        float64      `json:"profit"`
	ProfitPercent float64      `json:"profit_percent"`
	Remaining     int          `json:"remaining"`
	Closed        bool         `json:"closed"`
	Commentary    string       `json:"commentary"`
	DayStats      stats.Stats  `json:"day_stats"`
}

// RecordSell applies a sell to the referenced trade and persists it. LLM
// commentary is best effort: any analyzer failure degrades to the
// placeholder text and never blocks the recording.
func (s *Service) RecordSell(ctx context.Context, req SellRequest) (*SellResult, error) {
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	result := &SellResult{}
	err := s.withConflictRetry(ctx, "record sell", func() error {
		existing, err := s.store.GetTrade(req.TradeID)
		if err != nil {
			return err
		}
		if req.UserID != "" && existing.UserID != req.UserID {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, req.TradeID)
		}

		updated, err := ledger.ApplySell(*existing, req.Price, req.Quantity)
		if err != nil {
			return err
		}
		if req.Notes != "" {
			updated.Notes = req.Notes
		}
		if err := s.store.Update(&updated); err != nil {
			return err
		}

		result.Trade = updated
		result.Profit = (req.Price - existing.BuyPrice) * float64(req.Quantity) * models.SharesPerContract
		basis := existing.BuyPrice * float64(req.Quantity) * models.SharesPerContract
		if basis != 0 {
			result.ProfitPercent = result.Profit / basis * 100
		}
		result.Remaining = updated.Remaining()
		result.Closed = !updated.IsOpen
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Commentary = s.commentary(ctx, &result.Trade, req.Price, req.Quantity)
	result.DayStats = s.dayStats(result.Trade.UserID)
	s.announce(ctx, render.SellAlert(result.Trade, req.Price, req.Quantity,
		result.Profit, result.ProfitPercent, result.Commentary))
	return result, nil
}

// announce publishes an alert. Delivery failure never fails the recording.
func (s *Service) announce(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, text); err != nil {
		s.logger.Printf("Failed to publish announcement: %v", err)
	}
}

func (s *Service) commentary(ctx context.Context, trade *models.Trade, price float64, quantity int) string {
	text, err := s.analyzer.AnalyzeSell(ctx, trade, price, quantity)
	if err != nil {
		s.logger.Printf("Sell analysis failed for trade %s: %v", trade.ID, err)
		return analysis.Placeholder
	}
	return text
}

func (s *Service) dayStats(userID string) stats.Stats {
	trades, err := s.store.GetTrades(userID)
	if err != nil {
		s.logger.Printf("Quick stats fetch failed for user %s: %v", userID, err)
		return stats.Stats{}
	}
	return stats.Daily(trades, time.Now().UTC())
}

// OpenTrades lists the user's open positions, oldest first.
func (s *Service) OpenTrades(userID string) ([]models.Trade, error) {
	return s.store.GetOpenTrades(userID)
}

// AllTrades lists every trade the user has recorded, oldest first.
func (s *Service) AllTrades(userID string) ([]models.Trade, error) {
	return s.store.GetTrades(userID)
}

// DailyStats computes the user's stats for today.
func (s *Service) DailyStats(userID string) (stats.Stats, error) {
	trades, err := s.store.GetTrades(userID)
	if err != nil {
		return stats.Stats{}, err
	}
	return stats.Daily(trades, time.Now().UTC()), nil
}

// DeleteTrade removes one trade, retrying the fetch-then-delete on conflict.
func (s *Service) DeleteTrade(ctx context.Context, userID, id string) error {
	return s.withConflictRetry(ctx, "delete trade", func() error {
		existing, err := s.store.GetTrade(id)
		if err != nil {
			return err
		}
		if userID != "" && existing.UserID != userID {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
		return s.store.Delete(id, existing.Revision)
	})
}

// DeleteUserTrades removes every trade the user has recorded.
func (s *Service) DeleteUserTrades(userID string) (int, error) {
	return s.store.DeleteUserTrades(userID)
}

// DailySummary renders today's summary across users. With no configured
// restriction it aggregates every user found in the store.
func (s *Service) DailySummary(ctx context.Context) (string, error) {
	users := s.summaryUsers
	if len(users) == 0 {
		var err error
		users, err = s.store.ListUsers()
		if err != nil {
			return "", fmt.Errorf("listing users: %w", err)
		}
	}

	all := make([]models.Trade, 0)
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		trades, err := s.store.GetTrades(u)
		if err != nil {
			return "", fmt.Errorf("fetching trades for %s: %w", u, err)
		}
		all = append(all, trades...)
	}

	report := stats.Summarize(all, time.Now().UTC())
	return render.DailySummary(report), nil
}

// PublishDailySummary renders today's summary and publishes it. Invoked by
// the scheduler at the configured wall-clock time.
func (s *Service) PublishDailySummary(ctx context.Context) error {
	text, err := s.DailySummary(ctx)
	if err != nil {
		return err
	}
	if s.notifier == nil {
		s.logger.Printf("Daily summary:\n%s", text)
		return nil
	}
	return s.notifier.Publish(ctx, text)
}

// withConflictRetry runs op, re-running the whole read-modify-write when it
// fails with storage.ErrConflict, up to the configured attempt budget. The
// final conflict is surfaced to the caller.
func (s *Service) withConflictRetry(ctx context.Context, what string, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < s.writeRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s canceled: %w", what, err)
		}
		if attempt > 0 {
			s.logger.Printf("Retrying %s after revision conflict (attempt %d/%d)", what, attempt+1, s.writeRetries)
			time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
		}

		lastErr = op()
		if lastErr == nil || !errors.Is(lastErr, storage.ErrConflict) {
			return lastErr
		}
	}
	return fmt.Errorf("%s: retries exhausted: %w", what, lastErr)
}

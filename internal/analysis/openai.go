package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eddiefleurent/trade_scribe/internal/models"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIAnalyzer asks an OpenAI chat-completion model for a one-sentence
// trade review.
type OpenAIAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIAnalyzer builds an analyzer for the given model. baseURL may be
// empty to use the public API endpoint.
func NewOpenAIAnalyzer(apiKey, model, baseURL string) (*OpenAIAnalyzer, error) {
	if apiKey == "" {
		return nil, errors.New("analysis: missing API key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIAnalyzer{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// AnalyzeSell returns a brief commentary on the sell's performance.
func (a *OpenAIAnalyzer) AnalyzeSell(ctx context.Context, trade *models.Trade, sellPrice float64, sellQuantity int) (string, error) {
	profit := (sellPrice - trade.BuyPrice) * float64(sellQuantity) * models.SharesPerContract
	basis := trade.BuyPrice * float64(sellQuantity) * models.SharesPerContract
	pct := 0.0
	if basis != 0 {
		pct = profit / basis * 100
	}
	sign := ""
	if profit >= 0 {
		sign = "+"
	}

	prompt := fmt.Sprintf(`Analyze this stock option trade:
Stock: %s
Contract: %s
Buy Price: $%.2f
Sell Price: $%.2f
Quantity: %d
Profit/Loss: %s$%.2f (%.2f%%)

Provide a brief, one-sentence analysis of this trade focusing on the performance and any notable aspects.`,
		trade.Symbol, trade.Contract, trade.BuyPrice, sellPrice, sellQuantity, sign, profit, pct)

	body := map[string]any{
		"model":       a.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens":  100,
		"temperature": 0.7,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("analysis: http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("analysis: no choices in response")
	}

	out := strings.TrimSpace(r.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("analysis: empty response")
	}
	return out, nil
}

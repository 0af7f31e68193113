package signalfeed

// http.go — HTTP client for the signal-generation service.
//
// The service is an opaque producer of scored signals; this adapter only
// knows its wire format. Unavailability is reported as an error and the
// engine degrades to an empty cycle.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

const (
	// defensive rate limit: the feed refreshes at most a few times per
	// minute, anything faster is wasted quota
	requestsPerSec = 2

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client fetches signals over HTTP with rate limiting and bounded retries.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// NewClient creates a Client for the signal service at baseURL. apiKey may
// be empty for unauthenticated deployments.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(requestsPerSec, 2),
	}
}

// wireSignal is the feed's JSON representation of a signal.
type wireSignal struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Direction   string    `json:"direction"` // long|short (buy|sell accepted)
	Confidence  float64   `json:"confidence"`
	EntryPrice  float64   `json:"entry_price"`
	StopLoss    float64   `json:"stop_loss"`
	TakeProfit  float64   `json:"take_profit"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Signals fetches scored signals for the given symbols.
func (c *Client) Signals(ctx context.Context, symbols []string) ([]domain.Signal, error) {
	url := fmt.Sprintf("%s/signals?symbols=%s", c.baseURL, strings.Join(symbols, ","))

	var wire []wireSignal
	if err := c.get(ctx, url, &wire); err != nil {
		return nil, fmt.Errorf("signalfeed.Signals: %w", err)
	}

	signals := make([]domain.Signal, 0, len(wire))
	for _, w := range wire {
		dir, ok := parseDirection(w.Direction)
		if !ok {
			slog.Debug("skipping signal with unknown direction",
				"id", w.ID, "direction", w.Direction)
			continue
		}
		signals = append(signals, domain.Signal{
			Symbol:      w.Symbol,
			Direction:   dir,
			Confidence:  w.Confidence,
			EntryPrice:  w.EntryPrice,
			StopPrice:   w.StopLoss,
			TargetPrice: w.TakeProfit,
			GeneratedAt: w.GeneratedAt,
			ExpiresAt:   w.ExpiresAt,
			SourceID:    w.ID,
		})
	}
	return signals, nil
}

func parseDirection(s string) (domain.Direction, bool) {
	switch strings.ToLower(s) {
	case "long", "buy":
		return domain.DirectionLong, true
	case "short", "sell":
		return domain.DirectionShort, true
	}
	return "", false
}

// get performs a GET with rate limiting and retries on transient failures.
func (c *Client) get(ctx context.Context, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff and jitter, honoring the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	wait += time.Duration(rand.Int63n(int64(baseRetryWait)))
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

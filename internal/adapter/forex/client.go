package forex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-checkout/config"
	"storefront-checkout/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxResponseBytes bounds the rate API response body.
const maxResponseBytes = 1 << 20

// Client implements ports.RateFetcher against an exchangerates_data style
// API: GET {base_url}/latest?base=EUR with an apikey header.
type Client struct {
	baseURL string
	apiKey  string
	http    HTTPClient
	breaker *gobreaker.CircuitBreaker[*domain.RateSnapshot]
	now     func() time.Time
	log     zerolog.Logger
}

type latestResponse struct {
	Success *bool              `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
		Info    string `json:"info"`
	} `json:"error"`
}

// NewClient creates a rate API client. Consecutive failures beyond
// cfg.BreakerFailures open the breaker for cfg.BreakerCooldown.
func NewClient(cfg config.ForexConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		now:     time.Now,
		log:     log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*domain.RateSnapshot](gobreaker.Settings{
		Name:        "forex-api",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("forex: circuit breaker state changed")
		},
	})
	return c
}

// FetchLatest requests the latest rates relative to base.
func (c *Client) FetchLatest(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	snap, err := c.breaker.Execute(func() (*domain.RateSnapshot, error) {
		return c.fetch(ctx, base)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("rate api unavailable: %w", err)
		}
		return nil, err
	}
	return snap, nil
}

func (c *Client) fetch(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	u := c.baseURL + "/latest?" + url.Values{"base": {strings.ToUpper(base)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building rate request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting rates: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading rate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate api returned %d", resp.StatusCode)
	}

	var payload latestResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding rate response: %w", err)
	}
	if payload.Success != nil && !*payload.Success {
		msg := "unknown error"
		if payload.Error != nil {
			msg = strings.TrimSpace(payload.Error.Message + " " + payload.Error.Info)
		}
		return nil, fmt.Errorf("rate api error: %s", msg)
	}
	if len(payload.Rates) == 0 {
		return nil, errors.New("rate api returned no rates")
	}
	if payload.Base == "" {
		payload.Base = base
	}

	snap := domain.NewRateSnapshot(c.now(), payload.Base, payload.Rates)
	c.log.Info().
		Str("base", snap.Base).
		Int("currencies", len(snap.Rates)).
		Dur("latency", time.Since(start)).
		Msg("forex: fetched latest rates")
	return &snap, nil
}

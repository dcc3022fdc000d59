// Package provider talks to external randomness sources.
package provider

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/attaboy/faketoto/internal/guard"
)

// DefaultRandomOrgEndpoint is the RANDOM.ORG JSON-RPC endpoint.
const DefaultRandomOrgEndpoint = "https://api.random.org/json-rpc/4/invoke"

const breakerKey = "random.org"

// RandomOrgClient draws integers from RANDOM.ORG, falling back to crypto/rand
// when no key is configured, the API fails, or the breaker is open.
type RandomOrgClient struct {
	apiKey   string
	endpoint string
	logger   *slog.Logger
	client   *http.Client
	breaker  *guard.CircuitBreaker
}

// RandomOrgOption configures a RandomOrgClient.
type RandomOrgOption func(*RandomOrgClient)

// WithEndpoint overrides the JSON-RPC endpoint.
func WithEndpoint(url string) RandomOrgOption {
	return func(c *RandomOrgClient) { c.endpoint = url }
}

// WithBreaker skips the API while the breaker is open.
func WithBreaker(cb *guard.CircuitBreaker) RandomOrgOption {
	return func(c *RandomOrgClient) { c.breaker = cb }
}

// NewRandomOrgClient creates a new RANDOM.ORG client.
func NewRandomOrgClient(apiKey string, logger *slog.Logger, opts ...RandomOrgOption) *RandomOrgClient {
	c := &RandomOrgClient{
		apiKey:   apiKey,
		endpoint: DefaultRandomOrgEndpoint,
		logger:   logger,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RandomIntegers returns n random integers in [min, max].
func (c *RandomOrgClient) RandomIntegers(ctx context.Context, n, min, max int) ([]int, error) {
	if c.apiKey == "" {
		c.logger.Debug("random.org api key not set, using CSPRNG fallback")
		return csprngIntegers(n, min, max)
	}
	if c.breaker != nil {
		if res := c.breaker.Check(ctx, breakerKey); !res.Allowed {
			c.logger.Debug("random.org skipped", "reason", res.Reason)
			return csprngIntegers(n, min, max)
		}
	}

	result, err := c.fetchFromAPI(ctx, n, min, max)
	if err != nil {
		if c.breaker != nil {
			c.breaker.RecordFailure(breakerKey)
		}
		c.logger.Warn("random.org unavailable, falling back to CSPRNG", "error", err)
		return csprngIntegers(n, min, max)
	}
	if c.breaker != nil {
		c.breaker.RecordSuccess(breakerKey)
	}
	return result, nil
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int       `json:"id"`
}

type rpcParams struct {
	APIKey      string `json:"apiKey"`
	N           int    `json:"n"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Replacement bool   `json:"replacement"`
}

type rpcResponse struct {
	Result struct {
		Random struct {
			Data []int `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *RandomOrgClient) fetchFromAPI(ctx context.Context, n, min, max int) ([]int, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "generateIntegers",
		Params:  rpcParams{APIKey: c.apiKey, N: n, Min: min, Max: max, Replacement: true},
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("api error: %s", out.Error.Message)
	}
	if len(out.Result.Random.Data) != n {
		return nil, fmt.Errorf("api returned %d integers, want %d", len(out.Result.Random.Data), n)
	}
	return out.Result.Random.Data, nil
}

// Seed draws a 64-bit seed for a deterministic session source from four 16-bit integers.
func (c *RandomOrgClient) Seed(ctx context.Context) (uint64, error) {
	parts, err := c.RandomIntegers(ctx, 4, 0, 0xFFFF)
	if err != nil {
		return 0, fmt.Errorf("draw seed: %w", err)
	}
	if len(parts) != 4 {
		return 0, fmt.Errorf("draw seed: expected 4 integers, got %d", len(parts))
	}
	var seed uint64
	for _, p := range parts {
		seed = seed<<16 | uint64(p&0xFFFF)
	}
	return seed, nil
}

// csprngIntegers generates cryptographically secure random integers.
func csprngIntegers(n, min, max int) ([]int, error) {
	if min > max {
		return nil, fmt.Errorf("min (%d) > max (%d)", min, max)
	}

	rangeSize := big.NewInt(int64(max - min + 1))
	result := make([]int, n)
	for i := range result {
		r, err := rand.Int(rand.Reader, rangeSize)
		if err != nil {
			return nil, fmt.Errorf("csprng: %w", err)
		}
		result[i] = int(r.Int64()) + min
	}
	return result, nil
}

package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/attaboy/faketoto/internal/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestCSPRNGFallback_GeneratesInRange(t *testing.T) {
	client := NewRandomOrgClient("", testLogger)

	nums, err := client.RandomIntegers(context.Background(), 10, 1, 100)
	require.NoError(t, err)
	assert.Len(t, nums, 10)
	for _, n := range nums {
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 100)
	}
}

func TestCSPRNGFallback_MinEqualsMax(t *testing.T) {
	client := NewRandomOrgClient("", testLogger)

	nums, err := client.RandomIntegers(context.Background(), 5, 42, 42)
	require.NoError(t, err)
	assert.Equal(t, []int{42, 42, 42, 42, 42}, nums)
}

func TestCSPRNGIntegers_InvalidRange(t *testing.T) {
	_, err := csprngIntegers(1, 100, 50)
	assert.Error(t, err)
}

func TestSeed_FallbackProducesDistinctSeeds(t *testing.T) {
	client := NewRandomOrgClient("", testLogger)

	a, err := client.Seed(context.Background())
	require.NoError(t, err)
	b, err := client.Seed(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSeed_FromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "generateIntegers", req.Method)
		assert.Equal(t, "key", req.Params.APIKey)
		assert.Equal(t, 4, req.Params.N)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[1,2,3,4]}},"id":1}`))
	}))
	defer srv.Close()

	client := NewRandomOrgClient("key", testLogger, WithEndpoint(srv.URL))
	seed, err := client.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0001000200030004), seed)
}

func TestRandomIntegers_BreakerSkipsFailingAPI(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewRandomOrgClient("key", testLogger,
		WithEndpoint(srv.URL),
		WithBreaker(guard.NewCircuitBreaker(2, time.Minute)))

	for i := 0; i < 5; i++ {
		nums, err := client.RandomIntegers(context.Background(), 3, 0, 9)
		require.NoError(t, err, "falls back to crypto/rand")
		assert.Len(t, nums, 3)
	}
	assert.Equal(t, int32(2), calls.Load(), "breaker opens after two failures")
}

package binanceoracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solSimBot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

const wsolMint = "So11111111111111111111111111111111111111112"

func newTestClient(t *testing.T, timeout time.Duration, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Symbols: map[string]string{wsolMint: "SOLUSDC"},
		BaseURL: srv.URL,
		Timeout: timeout,
		Logger:  &mockLogger{},
	})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Symbols: map[string]string{wsolMint: "SOLUSDC"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConfiguration)

	_, err = New(Config{Logger: &mockLogger{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConfiguration)
}

func TestGetPriceUSD(t *testing.T) {
	c := newTestClient(t, 2*time.Second, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SOLUSDC", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"SOLUSDC","price":"150.25"}`))
	})

	price, found, err := c.GetPriceUSD(context.Background(), wsolMint)
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 150.25, price, 1e-9)
}

func TestGetPriceUSD_UnmappedMint(t *testing.T) {
	var requests int
	c := newTestClient(t, 2*time.Second, func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	_, found, err := c.GetPriceUSD(context.Background(), "SOMEOTHERMINT")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, requests) // no request leaves the process
}

func TestGetPriceUSD_EmptyResponse(t *testing.T) {
	c := newTestClient(t, 2*time.Second, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, found, err := c.GetPriceUSD(context.Background(), wsolMint)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetPriceUSD_BadPrice(t *testing.T) {
	c := newTestClient(t, 2*time.Second, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"SOLUSDC","price":"not-a-number"}`))
	})

	_, _, err := c.GetPriceUSD(context.Background(), wsolMint)
	require.Error(t, err)
}

func TestGetPriceUSD_StalledServerTimesOut(t *testing.T) {
	// A ticker endpoint that stops answering must hit the client timeout
	// rather than hang the caller, even with a background context.
	release := make(chan struct{})
	defer close(release)
	c := newTestClient(t, 100*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})

	start := time.Now()
	_, _, err := c.GetPriceUSD(context.Background(), wsolMint)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrTimeout)
	assert.Less(t, elapsed, 2*time.Second)
}

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cryptoledger_exchange/internal/domain/entity"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) CoinGeckoClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCoinGeckoClient(srv.URL, "test-key", 2*time.Second, zap.NewNop())
}

func TestGet_ReturnsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.RawQuery != "ids=ethereum&vs_currencies=usd" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("x-cg-pro-api-key") != "test-key" {
			t.Error("Expected API key header")
		}
		w.Write([]byte(`{"ethereum":{"usd":2000}}`))
	})

	body, err := c.Get(context.Background(), "/simple/price", map[string]string{
		"vs_currencies": "usd",
		"ids":           "ethereum",
	})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != `{"ethereum":{"usd":2000}}` {
		t.Errorf("Unexpected body %s", body)
	}
}

func TestGet_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Get(context.Background(), "/simple/price", nil)
	if !errors.Is(err, entity.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}

func TestGet_ServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Get(context.Background(), "/coins/markets", nil)
	if !errors.Is(err, entity.ErrUpstreamUnavailable) {
		t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestGet_UnreachableHostIsUnavailable(t *testing.T) {
	c := NewCoinGeckoClient("http://127.0.0.1:1", "", 200*time.Millisecond, zap.NewNop())

	_, err := c.Get(context.Background(), "/simple/price", nil)
	if !errors.Is(err, entity.ErrUpstreamUnavailable) {
		t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestEncodeParams_StableOrder(t *testing.T) {
	params := map[string]string{
		"vs_currency": "usd",
		"days":        "7",
		"interval":    "daily",
	}

	want := "days=7&interval=daily&vs_currency=usd"
	for i := 0; i < 10; i++ {
		if got := EncodeParams(params); got != want {
			t.Fatalf("Expected %s, got %s", want, got)
		}
	}

	if got := EncodeParams(nil); got != "" {
		t.Errorf("Expected empty string for nil params, got %q", got)
	}
}

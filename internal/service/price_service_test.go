package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cryptoledger_exchange/internal/config"
	"cryptoledger_exchange/internal/domain/entity"

	"go.uber.org/zap"
)

type fakeFeed struct {
	calls   int64
	delay   time.Duration
	handler func(endpoint string, params map[string]string) ([]byte, error)
}

func (f *fakeFeed) Get(_ context.Context, endpoint string, params map[string]string) ([]byte, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.handler(endpoint, params)
}

func (f *fakeFeed) callCount() int64 {
	return atomic.LoadInt64(&f.calls)
}

func testPriceConfig() *config.Config {
	return &config.Config{
		CoinGecko: config.CoinGeckoConfig{VsCurrency: "usd"},
		PriceCache: config.PriceCacheConfig{
			TTLSeconds:       60,
			RateLimitDelayMs: 1,
			MaxRetries:       3,
			RetryDelayMs:     1,
		},
	}
}

func TestPriceService_SpotPriceNormalization(t *testing.T) {
	feed := &fakeFeed{handler: func(string, map[string]string) ([]byte, error) {
		return []byte(`{"ethereum":{"usd":1234.5}}`), nil
	}}
	svc := NewPriceService(zap.NewNop(), testPriceConfig(), feed)

	spot, err := svc.TokenPrice(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("TokenPrice failed: %v", err)
	}
	if spot.Price != 1234.5 {
		t.Errorf("Expected 1234.5, got %v", spot.Price)
	}
	if spot.Fallback {
		t.Error("Fresh upstream data must not be marked fallback")
	}
}

func TestPriceService_CacheServesRepeatedFetches(t *testing.T) {
	feed := &fakeFeed{handler: func(string, map[string]string) ([]byte, error) {
		return []byte(`{"ethereum":{"usd":2000}}`), nil
	}}
	svc := NewPriceService(zap.NewNop(), testPriceConfig(), feed)

	for i := 0; i < 3; i++ {
		if _, err := svc.TokenPrice(context.Background(), "ethereum"); err != nil {
			t.Fatalf("TokenPrice failed: %v", err)
		}
	}
	if got := feed.callCount(); got != 1 {
		t.Errorf("Expected exactly 1 upstream call, got %d", got)
	}
}

func TestPriceService_ConcurrentFetchesShareOneUpstreamCall(t *testing.T) {
	feed := &fakeFeed{
		delay: 50 * time.Millisecond,
		handler: func(string, map[string]string) ([]byte, error) {
			return []byte(`{"ethereum":{"usd":2000}}`), nil
		},
	}
	svc := NewPriceService(zap.NewNop(), testPriceConfig(), feed)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := svc.TokenPrice(context.Background(), "ethereum"); err != nil {
				t.Errorf("TokenPrice failed: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := feed.callCount(); got != 1 {
		t.Errorf("Expected exactly 1 upstream call for concurrent identical fetches, got %d", got)
	}
}

func TestPriceService_RateLimitRetriesThenFallsBack(t *testing.T) {
	feed := &fakeFeed{handler: func(string, map[string]string) ([]byte, error) {
		return nil, entity.ErrRateLimited
	}}
	svc := NewPriceService(zap.NewNop(), testPriceConfig(), feed)

	series, err := svc.TokenPriceHistory(context.Background(), "ethereum", 7)
	if err != nil {
		t.Fatalf("History must never propagate upstream errors, got %v", err)
	}

	// One initial attempt plus exactly three retries.
	if got := feed.callCount(); got != 4 {
		t.Errorf("Expected 4 upstream attempts, got %d", got)
	}
	if !series.Fallback {
		t.Error("Exhausted retries must yield fallback data")
	}
	if len(series.Points) != 7 {
		t.Errorf("Expected a 7-entry synthetic series, got %d", len(series.Points))
	}
	for i := 1; i < len(series.Points); i++ {
		if !series.Points[i].Time.After(series.Points[i-1].Time) {
			t.Error("Synthetic series must be chronologically ascending")
		}
	}
}

func TestPriceService_NonRateLimitErrorFallsBackImmediately(t *testing.T) {
	feed := &fakeFeed{handler: func(string, map[string]string) ([]byte, error) {
		return nil, entity.ErrUpstreamUnavailable
	}}
	svc := NewPriceService(zap.NewNop(), testPriceConfig(), feed)

	info, err := svc.TokenInfo(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("TokenInfo must never propagate upstream errors, got %v", err)
	}
	if got := feed.callCount(); got != 1 {
		t.Errorf("Non-rate-limit errors must not be retried, got %d calls", got)
	}
	if !info.Fallback {
		t.Error("Expected fallback info record")
	}
	if info.Symbol != "ETH" {
		t.Errorf("Expected synthetic ETH record, got %s", info.Symbol)
	}
}

func TestPriceService_HistoryNormalization(t *testing.T) {
	feed := &fakeFeed{handler: func(endpoint string, params map[string]string) ([]byte, error) {
		if endpoint != "/coins/ethereum/market_chart" {
			t.Errorf("Unexpected endpoint %s", endpoint)
		}
		if params["days"] != "7" {
			t.Errorf("Expected days=7, got %s", params["days"])
		}
		return []byte(`{"prices":[[1700000000000,100.5],[1700086400000,110.25]]}`), nil
	}}
	svc := NewPriceService(zap.NewNop(), testPriceConfig(), feed)

	series, err := svc.TokenPriceHistory(context.Background(), "ethereum", 7)
	if err != nil {
		t.Fatalf("TokenPriceHistory failed: %v", err)
	}
	if series.Fallback {
		t.Error("Fresh upstream data must not be marked fallback")
	}
	if len(series.Points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(series.Points))
	}
	if series.Points[0].Price != 100.5 || series.Points[1].Price != 110.25 {
		t.Errorf("Prices not preserved: %+v", series.Points)
	}
	if series.Points[0].Time != time.UnixMilli(1700000000000).UTC() {
		t.Errorf("Timestamp not normalized: %v", series.Points[0].Time)
	}
}

func TestPriceService_MarketsNormalization(t *testing.T) {
	feed := &fakeFeed{handler: func(string, map[string]string) ([]byte, error) {
		return []byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":50000,"market_cap_rank":1,"price_change_percentage_24h":2.5}]`), nil
	}}
	svc := NewPriceService(zap.NewNop(), testPriceConfig(), feed)

	coins, err := svc.TokenList(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("TokenList failed: %v", err)
	}
	if len(coins) != 1 {
		t.Fatalf("Expected 1 coin, got %d", len(coins))
	}
	if coins[0].Symbol != "BTC" {
		t.Errorf("Symbol must be uppercased, got %s", coins[0].Symbol)
	}
	if coins[0].CurrentPrice != 50000 || coins[0].MarketCapRank != 1 {
		t.Errorf("Fields not preserved: %+v", coins[0])
	}
}

func TestPriceService_DistinctParamsAreDistinctEntries(t *testing.T) {
	feed := &fakeFeed{handler: func(string, map[string]string) ([]byte, error) {
		return []byte(`{"ethereum":{"usd":2000},"bitcoin":{"usd":50000}}`), nil
	}}
	svc := NewPriceService(zap.NewNop(), testPriceConfig(), feed)

	if _, err := svc.TokenPrice(context.Background(), "ethereum"); err != nil {
		t.Fatalf("TokenPrice failed: %v", err)
	}
	if _, err := svc.TokenPrice(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("TokenPrice failed: %v", err)
	}
	if got := feed.callCount(); got != 2 {
		t.Errorf("Different params must not share a cache entry, got %d calls", got)
	}
}

package client

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cryptoledger_exchange/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CoinGeckoClient defines the interface for raw requests against the
// CoinGecko REST API.
type CoinGeckoClient interface {
	Get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error)
}

// coinGeckoClientImpl is the implementation of CoinGeckoClient.
type coinGeckoClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new instance of coinGeckoClientImpl.
func NewCoinGeckoClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) CoinGeckoClient {
	return &coinGeckoClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		logger:  logger.Named("CoinGeckoClient"),
	}
}

// Get implements the CoinGeckoClient interface. It distinguishes the one
// failure the caller retries (entity.ErrRateLimited) from everything else
// (entity.ErrUpstreamUnavailable).
func (c *coinGeckoClientImpl) Get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	requestURL := c.baseURL + endpoint
	if qs := EncodeParams(params); qs != "" {
		requestURL += "?" + qs
	}

	c.logger.Debug("Requesting data from CoinGecko", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Warn("Failed to execute request to CoinGecko", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("%w: request to %s failed: %s", entity.ErrUpstreamUnavailable, requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Warn("Failed to execute request to CoinGecko (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("%w: request to %s failed: %s", entity.ErrUpstreamUnavailable, requestURL, err)
		}
	}

	statusCode := resp.StatusCode()
	rawBody := resp.Body()

	switch {
	case statusCode == fasthttp.StatusTooManyRequests:
		c.logger.Warn("CoinGecko rate limit hit", zap.String("url", requestURL))
		return nil, fmt.Errorf("%w: %s", entity.ErrRateLimited, requestURL)
	case statusCode != fasthttp.StatusOK:
		c.logger.Warn("CoinGecko API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", statusCode),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("%w: request to %s failed with status %d", entity.ErrUpstreamUnavailable, requestURL, statusCode)
	}

	// The body buffer is reused by fasthttp after release.
	body := make([]byte, len(rawBody))
	copy(body, rawBody)
	return body, nil
}

// EncodeParams renders query parameters in a stable key order, so the same
// logical request always produces the same URL (and cache key).
func EncodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	return sb.String()
}

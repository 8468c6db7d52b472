package catalink

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	logger     *zap.Logger

	cacheAddrs    []string
	cacheUsername string
	cachePassword string
	cacheDB       int
	cacheTTL      time.Duration

	parserAPIKey  string
	parserBaseURL string
	parserModel   string

	topN       int
	poolSize   int
	moqTimeout time.Duration
}

// WithHTTPClient sets the HTTP client used for ERP calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithCache enables the redis-backed supplier lookup cache.
func WithCache(addrs []string, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cacheTTL = ttl
	}
}

// WithCacheAuth sets credentials for the cache connection.
func WithCacheAuth(username, password string, db int) Option {
	return func(c *clientConfig) {
		c.cacheUsername = username
		c.cachePassword = password
		c.cacheDB = db
	}
}

// WithQueryParser enables natural-language query parsing via an
// OpenAI-compatible API. baseURL and model may be empty for the provider
// defaults.
func WithQueryParser(apiKey, baseURL, model string) Option {
	return func(c *clientConfig) {
		c.parserAPIKey = apiKey
		c.parserBaseURL = baseURL
		c.parserModel = model
	}
}

// WithSearchLimits overrides the per-item candidate cap and the batch
// concurrency cap. Non-positive values keep the defaults.
func WithSearchLimits(topN, poolSize int) Option {
	return func(c *clientConfig) {
		c.topN = topN
		c.poolSize = poolSize
	}
}

// WithMOQTimeout bounds the supplier lookup behind order previews.
func WithMOQTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.moqTimeout = d
	}
}

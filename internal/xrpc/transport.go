package xrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/catalink/catalink/internal/metrics"
)

// The two endpoints the ERP serves. Every other path is out of scope.
const (
	// EndpointCommon hosts authentication and version queries.
	EndpointCommon = "/xmlrpc/2/common"
	// EndpointObject hosts model method execution (execute_kw).
	EndpointObject = "/xmlrpc/2/object"
)

const (
	defaultCallTimeout = 30 * time.Second
	maxResponseBytes   = 16 << 20
)

// Client sends encoded calls over HTTP and decodes the answers.
// It performs exactly one HTTP exchange per call and never retries;
// retry policy belongs to callers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// ClientConfig holds transport settings.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates an RPC transport client.
func NewClient(cfg *ClientConfig) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultCallTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
	}
}

// Call encodes one request, posts it to the given endpoint and decodes the
// response. Network and non-2xx failures surface as *TransportError; a
// fault-shaped body surfaces as *Fault regardless of HTTP status.
func (c *Client) Call(ctx context.Context, endpoint, method string, params []Value) (Value, error) {
	body := EncodeCall(method, params)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(body),
	)
	if err != nil {
		return Value{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.observe(endpoint, method, "network_error", duration)
		return Value{}, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.observe(endpoint, method, "network_error", duration)
		return Value{}, &TransportError{Err: err}
	}

	text := string(raw)

	// A fault-shaped body wins over the HTTP status: some gateways relay
	// remote faults with a 500.
	result, decErr := DecodeResponse(text)
	var fault *Fault
	if errors.As(decErr, &fault) {
		c.observe(endpoint, method, "fault", duration)
		c.logger.Debug("rpc fault",
			zap.String("endpoint", endpoint),
			zap.String("method", method),
			zap.Int64("fault_code", fault.Code),
		)
		return Value{}, fault
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe(endpoint, method, "http_"+strconv.Itoa(resp.StatusCode), duration)
		return Value{}, &TransportError{Status: resp.StatusCode, Body: text}
	}

	if decErr != nil {
		c.observe(endpoint, method, "codec_error", duration)
		return Value{}, decErr
	}

	c.observe(endpoint, method, "success", duration)
	c.logger.Debug("rpc call",
		zap.String("endpoint", endpoint),
		zap.String("method", method),
		zap.Duration("latency", duration),
	)
	return result, nil
}

func (c *Client) observe(endpoint, method, status string, d time.Duration) {
	metrics.RPCRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	metrics.RPCRequestDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}

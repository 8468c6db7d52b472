// Package catalink is a client library for searching a supplier catalog
// behind an XML-RPC ERP and previewing minimum-order-quantity adjusted
// purchase orders.
package catalink

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	dbRedis "github.com/catalink/catalink/internal/db/redis"
	"github.com/catalink/catalink/internal/domain"
	"github.com/catalink/catalink/internal/domain/search/request"
	"github.com/catalink/catalink/internal/metrics"
	catalogrepo "github.com/catalink/catalink/internal/repository/catalog"
	ordersrepo "github.com/catalink/catalink/internal/repository/orders"
	supplierrepo "github.com/catalink/catalink/internal/repository/supplier"
	openaiParser "github.com/catalink/catalink/internal/transport/openai"
	orderuc "github.com/catalink/catalink/internal/usecase/order"
	searchuc "github.com/catalink/catalink/internal/usecase/search"
	"github.com/catalink/catalink/internal/xrpc"
)

// ErrNoItems is returned when a search request resolves to zero usable
// items.
var ErrNoItems = domain.ErrNoItems

// ErrParserUnavailable is returned when the query parser cannot answer and
// no fallback applies.
var ErrParserUnavailable = domain.ErrParserUnavailable

type queryParser interface {
	Parse(ctx context.Context, text string) ([]request.Item, error)
}

// Client is the catalink SDK entry point.
type Client struct {
	session   *xrpc.Session
	searchSvc *searchuc.Service
	orderSvc  *orderuc.Service
	orders    *ordersrepo.Repo
	parser    queryParser
	cache     *dbRedis.Store
	logger    *zap.Logger
}

// New creates a catalink Client bound to one ERP database. No network
// traffic happens until the first call; authentication is lazy.
func New(erpURL, database, username, password string, opts ...Option) (*Client, error) {
	if erpURL == "" {
		return nil, errors.New("catalink: erp url required")
	}
	if database == "" || username == "" {
		return nil, errors.New("catalink: database and username required")
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rpc := xrpc.NewClient(&xrpc.ClientConfig{
		BaseURL:    erpURL,
		HTTPClient: cfg.httpClient,
		Logger:     logger,
	})
	session := xrpc.NewSession(rpc, database, username, password).WithLogger(logger)

	catalogRepo := catalogrepo.New(session).WithLogger(logger)
	supplierBase := supplierrepo.New(catalogRepo).WithLogger(logger)
	ordersRepo := ordersrepo.New(session).WithLogger(logger)

	c := &Client{
		session: session,
		orders:  ordersRepo,
		logger:  logger,
	}

	var lookup orderuc.SupplierLookup = supplierBase
	if len(cfg.cacheAddrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Username: cfg.cacheUsername,
			Password: cfg.cachePassword,
			DB:       cfg.cacheDB,
		})
		if err != nil {
			return nil, fmt.Errorf("catalink: create cache store: %w", err)
		}
		c.cache = store
		lookup = supplierrepo.NewCached(supplierBase, store, cfg.cacheTTL, metrics.MOQCacheTotal, logger)
	}

	c.searchSvc = searchuc.New(catalogRepo, logger).WithLimits(cfg.topN, cfg.poolSize)
	c.orderSvc = orderuc.New(lookup, logger).WithTimeout(cfg.moqTimeout)

	if cfg.parserAPIKey != "" {
		c.parser = openaiParser.NewParser(&openaiParser.Config{
			APIKey:  cfg.parserAPIKey,
			BaseURL: cfg.parserBaseURL,
			Model:   cfg.parserModel,
			Logger:  logger,
		})
	}
	return c, nil
}

// Close releases the cache connection, when one was opened.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Ping checks that the ERP answers its version probe.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.session.Version(ctx); err != nil {
		return fmt.Errorf("catalink: ping: %w", err)
	}
	return nil
}

// Search parses a free-form purchase request into items and resolves them
// against the catalog. Without a configured parser, or when the parser is
// down, the whole query runs as one literal item.
func (c *Client) Search(ctx context.Context, query string) ([]Outcome, SearchReport, error) {
	items, err := c.parseQuery(ctx, query)
	if err != nil {
		return nil, SearchReport{}, err
	}
	return c.searchItems(ctx, items)
}

// SearchItems resolves pre-structured search items against the catalog.
// Outcomes are index-aligned with items.
func (c *Client) SearchItems(ctx context.Context, items []SearchItem) ([]Outcome, SearchReport, error) {
	internal := make([]request.Item, 0, len(items))
	for _, it := range items {
		item, err := itemToInternal(it)
		if err != nil {
			return nil, SearchReport{}, fmt.Errorf("catalink: invalid search item: %w", err)
		}
		internal = append(internal, item)
	}
	return c.searchItems(ctx, internal)
}

func (c *Client) searchItems(ctx context.Context, items []request.Item) ([]Outcome, SearchReport, error) {
	outcomes, report, err := c.searchSvc.SearchAll(ctx, items)
	if err != nil {
		return nil, SearchReport{}, err
	}
	return outcomesFromInternal(outcomes, report), reportFromInternal(report), nil
}

func (c *Client) parseQuery(ctx context.Context, query string) ([]request.Item, error) {
	if c.parser != nil {
		items, err := c.parser.Parse(ctx, query)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, domain.ErrParserUnavailable) {
			return nil, err
		}
		c.logger.Warn("query parser unavailable, falling back to literal search", zap.Error(err))
	}
	item, err := literalItem(query)
	if err != nil {
		return nil, err
	}
	return []request.Item{item}, nil
}

// PreviewOrder resolves minimum order quantities for the given lines and
// returns the adjusted quantities. It never fails on supplier lookup
// problems; degraded lines carry SourceDegraded.
func (c *Client) PreviewOrder(ctx context.Context, lines []OrderLine) ([]AdjustedLine, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	reqs := make([]orderuc.LineRequest, len(lines))
	for i, l := range lines {
		reqs[i] = lineToInternal(l)
	}
	adjusted := c.orderSvc.ApplyMOQ(ctx, reqs)
	out := make([]AdjustedLine, len(adjusted))
	for i, l := range adjusted {
		out[i] = adjustedFromInternal(l)
	}
	return out, nil
}

// CreateOrder creates a draft purchase order in the ERP from previously
// previewed lines and returns its id.
func (c *Client) CreateOrder(ctx context.Context, supplierID int64, lines []AdjustedLine) (int64, error) {
	domLines, err := adjustedToInternal(lines)
	if err != nil {
		return 0, err
	}
	id, err := c.orders.Create(ctx, supplierID, domLines)
	if err != nil {
		return 0, fmt.Errorf("catalink: create order: %w", err)
	}
	return id, nil
}

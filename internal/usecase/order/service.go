package order

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domord "github.com/catalink/catalink/internal/domain/order"
	"github.com/catalink/catalink/internal/metrics"
)

// DefaultLookupTimeout bounds one batched supplier lookup. Past it the
// whole batch degrades to the default minimum instead of failing.
const DefaultLookupTimeout = 15 * time.Second

// LineRequest is one product plus the quantity the buyer asked for.
type LineRequest struct {
	Product  domord.ProductRef
	Quantity int
}

// Service resolves minimum order quantities and adjusts order lines
// against them.
type Service struct {
	suppliers SupplierLookup
	timeout   time.Duration
	logger    *zap.Logger
}

func New(suppliers SupplierLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		suppliers: suppliers,
		timeout:   DefaultLookupTimeout,
		logger:    logger,
	}
}

// WithTimeout overrides the lookup timeout. Non-positive keeps the default.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Resolve returns one MOQ record per product, index-aligned with products.
// It never fails: a lookup error degrades every record to the default
// minimum of 1 so order flow can continue.
func (s *Service) Resolve(ctx context.Context, products []domord.ProductRef) []domord.MOQRecord {
	records := make([]domord.MOQRecord, len(products))
	if len(products) == 0 {
		return records
	}

	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.suppliers.LookupMOQ(ctx, names)
	if err != nil {
		metrics.MOQLookupsTotal.WithLabelValues("degraded").Inc()
		s.logger.Warn("supplier lookup failed, using default minimums",
			zap.Int("products", len(products)),
			zap.Error(err))
		for i, p := range products {
			records[i] = domord.NewMOQRecord(p, 1, "", decimal.NullDecimal{}, domord.SourceDegraded)
		}
		return records
	}
	metrics.MOQLookupsTotal.WithLabelValues("ok").Inc()

	for i, p := range products {
		records[i] = resolveOne(p, entries)
	}
	return records
}

// ApplyMOQ resolves minimums for every requested line and returns adjusted
// lines, index-aligned with the requests.
func (s *Service) ApplyMOQ(ctx context.Context, reqs []LineRequest) []domord.Line {
	products := make([]domord.ProductRef, len(reqs))
	for i, r := range reqs {
		products[i] = r.Product
	}

	records := s.Resolve(ctx, products)
	lines := make([]domord.Line, len(reqs))
	for i, r := range reqs {
		lines[i] = domord.NewLine(records[i], r.Quantity)
	}
	return lines
}

// resolveOne picks the first entry matching the product, in row order.
// Matching is a case-insensitive substring test in either direction, so
// "USB-C Cable" matches a supplier row named "cable".
func resolveOne(p domord.ProductRef, entries []domord.SupplierEntry) domord.MOQRecord {
	name := strings.ToLower(p.Name)
	for _, e := range entries {
		entryName := strings.ToLower(e.ProductName)
		if entryName == "" {
			continue
		}
		if !strings.Contains(name, entryName) && !strings.Contains(entryName, name) {
			continue
		}
		if e.MinQty <= 0 {
			// A matched row without a usable minimum still confirms the
			// lookup worked.
			return domord.NewMOQRecord(p, 1, e.Supplier, decimal.NullDecimal{}, domord.SourceDefault)
		}
		moq := int(math.Ceil(e.MinQty))
		price := decimal.NewNullDecimal(e.UnitPrice)
		return domord.NewMOQRecord(p, moq, e.Supplier, price, domord.SourceAuthoritative)
	}
	return domord.NewMOQRecord(p, 1, "", decimal.NullDecimal{}, domord.SourceDefault)
}

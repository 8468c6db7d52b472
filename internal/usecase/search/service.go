package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/catalink/catalink/internal/domain"
	domcat "github.com/catalink/catalink/internal/domain/catalog"
	"github.com/catalink/catalink/internal/domain/search/outcome"
	"github.com/catalink/catalink/internal/domain/search/request"
	"github.com/catalink/catalink/internal/domain/search/strategy"
	"github.com/catalink/catalink/internal/metrics"
)

const (
	// DefaultTopN caps the candidates kept per item after ranking.
	DefaultTopN = 5
	// DefaultPoolSize caps concurrent item lookups in one batch.
	DefaultPoolSize = 20

	// candidateFetchLimit bounds rows pulled per catalog query. Rows beyond
	// this are never scored.
	candidateFetchLimit = 80

	fieldName        = "name"
	fieldDisplayName = "display_name"
	fieldDescription = "description_sale"
	fieldCode        = "default_code"
	fieldListPrice   = "list_price"
)

// Report carries batch-level facts that do not belong to any single
// outcome.
type Report struct {
	BatchID     string
	Items       int
	Failed      int
	FailedItems []int
	Elapsed     time.Duration
}

// Service fans a batch of search items out over the catalog and ranks the
// rows each item gets back.
type Service struct {
	products ProductFinder
	topN     int
	pool     int
	logger   *zap.Logger
}

func New(products ProductFinder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products: products,
		topN:     DefaultTopN,
		pool:     DefaultPoolSize,
		logger:   logger,
	}
}

// WithLimits overrides the per-item candidate cap and the concurrency cap.
// Non-positive values keep the current setting.
func (s *Service) WithLimits(topN, pool int) *Service {
	if topN > 0 {
		s.topN = topN
	}
	if pool > 0 {
		s.pool = pool
	}
	return s
}

// SearchAll resolves every item concurrently. The returned slice is
// index-aligned with items: outcome i always answers item i, whatever
// order the lookups finished in. Per-item failures surface in the report,
// never as an error.
func (s *Service) SearchAll(ctx context.Context, items []request.Item) ([]outcome.Outcome, Report, error) {
	report := Report{BatchID: uuid.NewString(), Items: len(items)}
	if len(items) == 0 {
		return nil, report, domain.ErrNoItems
	}

	start := time.Now()
	outcomes := make([]outcome.Outcome, len(items))
	errs := make([]error, len(items))

	sem := make(chan struct{}, s.pool)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item request.Item) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i], errs[i] = s.searchItem(ctx, item)
		}(i, item)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			report.Failed++
			report.FailedItems = append(report.FailedItems, i)
			s.logger.Warn("search item failed",
				zap.String("batch_id", report.BatchID),
				zap.Int("item", i),
				zap.String("query", items[i].Joined()),
				zap.Error(err))
		}
	}
	report.Elapsed = time.Since(start)
	metrics.SearchBatchDuration.Observe(report.Elapsed.Seconds())

	return outcomes, report, nil
}

// searchItem walks the strategy ladder for one item. It advances to the
// next tier only when the current tier returns zero rows; a query error
// stops the ladder and fails the item.
func (s *Service) searchItem(ctx context.Context, item request.Item) (outcome.Outcome, error) {
	tier := strategy.First()
	for {
		products, err := s.products.FindProducts(ctx, s.buildFilter(item, tier), candidateFetchLimit)
		if err != nil {
			metrics.SearchItemsTotal.WithLabelValues(string(tier), "error").Inc()
			return outcome.New(item, nil, tier), err
		}
		if len(products) > 0 {
			metrics.SearchItemsTotal.WithLabelValues(string(tier), "ok").Inc()
			return outcome.New(item, rankCandidates(products, item, s.topN), tier), nil
		}
		metrics.SearchItemsTotal.WithLabelValues(string(tier), "empty").Inc()

		next, ok := tier.Next()
		if !ok {
			return outcome.New(item, nil, tier), nil
		}
		tier = next
	}
}

// buildFilter translates an item into the filter tree for one ladder tier.
func (s *Service) buildFilter(item request.Item, tier strategy.Strategy) domcat.Expr {
	searchable := []string{fieldName, fieldDisplayName, fieldDescription, fieldCode}

	var core domcat.Expr
	switch tier {
	case strategy.AllTerms:
		// Every term must hit at least one searchable field.
		and := domcat.And{}
		for _, term := range item.SearchTerms() {
			or := domcat.Or{}
			for _, f := range searchable {
				or.Children = append(or.Children, domcat.Leaf{Field: f, Op: domcat.OpILike, Value: term})
			}
			and.Children = append(and.Children, or)
		}
		core = and
	case strategy.AnyTerm:
		or := domcat.Or{}
		for _, term := range item.SearchTerms() {
			for _, f := range searchable {
				or.Children = append(or.Children, domcat.Leaf{Field: f, Op: domcat.OpILike, Value: term})
			}
		}
		core = or
	default:
		// Last rung: the whole query as one phrase against the name.
		core = domcat.Leaf{Field: fieldName, Op: domcat.OpILike, Value: item.Joined()}
	}

	if ceiling := item.PriceCeiling(); ceiling.Valid {
		return domcat.And{Children: []domcat.Expr{
			core,
			domcat.Leaf{Field: fieldListPrice, Op: domcat.OpLessEq, Value: ceiling.Decimal.InexactFloat64()},
		}}
	}
	return core
}

// Package supplier looks up supplier purchasing constraints (minimum
// order quantities and declared prices) in the ERP.
package supplier

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domcat "github.com/catalink/catalink/internal/domain/catalog"
	"github.com/catalink/catalink/internal/domain/order"
	"github.com/catalink/catalink/internal/xrpc"
)

// Supplier-information model and field names on the ERP side.
const (
	supplierInfoModel = "product.supplierinfo"

	fieldProductName = "product_name"
	fieldProductRef  = "product_id"
	fieldMinQty      = "min_qty"
	fieldPartner     = "partner_id"
	fieldPrice       = "price"
)

// maxLookupRows bounds one batched lookup.
const maxLookupRows = 200

var lookupFields = []string{
	fieldProductName, fieldProductRef, fieldMinQty, fieldPartner, fieldPrice,
}

// SearchReader runs generic catalog queries. Satisfied by the catalog
// repository.
type SearchReader interface {
	SearchRead(
		ctx context.Context, model string, filter domcat.Expr,
		fields []string, offset, limit int, order string,
	) ([]xrpc.Value, error)
}

// Repo fetches supplier entries for product sets.
type Repo struct {
	catalog SearchReader
	logger  *zap.Logger
}

// New creates a supplier repository.
func New(catalog SearchReader) *Repo {
	return &Repo{catalog: catalog, logger: zap.NewNop()}
}

// WithLogger sets the repository logger.
func (r *Repo) WithLogger(logger *zap.Logger) *Repo {
	r.logger = logger
	return r
}

// LookupMOQ fetches supplier entries matching any of the given product
// names in one batched call. Entries come back in the source's own row
// order; the resolver's first-match policy depends on that order being
// preserved. Not every requested name is guaranteed a row.
func (r *Repo) LookupMOQ(ctx context.Context, names []string) ([]order.SupplierEntry, error) {
	if len(names) == 0 {
		return []order.SupplierEntry{}, nil
	}

	perName := make([]domcat.Expr, 0, len(names))
	for _, name := range names {
		perName = append(perName, domcat.Or{Children: []domcat.Expr{
			domcat.Leaf{Field: fieldProductName, Op: domcat.OpILike, Value: name},
			domcat.Leaf{Field: "product_tmpl_id.name", Op: domcat.OpILike, Value: name},
		}})
	}

	var filter domcat.Expr = domcat.Or{Children: perName}
	rows, err := r.catalog.SearchRead(
		ctx, supplierInfoModel, filter, lookupFields, 0, maxLookupRows, "",
	)
	if err != nil {
		return nil, fmt.Errorf("lookup supplier info: %w", err)
	}

	entries := make([]order.SupplierEntry, 0, len(rows))
	for i, row := range rows {
		if row.Kind() != xrpc.Struct {
			return nil, fmt.Errorf("supplier row %d is %s, not struct", i, row.Kind())
		}
		entries = append(entries, entryFromRow(row))
	}
	r.logger.Debug("supplier lookup",
		zap.Int("names", len(names)),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

// entryFromRow normalizes one supplier-info row. The row's own product
// name takes priority; when the ERP left it unset the referenced
// product's label stands in.
func entryFromRow(row xrpc.Value) order.SupplierEntry {
	productRef := fieldRef(row, fieldProductRef)
	name := fieldText(row, fieldProductName)
	if name == "" {
		name = productRef.Label()
	}
	return order.SupplierEntry{
		ProductID:   productRef.ID(),
		ProductName: name,
		MinQty:      fieldNumber(row, fieldMinQty),
		Supplier:    fieldRef(row, fieldPartner).Label(),
		UnitPrice:   decimal.NewFromFloat(fieldNumber(row, fieldPrice)),
	}
}

func fieldNumber(row xrpc.Value, name string) float64 {
	v, ok := row.Field(name)
	if !ok {
		return 0
	}
	return v.Number()
}

func fieldText(row xrpc.Value, name string) string {
	v, ok := row.Field(name)
	if !ok || v.Kind() != xrpc.String {
		return ""
	}
	return v.Text()
}

func fieldRef(row xrpc.Value, name string) domcat.Reference {
	v, ok := row.Field(name)
	if !ok || v.Kind() != xrpc.List || len(v.Items()) < 2 {
		return domcat.UnsetRef()
	}
	items := v.Items()
	return domcat.ResolvedRef(items[0].Int(), items[1].Text())
}

// Package catalog executes catalog queries against the ERP's object
// endpoint and normalizes the loosely-typed rows it returns.
package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domcat "github.com/catalink/catalink/internal/domain/catalog"
	"github.com/catalink/catalink/internal/xrpc"
)

// Product model and field names on the ERP side.
const (
	productModel = "product.product"

	fieldID          = "id"
	fieldName        = "name"
	fieldDisplayName = "display_name"
	fieldDescription = "description_sale"
	fieldListPrice   = "list_price"
	fieldCategory    = "categ_id"
	fieldCode        = "default_code"
	fieldQtyOnHand   = "qty_available"
)

// productFields is the projection requested for every product query.
var productFields = []string{
	fieldID, fieldName, fieldDisplayName, fieldDescription,
	fieldListPrice, fieldCategory, fieldCode, fieldQtyOnHand,
}

// Executor runs model methods on an authenticated session.
type Executor interface {
	ExecuteKW(
		ctx context.Context, model, method string,
		args []xrpc.Value, kwargs []xrpc.Member,
	) (xrpc.Value, error)
}

// Repo is the catalog query executor.
type Repo struct {
	exec   Executor
	logger *zap.Logger
}

// New creates a catalog repository.
func New(exec Executor) *Repo {
	return &Repo{exec: exec, logger: zap.NewNop()}
}

// WithLogger sets the repository logger.
func (r *Repo) WithLogger(logger *zap.Logger) *Repo {
	r.logger = logger
	return r
}

// SearchRead runs the ERP's search_read on any model and returns the raw
// decoded rows. The filter expression is serialized at this boundary and
// otherwise passed through uninterpreted. A nil filter selects all rows.
func (r *Repo) SearchRead(
	ctx context.Context, model string, filter domcat.Expr,
	fields []string, offset, limit int, order string,
) ([]xrpc.Value, error) {
	wireFilter, err := filterToWire(filter)
	if err != nil {
		return nil, fmt.Errorf("serialize filter: %w", err)
	}

	kwargs := make([]xrpc.Member, 0, 4)
	if len(fields) > 0 {
		fieldValues := make([]xrpc.Value, len(fields))
		for i, f := range fields {
			fieldValues[i] = xrpc.StringValue(f)
		}
		kwargs = append(kwargs, xrpc.Member{Name: "fields", Value: xrpc.ListValue(fieldValues...)})
	}
	if offset > 0 {
		kwargs = append(kwargs, xrpc.Member{Name: "offset", Value: xrpc.IntValue(int64(offset))})
	}
	if limit > 0 {
		kwargs = append(kwargs, xrpc.Member{Name: "limit", Value: xrpc.IntValue(int64(limit))})
	}
	if order != "" {
		kwargs = append(kwargs, xrpc.Member{Name: "order", Value: xrpc.StringValue(order)})
	}

	result, err := r.exec.ExecuteKW(
		ctx, model, "search_read",
		[]xrpc.Value{xrpc.ListValue(wireFilter...)},
		kwargs,
	)
	if err != nil {
		return nil, fmt.Errorf("search_read %s: %w", model, err)
	}
	if result.Kind() != xrpc.List {
		return nil, fmt.Errorf("search_read %s: result is %s, not a row list", model, result.Kind())
	}

	rows := result.Items()
	r.logger.Debug("search_read",
		zap.String("model", model),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// FindProducts runs a product query and normalizes the rows. Rows come
// back in catalog order (ascending id), which downstream ranking relies
// on for stable tie-breaks.
func (r *Repo) FindProducts(
	ctx context.Context, filter domcat.Expr, limit int,
) ([]domcat.Product, error) {
	rows, err := r.SearchRead(ctx, productModel, filter, productFields, 0, limit, "id asc")
	if err != nil {
		return nil, err
	}

	products := make([]domcat.Product, 0, len(rows))
	for i, row := range rows {
		if row.Kind() != xrpc.Struct {
			return nil, fmt.Errorf("product row %d is %s, not struct", i, row.Kind())
		}
		products = append(products, productFromRow(row))
	}
	return products, nil
}

// productFromRow normalizes one raw row. The ERP sends false for unset
// text fields and either false or an [id, label] pair for references.
func productFromRow(row xrpc.Value) domcat.Product {
	return domcat.Product{
		ID:           fieldInt(row, fieldID),
		Name:         fieldText(row, fieldName),
		DisplayName:  fieldText(row, fieldDisplayName),
		Description:  fieldText(row, fieldDescription),
		UnitPrice:    decimal.NewFromFloat(fieldNumber(row, fieldListPrice)),
		Category:     fieldRef(row, fieldCategory),
		Code:         fieldText(row, fieldCode),
		QtyAvailable: fieldNumber(row, fieldQtyOnHand),
	}
}

func fieldInt(row xrpc.Value, name string) int64 {
	v, ok := row.Field(name)
	if !ok {
		return 0
	}
	return v.Int()
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

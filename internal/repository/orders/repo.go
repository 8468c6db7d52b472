// Package orders persists finalized purchase orders in the ERP. The shape
// is intentionally thin: ordered lines plus a supplier reference. The ERP
// offers no idempotency token, so creation is at-least-once; callers own
// deduplication.
package orders

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/catalink/catalink/internal/domain"
	"github.com/catalink/catalink/internal/domain/order"
	"github.com/catalink/catalink/internal/xrpc"
)

const orderModel = "purchase.order"

// linkCommand is the ERP's "create and link" marker for one-to-many
// writes: (0, 0, values).
const linkCommand = 0

// Executor runs model methods on an authenticated session.
type Executor interface {
	ExecuteKW(
		ctx context.Context, model, method string,
		args []xrpc.Value, kwargs []xrpc.Member,
	) (xrpc.Value, error)
}

// Repo creates purchase orders.
type Repo struct {
	exec   Executor
	logger *zap.Logger
}

// New creates an orders repository.
func New(exec Executor) *Repo {
	return &Repo{exec: exec, logger: zap.NewNop()}
}

// WithLogger sets the repository logger.
func (r *Repo) WithLogger(logger *zap.Logger) *Repo {
	r.logger = logger
	return r
}

// Create persists one purchase order for the given supplier and adjusted
// lines, returning the new order id.
func (r *Repo) Create(ctx context.Context, supplierID int64, lines []order.Line) (int64, error) {
	if len(lines) == 0 {
		return 0, domain.ErrEmptyOrder
	}

	wireLines := make([]xrpc.Value, len(lines))
	for i, l := range lines {
		members := []xrpc.Member{
			{Name: "product_id", Value: xrpc.IntValue(l.Product().ID)},
			{Name: "product_qty", Value: xrpc.IntValue(int64(l.Adjusted()))},
		}
		if price := l.UnitPrice(); price.Valid {
			members = append(members, xrpc.Member{
				Name: "price_unit", Value: xrpc.FloatValue(price.Decimal.InexactFloat64()),
			})
		}
		wireLines[i] = xrpc.ListValue(
			xrpc.IntValue(linkCommand),
			xrpc.IntValue(0),
			xrpc.StructValue(members...),
		)
	}

	payload := xrpc.StructValue(
		xrpc.Member{Name: "partner_id", Value: xrpc.IntValue(supplierID)},
		xrpc.Member{Name: "order_line", Value: xrpc.ListValue(wireLines...)},
	)

	result, err := r.exec.ExecuteKW(ctx, orderModel, "create",
		[]xrpc.Value{xrpc.ListValue(payload)}, nil)
	if err != nil {
		return 0, fmt.Errorf("create purchase order: %w", err)
	}
	if result.Kind() != xrpc.Int || result.Int() <= 0 {
		return 0, fmt.Errorf("create purchase order: unexpected result kind %s", result.Kind())
	}

	r.logger.Info("purchase order created",
		zap.Int64("order_id", result.Int()),
		zap.Int64("supplier_id", supplierID),
		zap.Int("lines", len(lines)),
	)
	return result.Int(), nil
}

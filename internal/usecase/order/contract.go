package order

import (
	"context"

	domord "github.com/catalink/catalink/internal/domain/order"
)

// SupplierLookup fetches supplier-information rows for a set of product
// names in one call.
type SupplierLookup interface {
	LookupMOQ(ctx context.Context, names []string) ([]domord.SupplierEntry, error)
}

package search

import (
	"context"

	domcat "github.com/catalink/catalink/internal/domain/catalog"
)

// ProductFinder runs one filtered catalog query and returns normalized
// products in catalog order.
type ProductFinder interface {
	FindProducts(ctx context.Context, filter domcat.Expr, limit int) ([]domcat.Product, error)
}

package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/catalink/catalink/internal/domain"
	"github.com/catalink/catalink/internal/domain/order"
	"github.com/catalink/catalink/internal/xrpc"
)

type fakeExecutor struct {
	result xrpc.Value
	err    error

	lastModel  string
	lastMethod string
	lastArgs   []xrpc.Value
}

func (f *fakeExecutor) ExecuteKW(
	_ context.Context, model, method string,
	args []xrpc.Value, _ []xrpc.Member,
) (xrpc.Value, error) {
	f.lastModel = model
	f.lastMethod = method
	f.lastArgs = args
	if f.err != nil {
		return xrpc.Value{}, f.err
	}
	return f.result, nil
}

func adjustedLine(t *testing.T, id int64, moq, requested int, price float64) order.Line {
	t.Helper()
	unitPrice := decimal.NullDecimal{}
	source := order.SourceDefault
	if price > 0 {
		unitPrice = decimal.NewNullDecimal(decimal.NewFromFloat(price))
		source = order.SourceAuthoritative
	}
	rec := order.NewMOQRecord(order.ProductRef{ID: id, Name: "cable"}, moq, "Acme", unitPrice, source)
	return order.NewLine(rec, requested)
}

func TestCreate_WirePayload(t *testing.T) {
	exec := &fakeExecutor{result: xrpc.IntValue(501)}
	repo := New(exec)

	id, err := repo.Create(context.Background(), 3, []order.Line{
		adjustedLine(t, 9, 24, 10, 1.25),
		adjustedLine(t, 10, 1, 2, 0),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 501 {
		t.Fatalf("id = %d, want 501", id)
	}
	if exec.lastModel != "purchase.order" || exec.lastMethod != "create" {
		t.Fatalf("call = %s.%s", exec.lastModel, exec.lastMethod)
	}

	// args = [[payload]]
	payload := exec.lastArgs[0].Items()[0]
	partner, ok := payload.Field("partner_id")
	if !ok || partner.Int() != 3 {
		t.Fatalf("partner_id = %+v", partner)
	}

	linesList, ok := payload.Field("order_line")
	if !ok || len(linesList.Items()) != 2 {
		t.Fatalf("order_line = %+v", linesList)
	}

	// Each line is a (0, 0, values) command triple.
	first := linesList.Items()[0].Items()
	if first[0].Int() != 0 || first[1].Int() != 0 {
		t.Fatalf("command marker = %d, %d", first[0].Int(), first[1].Int())
	}
	values := first[2]
	if qty, _ := values.Field("product_qty"); qty.Int() != 24 {
		t.Fatalf("quantity must be the adjusted one, got %d", qty.Int())
	}
	if price, ok := values.Field("price_unit"); !ok || price.Number() != 1.25 {
		t.Fatalf("price_unit = %+v", price)
	}

	// No declared price: price_unit omitted, ERP fills its own.
	second := linesList.Items()[1].Items()[2]
	if _, ok := second.Field("price_unit"); ok {
		t.Fatal("price_unit must be omitted without a declared price")
	}
}

func TestCreate_EmptyOrder(t *testing.T) {
	repo := New(&fakeExecutor{})
	_, err := repo.Create(context.Background(), 3, nil)
	if !errors.Is(err, domain.ErrEmptyOrder) {
		t.Fatalf("err = %v, want ErrEmptyOrder", err)
	}
}

func TestCreate_ExecError(t *testing.T) {
	wantErr := errors.New("session gone")
	repo := New(&fakeExecutor{err: wantErr})

	_, err := repo.Create(context.Background(), 3, []order.Line{adjustedLine(t, 9, 1, 1, 0)})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestCreate_BadResult(t *testing.T) {
	repo := New(&fakeExecutor{result: xrpc.BoolValue(false)})

	if _, err := repo.Create(context.Background(), 3, []order.Line{adjustedLine(t, 9, 1, 1, 0)}); err == nil {
		t.Fatal("expected error for non-int result")
	}
}

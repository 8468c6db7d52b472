package catalink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/catalink/catalink/internal/xrpc"
)

// fakeERP answers the wire protocol with scripted rows per model.
type fakeERP struct {
	t         *testing.T
	products  []xrpc.Value
	suppliers []xrpc.Value
	orderID   int64
}

func productRow(id int64, name string, price, qty float64) xrpc.Value {
	return xrpc.StructValue(
		xrpc.Member{Name: "id", Value: xrpc.IntValue(id)},
		xrpc.Member{Name: "name", Value: xrpc.StringValue(name)},
		xrpc.Member{Name: "display_name", Value: xrpc.StringValue(name)},
		xrpc.Member{Name: "description_sale", Value: xrpc.BoolValue(false)},
		xrpc.Member{Name: "list_price", Value: xrpc.FloatValue(price)},
		xrpc.Member{Name: "categ_id", Value: xrpc.ListValue(xrpc.IntValue(1), xrpc.StringValue("All"))},
		xrpc.Member{Name: "default_code", Value: xrpc.BoolValue(false)},
		xrpc.Member{Name: "qty_available", Value: xrpc.FloatValue(qty)},
	)
}

func supplierRow(name string, minQty, price float64) xrpc.Value {
	return xrpc.StructValue(
		xrpc.Member{Name: "product_name", Value: xrpc.StringValue(name)},
		xrpc.Member{Name: "product_id", Value: xrpc.ListValue(xrpc.IntValue(9), xrpc.StringValue(name))},
		xrpc.Member{Name: "min_qty", Value: xrpc.FloatValue(minQty)},
		xrpc.Member{Name: "partner_id", Value: xrpc.ListValue(xrpc.IntValue(3), xrpc.StringValue("Acme"))},
		xrpc.Member{Name: "price", Value: xrpc.FloatValue(price)},
	)
}

func (f *fakeERP) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			f.t.Errorf("read request: %v", err)
			return
		}
		method, params, err := xrpc.DecodeCall(string(body))
		if err != nil {
			f.t.Errorf("decode call: %v", err)
			return
		}

		w.Header().Set("Content-Type", "text/xml")
		switch method {
		case "authenticate":
			io.WriteString(w, xrpc.EncodeResponse(xrpc.IntValue(7)))
		case "version":
			io.WriteString(w, xrpc.EncodeResponse(xrpc.StructValue(
				xrpc.Member{Name: "server_version", Value: xrpc.StringValue("17.0")},
			)))
		case "execute_kw":
			model := params[3].Text()
			switch model {
			case "product.product":
				io.WriteString(w, xrpc.EncodeResponse(xrpc.ListValue(f.products...)))
			case "product.supplierinfo":
				io.WriteString(w, xrpc.EncodeResponse(xrpc.ListValue(f.suppliers...)))
			case "purchase.order":
				io.WriteString(w, xrpc.EncodeResponse(xrpc.IntValue(f.orderID)))
			default:
				f.t.Errorf("unexpected model %q", model)
			}
		default:
			f.t.Errorf("unexpected method %q", method)
		}
	}
}

func newTestClient(t *testing.T, erp *fakeERP) *Client {
	t.Helper()
	server := httptest.NewServer(erp.handler())
	t.Cleanup(server.Close)

	c, err := New(server.URL, "testdb", "svc", "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "db", "user", "pw"); err == nil {
		t.Error("expected error for missing url")
	}
	if _, err := New("http://localhost", "", "user", "pw"); err == nil {
		t.Error("expected error for missing database")
	}
	if _, err := New("http://localhost", "db", "", "pw"); err == nil {
		t.Error("expected error for missing username")
	}
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, &fakeERP{t: t})
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestClient_SearchItems(t *testing.T) {
	erp := &fakeERP{t: t, products: []xrpc.Value{
		productRow(11, "blue shirt", 19.9, 4),
		productRow(12, "navy shirt", 24.5, 0),
	}}
	c := newTestClient(t, erp)

	outcomes, report, err := c.SearchItems(context.Background(), []SearchItem{
		{Terms: []string{"blue", "shirt"}, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if report.BatchID == "" || report.Items != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(outcomes) != 1 {
		t.Fatalf("outcomes = %d", len(outcomes))
	}
	out := outcomes[0]
	if out.Failed || len(out.Candidates) != 2 {
		t.Fatalf("outcome = %+v", out)
	}
	top := out.Candidates[0]
	if top.ID != 11 || top.Name != "blue shirt" {
		t.Fatalf("top candidate = %+v", top)
	}
	if !top.Price.Equal(decimal.NewFromFloat(19.9)) {
		t.Fatalf("price = %s", top.Price)
	}
	if top.Category != "All" {
		t.Fatalf("category = %q", top.Category)
	}
}

func TestClient_Search_LiteralWithoutParser(t *testing.T) {
	erp := &fakeERP{t: t, products: []xrpc.Value{productRow(1, "stapler", 3, 10)}}
	c := newTestClient(t, erp)

	outcomes, _, err := c.Search(context.Background(), "stapler")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Query != "stapler" {
		t.Fatalf("outcomes = %+v", outcomes)
	}
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	c := newTestClient(t, &fakeERP{t: t})

	if _, _, err := c.Search(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestClient_PreviewOrder(t *testing.T) {
	erp := &fakeERP{t: t, suppliers: []xrpc.Value{supplierRow("usb cable", 24, 1.2)}}
	c := newTestClient(t, erp)

	lines, err := c.PreviewOrder(context.Background(), []OrderLine{
		{ProductID: 9, Name: "usb cable", Quantity: 10},
	})
	if err != nil {
		t.Fatalf("PreviewOrder: %v", err)
	}
	line := lines[0]
	if line.Adjusted != 24 || !line.MOQApplied || line.Source != SourceAuthoritative {
		t.Fatalf("line = %+v", line)
	}
	if !line.UnitPrice.Valid || !line.UnitPrice.Decimal.Equal(decimal.NewFromFloat(1.2)) {
		t.Fatalf("unit price = %+v", line.UnitPrice)
	}
}

func TestClient_PreviewOrder_Empty(t *testing.T) {
	c := newTestClient(t, &fakeERP{t: t})
	if _, err := c.PreviewOrder(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty order")
	}
}

func TestClient_CreateOrder(t *testing.T) {
	erp := &fakeERP{t: t, orderID: 501}
	c := newTestClient(t, erp)

	id, err := c.CreateOrder(context.Background(), 3, []AdjustedLine{
		{ProductID: 9, Name: "usb cable", Requested: 10, Adjusted: 24, MOQ: 24, Source: SourceAuthoritative},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if id != 501 {
		t.Fatalf("order id = %d, want 501", id)
	}
}

func TestClient_CreateOrder_RejectsMissingProductID(t *testing.T) {
	c := newTestClient(t, &fakeERP{t: t})
	_, err := c.CreateOrder(context.Background(), 3, []AdjustedLine{{Name: "usb cable"}})
	if err == nil {
		t.Fatal("expected error for missing product id")
	}
}

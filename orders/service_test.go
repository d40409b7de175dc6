package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"kirana/models"
)

// memStore is an in-memory ProductStore/OrderStore/CounterStore with the same
// conditional-decrement semantics as the mongo implementation.
type memStore struct {
	mu       sync.Mutex
	products map[string]*models.Product
	orders   map[string]*models.Order
	counters map[string]int64

	failDecrementFor string // product id whose decrement is forced to fail
}

func newMemStore(prods ...*models.Product) *memStore {
	m := &memStore{
		products: map[string]*models.Product{},
		orders:   map[string]*models.Order{},
		counters: map[string]int64{},
	}
	for _, p := range prods {
		m.products[p.ProductID] = p
	}
	return m
}

func (m *memStore) FindByIDs(_ context.Context, ids []string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) stockRef(line StockLine) *int {
	p := m.products[line.ProductID]
	if p == nil {
		return nil
	}
	if line.VariantID == "" {
		return &p.Stock
	}
	v := p.Variant(line.VariantID)
	if v == nil {
		return nil
	}
	sz := v.Size(line.Size)
	if sz == nil {
		return nil
	}
	return &sz.Stock
}

func (m *memStore) DecrementStock(_ context.Context, line StockLine) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line.ProductID == m.failDecrementFor {
		return false, nil
	}
	ref := m.stockRef(line)
	if ref == nil || *ref < line.Quantity {
		return false, nil
	}
	*ref -= line.Quantity
	return true, nil
}

func (m *memStore) RestoreStock(_ context.Context, line StockLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := m.stockRef(line)
	if ref == nil {
		return errors.New("no such stock line")
	}
	*ref += line.Quantity
	return nil
}

func (m *memStore) AddSold(_ context.Context, lines []StockLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range lines {
		if p := m.products[line.ProductID]; p != nil {
			p.TotalSold += line.Quantity
		}
	}
	return nil
}

func (m *memStore) Insert(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.OrderID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, orderID)
	return nil
}

func (m *memStore) Next(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func intPtr(v int64) *int64 { return &v }

func simpleProduct(id string, price int64, stock int) *models.Product {
	return &models.Product{
		ProductID: id,
		Name:      "Product " + id,
		Price:     intPtr(price),
		Stock:     stock,
		IsActive:  true,
		Thumbnail: "/static/uploads/" + id + ".jpg",
	}
}

func variantProduct(id string) *models.Product {
	return &models.Product{
		ProductID:   id,
		Name:        "Shirt " + id,
		HasVariants: true,
		IsActive:    true,
		Variants: []models.Variant{{
			VariantID: "vRed",
			Color:     "Red",
			Images:    []string{"/static/uploads/red.jpg"},
			Sizes: []models.VariantSize{
				{Size: "M", Price: 150000, Stock: 4},
				{Size: "L", Price: 160000, Stock: 0},
			},
		}},
	}
}

func testService(store *memStore) *Service {
	s := NewService(store, store, store)
	s.Now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func checkout(items ...models.CartLine) *CheckoutRequest {
	return &CheckoutRequest{
		CustomerInfo: models.CustomerInfo{
			FullName: "Nguyen Van A",
			Email:    "a@example.com",
			Phone:    "0901234567",
			Address:  "1 Le Loi, Q1, HCMC",
		},
		Items:         items,
		PaymentMethod: models.PayCOD,
	}
}

func TestPlaceOrderTotalsAndSnapshot(t *testing.T) {
	store := newMemStore(
		simpleProduct("p1", 100000, 10),
		variantProduct("p2"),
	)
	svc := testService(store)

	order, err := svc.PlaceOrder(context.Background(), "u1", checkout(
		models.CartLine{ProductID: "p1", Quantity: 2},
		models.CartLine{ProductID: "p2", VariantID: "vRed", Size: "M", Quantity: 3},
	))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	wantSubtotal := int64(2*100000 + 3*150000)
	if order.Subtotal != wantSubtotal {
		t.Errorf("subtotal = %d, want %d", order.Subtotal, wantSubtotal)
	}
	if order.ShippingFee != models.ShippingFee {
		t.Errorf("shipping = %d, want %d", order.ShippingFee, models.ShippingFee)
	}
	if order.Total != wantSubtotal+models.ShippingFee {
		t.Errorf("total = %d, want %d", order.Total, wantSubtotal+models.ShippingFee)
	}
	if order.Status != models.OrderPending || order.PaymentStatus != models.PaymentUnpaid {
		t.Errorf("status = %s/%s, want pending/unpaid", order.Status, order.PaymentStatus)
	}
	if len(order.StatusHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(order.StatusHistory))
	}

	// Variant line must be frozen with variant pricing and image.
	it := order.Items[1]
	if it.Price != 150000 || it.Total != 450000 {
		t.Errorf("variant line price/total = %d/%d", it.Price, it.Total)
	}
	if it.VariantColor != "Red" || it.Size != "M" {
		t.Errorf("variant line snapshot = %q/%q", it.VariantColor, it.Size)
	}
	if it.ProductImage != "/static/uploads/red.jpg" {
		t.Errorf("variant image = %q", it.ProductImage)
	}

	// Catalog edits after checkout never change the frozen item.
	*store.products["p1"].Price = 999999
	if order.Items[0].Price != 100000 {
		t.Error("order item price changed after catalog edit")
	}

	// Stock moved.
	if got := store.products["p1"].Stock; got != 8 {
		t.Errorf("p1 stock = %d, want 8", got)
	}
	if got := store.products["p2"].Variants[0].Sizes[0].Stock; got != 1 {
		t.Errorf("p2 M stock = %d, want 1", got)
	}
	if got := store.products["p1"].TotalSold; got != 2 {
		t.Errorf("p1 total_sold = %d, want 2", got)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	store := newMemStore(simpleProduct("p1", 100000, 10))
	svc := testService(store)

	cases := []struct {
		name string
		mut  func(*CheckoutRequest)
		want string
	}{
		{"missing name", func(r *CheckoutRequest) { r.CustomerInfo.FullName = " " }, "Full name"},
		{"missing email", func(r *CheckoutRequest) { r.CustomerInfo.Email = "" }, "Email"},
		{"missing phone", func(r *CheckoutRequest) { r.CustomerInfo.Phone = "" }, "Phone"},
		{"missing address", func(r *CheckoutRequest) { r.CustomerInfo.Address = "" }, "address"},
		{"bad payment", func(r *CheckoutRequest) { r.PaymentMethod = "cheque" }, "payment method"},
		{"empty cart", func(r *CheckoutRequest) { r.Items = nil }, "Cart is empty"},
		{"zero quantity", func(r *CheckoutRequest) { r.Items[0].Quantity = 0 }, "quantity"},
		{"huge quantity", func(r *CheckoutRequest) { r.Items[0].Quantity = 100 }, "quantity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := checkout(models.CartLine{ProductID: "p1", Quantity: 1})
			tc.mut(req)
			_, err := svc.PlaceOrder(context.Background(), "", req)
			var ir *InvalidRequestError
			if !errors.As(err, &ir) {
				t.Fatalf("err = %v, want InvalidRequestError", err)
			}
			if !strings.Contains(ir.Msg, tc.want) {
				t.Errorf("message %q does not mention %q", ir.Msg, tc.want)
			}
		})
	}

	if store.orderCount() != 0 {
		t.Errorf("orders stored after rejected checkouts: %d", store.orderCount())
	}
}

func TestPlaceOrderMissingProduct(t *testing.T) {
	store := newMemStore(simpleProduct("p1", 100000, 10))
	svc := testService(store)

	_, err := svc.PlaceOrder(context.Background(), "", checkout(
		models.CartLine{ProductID: "p1", Quantity: 1},
		models.CartLine{ProductID: "ghost", Quantity: 1},
	))
	var ir *InvalidRequestError
	if !errors.As(err, &ir) {
		t.Fatalf("err = %v, want InvalidRequestError", err)
	}
	if !strings.Contains(ir.Msg, "ghost") {
		t.Errorf("message %q does not name the missing product", ir.Msg)
	}
}

func TestPlaceOrderInsufficientStockMessages(t *testing.T) {
	store := newMemStore(simpleProduct("p1", 100000, 2), variantProduct("p2"))
	svc := testService(store)

	_, err := svc.PlaceOrder(context.Background(), "", checkout(
		models.CartLine{ProductID: "p1", Quantity: 3},
	))
	var ns *InsufficientStockError
	if !errors.As(err, &ns) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if !strings.Contains(ns.Msg, "Product p1") || !strings.Contains(ns.Msg, "2 left") {
		t.Errorf("message %q missing product name or remaining count", ns.Msg)
	}

	_, err = svc.PlaceOrder(context.Background(), "", checkout(
		models.CartLine{ProductID: "p2", VariantID: "vRed", Size: "L", Quantity: 1},
	))
	if !errors.As(err, &ns) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	for _, want := range []string{"Red", "L", "0 left"} {
		if !strings.Contains(ns.Msg, want) {
			t.Errorf("message %q missing %q", ns.Msg, want)
		}
	}
}

func TestPlaceOrderVariantSelectionErrors(t *testing.T) {
	store := newMemStore(variantProduct("p2"))
	svc := testService(store)

	for _, tc := range []models.CartLine{
		{ProductID: "p2", Quantity: 1},                                        // no variant chosen
		{ProductID: "p2", VariantID: "vBlue", Size: "M", Quantity: 1},         // unknown variant
		{ProductID: "p2", VariantID: "vRed", Size: "XXXL", Quantity: 1},       // unknown size
	} {
		_, err := svc.PlaceOrder(context.Background(), "", checkout(tc))
		var ir *InvalidRequestError
		if !errors.As(err, &ir) {
			t.Errorf("line %+v: err = %v, want InvalidRequestError", tc, err)
		}
	}
}

func TestPlaceOrderCompensation(t *testing.T) {
	store := newMemStore(
		simpleProduct("p1", 100000, 10),
		simpleProduct("p3", 50000, 10),
	)
	store.failDecrementFor = "p3"
	svc := testService(store)

	_, err := svc.PlaceOrder(context.Background(), "", checkout(
		models.CartLine{ProductID: "p1", Quantity: 4},
		models.CartLine{ProductID: "p3", Quantity: 1},
	))
	var ns *InsufficientStockError
	if !errors.As(err, &ns) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}

	// First line was reserved then restored; no order survives.
	if got := store.products["p1"].Stock; got != 10 {
		t.Errorf("p1 stock after rollback = %d, want 10", got)
	}
	if store.orderCount() != 0 {
		t.Errorf("orders stored after rollback: %d", store.orderCount())
	}
}

func TestPlaceOrderConcurrentNeverOversells(t *testing.T) {
	const stock = 5
	store := newMemStore(simpleProduct("p1", 100000, stock))
	svc := testService(store)

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), "", checkout(
				models.CartLine{ProductID: "p1", Quantity: 1},
			))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	placed := 0
	for err := range results {
		if err == nil {
			placed++
			continue
		}
		var ns *InsufficientStockError
		if !errors.As(err, &ns) {
			t.Errorf("unexpected error: %v", err)
		}
	}

	if placed != stock {
		t.Errorf("placed %d orders from %d units of stock", placed, stock)
	}
	if got := store.products["p1"].Stock; got != 0 {
		t.Errorf("final stock = %d, want 0", got)
	}
	if store.orderCount() != stock {
		t.Errorf("stored orders = %d, want %d", store.orderCount(), stock)
	}
}

func TestPlaceOrderPaymentStatusByMethod(t *testing.T) {
	store := newMemStore(simpleProduct("p1", 100000, 10))
	svc := testService(store)

	req := checkout(models.CartLine{ProductID: "p1", Quantity: 1})
	req.PaymentMethod = models.PayBankTransfer
	order, err := svc.PlaceOrder(context.Background(), "", req)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.PaymentStatus != models.PaymentPending {
		t.Errorf("bank transfer payment status = %s, want pending", order.PaymentStatus)
	}
}

func TestPlaceOrderOmittedPaymentMethodDefaultsToCOD(t *testing.T) {
	store := newMemStore(simpleProduct("p1", 100000, 10))
	svc := testService(store)

	req := checkout(models.CartLine{ProductID: "p1", Quantity: 1})
	req.PaymentMethod = ""
	order, err := svc.PlaceOrder(context.Background(), "", req)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.PaymentMethod != models.PayCOD {
		t.Errorf("payment method = %q, want %q", order.PaymentMethod, models.PayCOD)
	}
	if order.PaymentStatus != models.PaymentUnpaid {
		t.Errorf("payment status = %s, want unpaid", order.PaymentStatus)
	}
}

func TestPlaceOrderNormalizesCustomerInfo(t *testing.T) {
	store := newMemStore(simpleProduct("p1", 100000, 10))
	svc := testService(store)

	req := checkout(models.CartLine{ProductID: "p1", Quantity: 1})
	req.CustomerInfo = models.CustomerInfo{
		FullName: "  Nguyen Van A  ",
		Email:    "  A@Example.COM ",
		Phone:    " 0901234567 ",
		Address:  " 1 Le Loi, Q1, HCMC ",
	}
	order, err := svc.PlaceOrder(context.Background(), "", req)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	ci := order.CustomerInfo
	if ci.FullName != "Nguyen Van A" {
		t.Errorf("full name = %q", ci.FullName)
	}
	if ci.Email != "a@example.com" {
		t.Errorf("email = %q", ci.Email)
	}
	if ci.Phone != "0901234567" {
		t.Errorf("phone = %q", ci.Phone)
	}
	if ci.Address != "1 Le Loi, Q1, HCMC" {
		t.Errorf("address = %q", ci.Address)
	}
}

func TestPlaceOrderNumberSequence(t *testing.T) {
	store := newMemStore(simpleProduct("p1", 100000, 10))
	svc := testService(store)

	for i := 1; i <= 3; i++ {
		order, err := svc.PlaceOrder(context.Background(), "", checkout(
			models.CartLine{ProductID: "p1", Quantity: 1},
		))
		if err != nil {
			t.Fatalf("PlaceOrder #%d: %v", i, err)
		}
		want := fmt.Sprintf("KR250601%04d", i)
		if order.OrderNumber != want {
			t.Errorf("order number = %s, want %s", order.OrderNumber, want)
		}
	}
}

func TestPlacedHookFires(t *testing.T) {
	store := newMemStore(simpleProduct("p1", 100000, 10))
	svc := testService(store)

	var seen *models.Order
	svc.Placed = func(o *models.Order) { seen = o }

	order, err := svc.PlaceOrder(context.Background(), "u9", checkout(
		models.CartLine{ProductID: "p1", Quantity: 1},
	))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if seen == nil || seen.OrderID != order.OrderID {
		t.Error("placed hook did not receive the order")
	}
	if seen.UserID != "u9" {
		t.Errorf("order user = %q, want u9", seen.UserID)
	}
}

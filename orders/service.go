package orders

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"kirana/models"
	"kirana/utils"
)

// CheckoutRequest is the client checkout payload. Everything in it is
// untrusted and re-validated against the live catalog.
type CheckoutRequest struct {
	CustomerInfo  models.CustomerInfo `json:"customer_info"`
	Items         []models.CartLine   `json:"items"`
	PaymentMethod string              `json:"payment_method"`
}

// Service runs the checkout pipeline and the order state machine.
type Service struct {
	Products ProductStore
	Orders   OrderStore
	Counters CounterStore

	// Now is swapped in tests; defaults to time.Now.
	Now func() time.Time

	// Placed, when set, is called after a successful checkout.
	Placed func(o *models.Order)
}

func NewService(products ProductStore, orders OrderStore, counters CounterStore) *Service {
	return &Service{Products: products, Orders: orders, Counters: counters, Now: time.Now}
}

const maxLineQuantity = 99

// PlaceOrder validates the cart against the live catalog, prices each line,
// persists the order and then reserves stock one line at a time. A failed
// reservation rolls back every prior line and removes the order, so stock
// counts and stored orders always agree.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req *CheckoutRequest) (*models.Order, error) {
	normalizeCheckout(req)
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.Items))
	seen := map[string]bool{}
	for _, line := range req.Items {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	prods, err := s.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	byID := make(map[string]*models.Product, len(prods))
	for i := range prods {
		byID[prods[i].ProductID] = &prods[i]
	}
	if len(byID) != len(ids) {
		var missing []string
		for _, id := range ids {
			if byID[id] == nil {
				missing = append(missing, id)
			}
		}
		return nil, invalid("Some products no longer exist: " + strings.Join(missing, ", "))
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	var subtotal int64
	for _, line := range req.Items {
		item, err := priceLine(byID[line.ProductID], line)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
		subtotal += item.Total
	}

	now := s.Now()
	number, err := nextOrderNumber(ctx, s.Counters, now)
	if err != nil {
		return nil, err
	}

	paymentStatus := models.PaymentUnpaid
	if req.PaymentMethod != models.PayCOD {
		paymentStatus = models.PaymentPending
	}

	order := &models.Order{
		OrderID:       "o" + utils.GenerateID(12),
		OrderNumber:   number,
		UserID:        userID,
		CustomerInfo:  req.CustomerInfo,
		Items:         items,
		Subtotal:      subtotal,
		ShippingFee:   models.ShippingFee,
		Discount:      0,
		Total:         subtotal + models.ShippingFee,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
		Status:        models.OrderPending,
		StatusHistory: []models.StatusChange{{
			Status:    models.OrderPending,
			Note:      "Order created",
			UpdatedAt: now,
		}},
		OrderedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	if err := s.reserveStock(ctx, order); err != nil {
		return nil, err
	}

	if err := s.Products.AddSold(ctx, stockLines(order)); err != nil {
		log.Printf("order %s: total_sold update failed: %v", order.OrderNumber, err)
	}

	if s.Placed != nil {
		s.Placed(order)
	}
	return order, nil
}

// normalizeCheckout cleans up the submitted payload before validation: the
// contact fields are trimmed, the email is lower-cased so lookups by email
// stay case-insensitive, and a missing payment method means cash on delivery.
func normalizeCheckout(req *CheckoutRequest) {
	ci := &req.CustomerInfo
	ci.FullName = strings.TrimSpace(ci.FullName)
	ci.Email = strings.ToLower(strings.TrimSpace(ci.Email))
	ci.Phone = strings.TrimSpace(ci.Phone)
	ci.Address = strings.TrimSpace(ci.Address)
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PayCOD
	}
}

func validateCheckout(req *CheckoutRequest) error {
	ci := req.CustomerInfo
	switch {
	case ci.FullName == "":
		return invalid("Full name is required")
	case ci.Email == "":
		return invalid("Email is required")
	case ci.Phone == "":
		return invalid("Phone is required")
	case ci.Address == "":
		return invalid("Shipping address is required")
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return invalid("Unsupported payment method")
	}
	if len(req.Items) == 0 {
		return invalid("Cart is empty")
	}
	for _, line := range req.Items {
		if line.ProductID == "" {
			return invalid("Cart line is missing a product")
		}
		if line.Quantity < 1 || line.Quantity > maxLineQuantity {
			return invalid("Invalid quantity for product " + line.ProductID)
		}
	}
	return nil
}

// priceLine resolves one cart line against the catalog and freezes it into an
// order item. Prices always come from the catalog, never from the client.
func priceLine(p *models.Product, line models.CartLine) (*models.OrderItem, error) {
	item := &models.OrderItem{
		ProductID:    p.ProductID,
		ProductName:  p.Name,
		ProductImage: p.ListingImage(),
		Quantity:     line.Quantity,
	}

	if p.HasVariants {
		if line.VariantID == "" || line.Size == "" {
			return nil, invalid(fmt.Sprintf("Product %q requires a color and size", p.Name))
		}
		v := p.Variant(line.VariantID)
		if v == nil {
			return nil, invalid(fmt.Sprintf("Product %q has no such variant", p.Name))
		}
		sz := v.Size(line.Size)
		if sz == nil {
			return nil, invalid(fmt.Sprintf("Product %q (%s) has no size %s", p.Name, v.Color, line.Size))
		}
		if sz.Stock < line.Quantity {
			return nil, &InsufficientStockError{Msg: fmt.Sprintf(
				"Not enough stock for %s (%s, size %s): %d left", p.Name, v.Color, sz.Size, sz.Stock)}
		}
		item.VariantID = v.VariantID
		item.VariantColor = v.Color
		item.Size = sz.Size
		item.Price = sz.Price
		item.ProductImage = v.Image(p)
	} else {
		if p.Price == nil {
			return nil, invalid(fmt.Sprintf("Product %q has no price", p.Name))
		}
		if p.Stock < line.Quantity {
			return nil, &InsufficientStockError{Msg: fmt.Sprintf(
				"Not enough stock for %s: %d left", p.Name, p.Stock)}
		}
		item.Price = *p.Price
	}

	item.Total = item.Price * int64(item.Quantity)
	return item, nil
}

// reserveStock decrements each line conditionally. If any line fails, every
// already-reserved line is restored and the order is removed.
func (s *Service) reserveStock(ctx context.Context, order *models.Order) error {
	lines := stockLines(order)
	for i, line := range lines {
		ok, err := s.Products.DecrementStock(ctx, line)
		if err == nil && !ok {
			err = &InsufficientStockError{Msg: fmt.Sprintf(
				"%s just sold out, please adjust your cart", order.Items[i].ProductName)}
		}
		if err != nil {
			s.compensate(ctx, order, lines[:i])
			return err
		}
	}
	return nil
}

func (s *Service) compensate(ctx context.Context, order *models.Order, reserved []StockLine) {
	for _, line := range reserved {
		if err := s.Products.RestoreStock(ctx, line); err != nil {
			log.Printf("order %s: stock restore failed for product %s: %v",
				order.OrderNumber, line.ProductID, err)
		}
	}
	if err := s.Orders.Delete(ctx, order.OrderID); err != nil {
		log.Printf("order %s: rollback delete failed: %v", order.OrderNumber, err)
	}
}

func stockLines(order *models.Order) []StockLine {
	lines := make([]StockLine, len(order.Items))
	for i, it := range order.Items {
		lines[i] = StockLine{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Size:      it.Size,
			Quantity:  it.Quantity,
		}
	}
	return lines
}

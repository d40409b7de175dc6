package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"kirana/models"
)

func pendingOrder() *models.Order {
	return &models.Order{
		OrderID:       "o1",
		OrderNumber:   "KR2506010001",
		Status:        models.OrderPending,
		PaymentMethod: models.PayCOD,
		PaymentStatus: models.PaymentUnpaid,
		StatusHistory: []models.StatusChange{{Status: models.OrderPending}},
	}
}

func TestTransitionHappyPath(t *testing.T) {
	o := pendingOrder()
	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	steps := []string{
		models.OrderConfirmed,
		models.OrderProcessing,
		models.OrderShipping,
		models.OrderDelivered,
	}
	for _, next := range steps {
		at = at.Add(time.Hour)
		if err := Transition(o, next, "", "admin1", at); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	if len(o.StatusHistory) != 5 {
		t.Errorf("history length = %d, want 5", len(o.StatusHistory))
	}
	if o.ConfirmedAt == nil || o.ShippingAt == nil || o.DeliveredAt == nil {
		t.Error("transition timestamps not all stamped")
	}
	if o.PaymentStatus != models.PaymentPaid {
		t.Errorf("delivered order payment status = %s, want paid", o.PaymentStatus)
	}
	if o.PaymentInfo == nil || o.PaymentInfo.PaymentTime.IsZero() {
		t.Error("delivered order has no payment time")
	}
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	cases := []struct{ from, to string }{
		{models.OrderPending, models.OrderShipping},
		{models.OrderPending, models.OrderDelivered},
		{models.OrderConfirmed, models.OrderDelivered},
		{models.OrderDelivered, models.OrderCancelled},
		{models.OrderDelivered, models.OrderPending},
		{models.OrderCancelled, models.OrderConfirmed},
		{models.OrderShipping, models.OrderConfirmed},
	}
	for _, tc := range cases {
		o := pendingOrder()
		o.Status = tc.from
		err := Transition(o, tc.to, "", "admin1", time.Now())
		var ir *InvalidRequestError
		if !errors.As(err, &ir) {
			t.Errorf("%s -> %s: err = %v, want InvalidRequestError", tc.from, tc.to, err)
		}
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	o := pendingOrder()
	err := Transition(o, "lost", "", "admin1", time.Now())
	var ir *InvalidRequestError
	if !errors.As(err, &ir) {
		t.Fatalf("err = %v, want InvalidRequestError", err)
	}
}

func TestTransitionCancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []string{
		models.OrderPending, models.OrderConfirmed,
		models.OrderProcessing, models.OrderShipping,
	} {
		o := pendingOrder()
		o.Status = from
		at := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
		if err := Transition(o, models.OrderCancelled, "customer asked", "admin1", at); err != nil {
			t.Errorf("cancel from %s: %v", from, err)
			continue
		}
		if o.CancelledAt == nil || !o.CancelledAt.Equal(at) {
			t.Errorf("cancel from %s: cancelled_at not stamped", from)
		}
		last := o.StatusHistory[len(o.StatusHistory)-1]
		if last.Note != "customer asked" || last.UpdatedBy != "admin1" {
			t.Errorf("cancel from %s: history entry %+v", from, last)
		}
	}
}

func TestSetPaymentStatus(t *testing.T) {
	o := pendingOrder()
	o.PaymentMethod = models.PayBankTransfer
	o.PaymentStatus = models.PaymentPending
	at := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)

	if err := SetPaymentStatus(o, models.PaymentPaid, at); err != nil {
		t.Fatalf("SetPaymentStatus: %v", err)
	}
	if o.PaymentStatus != models.PaymentPaid {
		t.Errorf("payment status = %s, want paid", o.PaymentStatus)
	}
	if o.PaymentInfo == nil || !o.PaymentInfo.PaymentTime.Equal(at) {
		t.Error("payment time not stamped")
	}
	if !o.UpdatedAt.Equal(at) {
		t.Error("updated_at not stamped")
	}

	// Marking paid again, or refunding, keeps the original payment time.
	later := at.Add(time.Hour)
	if err := SetPaymentStatus(o, models.PaymentRefunded, later); err != nil {
		t.Fatalf("SetPaymentStatus: %v", err)
	}
	if o.PaymentStatus != models.PaymentRefunded {
		t.Errorf("payment status = %s, want refunded", o.PaymentStatus)
	}
	if !o.PaymentInfo.PaymentTime.Equal(at) {
		t.Error("payment time changed on a later update")
	}

	err := SetPaymentStatus(o, "maybe", later)
	var ir *InvalidRequestError
	if !errors.As(err, &ir) {
		t.Fatalf("err = %v, want InvalidRequestError", err)
	}
}

func TestOrderNumberDayRollover(t *testing.T) {
	store := newMemStore()

	n1, err := nextOrderNumber(context.Background(), store, time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	n2, err := nextOrderNumber(context.Background(), store, time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	if n1 != "KR2506010001" {
		t.Errorf("first number = %s, want KR2506010001", n1)
	}
	if n2 != "KR2506020001" {
		t.Errorf("next-day number = %s, want KR2506020001", n2)
	}
}

package orders

import (
	"time"

	"kirana/models"
)

// nextStatuses maps each order status to the statuses it may move to.
// Delivered and cancelled are terminal.
var nextStatuses = map[string][]string{
	models.OrderPending:    {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:  {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipping, models.OrderCancelled},
	models.OrderShipping:   {models.OrderDelivered, models.OrderCancelled},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range nextStatuses[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition applies a status change to the order in memory: it validates the
// move, appends a history record and stamps the matching timestamp. Marking an
// order delivered also settles its payment.
func Transition(o *models.Order, to, note, updatedBy string, at time.Time) error {
	if !models.ValidOrderStatus(to) {
		return invalid("Unknown order status " + to)
	}
	if !CanTransition(o.Status, to) {
		return invalid("Order cannot move from " + o.Status + " to " + to)
	}

	o.Status = to
	o.StatusHistory = append(o.StatusHistory, models.StatusChange{
		Status:    to,
		Note:      note,
		UpdatedBy: updatedBy,
		UpdatedAt: at,
	})
	o.UpdatedAt = at

	switch to {
	case models.OrderConfirmed:
		o.ConfirmedAt = &at
	case models.OrderShipping:
		o.ShippingAt = &at
	case models.OrderDelivered:
		o.DeliveredAt = &at
		o.PaymentStatus = models.PaymentPaid
		if o.PaymentInfo == nil {
			o.PaymentInfo = &models.PaymentInfo{}
		}
		if o.PaymentInfo.PaymentTime.IsZero() {
			o.PaymentInfo.PaymentTime = at
		}
	case models.OrderCancelled:
		o.CancelledAt = &at
	}
	return nil
}

// SetPaymentStatus records a payment state change on the order in memory.
// Moving to paid stamps the payment time once.
func SetPaymentStatus(o *models.Order, to string, at time.Time) error {
	if !models.ValidPaymentStatus(to) {
		return invalid("Unknown payment status " + to)
	}
	o.PaymentStatus = to
	o.UpdatedAt = at
	if to == models.PaymentPaid {
		if o.PaymentInfo == nil {
			o.PaymentInfo = &models.PaymentInfo{}
		}
		if o.PaymentInfo.PaymentTime.IsZero() {
			o.PaymentInfo.PaymentTime = at
		}
	}
	return nil
}

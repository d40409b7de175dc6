package models

import "time"

// Order statuses. Delivered and cancelled are terminal.
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipping   = "shipping"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Payment methods.
const (
	PayCOD          = "cod"
	PayBankTransfer = "bank_transfer"
	PayMomo         = "momo"
	PayVNPay        = "vnpay"
	PayZaloPay      = "zalopay"
)

// Payment statuses.
const (
	PaymentUnpaid   = "unpaid"
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// ShippingFee is the flat storefront delivery charge in VND.
const ShippingFee int64 = 30000

func ValidPaymentMethod(m string) bool {
	switch m {
	case PayCOD, PayBankTransfer, PayMomo, PayVNPay, PayZaloPay:
		return true
	}
	return false
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipping, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentUnpaid, PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// CustomerInfo is the shipping contact captured at checkout.
type CustomerInfo struct {
	FullName string `json:"full_name" bson:"full_name"`
	Email    string `json:"email" bson:"email"`
	Phone    string `json:"phone" bson:"phone"`
	Address  string `json:"address" bson:"address"`
	Note     string `json:"note,omitempty" bson:"note,omitempty"`
}

// OrderItem is a frozen snapshot of catalog data at order time. Later edits
// to the product never change it.
type OrderItem struct {
	ProductID    string `json:"product_id" bson:"product_id"`
	ProductName  string `json:"product_name" bson:"product_name"`
	ProductImage string `json:"product_image" bson:"product_image"`
	VariantID    string `json:"variant_id,omitempty" bson:"variant_id,omitempty"`
	VariantColor string `json:"variant_color,omitempty" bson:"variant_color,omitempty"`
	Size         string `json:"size,omitempty" bson:"size,omitempty"`
	Price        int64  `json:"price" bson:"price"`
	Quantity     int    `json:"quantity" bson:"quantity"`
	Total        int64  `json:"total" bson:"total"`
}

// StatusChange is one immutable entry in an order's status history.
type StatusChange struct {
	Status    string    `json:"status" bson:"status"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type PaymentInfo struct {
	TransactionID  string    `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	PaymentTime    time.Time `json:"payment_time,omitempty" bson:"payment_time,omitempty"`
	PaymentDetails string    `json:"payment_details,omitempty" bson:"payment_details,omitempty"`
}

// Order is written once, fully formed, at checkout; afterwards only the
// status/payment fields move.
type Order struct {
	OrderID       string         `json:"orderId" bson:"orderid"`
	OrderNumber   string         `json:"order_number" bson:"order_number"`
	UserID        string         `json:"user_id,omitempty" bson:"user_id,omitempty"`
	CustomerInfo  CustomerInfo   `json:"customer_info" bson:"customer_info"`
	Items         []OrderItem    `json:"items" bson:"items"`
	Subtotal      int64          `json:"subtotal" bson:"subtotal"`
	ShippingFee   int64          `json:"shipping_fee" bson:"shipping_fee"`
	Discount      int64          `json:"discount" bson:"discount"`
	Total         int64          `json:"total" bson:"total"`
	PaymentMethod string         `json:"payment_method" bson:"payment_method"`
	PaymentStatus string         `json:"payment_status" bson:"payment_status"`
	PaymentInfo   *PaymentInfo   `json:"payment_info,omitempty" bson:"payment_info,omitempty"`
	Status        string         `json:"status" bson:"status"`
	StatusHistory []StatusChange `json:"status_history" bson:"status_history"`
	AdminNote     string         `json:"admin_note,omitempty" bson:"admin_note,omitempty"`
	OrderedAt     time.Time      `json:"ordered_at" bson:"ordered_at"`
	ConfirmedAt   *time.Time     `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	ShippingAt    *time.Time     `json:"shipping_at,omitempty" bson:"shipping_at,omitempty"`
	DeliveredAt   *time.Time     `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// TotalItems sums the quantities across all lines.
func (o *Order) TotalItems() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

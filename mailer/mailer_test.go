package mailer

import (
	"strings"
	"testing"

	"kirana/models"
)

type captureSender struct {
	to, subject, body string
}

func (c *captureSender) Send(to, subject, body string) error {
	c.to, c.subject, c.body = to, subject, body
	return nil
}

func TestFormatVND(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1.000",
		30000:    "30.000",
		150000:   "150.000",
		1234567:  "1.234.567",
		30000000: "30.000.000",
	}
	for in, want := range cases {
		if got := formatVND(in); got != want {
			t.Errorf("formatVND(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestSendOrderConfirmationEmail(t *testing.T) {
	c := &captureSender{}
	o := &models.Order{
		OrderNumber: "KR2506010001",
		CustomerInfo: models.CustomerInfo{
			FullName: "Nguyen Van A",
			Email:    "a@example.com",
		},
		Items: []models.OrderItem{
			{ProductName: "Ao Thun", VariantColor: "Red", Size: "M", Quantity: 2, Total: 300000},
			{ProductName: "Binh Nuoc", Quantity: 1, Total: 120000},
		},
		ShippingFee: 30000,
		Total:       450000,
	}

	if err := SendOrderConfirmationEmail(c, o.CustomerInfo.Email, o); err != nil {
		t.Fatal(err)
	}

	if c.to != "a@example.com" {
		t.Errorf("to = %q", c.to)
	}
	if !strings.Contains(c.subject, "KR2506010001") {
		t.Errorf("subject = %q", c.subject)
	}
	for _, want := range []string{"Nguyen Van A", "Ao Thun", "(Red, size M)", "x2", "450.000", "order-tracking/KR2506010001"} {
		if !strings.Contains(c.body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

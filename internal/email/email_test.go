package email

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-shop-api/internal/events"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"999.5", "$999.50"},
		{"1000", "$1,000.00"},
		{"1234567.891", "$1,234,567.89"},
		{"-42.1", "-$42.10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	body, err := BuildOrderConfirmationBody("<Ann>", events.OrderPlaced{
		OrderNumber: "ORD-1-ABCD",
		Items: []events.OrderLine{
			{ProductID: "p1", Name: "Mug", Quantity: 2, UnitPrice: decimal.RequireFromString("4.5"), LineTotal: decimal.RequireFromString("9")},
			{ProductID: "p2", Quantity: 1, UnitPrice: decimal.RequireFromString("1200"), LineTotal: decimal.RequireFromString("1200")},
		},
		ShippingCost: decimal.Zero,
		GrandTotal:   decimal.RequireFromString("1209"),
	})

	require.NoError(t, err)
	assert.Contains(t, body, "ORD-1-ABCD")
	assert.Contains(t, body, "Mug")
	assert.Contains(t, body, "$9.00")
	assert.Contains(t, body, ">p2<")
	assert.Contains(t, body, "$1,209.00")
	assert.Contains(t, body, "&lt;Ann&gt;")
	assert.NotContains(t, body, "<Ann>")
}

func TestBuildStatusUpdateBody(t *testing.T) {
	body, err := BuildStatusUpdateBody("Ann", events.OrderStatusChanged{
		OrderNumber: "ORD-1-ABCD",
		From:        "pending",
		To:          "cancelled",
		Reason:      "cancelled by customer",
	})

	require.NoError(t, err)
	assert.Contains(t, body, "<strong>pending</strong>")
	assert.Contains(t, body, "<strong>cancelled</strong>")
	assert.Contains(t, body, "Reason: cancelled by customer")
}

func TestService_SendOrderConfirmation(t *testing.T) {
	svc := NewService("mail", "25", "shop@example.com")
	var gotAddr string
	var gotTo []string
	var gotMsg string
	svc.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := svc.SendOrderConfirmation("ann@example.com", "Ann", events.OrderPlaced{OrderNumber: "ORD-1-ABCD"})

	require.NoError(t, err)
	assert.Equal(t, "mail:25", gotAddr)
	assert.Equal(t, []string{"ann@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Order confirmation ORD-1-ABCD\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html; charset=UTF-8")
}

func TestService_SendFailures(t *testing.T) {
	svc := NewService("mail", "25", "shop@example.com")
	svc.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }

	err := svc.SendStatusUpdate("ann@example.com", "Ann", events.OrderStatusChanged{OrderNumber: "ORD-1", To: "shipped"})
	assert.ErrorContains(t, err, "relay down")

	err = svc.SendStatusUpdate("ann@example.com\r\nBcc: x@example.com", "Ann", events.OrderStatusChanged{})
	assert.ErrorContains(t, err, "header injection")
}

package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/events"
	"github.com/example/ec-shop-api/internal/store/memory"
)

type sentMail struct {
	kind string
	to   string
	ref  string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendOrderConfirmation(to, _ string, o events.OrderPlaced) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{"confirmation", to, o.OrderNumber})
	return nil
}

func (m *fakeMailer) SendStatusUpdate(to, _ string, c events.OrderStatusChanged) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{"status", to, c.To})
	return nil
}

func setup(t *testing.T) (*Handler, *fakeMailer) {
	t.Helper()
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Users().Create(ctx, &user.User{ID: "u1", Email: "ann@example.com", Name: "Ann", Role: user.RoleCustomer, IsActive: true}))
	require.NoError(t, st.Users().Create(ctx, &user.User{ID: "u2", Email: "bob@example.com", Name: "Bob", Role: user.RoleCustomer}))

	mailer := &fakeMailer{}
	return NewHandler(mailer, st.Users(), zap.NewNop()), mailer
}

func envelope(t *testing.T, eventType string, payload any) *events.Envelope {
	t.Helper()
	e, err := events.New(eventType, "order-1", payload)
	require.NoError(t, err)
	return e
}

func TestHandleEvent_OrderPlaced(t *testing.T) {
	h, mailer := setup(t)

	err := h.HandleEvent(context.Background(), envelope(t, events.TypeOrderPlaced, events.OrderPlaced{
		OrderID: "order-1", OrderNumber: "ORD-1-ABCD", UserID: "u1",
	}))

	require.NoError(t, err)
	assert.Equal(t, []sentMail{{"confirmation", "ann@example.com", "ORD-1-ABCD"}}, mailer.sent)
}

func TestHandleEvent_StatusChanged(t *testing.T) {
	h, mailer := setup(t)

	err := h.HandleEvent(context.Background(), envelope(t, events.TypeOrderStatusChanged, events.OrderStatusChanged{
		OrderID: "order-1", UserID: "u1", From: "processing", To: "shipped",
	}))

	require.NoError(t, err)
	assert.Equal(t, []sentMail{{"status", "ann@example.com", "shipped"}}, mailer.sent)
}

func TestHandleEvent_SkipsWithoutRecipient(t *testing.T) {
	tests := []struct {
		name   string
		userID string
	}{
		{"unknown user", "ghost"},
		{"inactive user", "u2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mailer := setup(t)

			err := h.HandleEvent(context.Background(), envelope(t, events.TypeOrderPlaced, events.OrderPlaced{UserID: tt.userID}))

			assert.NoError(t, err)
			assert.Empty(t, mailer.sent)
		})
	}
}

func TestHandleEvent_Errors(t *testing.T) {
	h, mailer := setup(t)
	mailer.err = errors.New("smtp down")

	err := h.HandleEvent(context.Background(), envelope(t, events.TypeOrderPlaced, events.OrderPlaced{UserID: "u1", OrderNumber: "ORD-9"}))
	assert.ErrorContains(t, err, "smtp down")

	bad := &events.Envelope{Type: events.TypeOrderStatusChanged, Data: []byte(`[]`)}
	assert.Error(t, h.HandleEvent(context.Background(), bad))
}

func TestHandleEvent_IgnoresUnknownType(t *testing.T) {
	h, mailer := setup(t)

	err := h.HandleEvent(context.Background(), &events.Envelope{Type: "ProductCreated", Data: []byte(`{}`)})

	assert.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

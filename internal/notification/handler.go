package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/events"
)

// Mailer is the subset of email.Service the handler needs.
type Mailer interface {
	SendOrderConfirmation(to, name string, o events.OrderPlaced) error
	SendStatusUpdate(to, name string, c events.OrderStatusChanged) error
}

// UserFinder loads the customer an event refers to.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Handler turns order events into customer emails.
type Handler struct {
	mailer Mailer
	users  UserFinder
	logger *zap.Logger
}

func NewHandler(mailer Mailer, users UserFinder, logger *zap.Logger) *Handler {
	return &Handler{
		mailer: mailer,
		users:  users,
		logger: logger.Named("notifier"),
	}
}

// HandleEvent dispatches on the envelope type. Unknown types are ignored.
func (h *Handler) HandleEvent(ctx context.Context, e *events.Envelope) error {
	switch e.Type {
	case events.TypeOrderPlaced:
		return h.handleOrderPlaced(ctx, e)
	case events.TypeOrderStatusChanged:
		return h.handleStatusChanged(ctx, e)
	default:
		return nil
	}
}

func (h *Handler) handleOrderPlaced(ctx context.Context, e *events.Envelope) error {
	var placed events.OrderPlaced
	if err := e.Decode(&placed); err != nil {
		return err
	}

	u, ok, err := h.recipient(ctx, placed.UserID)
	if err != nil || !ok {
		return err
	}

	if err := h.mailer.SendOrderConfirmation(u.Email, u.Name, placed); err != nil {
		return fmt.Errorf("order confirmation for %s: %w", placed.OrderNumber, err)
	}

	h.logger.Info("order confirmation sent",
		zap.String("order_id", placed.OrderID),
		zap.String("user_id", u.ID),
	)
	return nil
}

func (h *Handler) handleStatusChanged(ctx context.Context, e *events.Envelope) error {
	var changed events.OrderStatusChanged
	if err := e.Decode(&changed); err != nil {
		return err
	}

	u, ok, err := h.recipient(ctx, changed.UserID)
	if err != nil || !ok {
		return err
	}

	if err := h.mailer.SendStatusUpdate(u.Email, u.Name, changed); err != nil {
		return fmt.Errorf("status update for %s: %w", changed.OrderNumber, err)
	}

	h.logger.Info("status update sent",
		zap.String("order_id", changed.OrderID),
		zap.String("status", changed.To),
	)
	return nil
}

// recipient returns ok=false when the user is gone or deactivated; there is
// nobody to mail and retrying will not help.
func (h *Handler) recipient(ctx context.Context, userID string) (*user.User, bool, error) {
	u, err := h.users.GetByID(ctx, userID)
	if errors.Is(err, user.ErrUserNotFound) {
		h.logger.Warn("user not found, skipping notification", zap.String("user_id", userID))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load user %s: %w", userID, err)
	}
	if !u.IsActive {
		h.logger.Info("user inactive, skipping notification", zap.String("user_id", userID))
		return nil, false, nil
	}
	return u, true, nil
}

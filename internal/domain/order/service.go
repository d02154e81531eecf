package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/events"
	"github.com/example/ec-shop-api/internal/pagination"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var validate = validator.New()

// ProductFinder bulk-loads the products an order refers to.
type ProductFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]*product.Product, error)
}

// CartStore is the part of the cart repository used when ordering from the cart.
type CartStore interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Delete(ctx context.Context, userID string) error
}

// LineInput is one requested line.
type LineInput struct {
	ProductID string
	Variant   map[string]string
	Quantity  int
}

// PlaceInput describes an order to place. With UseCart set the lines come
// from the user's cart and Items is ignored.
type PlaceInput struct {
	UserID          string
	Items           []LineInput
	UseCart         bool
	ShippingAddress Address
	ShippingMethod  ShippingMethod
	PaymentMethod   PaymentMethod
}

type Service struct {
	repo      Repository
	products  ProductFinder
	carts     CartStore
	shipping  ShippingPolicy
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, products ProductFinder, carts CartStore, shipping ShippingPolicy, publisher events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		carts:     carts,
		shipping:  shipping,
		publisher: publisher,
		logger:    logger.Named("order"),
		now:       time.Now,
	}
}

// Place prices the requested lines against the current catalog and stores
// the order together with its stock decrements.
func (s *Service) Place(ctx context.Context, in PlaceInput) (*Order, error) {
	lines := in.Items
	if in.UseCart {
		fromCart, err := s.cartLines(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		lines = fromCart
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}
	if in.ShippingMethod == "" {
		in.ShippingMethod = ShippingStandard
	}
	if !in.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if err := validateAddress(in.ShippingAddress); err != nil {
		return nil, err
	}

	products, err := s.loadProducts(ctx, lines)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := &Order{
		ID:              uuid.New().String(),
		OrderNumber:     orderNumber(now, in.UserID),
		UserID:          in.UserID,
		ShippingAddress: in.ShippingAddress,
		ShippingMethod:  in.ShippingMethod,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   PaymentPending,
		Status:          StatusPending,
		ItemsTotal:      decimal.Zero,
		Discount:        decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	requested := map[string]int{}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
		}
		if !p.Available() {
			return nil, fmt.Errorf("%w: %q", ErrProductUnavailable, p.Name)
		}
		requested[p.ID] += l.Quantity
		if p.Stock < requested[p.ID] {
			return nil, &StockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: requested[p.ID]}
		}

		qty := decimal.NewFromInt(int64(l.Quantity))
		unit := p.EffectivePrice(now)
		item := Item{
			ProductID:     p.ID,
			Name:          p.Name,
			Variant:       l.Variant,
			Quantity:      l.Quantity,
			UnitPrice:     unit,
			OriginalPrice: p.Price,
			LineTotal:     unit.Mul(qty),
		}
		if len(p.Images) > 0 {
			item.Image = p.Images[0]
		}
		o.Items = append(o.Items, item)
		o.ItemsTotal = o.ItemsTotal.Add(item.LineTotal)
		o.Discount = o.Discount.Add(p.Price.Sub(unit).Mul(qty))
	}

	o.ShippingCost, err = s.shipping.Cost(in.ShippingMethod, o.ItemsTotal)
	if err != nil {
		return nil, err
	}
	o.GrandTotal = o.ItemsTotal.Add(o.ShippingCost)

	if err := s.repo.Place(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("user_id", o.UserID),
		zap.String("grand_total", o.GrandTotal.StringFixed(2)))

	if in.UseCart {
		if err := s.carts.Delete(ctx, in.UserID); err != nil && !errors.Is(err, cart.ErrCartNotFound) {
			s.logger.Warn("failed to clear cart after order", zap.String("user_id", in.UserID), zap.Error(err))
		}
	}

	s.publish(ctx, events.TypeOrderPlaced, o.ID, placedEvent(o))
	return o, nil
}

// Get returns an order to its owner or to an administrator.
func (s *Service) Get(ctx context.Context, requesterID string, isAdmin bool, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != requesterID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListMine returns the caller's orders, newest first.
func (s *Service) ListMine(ctx context.Context, userID string, filter ListFilter) (*pagination.Page[*Order], error) {
	filter.UserID = userID
	return s.List(ctx, filter)
}

// List returns orders matching filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (*pagination.Page[*Order], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	p := pagination.New(filter.Page, filter.Limit)
	filter.Page, filter.Limit = p.Page, p.Limit

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(orders, total, p), nil
}

// UpdateStatus moves an order to target on behalf of an administrator.
// Requesting the current status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id string, target Status, reason string) (*Order, error) {
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, target, reason)
}

// Cancel lets a customer cancel their own order while it is still pending
// or processing.
func (s *Service) Cancel(ctx context.Context, userID, id, reason string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrForbidden
	}
	if reason == "" {
		reason = "cancelled by customer"
	}
	return s.transition(ctx, o, StatusCancelled, reason)
}

// Stats summarizes all orders.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) transition(ctx context.Context, o *Order, target Status, reason string) (*Order, error) {
	if o.Status == target {
		return o, nil
	}
	if !o.CanTransitionTo(target) {
		return nil, o.transitionError(target)
	}

	from := o.Status
	o.apply(target, s.now(), reason)

	if err := s.repo.Transition(ctx, o, from, target.Restocks()); err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.Bool("restocked", target.Restocks()))

	s.publish(ctx, events.TypeOrderStatusChanged, o.ID, events.OrderStatusChanged{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		From:        string(from),
		To:          string(target),
		Reason:      reason,
		ChangedAt:   o.UpdatedAt,
	})
	return o, nil
}

func (s *Service) cartLines(ctx context.Context, userID string) ([]LineInput, error) {
	c, err := s.carts.Get(ctx, userID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return nil, ErrEmptyOrder
	}
	if err != nil {
		return nil, err
	}
	lines := make([]LineInput, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, LineInput{ProductID: it.ProductID, Variant: it.Variant, Quantity: it.Quantity})
	}
	return lines, nil
}

func (s *Service) loadProducts(ctx context.Context, lines []LineInput) (map[string]*product.Product, error) {
	ids := make([]string, 0, len(lines))
	seen := map[string]bool{}
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*product.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	return byID, nil
}

// publish is best-effort; the order is already committed.
func (s *Service) publish(ctx context.Context, eventType, orderID string, payload any) {
	env, err := events.New(eventType, orderID, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, env)
	}
	if err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}

func placedEvent(o *Order) events.OrderPlaced {
	lines := make([]events.OrderLine, len(o.Items))
	for i, it := range o.Items {
		lines[i] = events.OrderLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		}
	}
	return events.OrderPlaced{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Items:         lines,
		ShippingCost:  o.ShippingCost,
		GrandTotal:    o.GrandTotal,
		PaymentMethod: string(o.PaymentMethod),
		PlacedAt:      o.CreatedAt,
	}
}

// orderNumber is ORD-<unix millis>-<last four characters of the user id>.
func orderNumber(now time.Time, userID string) string {
	suffix := userID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(suffix))
}

func validateAddress(a Address) error {
	if err := validate.Struct(a); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			names := make([]string, len(fieldErrs))
			for i, fe := range fieldErrs {
				names[i] = fe.Field()
			}
			return fmt.Errorf("%w: missing %s", ErrInvalidAddress, strings.Join(names, ", "))
		}
		return ErrInvalidAddress
	}
	return nil
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/ec-shop-api/internal/api/middleware"
	"github.com/example/ec-shop-api/internal/domain/order"
)

type orderLineRequest struct {
	ProductID string            `json:"product_id" binding:"required"`
	Variant   map[string]string `json:"variant"`
	Quantity  int               `json:"quantity" binding:"required,min=1"`
}

// placeOrderRequest takes either explicit items or use_cart.
type placeOrderRequest struct {
	Items           []orderLineRequest   `json:"items" binding:"omitempty,dive"`
	UseCart         bool                 `json:"use_cart"`
	ShippingAddress order.Address        `json:"shipping_address"`
	ShippingMethod  order.ShippingMethod `json:"shipping_method"`
	PaymentMethod   order.PaymentMethod  `json:"payment_method"`
}

type orderListQuery struct {
	pageQuery
	Status string `form:"status"`
	UserID string `form:"user_id"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	lines := make([]order.LineInput, len(req.Items))
	for i, item := range req.Items {
		lines[i] = order.LineInput{ProductID: item.ProductID, Variant: item.Variant, Quantity: item.Quantity}
	}

	o, err := h.svc.Orders.Place(c.Request.Context(), order.PlaceInput{
		UserID:          currentUser(c).ID,
		Items:           lines,
		UseCart:         req.UseCart,
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "order placed", o)
}

func (h *Handlers) MyOrders(c *gin.Context) {
	var q orderListQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.svc.Orders.ListMine(c.Request.Context(), currentUser(c).ID, order.ListFilter{
		Status: order.Status(q.Status),
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

func (h *Handlers) GetOrder(c *gin.Context) {
	o, err := h.svc.Orders.Get(c.Request.Context(), currentUser(c).ID, middleware.IsAdmin(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", o)
}

func (h *Handlers) CancelOrder(c *gin.Context) {
	var req cancelRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	o, err := h.svc.Orders.Cancel(c.Request.Context(), currentUser(c).ID, c.Param("id"), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "order cancelled", o)
}

func (h *Handlers) ListOrders(c *gin.Context) {
	var q orderListQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.svc.Orders.List(c.Request.Context(), order.ListFilter{
		UserID: q.UserID,
		Status: order.Status(q.Status),
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}

	o, err := h.svc.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), order.Status(req.Status), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "order status updated", o)
}

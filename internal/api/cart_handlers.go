package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ProductID string            `json:"product_id" binding:"required"`
	Variant   map[string]string `json:"variant"`
	Quantity  int               `json:"quantity" binding:"omitempty,min=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type wishlistRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

func (h *Handlers) GetCart(c *gin.Context) {
	crt, err := h.svc.Carts.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", crt)
}

// AddCartItem adds a line, or raises the quantity of a matching line.
// Quantity defaults to one.
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req addCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	crt, err := h.svc.Carts.AddItem(c.Request.Context(), currentUser(c).ID, req.ProductID, req.Variant, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "item added to cart", crt)
}

func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	crt, err := h.svc.Carts.UpdateItem(c.Request.Context(), currentUser(c).ID, c.Param("itemId"), req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "cart updated", crt)
}

func (h *Handlers) RemoveCartItem(c *gin.Context) {
	crt, err := h.svc.Carts.RemoveItem(c.Request.Context(), currentUser(c).ID, c.Param("itemId"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "item removed from cart", crt)
}

func (h *Handlers) ClearCart(c *gin.Context) {
	if err := h.svc.Carts.Clear(c.Request.Context(), currentUser(c).ID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *Handlers) GetWishlist(c *gin.Context) {
	view, err := h.svc.Wishlists.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", view)
}

func (h *Handlers) AddWishlistItem(c *gin.Context) {
	var req wishlistRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.svc.Wishlists.Add(c.Request.Context(), currentUser(c).ID, req.ProductID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "added to wishlist", view)
}

func (h *Handlers) RemoveWishlistItem(c *gin.Context) {
	view, err := h.svc.Wishlists.Remove(c.Request.Context(), currentUser(c).ID, c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "removed from wishlist", view)
}

func (h *Handlers) ClearWishlist(c *gin.Context) {
	if err := h.svc.Wishlists.Clear(c.Request.Context(), currentUser(c).ID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), currentCustomer(c).ID)
	h.respondCart(c, cart, err)
}

func (h *handlers) cartSummary(c *gin.Context) {
	summary, err := h.deps.CartSvc.Summary(c.Request.Context(), currentCustomer(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartSummaryResponse(summary, currencyOr(summary.Currency)))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := h.deps.CartSvc.AddItem(c.Request.Context(), currentCustomer(c).ID, req.ProductID, req.Quantity)
	h.respondCart(c, cart, err)
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == nil {
		badRequest(c, errors.New("quantity is required"))
		return
	}
	cart, err := h.deps.CartSvc.UpdateItem(c.Request.Context(), currentCustomer(c).ID, c.Param("productId"), *req.Quantity)
	h.respondCart(c, cart, err)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	cart, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), currentCustomer(c).ID, c.Param("productId"))
	h.respondCart(c, cart, err)
}

func (h *handlers) clearCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Clear(c.Request.Context(), currentCustomer(c).ID)
	h.respondCart(c, cart, err)
}

func (h *handlers) respondCart(c *gin.Context, cart *domain.Cart, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(*cart))
}

package httpserver

import (
	"fmt"
	"net/http"

	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type cartCheckoutRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod" binding:"required"`
	Notes           string                 `json:"notes"`
}

type itemsCheckoutRequest struct {
	Items           []ordersvc.ItemInput   `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod" binding:"required"`
	Notes           string                 `json:"notes"`
}

type payOrderRequest struct {
	PaymentResult domain.PaymentResult `json:"paymentResult"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type cancelOrderResponse struct {
	Order     orderResponse        `json:"order"`
	Restocked []domain.StockResult `json:"restocked"`
}

// createOrderFromCart checks out the caller's cart. Without a shipping
// address in the body the customer's default address is used.
func (h *handlers) createOrderFromCart(c *gin.Context) {
	var req cartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cust := currentCustomer(c)
	addr := req.ShippingAddress
	if addr == (domain.ShippingAddress{}) {
		if saved, ok := cust.DefaultShippingAddress(); ok {
			addr = saved.ShippingAddress()
		}
	}
	o, err := h.deps.OrderSvc.CreateFromCart(c.Request.Context(), cust.ID, ordersvc.CheckoutInput{
		ShippingAddress: addr,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*o))
}

func (h *handlers) checkout(c *gin.Context) {
	var req itemsCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var userID *string
	if cust := currentCustomer(c); cust != nil {
		id := cust.ID
		userID = &id
	}
	o, err := h.deps.OrderSvc.CreateFromItems(c.Request.Context(), userID, req.Items, ordersvc.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*o))
}

func (h *handlers) listMyOrders(c *gin.Context) {
	id := currentCustomer(c).ID
	h.listOrders(c, &id)
}

func (h *handlers) adminListOrders(c *gin.Context) {
	var userID *string
	if v := c.Query("userId"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			badRequest(c, fmt.Errorf("userId must be a uuid: %q", v))
			return
		}
		userID = &v
	}
	h.listOrders(c, userID)
}

func (h *handlers) listOrders(c *gin.Context, userID *string) {
	orders, info, err := h.deps.OrderSvc.List(c.Request.Context(), ordersvc.ListQuery{
		UserID: userID,
		Status: c.Query("status"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(toOrderResponses(orders), info))
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), currentActor(c), c.Param("id"))
	h.respondOrder(c, o, err)
}

func (h *handlers) payOrder(c *gin.Context) {
	var req payOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.deps.OrderSvc.MarkPaid(c.Request.Context(), currentActor(c), c.Param("id"), req.PaymentResult)
	h.respondOrder(c, o, err)
}

func (h *handlers) cancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	res, err := h.deps.OrderSvc.Cancel(c.Request.Context(), currentActor(c), c.Param("id"), req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	restocked := res.Restocked
	if restocked == nil {
		restocked = []domain.StockResult{}
	}
	c.JSON(http.StatusOK, cancelOrderResponse{Order: toOrderResponse(*res.Order), Restocked: restocked})
}

func (h *handlers) adminSetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.deps.OrderSvc.SetStatus(c.Request.Context(), c.Param("id"), req.Status, req.Note)
	h.respondOrder(c, o, err)
}

func (h *handlers) adminDeliver(c *gin.Context) {
	o, err := h.deps.OrderSvc.MarkDelivered(c.Request.Context(), c.Param("id"))
	h.respondOrder(c, o, err)
}

func (h *handlers) respondOrder(c *gin.Context, o *domain.Order, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

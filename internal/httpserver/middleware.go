package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"

	"github.com/gin-gonic/gin"
)

const customerCtxKey = "customer"

// authenticate resolves the bearer token into a customer. With required=false
// a request without a token continues as a guest, but a bad token is still
// rejected.
func (h *handlers) authenticate(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if required {
				abortUnauthorized(c)
				return
			}
			c.Next()
			return
		}
		cust, err := h.deps.CustomerSvc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, customersvc.ErrInvalidToken) {
				abortUnauthorized(c)
				return
			}
			h.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(customerCtxKey, cust)
		c.Next()
	}
}

func adminOnly(c *gin.Context) {
	cust := currentCustomer(c)
	if cust == nil || !cust.IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "Forbidden", Message: "Admin access required"})
		return
	}
	c.Next()
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Unauthorized", Message: "Missing or invalid bearer token"})
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func currentCustomer(c *gin.Context) *domain.Customer {
	v, ok := c.Get(customerCtxKey)
	if !ok {
		return nil
	}
	cust, _ := v.(*domain.Customer)
	return cust
}

func currentActor(c *gin.Context) ordersvc.Actor {
	cust := currentCustomer(c)
	if cust == nil {
		return ordersvc.Actor{}
	}
	return ordersvc.Actor{UserID: cust.ID, IsAdmin: cust.IsAdmin}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusForKind(kind error) int {
	switch kind {
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrInsufficientStock, domain.ErrInvalidState, domain.ErrAlreadyExists:
		return http.StatusConflict
	case domain.ErrEmptyCart, domain.ErrEmptyItemList, domain.ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps domain error kinds onto status codes. Unclassified errors
// are logged and reported without their message.
func (h *handlers) writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		h.logger.Printf("http: %s %s error=%v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, errorBody{Error: "Internal", Message: "Internal server error"})
		return
	}
	msg := err.Error()
	var de *domain.Error
	if !errors.As(err, &de) {
		msg = http.StatusText(status)
	}
	c.JSON(status, errorBody{Error: domain.KindName(kind), Message: msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody{Error: domain.KindName(domain.ErrValidation), Message: err.Error()})
}

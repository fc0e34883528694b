package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type productService interface {
	List(ctx context.Context, q productsvc.ListQuery) ([]domain.Product, domain.PageInfo, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type cartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Summary(ctx context.Context, userID string) (domain.CartSummary, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
}

type orderService interface {
	CreateFromCart(ctx context.Context, userID string, in ordersvc.CheckoutInput) (*domain.Order, error)
	CreateFromItems(ctx context.Context, userID *string, items []ordersvc.ItemInput, in ordersvc.CheckoutInput) (*domain.Order, error)
	Get(ctx context.Context, actor ordersvc.Actor, id string) (*domain.Order, error)
	List(ctx context.Context, q ordersvc.ListQuery) ([]domain.Order, domain.PageInfo, error)
	MarkPaid(ctx context.Context, actor ordersvc.Actor, id string, result domain.PaymentResult) (*domain.Order, error)
	MarkDelivered(ctx context.Context, id string) (*domain.Order, error)
	Cancel(ctx context.Context, actor ordersvc.Actor, id, reason string) (*ordersvc.CancelResult, error)
	SetStatus(ctx context.Context, id, status, note string) (*domain.Order, error)
}

type customerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, string, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Customer, string, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	AccessTTLSeconds() int
}

// Deps holds the services the router dispatches to.
type Deps struct {
	ProductSvc  productService
	CategorySvc categoryService
	CartSvc     cartService
	OrderSvc    orderService
	CustomerSvc customerService
}

var _ cartService = (*cartsvc.Service)(nil)
var _ orderService = (*ordersvc.Service)(nil)
var _ customerService = (*customersvc.Service)(nil)
var _ productService = (*productsvc.Service)(nil)

type handlers struct {
	logger *log.Logger
	deps   Deps
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db Pinger, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if deps.ProductSvc == nil || deps.CategorySvc == nil || deps.CartSvc == nil || deps.OrderSvc == nil || deps.CustomerSvc == nil {
		return nil, errors.New("httpserver: all services are required")
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h := &handlers{logger: logger, deps: deps}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/auth/signup", h.signup)
	router.POST("/auth/token", h.token)
	router.GET("/me", h.authenticate(true), h.me)

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/categories", h.listCategories)

	cart := router.Group("/cart", h.authenticate(true))
	cart.GET("", h.getCart)
	cart.GET("/summary", h.cartSummary)
	cart.POST("/items", h.addCartItem)
	cart.PUT("/items/:productId", h.updateCartItem)
	cart.DELETE("/items/:productId", h.removeCartItem)
	cart.DELETE("", h.clearCart)

	router.POST("/orders", h.authenticate(true), h.createOrderFromCart)
	router.GET("/orders", h.authenticate(true), h.listMyOrders)
	router.POST("/checkout", h.authenticate(false), h.checkout)
	router.GET("/orders/:id", h.authenticate(false), h.getOrder)
	router.POST("/orders/:id/pay", h.authenticate(false), h.payOrder)
	router.POST("/orders/:id/cancel", h.authenticate(false), h.cancelOrder)

	admin := router.Group("/admin", h.authenticate(true), adminOnly)
	admin.GET("/orders", h.adminListOrders)
	admin.PUT("/orders/:id/status", h.adminSetStatus)
	admin.POST("/orders/:id/deliver", h.adminDeliver)

	return router, nil
}

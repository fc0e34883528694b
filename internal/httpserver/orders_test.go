package httpserver

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
)

func sampleOrder() *domain.Order {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.NewOrder("order-1", nil, []domain.OrderItem{
		{ProductID: "p1", Name: "Widget", PriceCents: 1500, Quantity: 2},
		{ProductID: "p2", Name: "Gadget", PriceCents: 500, Quantity: 1},
	}, domain.ShippingAddress{FullName: "Jane Doe", Address: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"},
		domain.PaymentCreditCard, "USD", now)
}

const checkoutBody = `{
	"shippingAddress": {"fullName":"Jane Doe","address":"1 Main St","city":"Springfield","state":"IL","zipCode":"62701","country":"US"},
	"paymentMethod": "credit_card"
}`

func TestCreateOrderFromCart(t *testing.T) {
	orders := &stubOrderService{order: sampleOrder()}
	deps := testDeps()
	deps.OrderSvc = orders
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{ID: "u1"}}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/orders", checkoutBody, "token")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if orders.called != "createFromCart" || orders.lastUserID == nil || *orders.lastUserID != "u1" {
		t.Fatalf("unexpected call %s %v", orders.called, orders.lastUserID)
	}
	body := rec.Body.String()
	for _, want := range []string{`"orderStatus":"pending"`, `"amount":"47.80"`, `"amount":"2.80"`, `"amount":"10.00"`, `"amount":"35.00"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}

func TestCreateOrderFromCart_UsesDefaultAddress(t *testing.T) {
	orders := &stubOrderService{order: sampleOrder()}
	deps := testDeps()
	deps.OrderSvc = orders
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{
		ID:                       "u1",
		Addresses:                []domain.CustomerAddress{{ID: "a1", FullName: "Jane Doe", City: "Springfield"}},
		DefaultShippingAddressID: "a1",
	}}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/orders", `{"paymentMethod":"paypal"}`, "token")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if orders.lastInput.ShippingAddress.City != "Springfield" || orders.lastInput.PaymentMethod != domain.PaymentPayPal {
		t.Fatalf("unexpected input %+v", orders.lastInput)
	}
}

func TestCreateOrderFromCart_EmptyCart(t *testing.T) {
	deps := testDeps()
	deps.OrderSvc = &stubOrderService{err: domain.Errorf(domain.ErrEmptyCart, "Your cart is empty")}
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{ID: "u1"}}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/orders", checkoutBody, "token")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"error":"EmptyCart"`) {
		t.Fatalf("expected EmptyCart 400, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCheckout_GuestAndAuthenticated(t *testing.T) {
	orders := &stubOrderService{order: sampleOrder()}
	deps := testDeps()
	deps.OrderSvc = orders
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{ID: "u1"}}
	router := newTestRouter(t, deps)

	body := `{"items":[{"productId":"p1","quantity":2}],` + strings.TrimPrefix(checkoutBody, "{")
	rec := doRequest(router, http.MethodPost, "/checkout", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if orders.lastUserID != nil {
		t.Fatalf("expected guest checkout, got user %q", *orders.lastUserID)
	}
	if len(orders.lastItems) != 1 || orders.lastItems[0].ProductID != "p1" || orders.lastItems[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", orders.lastItems)
	}

	rec = doRequest(router, http.MethodPost, "/checkout", body, "token")
	if rec.Code != http.StatusCreated || orders.lastUserID == nil || *orders.lastUserID != "u1" {
		t.Fatalf("expected user checkout, got %d %v", rec.Code, orders.lastUserID)
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	deps := testDeps()
	deps.OrderSvc = &stubOrderService{err: domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for Widget: available 1, requested 2")}
	router := newTestRouter(t, deps)

	body := `{"items":[{"productId":"p1","quantity":2}],` + strings.TrimPrefix(checkoutBody, "{")
	rec := doRequest(router, http.MethodPost, "/checkout", body, "")
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "available 1, requested 2") {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestListMyOrders_ScopesToCaller(t *testing.T) {
	orders := &stubOrderService{orders: []domain.Order{*sampleOrder()}, info: domain.PageInfo{Total: 1, Pages: 1, Page: 1, Limit: 10}}
	deps := testDeps()
	deps.OrderSvc = orders
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{ID: "u1"}}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodGet, "/orders?status=shipped&limit=5", "", "token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	q := orders.lastQuery
	if q.UserID == nil || *q.UserID != "u1" || q.Status != "shipped" || q.Limit != 5 {
		t.Fatalf("unexpected query %+v", q)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) || !strings.Contains(rec.Body.String(), `"id":"order-1"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAdminListOrders_UserFilter(t *testing.T) {
	orders := &stubOrderService{info: domain.PageInfo{Page: 1, Limit: 10}}
	deps := testDeps()
	deps.OrderSvc = orders
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{ID: "admin", IsAdmin: true}}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodGet, "/admin/orders?userId=not-a-uuid", "", "token")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "ValidationFailed") {
		t.Fatalf("expected 400 for malformed userId, got %d body=%s", rec.Code, rec.Body.String())
	}
	if orders.lastQuery.UserID != nil {
		t.Fatalf("expected service not to be called, got %+v", orders.lastQuery)
	}

	const id = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	rec = doRequest(router, http.MethodGet, "/admin/orders?userId="+id, "", "token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if orders.lastQuery.UserID == nil || *orders.lastQuery.UserID != id {
		t.Fatalf("unexpected query %+v", orders.lastQuery)
	}
}

func TestGetOrder_PassesActor(t *testing.T) {
	orders := &stubOrderService{order: sampleOrder()}
	deps := testDeps()
	deps.OrderSvc = orders
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{ID: "admin", IsAdmin: true}}
	router := newTestRouter(t, deps)

	if rec := doRequest(router, http.MethodGet, "/orders/order-1", "", ""); rec.Code != http.StatusOK || orders.lastActor.UserID != "" {
		t.Fatalf("expected guest actor, got %d %+v", rec.Code, orders.lastActor)
	}
	if rec := doRequest(router, http.MethodGet, "/orders/order-1", "", "token"); rec.Code != http.StatusOK || !orders.lastActor.IsAdmin {
		t.Fatalf("expected admin actor, got %d %+v", rec.Code, orders.lastActor)
	}
}

func TestPayOrder_AlreadyPaid(t *testing.T) {
	deps := testDeps()
	deps.OrderSvc = &stubOrderService{err: domain.Errorf(domain.ErrInvalidState, "Order order-1 is already paid")}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/orders/order-1/pay", `{"paymentResult":{"id":"pay_1","status":"COMPLETED"}}`, "")
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), `"error":"InvalidState"`) {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCancelOrder(t *testing.T) {
	o := sampleOrder()
	if err := o.Cancel("", time.Now()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	orders := &stubOrderService{order: o}
	deps := testDeps()
	deps.OrderSvc = orders
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/orders/order-1/cancel", `{"reason":"Changed my mind"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if orders.lastReason != "Changed my mind" {
		t.Fatalf("unexpected reason %q", orders.lastReason)
	}
	if !strings.Contains(rec.Body.String(), `"restocked":[{"productId":"p1"`) || !strings.Contains(rec.Body.String(), `"orderStatus":"cancelled"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = doRequest(router, http.MethodPost, "/orders/order-1/cancel", "", "")
	if rec.Code != http.StatusOK || orders.lastReason != "" {
		t.Fatalf("expected cancel without body to succeed, got %d reason=%q", rec.Code, orders.lastReason)
	}
}

func TestAdminSetStatusAndDeliver(t *testing.T) {
	orders := &stubOrderService{order: sampleOrder()}
	deps := testDeps()
	deps.OrderSvc = orders
	deps.CustomerSvc = &stubCustomerAuthSvc{customer: &domain.Customer{ID: "admin", IsAdmin: true}}
	router := newTestRouter(t, deps)

	rec := doRequest(router, http.MethodPut, "/admin/orders/order-1/status", `{"status":"shipped","note":"Handed to carrier"}`, "token")
	if rec.Code != http.StatusOK || orders.lastStatus != "shipped" {
		t.Fatalf("unexpected set status: %d %q", rec.Code, orders.lastStatus)
	}
	rec = doRequest(router, http.MethodPut, "/admin/orders/order-1/status", `{}`, "token")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without status, got %d", rec.Code)
	}
	rec = doRequest(router, http.MethodPost, "/admin/orders/order-1/deliver", "", "token")
	if rec.Code != http.StatusOK || orders.called != "markDelivered" {
		t.Fatalf("unexpected deliver: %d %s", rec.Code, orders.called)
	}
}

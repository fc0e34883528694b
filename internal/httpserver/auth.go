package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"

	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	GrantType    string `form:"grant_type" binding:"required"`
	Username     string `form:"username"`
	Password     string `form:"password"`
	RefreshToken string `form:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type customerResponse struct {
	Customer domain.Customer `json:"customer"`
}

func (h *handlers) signup(c *gin.Context) {
	var req customersvc.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cust, err := h.deps.CustomerSvc.Signup(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, errorBody{Error: domain.KindName(domain.ErrAlreadyExists), Message: "An account with this email already exists"})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customerResponse{Customer: *cust})
}

func (h *handlers) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}
	var (
		access, refresh string
		err             error
	)
	switch req.GrantType {
	case "password":
		if req.Username == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "username and password are required"})
			return
		}
		_, access, refresh, err = h.deps.CustomerSvc.Login(c.Request.Context(), req.Username, req.Password)
	case "refresh_token":
		if req.RefreshToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "refresh_token is required"})
			return
		}
		_, access, refresh, err = h.deps.CustomerSvc.Refresh(c.Request.Context(), req.RefreshToken)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type"})
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, customersvc.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_grant", "error_description": "Customer account with the given credentials not found."})
		case errors.Is(err, customersvc.ErrInvalidToken):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_grant", "error_description": "The refresh token is invalid or expired."})
		default:
			h.writeError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    h.deps.CustomerSvc.AccessTTLSeconds(),
	})
}

func (h *handlers) me(c *gin.Context) {
	cust := currentCustomer(c)
	if cust == nil {
		abortUnauthorized(c)
		return
	}
	c.JSON(http.StatusOK, customerResponse{Customer: *cust})
}

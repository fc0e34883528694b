package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain"
	custrepo "storefront/internal/repository/customer"
	tokenrepo "storefront/internal/repository/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

const defaultAccessTTL = 48 * time.Hour

// Service handles customer signup/login flows.
type Service struct {
	repo        custrepo.Repository
	tokens      *tokenManager
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
}

// New creates a Service. A non-positive accessTTL falls back to 48h.
func New(repo custrepo.Repository, tokens tokenrepo.Repository, accessTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		accessTTL:   accessTTL,
		refreshTTL:  30 * 24 * time.Hour,
		passwordMin: 8,
	}
}

// AddressInput mirrors incoming address payloads.
type AddressInput struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email                  string         `json:"email"`
	Password               string         `json:"password"`
	FirstName              string         `json:"firstName"`
	LastName               string         `json:"lastName"`
	Addresses              []AddressInput `json:"addresses"`
	DefaultShippingAddress *int           `json:"defaultShippingAddress"`
}

// Signup registers a new shopper account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	c, err := s.buildCustomer(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, *c)
}

// CreateAdmin registers an account allowed to use the admin order routes.
// An existing account with the same email is returned unchanged.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) (*domain.Customer, error) {
	if existing, err := s.repo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email))); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	c, err := s.buildCustomer(SignupInput{Email: email, Password: password, FirstName: "Admin"})
	if err != nil {
		return nil, err
	}
	c.IsAdmin = true
	return s.repo.Create(ctx, *c)
}

func (s *Service) buildCustomer(in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Errorf(domain.ErrValidation, "A valid email is required")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	addresses := make([]domain.CustomerAddress, 0, len(in.Addresses))
	for _, a := range in.Addresses {
		addresses = append(addresses, domain.CustomerAddress{
			ID:       uuid.NewString(),
			FullName: a.FullName,
			Address:  a.Address,
			City:     a.City,
			State:    a.State,
			ZipCode:  a.ZipCode,
			Country:  a.Country,
			Phone:    a.Phone,
		})
	}

	shippingID := addressIDFromIndex(addresses, in.DefaultShippingAddress)
	if shippingID == "" && len(addresses) > 0 {
		shippingID = addresses[0].ID
	}

	return &domain.Customer{
		Email:                    email,
		PasswordHash:             string(hashed),
		FirstName:                strings.TrimSpace(in.FirstName),
		LastName:                 strings.TrimSpace(in.LastName),
		Addresses:                addresses,
		DefaultShippingAddressID: shippingID,
	}, nil
}

// Login validates credentials and returns issued tokens plus the customer.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, string, error) {
	password = strings.TrimSpace(password)
	c, err := s.repo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	access, refresh, err := s.issuePair(ctx, c.ID)
	if err != nil {
		return nil, "", "", err
	}
	return c, access, refresh, nil
}

// Refresh trades a refresh token for a new access/refresh pair. Refresh
// tokens are single use.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*domain.Customer, string, string, error) {
	meta, ok := s.tokens.Redeem(ctx, strings.TrimSpace(refreshToken))
	if !ok {
		return nil, "", "", ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, meta.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", ErrInvalidToken
		}
		return nil, "", "", err
	}
	access, refresh, err := s.issuePair(ctx, c.ID)
	if err != nil {
		return nil, "", "", err
	}
	return c, access, refresh, nil
}

// PruneTokens removes expired tokens and reports how many were dropped.
func (s *Service) PruneTokens(ctx context.Context) (int64, error) {
	return s.tokens.Prune(ctx)
}

func (s *Service) issuePair(ctx context.Context, customerID string) (string, string, error) {
	access, err := s.tokens.Issue(ctx, customerID, tokenAccess, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.tokens.Issue(ctx, customerID, tokenRefresh, s.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// LookupByToken returns the customer bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Customer, error) {
	meta, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, meta.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return c, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func addressIDFromIndex(addresses []domain.CustomerAddress, idx *int) string {
	if idx == nil {
		return ""
	}
	if *idx < 0 || *idx >= len(addresses) {
		return ""
	}
	return addresses[*idx].ID
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return domain.Errorf(domain.ErrValidation, "Password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return domain.Errorf(domain.ErrValidation, "Password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}


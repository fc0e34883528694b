package customer

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/migrate"
	customerrepo "storefront/internal/repository/customer"
	tokenrepo "storefront/internal/repository/token"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestSignupAndLogin_Integration(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(ctx, t)
	defer pool.Close()

	if _, err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := customerrepo.NewPostgres(pool, log.New(os.Stdout, "[test] ", log.LstdFlags))
	svc := New(repo, tokenrepo.NewPostgres(pool), 0)

	password := "Abcdefg1"
	cust, err := svc.Signup(ctx, SignupInput{
		Email:     "integration@example.com",
		Password:  password,
		FirstName: "Int",
		LastName:  "User",
		Addresses: []AddressInput{
			{FullName: "Int User", Address: "1 Main St", City: "Testville", State: "TS", ZipCode: "00000", Country: "US"},
		},
		DefaultShippingAddress: intPtr(0),
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if cust == nil || cust.ID == "" || len(cust.Addresses) != 1 {
		t.Fatalf("expected created customer, got %+v", cust)
	}

	if _, err := svc.Signup(ctx, SignupInput{Email: "Integration@example.com", Password: password}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected duplicate email to fail, got %v", err)
	}

	_, access, refresh, err := svc.Login(ctx, "integration@example.com", password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatalf("expected tokens, got access=%q refresh=%q", access, refresh)
	}

	found, err := svc.LookupByToken(ctx, access)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found.ID != cust.ID || found.DefaultShippingAddressID != cust.Addresses[0].ID {
		t.Fatalf("unexpected customer %+v", found)
	}
}

func integrationPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("ping db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE tokens, cart_items, carts, customers RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

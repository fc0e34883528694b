package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type recordingWriter struct {
	categories []domain.Category
	products   []domain.Product
	failKey    string
}

func (w *recordingWriter) upsertCategory(c domain.Category) (*domain.Category, error) {
	w.categories = append(w.categories, c)
	return &c, nil
}

type categoryWriter struct{ *recordingWriter }

func (w categoryWriter) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	return w.upsertCategory(c)
}

type productWriter struct{ *recordingWriter }

func (w productWriter) UpsertKeepStock(_ context.Context, p domain.Product) (*domain.Product, error) {
	if p.Key == w.failKey {
		return nil, errors.New("boom")
	}
	w.products = append(w.products, p)
	p.ID = "id-" + p.Key
	return &p, nil
}

type adminStub struct {
	calls []string
}

func (a *adminStub) CreateAdmin(_ context.Context, email, _ string) (*domain.Customer, error) {
	a.calls = append(a.calls, email)
	return &domain.Customer{Email: email, IsAdmin: true}, nil
}

func TestApply(t *testing.T) {
	w := &recordingWriter{}
	admins := &adminStub{}

	err := Apply(context.Background(), categoryWriter{w}, productWriter{w}, admins, Admin{Email: "admin@example.com", Password: "Admin1234"}, nil)
	require.NoError(t, err)

	assert.Len(t, w.categories, len(categories))
	require.Len(t, w.products, len(products))
	for _, p := range w.products {
		assert.True(t, p.IsActive, p.Key)
		assert.Equal(t, "USD", p.Currency)
		assert.NotEmpty(t, p.CategoryKey)
		assert.Len(t, p.Images, 1)
	}
	assert.Equal(t, []string{"admin@example.com"}, admins.calls)
}

func TestApply_SkipsAdminWithoutEmail(t *testing.T) {
	w := &recordingWriter{}
	admins := &adminStub{}

	require.NoError(t, Apply(context.Background(), categoryWriter{w}, productWriter{w}, admins, Admin{}, nil))
	assert.Empty(t, admins.calls)
}

func TestApply_StopsOnProductError(t *testing.T) {
	w := &recordingWriter{failKey: "desk-lamp"}
	admins := &adminStub{}

	err := Apply(context.Background(), categoryWriter{w}, productWriter{w}, admins, Admin{Email: "admin@example.com"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "desk-lamp")
	assert.Len(t, w.products, 2)
	assert.Empty(t, admins.calls)
}

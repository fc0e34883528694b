package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
	err   error
}

type stubCategoryRepo struct {
	items []domain.Category
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, p)
	return &p, nil
}

func (s *stubCategoryRepo) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.items = append(s.items, c)
	return &c, nil
}

func TestCSVImporter_RunProducts(t *testing.T) {
	csvData := `id,key,name,description,sku,priceCents,currency,stock,category,featured,imageUrl
00000000-0000-0000-0000-000000000001,wireless-mouse,Wireless Mouse,Quiet clicks,SKU-1,2500,usd,40,electronics,true,https://example.com/img1.jpg
,,,,,,,,,,https://example.com/img2.jpg
,desk-lamp,Desk Lamp,,SKU-2,4999,USD,5,home-office,,
,usb-hub,USB Hub,,SKU-3,1999,USD,0,electronics,false,`

	repo := &stubProductRepo{}
	catRepo := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, catRepo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 products imported, got %d", count)
	}
	if len(repo.items) != 3 {
		t.Fatalf("expected 3 products saved, got %d", len(repo.items))
	}

	first := repo.items[0]
	if len(first.Images) != 2 || first.Images[1].URL != "https://example.com/img2.jpg" {
		t.Fatalf("expected 2 images on first product, got %+v", first.Images)
	}
	if first.Key != "wireless-mouse" || first.SKU != "SKU-1" || first.PriceCents != 2500 || first.Currency != "USD" {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if first.ID != "00000000-0000-0000-0000-000000000001" {
		t.Fatalf("expected id to be preserved, got %s", first.ID)
	}
	if first.Stock != 40 || !first.IsFeatured || !first.IsActive || first.CategoryKey != "electronics" {
		t.Fatalf("unexpected stock/flags on first product: %+v", first)
	}
	if repo.items[1].ID != "" || repo.items[1].IsFeatured {
		t.Fatalf("unexpected second product: %+v", repo.items[1])
	}

	// electronics is referenced twice but created once.
	if len(catRepo.items) != 2 {
		t.Fatalf("expected 2 category upserts, got %d", len(catRepo.items))
	}
	if catRepo.items[1].Key != "home-office" || catRepo.items[1].Name != "Home Office" {
		t.Fatalf("unexpected derived category %+v", catRepo.items[1])
	}
}

func TestCSVImporter_RejectsInvalidRows(t *testing.T) {
	cases := map[string]string{
		"missing price":  "key,name,sku,priceCents,currency\nmug,Mug,SKU-1,,USD\n",
		"bad price":      "key,name,sku,priceCents,currency\nmug,Mug,SKU-1,abc,USD\n",
		"negative stock": "key,name,sku,priceCents,currency,stock\nmug,Mug,SKU-1,100,USD,-1\n",
		"bad id":         "id,key,name,sku,priceCents,currency\nnot-a-uuid,mug,Mug,SKU-1,100,USD\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			imp := NewCSVImporter(strings.NewReader(data), &stubProductRepo{}, nil)
			if _, err := imp.Run(context.Background()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCSVImporter_PropagatesWriterError(t *testing.T) {
	data := "key,name,sku,priceCents,currency\nmug,Mug,SKU-1,100,USD\n"
	boom := errors.New("boom")
	imp := NewCSVImporter(strings.NewReader(data), &stubProductRepo{err: boom}, nil)

	count, err := imp.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 imported, got %d", count)
	}
}

func TestCSVImporter_RunCategoriesFile(t *testing.T) {
	csvData := `key,name,slug,parentKey,description
electronics,Electronics,electronics,,Gadgets and gear
,Home Office,home-office,,
accessories,,,electronics,
`
	catRepo := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), nil, catRepo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 categories imported, got %d", count)
	}
	if catRepo.items[0].Key != "electronics" || catRepo.items[0].Description != "Gadgets and gear" {
		t.Fatalf("unexpected first category %+v", catRepo.items[0])
	}
	if catRepo.items[1].Key != "home-office" || catRepo.items[1].Slug != "home-office" {
		t.Fatalf("expected slug fallback on second: %+v", catRepo.items[1])
	}
	if catRepo.items[2].Name != "Accessories" || catRepo.items[2].ParentKey != "electronics" {
		t.Fatalf("expected title-cased child, got %+v", catRepo.items[2])
	}
}

func TestDetectKind(t *testing.T) {
	productCSV := "id,key,name,sku\nprod-1,prod-1,Prod One,SKU-1"
	categoryCSV := "key,name,slug,parentKey\nelectronics,Electronics,electronics,"

	kind, err := DetectKind(strings.NewReader(productCSV))
	if err != nil {
		t.Fatalf("detect product kind: %v", err)
	}
	if kind != KindProducts {
		t.Fatalf("expected product kind, got %s", kind)
	}

	kind, err = DetectKind(strings.NewReader(categoryCSV))
	if err != nil {
		t.Fatalf("detect category kind: %v", err)
	}
	if kind != KindCategories {
		t.Fatalf("expected category kind, got %s", kind)
	}

	if _, err := DetectKind(strings.NewReader("foo,bar\n1,2")); err == nil {
		t.Fatalf("expected error for unknown headers")
	}
}

package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Kind is the type of CSV export being imported.
type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates products or categories.
type CSVImporter struct {
	reader       *csv.Reader
	productRepo  ProductWriter
	categoryRepo CategoryWriter
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:       csvr,
		productRepo:  products,
		categoryRepo: categories,
	}
}

// DetectKind inspects the header line only.
func DetectKind(r io.Reader) (Kind, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read headers: %w", err)
	}
	headers, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return "", fmt.Errorf("parse headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["sku"]; ok {
		return KindProducts, nil
	}
	if _, ok := index["key"]; ok {
		if _, slug := index["slug"]; slug {
			return KindCategories, nil
		}
		if _, parent := index["parentKey"]; parent {
			return KindCategories, nil
		}
	}
	return "", fmt.Errorf("unrecognised csv headers: %s", strings.Join(headers, ","))
}

type productRow struct {
	ID          string
	Key         string
	Name        string
	Desc        string
	SKU         string
	Cents       int64
	Currency    string
	Stock       int
	CategoryKey string
	Featured    bool
	Inactive    bool
	ImageURLs   []string
}

// Run imports the rows in the reader. Product exports may carry extra image
// rows with only imageUrl set; those attach to the preceding product.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["sku"]; ok {
		return i.runProducts(ctx, index)
	}
	return i.runCategories(ctx, index)
}

func (i *CSVImporter) runProducts(ctx context.Context, index map[string]int) (int, error) {
	if i.productRepo == nil {
		return 0, errors.New("product import requires a product writer")
	}
	var (
		current  *productRow
		imported int
		seen     = map[string]bool{}
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := i.ensureCategory(ctx, current.CategoryKey, seen); err != nil {
			return err
		}
		if err := i.saveProduct(ctx, current); err != nil {
			return err
		}
		imported++
		return nil
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseProductRow(record, index)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.Key != "" {
			if err := flush(); err != nil {
				return imported, err
			}
			current = row
			continue
		}

		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if err := flush(); err != nil {
		return imported, err
	}
	return imported, nil
}

// ensureCategory creates a bare category for keys referenced by products,
// once per import.
func (i *CSVImporter) ensureCategory(ctx context.Context, key string, seen map[string]bool) error {
	if key == "" || i.categoryRepo == nil || seen[key] {
		return nil
	}
	seen[key] = true
	c := domain.Category{Key: key, Name: titleFromKey(key), Slug: key}
	if _, err := i.categoryRepo.Upsert(ctx, c); err != nil {
		return fmt.Errorf("upsert category %q: %w", key, err)
	}
	return nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, row *productRow) error {
	if row.Key == "" || row.Name == "" || row.SKU == "" || row.Cents <= 0 || row.Currency == "" {
		return fmt.Errorf("invalid product row (missing required fields) for key %q", row.Key)
	}
	if row.ID != "" {
		if _, err := uuid.Parse(row.ID); err != nil {
			return fmt.Errorf("invalid id for key %q: %s", row.Key, row.ID)
		}
	}

	images := make([]domain.ProductImage, 0, len(row.ImageURLs))
	for _, u := range row.ImageURLs {
		images = append(images, domain.ProductImage{URL: u, AltText: row.Name})
	}

	p := domain.Product{
		ID:                row.ID,
		Key:               row.Key,
		SKU:               row.SKU,
		Name:              row.Name,
		Description:       row.Desc,
		CategoryKey:       row.CategoryKey,
		PriceCents:        row.Cents,
		Currency:          strings.ToUpper(row.Currency),
		Stock:             row.Stock,
		LowStockThreshold: 10,
		IsActive:          !row.Inactive,
		IsFeatured:        row.Featured,
		Images:            images,
	}

	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Key, err)
	}
	return nil
}

func (i *CSVImporter) runCategories(ctx context.Context, index map[string]int) (int, error) {
	if i.categoryRepo == nil {
		return 0, errors.New("category import requires a category writer")
	}
	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		key := pick(record, index, "key")
		slug := pick(record, index, "slug")
		if key == "" {
			key = slug
		}
		if key == "" {
			continue
		}
		name := pick(record, index, "name")
		if name == "" {
			name = titleFromKey(key)
		}
		c := domain.Category{
			Key:         key,
			Name:        name,
			Slug:        slug,
			ParentKey:   pick(record, index, "parentKey"),
			Description: pick(record, index, "description"),
		}
		if _, err := i.categoryRepo.Upsert(ctx, c); err != nil {
			return imported, fmt.Errorf("upsert category %q: %w", key, err)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func parseProductRow(record []string, index map[string]int) (*productRow, error) {
	key := pick(record, index, "key")
	imageURL := pick(record, index, "imageUrl")

	if key == "" && imageURL == "" {
		return nil, nil
	}

	row := &productRow{
		ID:          pick(record, index, "id"),
		Key:         key,
		Name:        pick(record, index, "name"),
		Desc:        pick(record, index, "description"),
		SKU:         pick(record, index, "sku"),
		Currency:    pick(record, index, "currency"),
		CategoryKey: pick(record, index, "category"),
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	if key == "" {
		return row, nil
	}

	if s := pick(record, index, "priceCents"); s != "" {
		cents, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid priceCents for key %q: %s", key, s)
		}
		row.Cents = cents
	}
	if s := pick(record, index, "stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("invalid stock for key %q: %s", key, s)
		}
		row.Stock = stock
	}
	row.Featured = parseFlag(pick(record, index, "featured"))
	if s := pick(record, index, "active"); s != "" {
		row.Inactive = !parseFlag(s)
	}
	return row, nil
}

func parseFlag(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return strings.EqualFold(s, "yes")
	}
	return b
}

func titleFromKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

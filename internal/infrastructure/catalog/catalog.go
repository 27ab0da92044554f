// Package catalog provides the in-memory product catalog backing the demo.
// The catalog is read-only after load: it is built once from YAML (embedded
// defaults or an override file) and shared without locking.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pnsenthil/smartshop/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Store is an immutable SKU -> product mapping implementing
// domain.CatalogLookup
type Store struct {
	bySKU map[string]domain.Product
	order []string // insertion order for All()
}

type catalogFile struct {
	Products []struct {
		SKU   string  `yaml:"sku"`
		Name  string  `yaml:"name"`
		Price float64 `yaml:"price"`
	} `yaml:"products"`
}

// NewDefault builds a Store from the embedded catalog data
func NewDefault() (*Store, error) {
	return parse(defaultCatalogYAML)
}

// NewFromFile builds a Store from a YAML file on disk
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Store, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, fmt.Errorf("catalog contains no products")
	}

	store := &Store{bySKU: make(map[string]domain.Product, len(file.Products))}
	for _, p := range file.Products {
		if p.SKU == "" {
			return nil, fmt.Errorf("catalog entry %q has no sku", p.Name)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog entry %q has negative price", p.SKU)
		}
		if _, dup := store.bySKU[p.SKU]; dup {
			return nil, fmt.Errorf("catalog entry %q is duplicated", p.SKU)
		}
		store.bySKU[p.SKU] = domain.Product{SKU: p.SKU, Name: p.Name, Price: p.Price}
		store.order = append(store.order, p.SKU)
	}
	return store, nil
}

// Get resolves a SKU to a product. The second return is false for unknown
// SKUs; callers treat absence as filterable, never fatal.
func (s *Store) Get(sku string) (domain.Product, bool) {
	p, ok := s.bySKU[sku]
	return p, ok
}

// All returns every product in catalog order
func (s *Store) All() []domain.Product {
	products := make([]domain.Product, 0, len(s.order))
	for _, sku := range s.order {
		products = append(products, s.bySKU[sku])
	}
	return products
}

// Size returns the number of products in the catalog
func (s *Store) Size() int {
	return len(s.bySKU)
}

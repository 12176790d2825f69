// Package catalog serves the property catalog from a JSON document shaped
// like the site's data/properties.json.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
)

//go:embed properties.json
var defaultProperties []byte

type document struct {
	Properties []domain.Property `json:"properties"`
}

// Catalog is an immutable, in-memory property catalog
type Catalog struct {
	byID  map[string]domain.Property
	order []string
}

var _ ports.PropertyCatalog = (*Catalog)(nil)

// Load reads the catalog from path, or the embedded default when path is empty
func Load(path string) (*Catalog, error) {
	data := defaultProperties
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read property catalog: %w", err)
		}
	}
	return Parse(data)
}

// Parse builds a catalog from a properties document
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse property catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]domain.Property, len(doc.Properties))}
	for _, p := range doc.Properties {
		if p.ID == "" {
			return nil, fmt.Errorf("property without id in catalog")
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate property id %q in catalog", p.ID)
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("property %q has non-positive price", p.ID)
		}
		c.byID[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	sort.Strings(c.order)
	return c, nil
}

// Get implements ports.PropertyCatalog
func (c *Catalog) Get(ctx context.Context, id string) (*domain.Property, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrorCodePropertyNotFound, fmt.Sprintf("property %s not found", id))
	}
	return &p, nil
}

// List implements ports.PropertyCatalog. Results are sorted by id.
func (c *Catalog) List(ctx context.Context) ([]domain.Property, error) {
	out := make([]domain.Property, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out, nil
}

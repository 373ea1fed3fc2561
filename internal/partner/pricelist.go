package partner

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// PriceList is the document a partner publishes to describe their whole
// catalog. Every sync replaces the shop's listings with exactly this set.
type PriceList struct {
	Shop       string          `yaml:"shop"`
	Categories []CategoryEntry `yaml:"categories"`
	Goods      []GoodEntry     `yaml:"goods"`
}

// CategoryEntry names a category by the partner's own numeric identifier.
type CategoryEntry struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// GoodEntry describes a single listing.
type GoodEntry struct {
	ID         int               `yaml:"id"`
	Category   int               `yaml:"category"`
	Name       string            `yaml:"name"`
	Model      string            `yaml:"model"`
	Price      decimal.Decimal   `yaml:"price"`
	PriceRRC   decimal.Decimal   `yaml:"price_rrc"`
	Quantity   int               `yaml:"quantity"`
	Parameters map[string]string `yaml:"parameters"`
}

// ParsePriceList decodes a YAML price-list document. Unknown fields are
// rejected so partner typos surface as errors instead of silent drops.
func ParsePriceList(data []byte) (*PriceList, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var doc PriceList
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding price list: %w", err)
	}
	return &doc, nil
}

// Validate checks the whole document and reports every problem at once.
func (p *PriceList) Validate() error {
	var errs error

	if strings.TrimSpace(p.Shop) == "" {
		errs = multierr.Append(errs, fmt.Errorf("shop name is required"))
	}

	categoryIDs := map[int]struct{}{}
	for i, category := range p.Categories {
		if category.ID <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("categories[%d]: id must be positive", i))
		}
		if strings.TrimSpace(category.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("categories[%d]: name is required", i))
		}
		if _, dup := categoryIDs[category.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("categories[%d]: duplicate category id %d", i, category.ID))
		}
		categoryIDs[category.ID] = struct{}{}
	}

	for i, good := range p.Goods {
		if good.ID <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("goods[%d]: id must be positive", i))
		}
		if strings.TrimSpace(good.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("goods[%d]: name is required", i))
		}
		if _, ok := categoryIDs[good.Category]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("goods[%d]: unknown category id %d", i, good.Category))
		}
		if good.Quantity < 0 {
			errs = multierr.Append(errs, fmt.Errorf("goods[%d]: quantity must be non-negative", i))
		}
		if good.Price.IsNegative() || good.PriceRRC.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("goods[%d]: prices must be non-negative", i))
		}
		for key := range good.Parameters {
			if strings.TrimSpace(key) == "" {
				errs = multierr.Append(errs, fmt.Errorf("goods[%d]: parameter names cannot be empty", i))
			}
		}
	}

	return errs
}

type productKey struct {
	name     string
	category int
}

func (g GoodEntry) productKey() productKey {
	return productKey{name: strings.TrimSpace(g.Name), category: g.Category}
}

// DedupedGoods collapses repeated listing ids, then repeated (name, category)
// products, keeping the last occurrence of each and preserving document order
// otherwise. One product yields at most one listing per shop, so goods that
// resolve to the same product must collapse before anything is written.
func (p *PriceList) DedupedGoods() []GoodEntry {
	lastByID := map[int]int{}
	for i, good := range p.Goods {
		lastByID[good.ID] = i
	}

	lastByProduct := map[productKey]int{}
	for i, good := range p.Goods {
		if lastByID[good.ID] != i {
			continue
		}
		lastByProduct[good.productKey()] = i
	}

	result := make([]GoodEntry, 0, len(lastByProduct))
	for i, good := range p.Goods {
		if lastByID[good.ID] == i && lastByProduct[good.productKey()] == i {
			result = append(result, good)
		}
	}
	return result
}

package partner

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

func decimalFromInt(t *testing.T, value int64) decimal.Decimal {
	t.Helper()
	return decimal.NewFromInt(value)
}

const samplePriceList = `
shop: Svyaznoy
categories:
  - id: 224
    name: Smartphones
  - id: 15
    name: Accessories
goods:
  - id: 4216292
    category: 224
    model: apple/iphone/xs-max
    name: iPhone XS Max 512GB (gold)
    price: 110000
    price_rrc: 116990
    quantity: 14
    parameters:
      "Display (inch)": "6.5"
      "Internal memory (GB)": "512"
      "Color": "gold"
  - id: 4672670
    category: 15
    model: apple/airpods
    name: AirPods Pro
    price: 17990
    price_rrc: 19990
    quantity: 7
    parameters: {}
`

func TestParsePriceList(t *testing.T) {
	doc, err := ParsePriceList([]byte(samplePriceList))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Shop != "Svyaznoy" {
		t.Fatalf("expected shop name, got %q", doc.Shop)
	}
	if len(doc.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(doc.Categories))
	}
	if len(doc.Goods) != 2 {
		t.Fatalf("expected 2 goods, got %d", len(doc.Goods))
	}
	if doc.Goods[0].Parameters["Color"] != "gold" {
		t.Fatalf("expected parameter value, got %+v", doc.Goods[0].Parameters)
	}
	if !doc.Goods[0].Price.Equal(decimalFromInt(t, 110000)) {
		t.Fatalf("unexpected price %s", doc.Goods[0].Price)
	}
}

func TestParsePriceListRejectsUnknownFields(t *testing.T) {
	raw := strings.Replace(samplePriceList, "shop:", "store:\n  extra\nshop:", 1)
	if _, err := ParsePriceList([]byte(raw)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	doc := &PriceList{
		Shop: "",
		Categories: []CategoryEntry{
			{ID: 1, Name: "A"},
			{ID: 1, Name: "B"},
		},
		Goods: []GoodEntry{
			{ID: 0, Category: 1, Name: "", Quantity: -1},
			{ID: 2, Category: 99, Name: "ok"},
		},
	}

	err := doc.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	problems := multierr.Errors(err)
	if len(problems) < 5 {
		t.Fatalf("expected at least 5 problems, got %d: %v", len(problems), problems)
	}
}

func TestValidateAcceptsGoodDocument(t *testing.T) {
	doc, err := ParsePriceList([]byte(samplePriceList))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestDedupedGoodsKeepsLastOccurrence(t *testing.T) {
	doc := &PriceList{
		Goods: []GoodEntry{
			{ID: 1, Category: 224, Name: "iPhone XS", Quantity: 5},
			{ID: 2, Category: 15, Name: "AirPods Pro", Quantity: 1},
			{ID: 1, Category: 224, Name: "iPhone XS", Quantity: 9},
		},
	}

	goods := doc.DedupedGoods()
	if len(goods) != 2 {
		t.Fatalf("expected 2 goods, got %d", len(goods))
	}
	if goods[0].ID != 2 {
		t.Fatalf("expected surviving order to keep id 2 first, got %d", goods[0].ID)
	}
	if goods[1].ID != 1 || goods[1].Quantity != 9 {
		t.Fatalf("expected last occurrence of id 1 to win, got %+v", goods[1])
	}
}

func TestDedupedGoodsCollapsesSameProductName(t *testing.T) {
	doc := &PriceList{
		Goods: []GoodEntry{
			{ID: 1, Category: 224, Name: "iPhone XS ", Quantity: 5},
			{ID: 2, Category: 224, Name: "iPhone XS", Quantity: 9},
			{ID: 3, Category: 15, Name: "iPhone XS", Quantity: 1},
		},
	}

	goods := doc.DedupedGoods()
	if len(goods) != 2 {
		t.Fatalf("expected same-name goods in one category to collapse, got %d", len(goods))
	}
	if goods[0].ID != 2 || goods[0].Quantity != 9 {
		t.Fatalf("expected last same-name occurrence to win, got %+v", goods[0])
	}
	if goods[1].ID != 3 {
		t.Fatalf("expected same name in another category to survive, got %+v", goods[1])
	}
}

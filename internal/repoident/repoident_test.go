package repoident

import (
	"testing"

	"github.com/lenslabs/fieldlens/internal/model"
	"github.com/lenslabs/fieldlens/internal/report"
	"github.com/lenslabs/fieldlens/internal/stream"
)

func aggregate(name, simple string) stream.Class {
	return stream.Class{
		Name:        name,
		SimpleName:  simple,
		Annotations: []stream.Annotation{{Name: "AggregateRoot"}},
	}
}

func TestIdentifyGenericInterface(t *testing.T) {
	t.Parallel()

	classes := []stream.Class{
		aggregate("com.shop.Order", "Order"),
		{
			Name:       "com.shop.OrderStore",
			SimpleName: "OrderStore",
			Interfaces: []stream.InterfaceRef{{Name: "Repository", TypeArgs: []string{"com.shop.Order"}}},
		},
	}

	id := NewIdentifier(DefaultOptions(), classes)
	m, ok := id.Identify(&classes[1], nil)
	if !ok {
		t.Fatal("expected repository match")
	}
	if m.AggregateRoot != "com.shop.Order" || m.Match != model.GenericInterface {
		t.Errorf("mapping: %+v", m)
	}
}

// A generic-interface match typed to Order wins over a naming-convention
// match for Good: the most explicit strategy takes precedence.
func TestIdentifyPrecedence(t *testing.T) {
	t.Parallel()

	classes := []stream.Class{
		aggregate("com.shop.Order", "Order"),
		aggregate("com.shop.Good", "Good"),
		{
			Name:       "com.shop.GoodRepository",
			SimpleName: "GoodRepository",
			Interfaces: []stream.InterfaceRef{{Name: "Repository", TypeArgs: []string{"com.shop.Order"}}},
		},
	}

	rep := report.New()
	id := NewIdentifier(DefaultOptions(), classes)
	m, ok := id.Identify(&classes[2], rep)
	if !ok {
		t.Fatal("expected repository match")
	}
	if m.AggregateRoot != "com.shop.Order" {
		t.Errorf("expected Order (generic interface wins), got %s", m.AggregateRoot)
	}
	if m.Match != model.GenericInterface {
		t.Errorf("match kind: %s", m.Match)
	}

	// Ambiguity is informational, not an error.
	found := false
	for _, w := range rep.Warnings() {
		if w.Kind == report.RepositoryAmbiguity {
			found = true
		}
	}
	if !found {
		t.Error("expected a RepositoryAmbiguity warning")
	}
}

func TestIdentifyAnnotationOverridesNaming(t *testing.T) {
	t.Parallel()

	classes := []stream.Class{
		aggregate("com.shop.Order", "Order"),
		aggregate("com.shop.Goods", "Goods"),
		{
			Name:       "com.shop.OrderRepository",
			SimpleName: "OrderRepository",
			Annotations: []stream.Annotation{
				{Name: "Repository", Args: map[string]string{"value": "Goods.class"}},
			},
		},
	}

	id := NewIdentifier(DefaultOptions(), classes)
	m, ok := id.Identify(&classes[2], nil)
	if !ok {
		t.Fatal("expected repository match")
	}
	if m.AggregateRoot != "com.shop.Goods" || m.Match != model.Annotation {
		t.Errorf("mapping: %+v", m)
	}
}

func TestIdentifyNamingConvention(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		simple string
		wantOK bool
	}{
		{"suffix Repository", "GoodsRepository", true},
		{"I prefix", "IGoodsRepository", true},
		{"suffix Repo", "GoodsRepo", true},
		{"unknown aggregate", "CustomerRepository", false},
		{"no template match", "GoodsDao", false},
		{"empty aggregate part", "Repository", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			classes := []stream.Class{
				aggregate("com.shop.Goods", "Goods"),
				{Name: "com.shop." + tt.simple, SimpleName: tt.simple},
			}
			id := NewIdentifier(DefaultOptions(), classes)
			m, ok := id.Identify(&classes[1], nil)
			if ok != tt.wantOK {
				t.Fatalf("Identify(%s) ok = %v, want %v", tt.simple, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if m.AggregateRoot != "com.shop.Goods" || m.Match != model.NamingConvention {
				t.Errorf("mapping: %+v", m)
			}
		})
	}
}

// Interface matches make their target a known aggregate, so naming matches
// against it succeed even without an AggregateRoot annotation.
func TestInterfaceTargetBecomesKnownAggregate(t *testing.T) {
	t.Parallel()

	classes := []stream.Class{
		{Name: "com.shop.Goods", SimpleName: "Goods"},
		{
			Name:       "com.shop.GoodsStore",
			SimpleName: "GoodsStore",
			Interfaces: []stream.InterfaceRef{{Name: "Repository", TypeArgs: []string{"Goods"}}},
		},
		{Name: "com.shop.GoodsRepo", SimpleName: "GoodsRepo"},
	}

	id := NewIdentifier(DefaultOptions(), classes)
	m, ok := id.Identify(&classes[2], nil)
	if !ok {
		t.Fatal("expected naming match against interface-derived aggregate")
	}
	if m.AggregateRoot != "com.shop.Goods" {
		t.Errorf("aggregate: %s", m.AggregateRoot)
	}
}

func TestMarkerInterfaceNeedsExactlyOneTypeArg(t *testing.T) {
	t.Parallel()

	classes := []stream.Class{
		{
			Name:       "com.shop.PairStore",
			SimpleName: "PairStore",
			Interfaces: []stream.InterfaceRef{{Name: "Repository", TypeArgs: []string{"A", "B"}}},
		},
		{
			Name:       "com.shop.RawStore",
			SimpleName: "RawStore",
			Interfaces: []stream.InterfaceRef{{Name: "Repository"}},
		},
	}

	id := NewIdentifier(DefaultOptions(), classes)
	for i := range classes {
		if _, ok := id.Identify(&classes[i], nil); ok {
			t.Errorf("%s: expected no match", classes[i].SimpleName)
		}
	}
}

func TestMapAllOneMappingPerRepository(t *testing.T) {
	t.Parallel()

	classes := []stream.Class{
		aggregate("com.shop.Goods", "Goods"),
		{
			Name:       "com.shop.GoodsRepository",
			SimpleName: "GoodsRepository",
			Interfaces: []stream.InterfaceRef{{Name: "Repository", TypeArgs: []string{"Goods"}}},
		},
		{Name: "com.shop.Handler", SimpleName: "Handler"},
	}

	id := NewIdentifier(DefaultOptions(), classes)
	repos := id.MapAll(classes, nil)
	if len(repos) != 1 {
		t.Fatalf("expected 1 mapping, got %d: %+v", len(repos), repos)
	}
	if repos["com.shop.GoodsRepository"].AggregateRoot != "com.shop.Goods" {
		t.Errorf("mapping: %+v", repos["com.shop.GoodsRepository"])
	}
}

func TestKnownAggregatesSorted(t *testing.T) {
	t.Parallel()

	classes := []stream.Class{
		aggregate("com.shop.Order", "Order"),
		aggregate("com.shop.Goods", "Goods"),
	}
	id := NewIdentifier(DefaultOptions(), classes)
	got := id.KnownAggregates()
	if len(got) != 2 || got[0] != "com.shop.Goods" || got[1] != "com.shop.Order" {
		t.Errorf("KnownAggregates() = %v", got)
	}
}

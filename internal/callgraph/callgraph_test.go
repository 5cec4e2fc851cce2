package callgraph

import (
	"reflect"
	"testing"

	"github.com/lenslabs/fieldlens/internal/model"
	"github.com/lenslabs/fieldlens/internal/stream"
)

var goodsRepo = map[string]model.RepositoryMapping{
	"com.shop.GoodsRepository": {
		AggregateRoot: "com.shop.Goods",
		Repository:    "com.shop.GoodsRepository",
		Match:         model.GenericInterface,
	},
}

func handlerClass() stream.Class {
	return stream.Class{
		Name: "com.shop.Handler",
		Methods: []stream.Method{
			{
				Name:       "handle",
				Descriptor: "(1)",
				Events: []stream.Event{
					{Kind: stream.Call, Owner: "com.shop.GoodsRepository", Name: "findByIdOrErr", Descriptor: "(1)", ArgCount: 1, Line: 12},
					{Kind: stream.Call, Owner: "com.shop.Goods", Name: "changeAddress", Descriptor: "(1)", ArgCount: 1, Line: 13},
					{Kind: stream.Call, Owner: "", Name: "log"}, // unresolved owner, dropped
				},
			},
		},
	}
}

func TestExtractClass(t *testing.T) {
	t.Parallel()

	c := handlerClass()
	facts := ExtractClass(&c, goodsRepo)

	if len(facts.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d: %+v", len(facts.Edges), facts.Edges)
	}
	if len(facts.RepositoryCalls) != 1 {
		t.Fatalf("expected 1 repository call site, got %d", len(facts.RepositoryCalls))
	}

	site := facts.RepositoryCalls[0]
	if site.AggregateRoot != "com.shop.Goods" || site.Repository != "com.shop.GoodsRepository" {
		t.Errorf("site: %+v", site)
	}
	if site.Span != (model.Span{Start: 12, End: 12}) {
		t.Errorf("span: %+v", site.Span)
	}
	if site.Caller.Owner != "com.shop.Handler" || site.Caller.Name != "handle" {
		t.Errorf("caller: %+v", site.Caller)
	}
}

// Building is additive and order-independent: any permutation of per-class
// facts yields the same graph.
func TestBuildOrderIndependent(t *testing.T) {
	t.Parallel()

	a := stream.Class{
		Name: "com.shop.A",
		Methods: []stream.Method{
			{Name: "m", Events: []stream.Event{
				{Kind: stream.Call, Owner: "com.shop.B", Name: "n", Line: 3},
			}},
		},
	}
	b := stream.Class{
		Name: "com.shop.B",
		Methods: []stream.Method{
			{Name: "n", Events: []stream.Event{
				{Kind: stream.Call, Owner: "com.shop.GoodsRepository", Name: "findByIdOrErr", Line: 8},
			}},
		},
	}

	factsA := ExtractClass(&a, goodsRepo)
	factsB := ExtractClass(&b, goodsRepo)

	g1 := Build([]ClassFacts{factsA, factsB})
	g2 := Build([]ClassFacts{factsB, factsA})

	if !reflect.DeepEqual(g1.RepositoryCalls(), g2.RepositoryCalls()) {
		t.Errorf("repository calls differ by build order")
	}
	caller := model.MethodID{Owner: "com.shop.A", Name: "m"}
	if !reflect.DeepEqual(g1.CalleesOf(caller), g2.CalleesOf(caller)) {
		t.Errorf("edges differ by build order")
	}
	if g1.EdgeCount() != 2 || g2.EdgeCount() != 2 {
		t.Errorf("edge counts: %d, %d", g1.EdgeCount(), g2.EdgeCount())
	}
}

// Same method pair at different lines stays a multigraph; the exact same
// call site merged twice collapses.
func TestBuildMultigraphAndDedup(t *testing.T) {
	t.Parallel()

	c := stream.Class{
		Name: "com.shop.A",
		Methods: []stream.Method{
			{Name: "m", Events: []stream.Event{
				{Kind: stream.Call, Owner: "com.shop.B", Name: "n", Line: 3},
				{Kind: stream.Call, Owner: "com.shop.B", Name: "n", Line: 7},
			}},
		},
	}
	facts := ExtractClass(&c, nil)

	// Merge the same facts twice, as if the class were scanned twice.
	g := Build([]ClassFacts{facts, facts})

	edges := g.CalleesOf(model.MethodID{Owner: "com.shop.A", Name: "m"})
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges (distinct lines, duplicates collapsed), got %d: %+v", len(edges), edges)
	}
	if edges[0].Span.Start != 3 || edges[1].Span.Start != 7 {
		t.Errorf("edges not sorted by span: %+v", edges)
	}
}

func TestSelfLoopIsLegal(t *testing.T) {
	t.Parallel()

	c := stream.Class{
		Name: "com.shop.Goods",
		Methods: []stream.Method{
			{Name: "walk", Descriptor: "(0)", Events: []stream.Event{
				{Kind: stream.Call, Owner: "com.shop.Goods", Name: "walk", Descriptor: "(0)", Line: 2},
			}},
		},
	}
	g := Build([]ClassFacts{ExtractClass(&c, nil)})

	id := model.MethodID{Owner: "com.shop.Goods", Name: "walk", Descriptor: "(0)"}
	edges := g.CalleesOf(id)
	if len(edges) != 1 || edges[0].Callee != id {
		t.Errorf("expected self-loop edge, got %+v", edges)
	}
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	g := Build(nil)
	if g.EdgeCount() != 0 || len(g.RepositoryCalls()) != 0 {
		t.Errorf("expected empty graph")
	}
}

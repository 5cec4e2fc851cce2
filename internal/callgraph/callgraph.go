// Package callgraph builds the whole-program caller→callee graph and tags
// the edges that cross into repository methods.
//
// Extraction is per-class and purely additive: facts from any number of
// classes, extracted in any order or in parallel, merge into the same
// graph. The merged graph is sorted so that downstream output is
// deterministic regardless of extraction order.
package callgraph

import (
	"sort"

	"github.com/lenslabs/fieldlens/internal/model"
	"github.com/lenslabs/fieldlens/internal/stream"
)

// ClassFacts is the call information extracted from one class.
type ClassFacts struct {
	Edges           []model.CallEdge
	RepositoryCalls []model.RepositoryCallSite
}

// ExtractClass walks every method of a class and collects one CallEdge per
// call instruction. Edges whose callee owner is a known repository are
// additionally recorded as repository call sites, with the source span
// captured from the stream's line markers (diagnostics only).
//
// Calls with an unresolved owner or empty name carry no graph information
// and are dropped here; the classifier has already considered them for
// accessor patterns.
func ExtractClass(c *stream.Class, repos map[string]model.RepositoryMapping) ClassFacts {
	var facts ClassFacts

	for i := range c.Methods {
		m := &c.Methods[i]
		caller := m.ID(c.Name)
		for _, ev := range m.Events {
			if ev.Kind != stream.Call || ev.Owner == "" || ev.Name == "" {
				continue
			}
			callee := model.MethodID{Owner: ev.Owner, Name: ev.Name, Descriptor: ev.Descriptor}
			span := model.Span{}
			if ev.Line > 0 {
				span = model.Span{Start: ev.Line, End: ev.Line}
			}
			facts.Edges = append(facts.Edges, model.CallEdge{Caller: caller, Callee: callee, Span: span})

			if mapping, ok := repos[ev.Owner]; ok {
				facts.RepositoryCalls = append(facts.RepositoryCalls, model.RepositoryCallSite{
					Caller:           caller,
					Repository:       mapping.Repository,
					RepositoryMethod: callee,
					AggregateRoot:    mapping.AggregateRoot,
					Span:             span,
				})
			}
		}
	}

	return facts
}

// Graph is the merged whole-program call graph.
type Graph struct {
	edges           map[model.MethodID][]model.CallEdge
	repositoryCalls []model.RepositoryCallSite
}

// Build merges per-class facts into a graph. Exact duplicate edges and
// call sites (same caller, callee and span) are deduplicated; distinct
// spans of the same method pair are kept, so the graph stays a multigraph.
func Build(facts []ClassFacts) *Graph {
	g := &Graph{edges: make(map[model.MethodID][]model.CallEdge)}

	seenEdges := make(map[model.CallEdge]struct{})
	seenSites := make(map[model.RepositoryCallSite]struct{})

	for _, f := range facts {
		for _, e := range f.Edges {
			if _, dup := seenEdges[e]; dup {
				continue
			}
			seenEdges[e] = struct{}{}
			g.edges[e.Caller] = append(g.edges[e.Caller], e)
		}
		for _, s := range f.RepositoryCalls {
			if _, dup := seenSites[s]; dup {
				continue
			}
			seenSites[s] = struct{}{}
			g.repositoryCalls = append(g.repositoryCalls, s)
		}
	}

	for caller := range g.edges {
		sortEdges(g.edges[caller])
	}
	sort.Slice(g.repositoryCalls, func(i, j int) bool {
		a, b := &g.repositoryCalls[i], &g.repositoryCalls[j]
		if a.AggregateRoot != b.AggregateRoot {
			return a.AggregateRoot < b.AggregateRoot
		}
		if a.RepositoryMethod != b.RepositoryMethod {
			return methodLess(a.RepositoryMethod, b.RepositoryMethod)
		}
		if a.Caller != b.Caller {
			return methodLess(a.Caller, b.Caller)
		}
		return spanLess(a.Span, b.Span)
	})

	return g
}

// CalleesOf returns the outgoing edges of a caller in deterministic order.
// The returned slice is shared and must not be mutated.
func (g *Graph) CalleesOf(caller model.MethodID) []model.CallEdge {
	return g.edges[caller]
}

// RepositoryCalls returns every repository call site in deterministic order.
func (g *Graph) RepositoryCalls() []model.RepositoryCallSite {
	return g.repositoryCalls
}

// EdgeCount returns the number of distinct edges in the graph.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.edges {
		n += len(edges)
	}
	return n
}

func sortEdges(edges []model.CallEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Callee != edges[j].Callee {
			return methodLess(edges[i].Callee, edges[j].Callee)
		}
		return spanLess(edges[i].Span, edges[j].Span)
	})
}

func methodLess(a, b model.MethodID) bool {
	if a.Owner != b.Owner {
		return a.Owner < b.Owner
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Descriptor < b.Descriptor
}

func spanLess(a, b model.Span) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End < b.End
}

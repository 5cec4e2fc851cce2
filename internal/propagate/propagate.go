// Package propagate computes the aggregate-root field set a repository call
// site requires. Starting from the caller's own accesses it follows call
// edges into methods declared on the aggregate root, unioning each method's
// accesses, bounded by a recursion depth and a per-root visited set.
//
// The walk is an explicit work-list, not host recursion, so the depth bound
// holds uniformly even on adversarial cyclic graphs.
package propagate

import (
	"github.com/lenslabs/fieldlens/internal/callgraph"
	"github.com/lenslabs/fieldlens/internal/classify"
	"github.com/lenslabs/fieldlens/internal/model"
	"github.com/lenslabs/fieldlens/internal/report"
)

// Options bounds and tunes propagation.
type Options struct {
	// MaxDepth is the maximum call depth below the repository caller.
	MaxDepth int
	// ExcludeSetterMethods suppresses pure setter-pattern aggregate methods:
	// they indicate intent to write, not a read dependency.
	ExcludeSetterMethods bool
}

// DefaultMaxDepth is the stock recursion depth bound.
const DefaultMaxDepth = 10

// DefaultOptions returns the stock propagation configuration.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth}
}

// Accesses holds each method's classified property accesses, as produced by
// the classifier phase.
type Accesses map[model.MethodID][]model.PropertyAccess

// Site computes the field requirement for one repository call site. Hitting
// the depth bound or a cycle truncates that branch with a warning; the
// union accumulated so far is always returned, never nil on the document
// side (an empty requirement has an empty field list).
func Site(g *callgraph.Graph, accesses Accesses, site model.RepositoryCallSite, opts Options, rep *report.Report) model.FieldRequirement {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	req := model.FieldRequirement{
		AggregateRoot:    site.AggregateRoot,
		Repository:       site.Repository,
		RepositoryMethod: site.RepositoryMethod,
		Caller:           site.Caller,
		Span:             site.Span,
		Fields:           []string{},
	}

	fields := newFieldSet()

	// Seed: the caller's accesses on the aggregate root itself, i.e. touches
	// on the object the repository call returned.
	for _, pa := range accesses[site.Caller] {
		if pa.Owner == site.AggregateRoot {
			fields.add(pa.Name)
		}
	}

	type item struct {
		method model.MethodID
		depth  int
	}

	visited := map[model.MethodID]struct{}{site.Caller: {}}
	var queue []item

	enqueue := func(from model.MethodID, edges []model.CallEdge, depth int) {
		for _, e := range edges {
			if e.Callee.Owner != site.AggregateRoot {
				continue
			}
			if opts.ExcludeSetterMethods && classify.IsSetterName(e.Callee.Name) {
				continue
			}
			if _, seen := visited[e.Callee]; seen {
				if rep != nil {
					rep.Add(report.PropagationCycle, site.Caller.String(),
						"cycle via %s revisiting %s", from, e.Callee)
				}
				continue
			}
			if depth > opts.MaxDepth {
				req.Truncated = true
				if rep != nil {
					rep.Add(report.PropagationDepth, site.Caller.String(),
						"depth %d exceeds limit %d at %s", depth, opts.MaxDepth, e.Callee)
				}
				continue
			}
			visited[e.Callee] = struct{}{}
			queue = append(queue, item{method: e.Callee, depth: depth})
		}
	}

	enqueue(site.Caller, g.CalleesOf(site.Caller), 1)

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		contrib := model.AggregateMethodFields{Method: it.method, Fields: []string{}}
		for _, pa := range accesses[it.method] {
			if pa.Owner == site.AggregateRoot {
				fields.add(pa.Name)
				contrib.Fields = appendUnique(contrib.Fields, pa.Name)
			}
		}
		req.Contributions = append(req.Contributions, contrib)

		enqueue(it.method, g.CalleesOf(it.method), it.depth+1)
	}

	req.Fields = fields.ordered
	return req
}

// All computes a requirement for every repository call site in the graph.
func All(g *callgraph.Graph, accesses Accesses, opts Options, rep *report.Report) []model.FieldRequirement {
	sites := g.RepositoryCalls()
	out := make([]model.FieldRequirement, 0, len(sites))
	for _, site := range sites {
		out = append(out, Site(g, accesses, site, opts, rep))
	}
	return out
}

// fieldSet is an insertion-ordered string set.
type fieldSet struct {
	seen    map[string]struct{}
	ordered []string
}

func newFieldSet() *fieldSet {
	return &fieldSet{seen: make(map[string]struct{}), ordered: []string{}}
}

func (s *fieldSet) add(name string) {
	if _, dup := s.seen[name]; dup {
		return
	}
	s.seen[name] = struct{}{}
	s.ordered = append(s.ordered, name)
}

func appendUnique(list []string, name string) []string {
	for _, v := range list {
		if v == name {
			return list
		}
	}
	return append(list, name)
}

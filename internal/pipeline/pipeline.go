// Package pipeline orchestrates one analysis batch: a parallel per-class
// fact-collection phase, a barrier once repository identification is
// globally known, then graph construction and field-requirement propagation
// over the merged facts.
package pipeline

import (
	"runtime"
	"sync"
	"time"

	"github.com/lenslabs/fieldlens/internal/callgraph"
	"github.com/lenslabs/fieldlens/internal/classify"
	"github.com/lenslabs/fieldlens/internal/model"
	"github.com/lenslabs/fieldlens/internal/propagate"
	"github.com/lenslabs/fieldlens/internal/repoident"
	"github.com/lenslabs/fieldlens/internal/report"
	"github.com/lenslabs/fieldlens/internal/result"
	"github.com/lenslabs/fieldlens/internal/stream"
)

// Options configures an analysis run.
type Options struct {
	Ident     repoident.Options
	Propagate propagate.Options
}

// DefaultOptions returns the stock pipeline configuration.
func DefaultOptions() Options {
	return Options{
		Ident:     repoident.DefaultOptions(),
		Propagate: propagate.DefaultOptions(),
	}
}

// Run executes the full pipeline over one compilation unit's classes and
// returns the analysis document, stamped with now. Per-class problems are
// recorded on rep and never abort the batch.
func Run(classes []stream.Class, opts Options, now time.Time, rep *report.Report) *result.AnalysisResult {
	classes = usable(classes, rep)

	ident := repoident.NewIdentifier(opts.Ident, classes)
	repos := ident.MapAll(classes, rep)

	accesses, facts := collectFacts(classes, repos, rep)

	graph := callgraph.Build(facts)
	reqs := propagate.All(graph, accesses, opts.Propagate, rep)

	return result.Build(reqs, now)
}

// usable drops classes the analyzer cannot work with, with a warning each.
func usable(classes []stream.Class, rep *report.Report) []stream.Class {
	kept := make([]stream.Class, 0, len(classes))
	for i := range classes {
		if classes[i].Name == "" {
			if rep != nil {
				rep.Add(report.InstructionRead, classes[i].SimpleName, "skipping class with empty qualified name")
			}
			continue
		}
		kept = append(kept, classes[i])
	}
	return kept
}

// classFacts is one class's collected facts: classified accesses for each
// of its methods plus its call edges and repository call sites.
type classFacts struct {
	accesses map[model.MethodID][]model.PropertyAccess
	graph    callgraph.ClassFacts
}

// collectFacts runs the embarrassingly parallel per-class phase. Each class
// is independent; results are merged in original class order so the batch
// is deterministic regardless of scheduling.
func collectFacts(classes []stream.Class, repos map[string]model.RepositoryMapping, rep *report.Report) (propagate.Accesses, []callgraph.ClassFacts) {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(classes) {
		numWorkers = len(classes)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	type indexed struct {
		index int
		facts classFacts
	}

	work := make(chan int, len(classes))
	results := make(chan indexed, len(classes))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results <- indexed{index: idx, facts: collectClass(&classes[idx], repos, rep)}
			}
		}()
	}

	for i := range classes {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]classFacts, len(classes))
	for r := range results {
		ordered[r.index] = r.facts
	}

	accesses := make(propagate.Accesses)
	facts := make([]callgraph.ClassFacts, 0, len(classes))
	for _, cf := range ordered {
		for id, pa := range cf.accesses {
			accesses[id] = pa
		}
		facts = append(facts, cf.graph)
	}
	return accesses, facts
}

func collectClass(c *stream.Class, repos map[string]model.RepositoryMapping, rep *report.Report) classFacts {
	cf := classFacts{accesses: make(map[model.MethodID][]model.PropertyAccess, len(c.Methods))}
	for i := range c.Methods {
		m := &c.Methods[i]
		cf.accesses[m.ID(c.Name)] = classify.Method(c.Name, *m, rep)
	}
	cf.graph = callgraph.ExtractClass(c, repos)
	return cf
}

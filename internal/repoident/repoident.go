// Package repoident classifies classes as repositories for aggregate root
// types. Three strategies run in a fixed precedence order: a generic marker
// interface, an explicit annotation, then naming conventions matched against
// already-known aggregate roots. A class maps to at most one aggregate root.
package repoident

import (
	"sort"
	"strings"

	"github.com/lenslabs/fieldlens/internal/model"
	"github.com/lenslabs/fieldlens/internal/report"
	"github.com/lenslabs/fieldlens/internal/stream"
)

// Options configures repository and aggregate detection. All names match
// either the simple or the qualified form.
type Options struct {
	// MarkerInterfaces are single-type-parameter repository interfaces; the
	// type argument names the aggregate root.
	MarkerInterfaces []string
	// Annotations are repository annotations whose "value" or "target"
	// argument names the aggregate root directly.
	Annotations []string
	// AggregateAnnotations mark a class as an aggregate root.
	AggregateAnnotations []string
	// NamingTemplates are simple-name patterns with an {Aggregate}
	// placeholder, matched against known aggregate root names.
	NamingTemplates []string
}

// DefaultOptions returns the stock detection configuration.
func DefaultOptions() Options {
	return Options{
		MarkerInterfaces:     []string{"Repository", "CrudRepository", "JpaRepository"},
		Annotations:          []string{"Repository"},
		AggregateAnnotations: []string{"AggregateRoot"},
		NamingTemplates:      []string{"{Aggregate}Repository", "I{Aggregate}Repository", "{Aggregate}Repo"},
	}
}

const aggregatePlaceholder = "{Aggregate}"

// Identifier resolves repository mappings for one analysis run. It is an
// explicit registry constructed per run; no state survives across runs.
type Identifier struct {
	opts Options
	// aggregates maps simple aggregate names to qualified names.
	aggregates map[string]string
	// bySimple maps every known class's simple name to its qualified name,
	// for resolving type references that arrive unqualified.
	bySimple map[string]string
}

// NewIdentifier builds an identifier over all classes of the compilation
// unit. Aggregate roots must be globally known before any repository edge
// can be tagged, so the full class list is required up front.
func NewIdentifier(opts Options, classes []stream.Class) *Identifier {
	id := &Identifier{
		opts:       opts,
		aggregates: make(map[string]string),
		bySimple:   make(map[string]string),
	}

	for i := range classes {
		c := &classes[i]
		id.bySimple[c.Simple()] = c.Name
	}

	// Aggregates come from annotated classes plus every type named as the
	// target of an explicit interface or annotation match.
	for i := range classes {
		c := &classes[i]
		for _, ann := range opts.AggregateAnnotations {
			if c.HasAnnotation(ann) {
				id.addAggregate(c.Name)
			}
		}
		if target, ok := id.interfaceTarget(c); ok {
			id.addAggregate(target)
		}
		if target, ok := id.annotationTarget(c); ok {
			id.addAggregate(target)
		}
	}

	return id
}

// KnownAggregates returns the qualified names of all known aggregate roots,
// sorted.
func (id *Identifier) KnownAggregates() []string {
	out := make([]string, 0, len(id.aggregates))
	for _, qualified := range id.aggregates {
		out = append(out, qualified)
	}
	sort.Strings(out)
	return out
}

// Identify classifies a single class. It returns the mapping and true when
// the class is a repository. When more than one strategy would match,
// precedence resolves it and an informational ambiguity warning is
// recorded.
func (id *Identifier) Identify(c *stream.Class, rep *report.Report) (model.RepositoryMapping, bool) {
	var matches []model.RepositoryMapping

	if target, ok := id.interfaceTarget(c); ok {
		matches = append(matches, model.RepositoryMapping{
			AggregateRoot: id.qualify(target),
			Repository:    c.Name,
			Match:         model.GenericInterface,
		})
	}
	if target, ok := id.annotationTarget(c); ok {
		matches = append(matches, model.RepositoryMapping{
			AggregateRoot: id.qualify(target),
			Repository:    c.Name,
			Match:         model.Annotation,
		})
	}
	if target, ok := id.namingTarget(c); ok {
		matches = append(matches, model.RepositoryMapping{
			AggregateRoot: target,
			Repository:    c.Name,
			Match:         model.NamingConvention,
		})
	}

	if len(matches) == 0 {
		return model.RepositoryMapping{}, false
	}
	if len(matches) > 1 && rep != nil {
		others := make([]string, 0, len(matches)-1)
		for _, m := range matches[1:] {
			others = append(others, string(m.Match))
		}
		rep.Add(report.RepositoryAmbiguity, c.Name,
			"%s wins over %s", matches[0].Match, strings.Join(others, ", "))
	}
	return matches[0], true
}

// MapAll identifies every repository in classes and returns mappings keyed
// by repository class name.
func (id *Identifier) MapAll(classes []stream.Class, rep *report.Report) map[string]model.RepositoryMapping {
	out := make(map[string]model.RepositoryMapping)
	for i := range classes {
		if m, ok := id.Identify(&classes[i], rep); ok {
			out[m.Repository] = m
		}
	}
	return out
}

func (id *Identifier) addAggregate(name string) {
	qualified := id.qualify(name)
	id.aggregates[simpleName(qualified)] = qualified
}

// interfaceTarget extracts the aggregate type argument when the class
// implements a configured marker interface with exactly one type argument.
func (id *Identifier) interfaceTarget(c *stream.Class) (string, bool) {
	for _, iface := range c.Interfaces {
		if !nameIn(iface.Name, id.opts.MarkerInterfaces) {
			continue
		}
		if len(iface.TypeArgs) != 1 || iface.TypeArgs[0] == "" {
			continue
		}
		return iface.TypeArgs[0], true
	}
	return "", false
}

// annotationTarget extracts the aggregate named by a configured repository
// annotation's "value" or "target" argument.
func (id *Identifier) annotationTarget(c *stream.Class) (string, bool) {
	for _, name := range id.opts.Annotations {
		ann, ok := c.Annotation(name)
		if !ok {
			continue
		}
		for _, key := range []string{"value", "target"} {
			if v := ann.Args[key]; v != "" {
				return strings.TrimSuffix(v, ".class"), true
			}
		}
	}
	return "", false
}

// namingTarget matches the class's simple name against the configured
// templates. The extracted name must be a known aggregate root; free-form
// guesses do not count.
func (id *Identifier) namingTarget(c *stream.Class) (string, bool) {
	simple := c.Simple()
	for _, tmpl := range id.opts.NamingTemplates {
		i := strings.Index(tmpl, aggregatePlaceholder)
		if i < 0 {
			continue
		}
		prefix := tmpl[:i]
		suffix := tmpl[i+len(aggregatePlaceholder):]
		if !strings.HasPrefix(simple, prefix) || !strings.HasSuffix(simple, suffix) {
			continue
		}
		candidate := simple[len(prefix) : len(simple)-len(suffix)]
		if candidate == "" {
			continue
		}
		if qualified, ok := id.aggregates[candidate]; ok {
			return qualified, true
		}
	}
	return "", false
}

// qualify resolves a possibly-simple type name against the known classes.
func (id *Identifier) qualify(name string) string {
	if strings.ContainsAny(name, "./") {
		return name
	}
	if qualified, ok := id.bySimple[name]; ok {
		return qualified
	}
	return name
}

func nameIn(name string, names []string) bool {
	simple := simpleName(name)
	for _, n := range names {
		if name == n || simple == simpleName(n) {
			return true
		}
	}
	return false
}

func simpleName(qualified string) string {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' || qualified[i] == '/' {
			return qualified[i+1:]
		}
	}
	return qualified
}

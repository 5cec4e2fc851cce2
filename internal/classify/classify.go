// Package classify turns a method's instruction stream into a deduplicated,
// order-preserving set of property accesses.
package classify

import (
	"github.com/lenslabs/fieldlens/internal/model"
	"github.com/lenslabs/fieldlens/internal/report"
	"github.com/lenslabs/fieldlens/internal/stream"
)

// Method classifies every property touch in one method body.
//
// Field reads and writes count only when they target the enclosing class.
// Calls are matched against accessor naming conventions and attributed to
// the callee's owner. Branch markers are ignored: accesses inside
// conditions and branch bodies all land in the same method-level set.
//
// The result is deduplicated by the full (name, kind, owner) tuple; a GET
// and a SET of the same property are distinct entries, and first-occurrence
// order is preserved. Events that cannot be classified are skipped with a
// warning; the method's analysis never aborts.
func Method(enclosing string, m stream.Method, rep *report.Report) []model.PropertyAccess {
	b := newBuilder()
	id := m.ID(enclosing)

	for _, ev := range m.Events {
		switch ev.Kind {
		case stream.FieldRead:
			if ev.Name == "" || ev.Owner == "" {
				warn(rep, id, ev)
				continue
			}
			if ev.Owner == enclosing {
				b.add(model.PropertyAccess{Name: ev.Name, Kind: model.Get, Owner: ev.Owner})
			}
		case stream.FieldWrite:
			if ev.Name == "" || ev.Owner == "" {
				warn(rep, id, ev)
				continue
			}
			if ev.Owner == enclosing {
				b.add(model.PropertyAccess{Name: ev.Name, Kind: model.Set, Owner: ev.Owner})
			}
		case stream.Call:
			if ev.Name == "" {
				warn(rep, id, ev)
				continue
			}
			if prop, kind, ok := AccessorProperty(ev.Name, ev.ArgCount); ok {
				b.add(model.PropertyAccess{Name: prop, Kind: kind, Owner: ev.Owner})
			}
		case stream.Branch:
			// Structural marker; flattened.
		default:
			warn(rep, id, ev)
		}
	}

	return b.result()
}

func warn(rep *report.Report, id model.MethodID, ev stream.Event) {
	if rep == nil {
		return
	}
	rep.Add(report.Classification, id.String(),
		"skipping unclassifiable event kind=%s owner=%q name=%q", ev.Kind, ev.Owner, ev.Name)
}

// builder accumulates accesses during traversal and yields an immutable
// slice at the end, keeping results referentially stable once produced.
type builder struct {
	seen    map[model.PropertyAccess]struct{}
	ordered []model.PropertyAccess
}

func newBuilder() *builder {
	return &builder{seen: make(map[model.PropertyAccess]struct{})}
}

func (b *builder) add(pa model.PropertyAccess) {
	if _, dup := b.seen[pa]; dup {
		return
	}
	b.seen[pa] = struct{}{}
	b.ordered = append(b.ordered, pa)
}

func (b *builder) result() []model.PropertyAccess {
	return b.ordered
}

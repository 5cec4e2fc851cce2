// Package report collects warnings and errors raised during an analysis
// run. Failures local to one class, method, or call site are recorded here
// and never abort the batch; only configuration and output-write errors are
// candidates for failing the run, and only when the operator opts in.
package report

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Kind classifies a reported problem.
type Kind string

const (
	// InstructionRead: a class's instruction stream was malformed or
	// unreadable. The class is skipped.
	InstructionRead Kind = "INSTRUCTION_READ"
	// Classification: a single event could not be classified. The event is
	// skipped.
	Classification Kind = "CLASSIFICATION"
	// RepositoryAmbiguity: more than one detection strategy matched a
	// repository class; precedence resolved it. Informational.
	RepositoryAmbiguity Kind = "REPOSITORY_AMBIGUITY"
	// PropagationDepth: a propagation branch hit the recursion depth bound
	// and was truncated.
	PropagationDepth Kind = "PROPAGATION_DEPTH"
	// PropagationCycle: a propagation branch revisited a method and was
	// truncated.
	PropagationCycle Kind = "PROPAGATION_CYCLE"
	// Serialization: the analysis document could not be encoded. Fatal to
	// the output step only.
	Serialization Kind = "SERIALIZATION"
	// OutputWrite: the analysis document could not be written. Fatal to the
	// output step only.
	OutputWrite Kind = "OUTPUT_WRITE"
)

// fatalKinds are fatal to the output step: in-memory results stay valid,
// but the run cannot produce its document.
var fatalKinds = map[Kind]struct{}{
	Serialization: {},
	OutputWrite:   {},
}

// Warning is one reported problem, tagged with the class or method it
// concerns. Cause wraps the underlying error when there is one.
type Warning struct {
	Kind    Kind
	Subject string // class or method identity, "" when not applicable
	Message string
	Cause   error
}

func (w Warning) String() string {
	s := string(w.Kind)
	if w.Subject != "" {
		s += " " + w.Subject
	}
	s += ": " + w.Message
	if w.Cause != nil {
		s += ": " + w.Cause.Error()
	}
	return s
}

// Report accumulates warnings from an analysis run. Safe for concurrent use.
type Report struct {
	mu       sync.Mutex
	warnings []Warning
}

// New returns an empty report.
func New() *Report {
	return &Report{}
}

// Add records a warning.
func (r *Report) Add(kind Kind, subject, format string, args ...any) {
	r.add(Warning{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// AddCause records a warning wrapping an underlying error.
func (r *Report) AddCause(kind Kind, subject string, cause error, format string, args ...any) {
	r.add(Warning{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...), Cause: cause})
}

func (r *Report) add(w Warning) {
	r.mu.Lock()
	r.warnings = append(r.warnings, w)
	r.mu.Unlock()
}

// Warnings returns a copy of all recorded warnings.
func (r *Report) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Len returns the number of recorded warnings.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warnings)
}

// HasFatal reports whether any recorded warning is fatal to the output step.
func (r *Report) HasFatal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.warnings {
		if _, ok := fatalKinds[w.Kind]; ok {
			return true
		}
	}
	return false
}

// Print writes every warning plus a per-kind summary to w.
func (r *Report) Print(w io.Writer) {
	warnings := r.Warnings()
	if len(warnings) == 0 {
		return
	}

	counts := make(map[Kind]int)
	for _, warn := range warnings {
		counts[warn.Kind]++
		fmt.Fprintf(w, "warning: %s\n", warn)
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	fmt.Fprintf(w, "%d warning(s):", len(warnings))
	for _, k := range kinds {
		fmt.Fprintf(w, " %s=%d", k, counts[Kind(k)])
	}
	fmt.Fprintln(w)
}

// Package model defines core data structures for fieldlens.
package model

// AccessKind indicates whether a property access reads or writes the property.
type AccessKind string

const (
	Get AccessKind = "GET"
	Set AccessKind = "SET"
)

// MatchKind indicates which strategy identified a repository class.
// Precedence when more than one strategy matches: GenericInterface >
// Annotation > NamingConvention.
type MatchKind string

const (
	GenericInterface MatchKind = "GENERIC_INTERFACE"
	Annotation       MatchKind = "ANNOTATION"
	NamingConvention MatchKind = "NAMING_CONVENTION"
)

// MethodID uniquely identifies a method. The descriptor disambiguates
// overloads. MethodID is comparable and is used as a map key throughout.
type MethodID struct {
	Owner      string // qualified owner class
	Name       string
	Descriptor string
}

// Key returns the method name and descriptor joined, e.g. "findById(1)".
func (m MethodID) Key() string {
	return m.Name + m.Descriptor
}

func (m MethodID) String() string {
	return m.Owner + "." + m.Name + m.Descriptor
}

// PropertyAccess is a classified read or write of a named property,
// attributed to an owning class. Owner may be empty when the owner could
// not be resolved.
type PropertyAccess struct {
	Name  string
	Kind  AccessKind
	Owner string
}

// Span is an inclusive source line range. A zero Span means no line
// information was available.
type Span struct {
	Start int
	End   int
}

// CallEdge is a caller→callee edge in the call graph. The graph is a
// directed multigraph: self-loops and mutual recursion are legal, and the
// same method pair may appear once per call site.
type CallEdge struct {
	Caller MethodID
	Callee MethodID
	Span   Span
}

// RepositoryMapping associates a repository class with the single aggregate
// root it loads and saves.
type RepositoryMapping struct {
	AggregateRoot string
	Repository    string
	Match         MatchKind
}

// RepositoryCallSite is a call edge whose callee is a method on a known
// repository class.
type RepositoryCallSite struct {
	Caller           MethodID
	Repository       string
	RepositoryMethod MethodID
	AggregateRoot    string
	Span             Span
}

// AggregateMethodFields records the fields one aggregate-root method
// contributes to a call site's requirement.
type AggregateMethodFields struct {
	Method MethodID
	Fields []string
}

// FieldRequirement is the computed field set for one repository call site:
// the union of aggregate-root property names reachable from the caller,
// plus the per-aggregate-method breakdown that produced it. Truncated is
// set when the walk hit the recursion depth bound and the union is
// therefore partial.
type FieldRequirement struct {
	AggregateRoot    string
	Repository       string
	RepositoryMethod MethodID
	Caller           MethodID
	Span             Span
	Fields           []string
	Contributions    []AggregateMethodFields
	Truncated        bool
}

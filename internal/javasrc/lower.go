package javasrc

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/lenslabs/fieldlens/internal/stream"
)

// classScope carries per-class lowering context.
type classScope struct {
	file       *fileScope
	qualified  string
	fieldTypes map[string]string // field name → declared type text
}

// methodScope tracks local variable and parameter types while lowering one
// method body. Shadowing is name-level only; block scoping is not modeled.
type methodScope struct {
	class  *classScope
	vars   map[string]string // local/param name → declared type text
	events []stream.Event
}

// lowerMethod converts one method or constructor declaration into a stream
// method. Descriptors at the source level are arity-based, "(n)": overload
// resolution without a type check can only go by argument count, and using
// the same scheme at declaration and call sites keeps MethodIDs consistent.
func (fs *fileScope) lowerMethod(node *sitter.Node, cs *classScope, ctor bool) stream.Method {
	name := "<init>"
	if !ctor {
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			name = nodeText(nameNode, fs.source)
		}
	}

	ms := &methodScope{class: cs, vars: make(map[string]string)}

	argCount := 0
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p.Type() != "formal_parameter" && p.Type() != "spread_parameter" {
				continue
			}
			argCount++
			pName := p.ChildByFieldName("name")
			pType := p.ChildByFieldName("type")
			if pName != nil && pType != nil {
				ms.vars[nodeText(pName, fs.source)] = nodeText(pType, fs.source)
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		ms.walk(body)
	}

	return stream.Method{
		Name:       name,
		Descriptor: descriptor(argCount),
		Events:     ms.events,
	}
}

func descriptor(argCount int) string {
	return fmt.Sprintf("(%d)", argCount)
}

var branchNodes = map[string]struct{}{
	"if_statement":           {},
	"conditional_expression": {},
	"while_statement":        {},
	"do_statement":           {},
	"for_statement":          {},
	"enhanced_for_statement": {},
	"switch_expression":      {},
}

// walk lowers an AST subtree to events in evaluation order. Branches are
// flattened: a marker is emitted and both the condition and every branch
// body contribute to the same stream.
func (ms *methodScope) walk(n *sitter.Node) {
	if n == nil {
		return
	}

	if _, branch := branchNodes[n.Type()]; branch {
		ms.emit(stream.Event{Kind: stream.Branch, Line: line(n)})
		ms.walkChildren(n)
		return
	}

	switch n.Type() {
	case "method_invocation":
		ms.lowerInvocation(n)
	case "assignment_expression":
		ms.lowerAssignment(n)
	case "update_expression":
		ms.lowerUpdate(n)
	case "field_access":
		ms.lowerFieldAccess(n, stream.FieldRead)
	case "identifier":
		ms.lowerIdentifier(n, stream.FieldRead)
	case "local_variable_declaration":
		ms.lowerLocal(n)
	case "object_creation_expression":
		ms.walkNamedField(n, "arguments")
	default:
		ms.walkChildren(n)
	}
}

func (ms *methodScope) walkChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ms.walk(n.NamedChild(i))
	}
}

func (ms *methodScope) walkNamedField(n *sitter.Node, field string) {
	if child := n.ChildByFieldName(field); child != nil {
		ms.walkChildren(child)
	}
}

// lowerInvocation emits receiver and argument events, then the call itself.
func (ms *methodScope) lowerInvocation(n *sitter.Node) {
	src := ms.class.file.source
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	owner := ms.class.qualified // implicit this
	object := n.ChildByFieldName("object")
	if object != nil {
		owner = ms.receiverOwner(object)
	}

	argCount := 0
	if args := n.ChildByFieldName("arguments"); args != nil {
		argCount = int(args.NamedChildCount())
		ms.walkChildren(args)
	}

	ms.emit(stream.Event{
		Kind:       stream.Call,
		Owner:      owner,
		Name:       nodeText(nameNode, src),
		Descriptor: descriptor(argCount),
		ArgCount:   argCount,
		Line:       line(n),
	})
}

// receiverOwner types an invocation receiver and emits the events the
// receiver expression itself produces (a bare field read, a chained call).
// Returns "" when the receiver type cannot be resolved.
func (ms *methodScope) receiverOwner(object *sitter.Node) string {
	src := ms.class.file.source
	switch object.Type() {
	case "this":
		return ms.class.qualified
	case "identifier":
		name := nodeText(object, src)
		if t, ok := ms.vars[name]; ok {
			return ms.class.file.resolveType(t)
		}
		if t, ok := ms.class.fieldTypes[name]; ok {
			ms.emit(stream.Event{Kind: stream.FieldRead, Owner: ms.class.qualified, Name: name, Line: line(object)})
			return ms.class.file.resolveType(t)
		}
		if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
			// Static call on a class name.
			return ms.class.file.resolveType(name)
		}
		return ""
	case "field_access":
		ms.lowerFieldAccess(object, stream.FieldRead)
		if t, ok := ms.fieldAccessType(object); ok {
			return ms.class.file.resolveType(t)
		}
		return ""
	default:
		ms.walk(object)
		return ""
	}
}

// fieldAccessType resolves the declared type of a this.<field> access.
func (ms *methodScope) fieldAccessType(n *sitter.Node) (string, bool) {
	src := ms.class.file.source
	object := n.ChildByFieldName("object")
	fieldNode := n.ChildByFieldName("field")
	if object == nil || fieldNode == nil || object.Type() != "this" {
		return "", false
	}
	t, ok := ms.class.fieldTypes[nodeText(fieldNode, src)]
	return t, ok
}

// lowerFieldAccess emits a read or write for an explicit field access when
// the owner is resolvable (this.<field>, or a typed receiver's field).
func (ms *methodScope) lowerFieldAccess(n *sitter.Node, kind stream.EventKind) {
	src := ms.class.file.source
	object := n.ChildByFieldName("object")
	fieldNode := n.ChildByFieldName("field")
	if object == nil || fieldNode == nil {
		return
	}

	name := nodeText(fieldNode, src)
	switch object.Type() {
	case "this":
		ev := stream.Event{Kind: kind, Owner: ms.class.qualified, Name: name, Line: line(n)}
		if kind == stream.FieldWrite {
			ev.ValueType = ms.class.fieldTypes[name]
		}
		ms.emit(ev)
	case "identifier":
		recv := nodeText(object, src)
		t, ok := ms.vars[recv]
		if !ok {
			t, ok = ms.class.fieldTypes[recv]
			if ok {
				ms.emit(stream.Event{Kind: stream.FieldRead, Owner: ms.class.qualified, Name: recv, Line: line(object)})
			}
		}
		if owner := ms.class.file.resolveType(t); ok && owner != "" {
			ms.emit(stream.Event{Kind: kind, Owner: owner, Name: name, Line: line(n)})
		}
	default:
		ms.walk(object)
	}
}

// lowerIdentifier emits a field access for a bare identifier that names a
// field of the enclosing class and is not shadowed by a local or parameter.
func (ms *methodScope) lowerIdentifier(n *sitter.Node, kind stream.EventKind) {
	name := nodeText(n, ms.class.file.source)
	if _, shadowed := ms.vars[name]; shadowed {
		return
	}
	if _, isField := ms.class.fieldTypes[name]; !isField {
		return
	}
	ev := stream.Event{Kind: kind, Owner: ms.class.qualified, Name: name, Line: line(n)}
	if kind == stream.FieldWrite {
		ev.ValueType = ms.class.fieldTypes[name]
	}
	ms.emit(ev)
}

// lowerAssignment handles field writes. A compound update keeps the read:
// the existing value was read even though the final value differs.
func (ms *methodScope) lowerAssignment(n *sitter.Node) {
	src := ms.class.file.source
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil {
		ms.walkChildren(n)
		return
	}

	compound := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() {
			if op := nodeText(child, src); op != "=" && strings.HasSuffix(op, "=") {
				compound = true
			}
		}
	}

	switch left.Type() {
	case "identifier", "field_access":
		if compound {
			ms.writeTarget(left, stream.FieldRead)
		}
		ms.walk(right)
		ms.writeTarget(left, stream.FieldWrite)
	default:
		ms.walk(left)
		ms.walk(right)
	}
}

func (ms *methodScope) writeTarget(left *sitter.Node, kind stream.EventKind) {
	switch left.Type() {
	case "identifier":
		ms.lowerIdentifier(left, kind)
	case "field_access":
		ms.lowerFieldAccess(left, kind)
	}
}

// lowerUpdate handles ++/-- as a read followed by a write.
func (ms *methodScope) lowerUpdate(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "identifier" || child.Type() == "field_access" {
			ms.writeTarget(child, stream.FieldRead)
			ms.writeTarget(child, stream.FieldWrite)
			return
		}
	}
}

// lowerLocal records declared local types and walks initializers.
func (ms *methodScope) lowerLocal(n *sitter.Node) {
	src := ms.class.file.source
	typeNode := n.ChildByFieldName("type")
	typeText := ""
	if typeNode != nil {
		typeText = nodeText(typeNode, src)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			ms.vars[nodeText(nameNode, src)] = typeText
		}
		if value := child.ChildByFieldName("value"); value != nil {
			ms.walk(value)
		}
	}
}

func (ms *methodScope) emit(ev stream.Event) {
	ms.events = append(ms.events, ev)
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

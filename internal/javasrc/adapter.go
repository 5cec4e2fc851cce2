// Package javasrc is the bundled reference front end: it lowers Java source
// trees to the instruction streams the analysis core consumes. It is a
// best-effort source-level view — receiver types are resolved from locals,
// parameters, fields and imports, not from a full type check — and it
// degrades by emitting calls with an unresolved owner rather than guessing.
package javasrc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/lenslabs/fieldlens/internal/report"
	"github.com/lenslabs/fieldlens/internal/stream"
)

// ParseTree discovers and lowers every Java file under root. Unreadable or
// unparseable files are skipped with a warning; the batch continues.
func ParseTree(root string, rep *report.Report) ([]stream.Class, error) {
	files, err := DiscoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("discovering java files: %w", err)
	}

	parser := newParser()
	var classes []stream.Class
	for _, rel := range files {
		source, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			if rep != nil {
				rep.AddCause(report.InstructionRead, rel, err, "unreadable source file")
			}
			continue
		}
		cs, err := lowerSource(parser, source)
		if err != nil {
			if rep != nil {
				rep.AddCause(report.InstructionRead, rel, err, "unparseable source file")
			}
			continue
		}
		classes = append(classes, cs...)
	}
	return classes, nil
}

// ParseSource lowers a single Java source buffer.
func ParseSource(source []byte) ([]stream.Class, error) {
	return lowerSource(newParser(), source)
}

func newParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return p
}

// fileScope carries per-file naming context: the declared package and the
// single-type imports used to qualify simple type names.
type fileScope struct {
	source  []byte
	pkg     string
	imports map[string]string // simple name → qualified name
}

func lowerSource(parser *sitter.Parser, source []byte) ([]stream.Class, error) {
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	scope := &fileScope{source: source, imports: make(map[string]string)}
	root := tree.RootNode()

	var classes []stream.Class
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			scope.pkg = packageName(child, source)
		case "import_declaration":
			scope.addImport(child)
		case "class_declaration", "interface_declaration":
			classes = append(classes, scope.lowerType(child, "")...)
		}
	}
	return classes, nil
}

func packageName(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
			return nodeText(child, source)
		}
	}
	return ""
}

func (fs *fileScope) addImport(node *sitter.Node) {
	// Wildcard and static imports carry no usable simple→qualified mapping.
	text := nodeText(node, fs.source)
	if strings.Contains(text, "*") || strings.Contains(text, "static ") {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "scoped_identifier" {
			qualified := nodeText(child, fs.source)
			if dot := strings.LastIndexByte(qualified, '.'); dot >= 0 {
				fs.imports[qualified[dot+1:]] = qualified
			}
		}
	}
}

// resolveType maps a declared type's source text to a qualified class name.
// Generics and arrays are stripped to their raw type; primitives and
// unresolvable lower-case names map to "".
func (fs *fileScope) resolveType(text string) string {
	if i := strings.IndexByte(text, '<'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "[]")
	if text == "" {
		return ""
	}
	if strings.ContainsRune(text, '.') {
		return text // already qualified
	}
	first := text[0]
	if first >= 'a' && first <= 'z' {
		return "" // primitive or var
	}
	if qualified, ok := fs.imports[text]; ok {
		return qualified
	}
	if fs.pkg != "" {
		return fs.pkg + "." + text
	}
	return text
}

// lowerType converts one class or interface declaration (and its nested
// types) into stream classes. outer is the enclosing type's simple-name
// chain for nested declarations.
func (fs *fileScope) lowerType(node *sitter.Node, outer string) []stream.Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	simple := nodeText(nameNode, fs.source)
	if outer != "" {
		simple = outer + "." + simple
	}
	qualified := simple
	if fs.pkg != "" {
		qualified = fs.pkg + "." + simple
	}

	c := stream.Class{
		Name:        qualified,
		SimpleName:  simple,
		Annotations: fs.annotations(node),
		Interfaces:  fs.interfaces(node),
	}

	cs := &classScope{file: fs, qualified: qualified, fieldTypes: make(map[string]string)}

	body := node.ChildByFieldName("body")
	if body == nil {
		return []stream.Class{c}
	}

	// Fields first: the method walk needs to know which bare identifiers
	// are fields of this class.
	var nested []stream.Class
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() == "field_declaration" {
			fs.collectField(member, cs, &c)
		}
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_declaration":
			c.Methods = append(c.Methods, fs.lowerMethod(member, cs, false))
		case "constructor_declaration":
			c.Methods = append(c.Methods, fs.lowerMethod(member, cs, true))
		case "class_declaration", "interface_declaration":
			nested = append(nested, fs.lowerType(member, simple)...)
		}
	}

	return append([]stream.Class{c}, nested...)
}

func (fs *fileScope) collectField(node *sitter.Node, cs *classScope, c *stream.Class) {
	typeNode := node.ChildByFieldName("type")
	typeText := ""
	if typeNode != nil {
		typeText = nodeText(typeNode, fs.source)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, fs.source)
		cs.fieldTypes[name] = typeText
		c.Fields = append(c.Fields, name)
	}
}

// annotations reads the annotations off a declaration's modifiers.
func (fs *fileScope) annotations(node *sitter.Node) []stream.Annotation {
	var anns []stream.Annotation
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			mod := child.NamedChild(j)
			switch mod.Type() {
			case "marker_annotation":
				anns = append(anns, stream.Annotation{Name: fs.annotationName(mod)})
			case "annotation":
				anns = append(anns, stream.Annotation{
					Name: fs.annotationName(mod),
					Args: fs.annotationArgs(mod),
				})
			}
		}
	}
	return anns
}

func (fs *fileScope) annotationName(node *sitter.Node) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return nodeText(nameNode, fs.source)
	}
	return ""
}

func (fs *fileScope) annotationArgs(node *sitter.Node) map[string]string {
	argsNode := node.ChildByFieldName("arguments")
	if argsNode == nil {
		return nil
	}
	args := make(map[string]string)
	for i := 0; i < int(argsNode.NamedChildCount()); i++ {
		child := argsNode.NamedChild(i)
		if child.Type() == "element_value_pair" {
			keyNode := child.ChildByFieldName("key")
			valueNode := child.ChildByFieldName("value")
			if keyNode != nil && valueNode != nil {
				args[nodeText(keyNode, fs.source)] = unquote(nodeText(valueNode, fs.source))
			}
			continue
		}
		// A lone value is the implicit "value" element.
		args["value"] = unquote(nodeText(child, fs.source))
	}
	return args
}

// interfaces reads implemented (class) or extended (interface) interfaces
// with their type arguments.
func (fs *fileScope) interfaces(node *sitter.Node) []stream.InterfaceRef {
	var refs []stream.InterfaceRef
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "super_interfaces" && child.Type() != "extends_interfaces" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			list := child.NamedChild(j)
			if list.Type() != "type_list" {
				continue
			}
			for k := 0; k < int(list.NamedChildCount()); k++ {
				refs = append(refs, fs.interfaceRef(list.NamedChild(k)))
			}
		}
	}
	return refs
}

func (fs *fileScope) interfaceRef(node *sitter.Node) stream.InterfaceRef {
	switch node.Type() {
	case "generic_type":
		ref := stream.InterfaceRef{}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "type_identifier", "scoped_type_identifier":
				ref.Name = nodeText(child, fs.source)
			case "type_arguments":
				for j := 0; j < int(child.NamedChildCount()); j++ {
					arg := child.NamedChild(j)
					ref.TypeArgs = append(ref.TypeArgs, fs.resolveType(nodeText(arg, fs.source)))
				}
			}
		}
		return ref
	default:
		return stream.InterfaceRef{Name: nodeText(node, fs.source)}
	}
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

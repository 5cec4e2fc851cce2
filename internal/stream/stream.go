// Package stream defines the instruction-event contract between host front
// ends (compiler integrations, bytecode readers, the bundled Java source
// front end) and the analysis core. The core consumes only these shapes and
// never depends on any specific program-representation API.
package stream

import (
	"github.com/lenslabs/fieldlens/internal/model"
)

// EventKind identifies one kind of instruction event.
type EventKind string

const (
	// Call is an invocation of Owner.Name with ArgCount arguments.
	Call EventKind = "CALL"
	// FieldRead is a read of field Name on Owner.
	FieldRead EventKind = "FIELD_READ"
	// FieldWrite is a write of field Name on Owner; ValueType carries the
	// assigned value's type when known.
	FieldWrite EventKind = "FIELD_WRITE"
	// Branch marks conditional structure in the method body. The classifier
	// flattens branches, so these are structural markers only.
	Branch EventKind = "BRANCH"
)

// Event is a single instruction event in a method body. Line is 1-based,
// 0 when unknown.
type Event struct {
	Kind       EventKind `json:"kind"`
	Owner      string    `json:"owner,omitempty"`
	Name       string    `json:"name,omitempty"`
	Descriptor string    `json:"descriptor,omitempty"`
	ArgCount   int       `json:"argCount,omitempty"`
	ValueType  string    `json:"valueType,omitempty"`
	Line       int       `json:"line,omitempty"`
}

// Method is one analyzed method: its identity plus the ordered event list
// for its body.
type Method struct {
	Name       string  `json:"name"`
	Descriptor string  `json:"descriptor"`
	Events     []Event `json:"events,omitempty"`
}

// ID returns the MethodID of a method declared on owner.
func (m *Method) ID(owner string) model.MethodID {
	return model.MethodID{Owner: owner, Name: m.Name, Descriptor: m.Descriptor}
}

// Annotation is a plain annotation name with its argument list, as needed
// by repository and aggregate identification.
type Annotation struct {
	Name string            `json:"name"`
	Args map[string]string `json:"args,omitempty"`
}

// InterfaceRef is an implemented interface with its declared type
// arguments, as needed by generic-interface repository matching.
type InterfaceRef struct {
	Name     string   `json:"name"`
	TypeArgs []string `json:"typeArgs,omitempty"`
}

// Class is the per-class unit a host front end hands to the pipeline.
type Class struct {
	Name        string         `json:"name"` // qualified name
	SimpleName  string         `json:"simpleName,omitempty"`
	Interfaces  []InterfaceRef `json:"interfaces,omitempty"`
	Annotations []Annotation   `json:"annotations,omitempty"`
	Fields      []string       `json:"fields,omitempty"`
	Methods     []Method       `json:"methods,omitempty"`
}

// Simple returns the class's simple name, deriving it from the qualified
// name when the front end did not set it.
func (c *Class) Simple() string {
	if c.SimpleName != "" {
		return c.SimpleName
	}
	name := c.Name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' || name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}

// HasAnnotation reports whether the class carries an annotation with the
// given simple or qualified name.
func (c *Class) HasAnnotation(name string) bool {
	_, ok := c.Annotation(name)
	return ok
}

// Annotation returns the class annotation with the given simple or
// qualified name.
func (c *Class) Annotation(name string) (Annotation, bool) {
	for _, a := range c.Annotations {
		if a.Name == name || simpleName(a.Name) == name {
			return a, true
		}
	}
	return Annotation{}, false
}

func simpleName(qualified string) string {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' || qualified[i] == '/' {
			return qualified[i+1:]
		}
	}
	return qualified
}

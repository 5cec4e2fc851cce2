package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lenslabs/fieldlens/internal/model"
)

const (
	syntheticGetPrefix = "<get-"
	syntheticSetPrefix = "<set-"
)

// AccessorProperty maps a called method name to the property it accesses,
// if the name follows an accessor convention. Matching order, first match
// wins:
//
//  1. synthetic accessor names "<get-x>" / "<set-x>"
//  2. bean-style "getX" / "isX" with zero arguments
//  3. bean-style "setX" with one argument
//
// Bean prefixes must be followed by an upper-case letter; bare "get", "is"
// and "set" (and anything shorter) never match.
func AccessorProperty(name string, argCount int) (string, model.AccessKind, bool) {
	if prop, ok := synthetic(name, syntheticGetPrefix); ok {
		return prop, model.Get, true
	}
	if prop, ok := synthetic(name, syntheticSetPrefix); ok {
		return prop, model.Set, true
	}

	switch {
	case argCount == 0 && beanProperty(name, "get") != "":
		return beanProperty(name, "get"), model.Get, true
	case argCount == 0 && beanProperty(name, "is") != "":
		return beanProperty(name, "is"), model.Get, true
	case argCount == 1 && beanProperty(name, "set") != "":
		return beanProperty(name, "set"), model.Set, true
	}
	return "", "", false
}

// IsSetterName reports whether a method name follows a setter pattern,
// synthetic or bean-style, regardless of arity.
func IsSetterName(name string) bool {
	if _, ok := synthetic(name, syntheticSetPrefix); ok {
		return true
	}
	return beanProperty(name, "set") != ""
}

// synthetic matches compiler-generated accessor names like "<get-status>".
func synthetic(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ">") {
		return "", false
	}
	prop := name[len(prefix) : len(name)-1]
	if prop == "" {
		return "", false
	}
	return prop, true
}

// beanProperty returns the lower-cased property name for a bean accessor,
// or "" when name does not follow the convention for the given prefix.
func beanProperty(name, prefix string) string {
	if len(name) <= len(prefix) || !strings.HasPrefix(name, prefix) {
		return ""
	}
	rest := name[len(prefix):]
	first, size := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(first) {
		return ""
	}
	return string(unicode.ToLower(first)) + rest[size:]
}

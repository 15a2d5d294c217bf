package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Type names an IR type. Types carry no structure beyond their name.
type Type string

// Common type names
const (
	UnknownType Type = "unknown"
	IntType     Type = "int"
	VoidType    Type = "void"
)

// String returns the type name, or "unknown" for the empty type
func (t Type) String() string {
	if t == "" {
		return string(UnknownType)
	}
	return string(t)
}

// Local is a named, typed variable slot. After SSA formation each version
// of a local is a distinct Local sharing the base name and type.
type Local struct {
	Name      string
	Type      Type
	Version   int
	Versioned bool
}

// NewLocal creates an unversioned local
func NewLocal(name string, typ Type) Local {
	if typ == "" {
		typ = UnknownType
	}
	return Local{Name: name, Type: typ}
}

// WithVersion returns the local carrying the given version number
func (l Local) WithVersion(version int) Local {
	l.Version = version
	l.Versioned = true
	return l
}

// Base returns the local without its version
func (l Local) Base() Local {
	l.Version = 0
	l.Versioned = false
	return l
}

// String renders the local as name or name#version
func (l Local) String() string {
	if !l.Versioned {
		return l.Name
	}
	return fmt.Sprintf("%s#%d", l.Name, l.Version)
}

// ParseLocalName splits "l2#4" into its base name and version.
// A name without a version suffix reports versioned=false.
func ParseLocalName(text string) (name string, version int, versioned bool, err error) {
	idx := strings.LastIndexByte(text, '#')
	if idx < 0 {
		return text, 0, false, nil
	}
	version, err = strconv.Atoi(text[idx+1:])
	if err != nil || version < 0 {
		return "", 0, false, fmt.Errorf("invalid local version in %q", text)
	}
	if idx == 0 {
		return "", 0, false, fmt.Errorf("missing local name in %q", text)
	}
	return text[:idx], version, true, nil
}

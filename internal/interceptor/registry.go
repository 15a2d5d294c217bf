package interceptor

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ludo-technologies/irscn/internal/body"
)

var factories = map[string]func() body.Interceptor{
	NopEliminatorName:             func() body.Interceptor { return NewNopEliminator() },
	UnreachableCodeEliminatorName: func() body.Interceptor { return NewUnreachableCodeEliminator() },
	SSAName:                       func() body.Interceptor { return NewSSAFormer() },
}

// loggable is implemented by interceptors that accept a debug logger
type loggable interface {
	SetLogger(*log.Logger)
}

// Names returns the registered interceptor names in sorted order
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName creates a fresh interceptor for the registry name
func ByName(name string) (body.Interceptor, error) {
	factory, ok := factories[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("unknown interceptor %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(), nil
}

// NewChain resolves names into a chain, in order. A non-nil logger is
// handed to the chain and to every interceptor that takes one.
func NewChain(names []string, logger *log.Logger) (*body.Chain, error) {
	interceptors := make([]body.Interceptor, 0, len(names))
	for _, name := range names {
		ic, err := ByName(name)
		if err != nil {
			return nil, err
		}
		if l, ok := ic.(loggable); ok && logger != nil {
			l.SetLogger(logger)
		}
		interceptors = append(interceptors, ic)
	}
	chain := body.NewChain(interceptors...)
	if logger != nil {
		chain.SetLogger(logger)
	}
	return chain, nil
}

// Package frontend turns body manifests into bodies.
//
// A manifest is a YAML, TOML or JSON document naming the declaring class,
// the method signature, typed locals, the statements in Jimple-like text
// and the exception regions by label:
//
//	class: Test
//	method: "void test()"
//	locals: {l0: Test, l1: int}
//	stmts:
//	  - "l0 := @this: Test"
//	  - "label1:"
//	  - "l1 = 0"
//	  - "return"
//	traps:
//	  - {exception: java.lang.Exception, from: label1, to: label2, with: label3}
package frontend

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

// Manifest formats
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Manifest is the decoded form of a body file
type Manifest struct {
	Class  string            `yaml:"class" json:"class" toml:"class"`
	Method string            `yaml:"method" json:"method" toml:"method"`
	Locals map[string]string `yaml:"locals,omitempty" json:"locals,omitempty" toml:"locals,omitempty"`
	Stmts  []string          `yaml:"stmts" json:"stmts" toml:"stmts"`
	Traps  []TrapSpec        `yaml:"traps,omitempty" json:"traps,omitempty" toml:"traps,omitempty"`
}

// TrapSpec protects the statements from label From up to, not including,
// label To with the handler at label With. An empty To, or a To label placed
// after the last statement, protects to the end of the body.
type TrapSpec struct {
	Exception string `yaml:"exception" json:"exception" toml:"exception"`
	From      string `yaml:"from" json:"from" toml:"from"`
	To        string `yaml:"to" json:"to" toml:"to"`
	With      string `yaml:"with" json:"with" toml:"with"`
}

// ParseError reports a manifest entry that could not be parsed. Index is
// the 1-based position in the stmts list.
type ParseError struct {
	Index int
	Text  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("statement %d %q: %v", e.Index, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatFromPath derives the manifest format from a file extension
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported manifest extension %q (expected .yaml, .yml, .toml or .json)", filepath.Ext(path))
}

// Decode reads a manifest in the given format
func Decode(data []byte, format string) (*Manifest, error) {
	var m Manifest
	var err error
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		err = yaml.Unmarshal(data, &m)
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s manifest: %w", format, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFile reads and decodes the manifest at path
func LoadFile(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks the fields every manifest needs
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Class) == "" {
		return fmt.Errorf("manifest has no class")
	}
	if strings.TrimSpace(m.Method) == "" {
		return fmt.Errorf("manifest has no method")
	}
	for name, t := range m.Locals {
		if !validName(name) {
			return fmt.Errorf("invalid local name %q", name)
		}
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("local %q has no type", name)
		}
	}
	return nil
}

// Builder creates bodies from manifests
type Builder struct {
	logger *log.Logger
}

// NewBuilder creates a builder
func NewBuilder() *Builder {
	return &Builder{}
}

// SetLogger enables debug output, passed on to graph construction
func (b *Builder) SetLogger(logger *log.Logger) {
	b.logger = logger
}

// Build creates a body from m with a default builder
func Build(m *Manifest) (*body.Body, error) {
	return NewBuilder().Build(m)
}

// Build parses the statements of m, resolves labels into branch targets
// and exception regions, and builds the statement graph. Declared locals
// come first in name order, followed by undeclared ones in order of
// appearance.
func (b *Builder) Build(m *Manifest) (*body.Body, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	types := make(map[string]ir.Type, len(m.Locals))
	names := make([]string, 0, len(m.Locals))
	for name, t := range m.Locals {
		types[name] = ir.Type(strings.TrimSpace(t))
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		stmts  []*ir.Stmt
		parsed []parsedStmt
	)
	labels := make(map[string]int)
	for i, text := range m.Stmts {
		text = strings.TrimSpace(text)
		if label, ok := labelOf(text); ok {
			if _, dup := labels[label]; dup {
				return nil, &ParseError{Index: i + 1, Text: text, Err: fmt.Errorf("label %q defined twice", label)}
			}
			labels[label] = len(stmts)
			continue
		}
		ps, err := newStmtParser(text, types).parse()
		if err != nil {
			return nil, &ParseError{Index: i + 1, Text: text, Err: err}
		}
		ps.stmt.Line = i + 1
		stmts = append(stmts, ps.stmt)
		parsed = append(parsed, ps)
	}

	// a label after the last statement marks the end of the body
	at := func(label string) (*ir.Stmt, bool, error) {
		idx, ok := labels[label]
		if !ok {
			return nil, false, fmt.Errorf("unknown label %q", label)
		}
		if idx == len(stmts) {
			return nil, true, nil
		}
		return stmts[idx], false, nil
	}

	targets := make(map[*ir.Stmt][]*ir.Stmt)
	for _, ps := range parsed {
		for _, label := range ps.targets {
			t, end, err := at(label)
			if err == nil && end {
				err = fmt.Errorf("label %q marks the end of the body and cannot be jumped to", label)
			}
			if err != nil {
				return nil, &ParseError{Index: ps.stmt.Line, Text: strings.TrimSpace(m.Stmts[ps.stmt.Line-1]), Err: err}
			}
			targets[ps.stmt] = append(targets[ps.stmt], t)
		}
	}

	regions := make([]graph.ExceptionRegion, 0, len(m.Traps))
	for i, tr := range m.Traps {
		region, err := trapRegion(tr, at)
		if err != nil {
			return nil, fmt.Errorf("trap %d: %w", i+1, err)
		}
		regions = append(regions, region)
	}

	g, err := graph.FromLinear(graph.LinearBody{
		Stmts:   stmts,
		Targets: targets,
		Regions: regions,
		Logger:  b.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", m.Class, m.Method, err)
	}

	bd := body.New(m.Class, m.Method, g)
	for _, name := range names {
		bd.AddLocal(ir.NewLocal(name, types[name]))
	}
	bd.DeclareUsedLocals()
	if b.logger != nil {
		b.logger.Printf("Frontend: %s: %d statements, %d traps, %d locals",
			bd.Signature(), len(stmts), len(regions), bd.LocalCount())
	}
	return bd, nil
}

func trapRegion(tr TrapSpec, at func(string) (*ir.Stmt, bool, error)) (graph.ExceptionRegion, error) {
	if strings.TrimSpace(tr.Exception) == "" {
		return graph.ExceptionRegion{}, fmt.Errorf("missing exception type")
	}
	begin, end, err := at(tr.From)
	if err != nil {
		return graph.ExceptionRegion{}, err
	}
	if end {
		return graph.ExceptionRegion{}, fmt.Errorf("from label %q marks the end of the body", tr.From)
	}
	handler, end, err := at(tr.With)
	if err != nil {
		return graph.ExceptionRegion{}, err
	}
	if end {
		return graph.ExceptionRegion{}, fmt.Errorf("handler label %q marks the end of the body", tr.With)
	}
	var stop *ir.Stmt
	if strings.TrimSpace(tr.To) != "" {
		if stop, _, err = at(tr.To); err != nil {
			return graph.ExceptionRegion{}, err
		}
	}
	return graph.ExceptionRegion{
		Type:    ir.Type(strings.TrimSpace(tr.Exception)),
		Begin:   begin,
		End:     stop,
		Handler: handler,
	}, nil
}

// labelOf recognizes a "name:" line
func labelOf(text string) (string, bool) {
	if !strings.HasSuffix(text, ":") {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(text, ":"))
	if !validName(name) {
		return "", false
	}
	return name, true
}

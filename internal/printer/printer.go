// Package printer renders bodies as Jimple-like text.
package printer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/graph"
	"github.com/ludo-technologies/irscn/internal/ir"
)

// Options control optional parts of the output
type Options struct {
	// ShowBlocks writes a "// bbN" marker before every block
	ShowBlocks bool

	// HideTraps omits the catch lines
	HideTraps bool
}

// String renders b. It fails only when the graph's traps cannot be
// aggregated.
func String(b *body.Body, opts Options) (string, error) {
	var sb strings.Builder
	if err := Print(&sb, b, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Print writes the rendering of b to w
func Print(w io.Writer, b *body.Body, opts Options) error {
	p, err := newPrinter(b, opts)
	if err != nil {
		return err
	}
	p.body()
	_, err = io.WriteString(w, p.out.String())
	return err
}

// Traps renders only the catch lines of b, labelled as Print labels them
func Traps(b *body.Body) ([]string, error) {
	p, err := newPrinter(b, Options{})
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(p.traps))
	for i, t := range p.traps {
		lines[i] = p.catchLine(t)
	}
	return lines, nil
}

type printer struct {
	b    *body.Body
	g    *graph.StmtGraph
	opts Options
	out  strings.Builder

	blocks   []*graph.Block
	traps    []graph.Trap
	terminal *ir.Stmt

	labels map[*ir.Stmt]string

	// jumps holds the explicit goto emitted after a block whose
	// fall-through successor is not next in layout
	jumps map[graph.BlockID]*ir.Stmt

	lastBlank bool
	lastLabel bool
}

func newPrinter(b *body.Body, opts Options) (*printer, error) {
	traps, terminal, err := b.Graph.BuildTrapsWithTerminal()
	if err != nil {
		return nil, fmt.Errorf("print %s: %w", b.Signature(), err)
	}
	p := &printer{
		b:        b,
		g:        b.Graph,
		opts:     opts,
		blocks:   b.Graph.Blocks(),
		traps:    traps,
		terminal: terminal,
		labels:   make(map[*ir.Stmt]string),
		jumps:    make(map[graph.BlockID]*ir.Stmt),
	}
	p.assignLabels()
	return p, nil
}

// assignLabels numbers branch targets and trap boundaries in layout order
func (p *printer) assignLabels() {
	marked := make(map[*ir.Stmt]bool)
	for i, blk := range p.blocks {
		tail := blk.Tail()
		succs := blk.Successors()
		for slot, id := range succs {
			if id == graph.NoBlock {
				continue
			}
			explicit := tail.Kind == ir.StmtGoto || tail.Kind == ir.StmtSwitch ||
				(tail.Kind == ir.StmtIf && slot == ir.IfTrueBranch)
			if explicit {
				marked[p.g.Block(id).Head()] = true
			}
		}
		if tail.FallsThrough() && len(succs) > 0 && succs[0] != graph.NoBlock {
			if i+1 >= len(p.blocks) || p.blocks[i+1].ID != succs[0] {
				head := p.g.Block(succs[0]).Head()
				p.jumps[blk.ID] = head
				marked[head] = true
			}
		}
	}
	for _, t := range p.traps {
		marked[t.Begin] = true
		marked[t.End] = true
		marked[t.Handler] = true
	}

	n := 0
	number := func(s *ir.Stmt) {
		if marked[s] {
			n++
			p.labels[s] = "label" + strconv.Itoa(n)
		}
	}
	for _, blk := range p.blocks {
		for _, s := range blk.Stmts() {
			number(s)
		}
	}
	if p.terminal != nil {
		number(p.terminal)
	}
}

func (p *printer) body() {
	p.out.WriteString("{\n")
	types, groups := p.b.LocalsByType()
	for _, t := range types {
		names := make([]string, len(groups[t]))
		for i, l := range groups[t] {
			names[i] = l.String()
		}
		fmt.Fprintf(&p.out, "    %s %s;\n", t, strings.Join(names, ", "))
	}
	if len(types) > 0 {
		p.out.WriteString("\n\n")
	}
	p.lastBlank = true

	for _, blk := range p.blocks {
		if p.opts.ShowBlocks {
			p.line("    // " + blk.ID.String())
		}
		for _, s := range blk.Stmts() {
			p.stmt(s, blk)
		}
		if head, ok := p.jumps[blk.ID]; ok {
			p.separate()
			p.line("    goto " + p.labels[head] + ";")
		}
	}
	if p.terminal != nil {
		p.stmt(p.terminal, nil)
	}

	if !p.opts.HideTraps && len(p.traps) > 0 {
		p.out.WriteString("\n")
		for _, t := range p.traps {
			p.out.WriteString(" " + p.catchLine(t) + "\n")
		}
	}
	p.out.WriteString("}\n")
}

func (p *printer) stmt(s *ir.Stmt, blk *graph.Block) {
	if label, ok := p.labels[s]; ok {
		if !p.lastBlank {
			p.blank()
		}
		p.out.WriteString("  " + label + ":\n")
		p.lastBlank, p.lastLabel = false, true
	}
	switch s.Kind {
	case ir.StmtIf, ir.StmtGoto, ir.StmtSwitch, ir.StmtReturn, ir.StmtThrow:
		p.separate()
	}
	p.line("    " + p.stmtText(s, blk) + ";")
}

// separate emits the blank line that precedes control statements, unless
// a label or blank line already does
func (p *printer) separate() {
	if !p.lastBlank && !p.lastLabel {
		p.blank()
	}
}

func (p *printer) blank() {
	p.out.WriteString("\n")
	p.lastBlank, p.lastLabel = true, false
}

func (p *printer) line(text string) {
	p.out.WriteString(text + "\n")
	p.lastBlank, p.lastLabel = false, false
}

func (p *printer) stmtText(s *ir.Stmt, blk *graph.Block) string {
	if blk == nil || !s.Branches() || blk.Tail() != s {
		return s.String()
	}
	succs := blk.Successors()
	target := func(slot int) string {
		if slot >= len(succs) || succs[slot] == graph.NoBlock {
			return "<unset>"
		}
		return p.labels[p.g.Block(succs[slot]).Head()]
	}

	switch s.Kind {
	case ir.StmtIf:
		return s.String() + " goto " + target(ir.IfTrueBranch)
	case ir.StmtGoto:
		return "goto " + target(ir.GotoBranch)
	case ir.StmtSwitch:
		var sb strings.Builder
		sb.WriteString(s.String())
		for i, c := range s.Cases {
			fmt.Fprintf(&sb, " %d:%s", c, target(i))
		}
		sb.WriteString(" default:" + target(len(s.Cases)))
		return sb.String()
	}
	return s.String()
}

func (p *printer) catchLine(t graph.Trap) string {
	return fmt.Sprintf("catch %s from %s to %s with %s;", t.Type, p.labels[t.Begin], p.labels[t.End], p.labels[t.Handler])
}

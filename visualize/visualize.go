// Package visualize renders a function's control-flow graph, annotated
// with dataflow results, as a Graphviz diagram. Unlike the teacher's
// dot-to-SVG pipeline, which shells out to the `dot` binary and writes
// intermediate files, rendering here happens entirely in-process
// through goccy/go-graphviz's cgraph bindings, straight to an
// io.Writer.
package visualize

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/chubbymaggie/snowman/dflow"
	"github.com/chubbymaggie/snowman/ir"
)

// Options controls how much dataflow detail is baked into node labels.
type Options struct {
	// ShowValues annotates each instruction with the abstract values of
	// its terms.
	ShowValues bool
	// ShowLocations annotates each instruction with resolved memory
	// locations.
	ShowLocations bool
	Format        graphviz.Format
}

// DefaultOptions renders the CFG with value and location annotations, as SVG.
func DefaultOptions() Options {
	return Options{ShowValues: true, ShowLocations: true, Format: graphviz.SVG}
}

// Render writes fn's CFG, optionally annotated from df, to w in the
// format named by opts.Format.
func Render(w io.Writer, fn *ir.Function, df *dflow.Dataflow, opts Options) error {
	dot := buildDot(fn, df, opts)

	g := graphviz.New()
	defer g.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("visualize: parsing generated dot: %w", err)
	}
	defer graph.Close()

	format := opts.Format
	if format == "" {
		format = graphviz.SVG
	}
	if err := g.Render(graph, format, w); err != nil {
		return fmt.Errorf("visualize: rendering graph: %w", err)
	}
	return nil
}

// RenderDot writes the raw Graphviz source for fn to w, with no
// rendering step — useful for golden-file testing, where comparing
// generated SVG byte-for-byte is both brittle (graphviz's own output
// embeds non-deterministic layout noise) and unnecessary.
func RenderDot(w io.Writer, fn *ir.Function, df *dflow.Dataflow, opts Options) error {
	_, err := io.WriteString(w, buildDot(fn, df, opts))
	return err
}

func buildDot(fn *ir.Function, df *dflow.Dataflow, opts Options) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "digraph %q {\n", fn.Name)
	b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")

	for _, block := range fn.Blocks {
		fmt.Fprintf(&b, "  %q [label=%q];\n", block.Label, blockLabel(block, df, opts))
	}
	for _, block := range fn.Blocks {
		for _, succ := range block.Successors {
			fmt.Fprintf(&b, "  %q -> %q;\n", block.Label, succ.Label)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func blockLabel(block *ir.BasicBlock, df *dflow.Dataflow, opts Options) string {
	var lines []string
	lines = append(lines, block.Label)
	for _, inst := range block.Instructions {
		lines = append(lines, inst.String())
		for _, stmt := range inst.Statements {
			lines = append(lines, "  "+stmt.String())
			if opts.ShowValues || opts.ShowLocations {
				lines = append(lines, annotateTerms(stmt, df, opts)...)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// annotateTerms walks the terms reachable from a statement's immediate
// operands (one level; the analyzer has already populated every term
// transitively) and reports the requested dataflow facts.
func annotateTerms(stmt ir.Statement, df *dflow.Dataflow, opts Options) []string {
	var out []string
	visit := func(term ir.Term) {
		if term == nil {
			return
		}
		var parts []string
		if opts.ShowValues {
			parts = append(parts, df.GetValue(term).String())
		}
		if opts.ShowLocations {
			if loc := df.GetMemoryLocation(term); !loc.IsEmpty() {
				parts = append(parts, loc.String())
			}
		}
		if len(parts) > 0 {
			out = append(out, fmt.Sprintf("    %s: %s", term, strings.Join(parts, ", ")))
		}
	}

	switch s := stmt.(type) {
	case *ir.Assignment:
		visit(s.Value)
		visit(s.Dest)
	case *ir.Jump:
		visit(s.Condition)
		visit(s.Then.Address)
		visit(s.Else.Address)
	case *ir.Call:
		visit(s.Target.Address)
	case *ir.Touch:
		visit(s.Value)
	}
	return out
}

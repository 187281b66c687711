package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/syssam/facet/compiler/gen"
	"github.com/syssam/facet/compiler/load"
)

// describe prints a plain-text summary of every view in the graph.
func describe(w io.Writer, g *gen.Graph) {
	for _, t := range g.Views {
		fmt.Fprintf(w, "%s (entity: %s)\n", t.Name, t.Entity)
		tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, "\tField\tEntity Path\tType")
		for _, f := range t.Fields {
			fmt.Fprintf(tw, "\t%s\t%s\t%s\n", f.Name, f.Entity, fieldType(f))
		}
		for _, c := range t.Computed {
			fmt.Fprintf(tw, "\t%s\t%s\t%s\n", c.Name, strings.Join(c.Deps, ", "), computedType(c))
		}
		tw.Flush()
		fmt.Fprintln(w)
	}
}

// fieldType renders the DTO type of a direct field, with its collection
// shape when the field is a collection.
func fieldType(f *load.Field) string {
	typ := "?"
	if f.Info != nil {
		typ = f.Info.String()
	}
	if f.Collection != nil {
		return fmt.Sprintf("%s (%s)", typ, f.Collection)
	}
	return typ
}

// computedType renders the computation of a computed field.
func computedType(c *load.Computed) string {
	if m := c.Method; m != nil {
		switch {
		case m.Target != "" && m.Method != "":
			return fmt.Sprintf("computed by %s.%s", m.Target, m.Method)
		case m.Target != "":
			return fmt.Sprintf("computed by %s", m.Target)
		case m.Method != "":
			return fmt.Sprintf("computed by %s", m.Method)
		}
	}
	return "computed"
}

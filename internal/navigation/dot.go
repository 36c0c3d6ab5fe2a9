package navigation

import (
	"fmt"
	"io"
)

// WriteDOT renders the transition table as a Graphviz digraph.
func WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph saucedemo {"); err != nil {
		return err
	}
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintf(w, "  %q [shape=doublecircle];\n", LoggedOut.String())
	for _, e := range Edges() {
		fmt.Fprintf(w, "  %q -> %q [label=%q];\n", e.From.String(), e.To.String(), string(e.Action))
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

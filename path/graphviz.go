// Copyright (C) 2024 The einsumc Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package path

import (
	"fmt"
	"io"

	"github.com/einsumc/einsumc/subscripts"
)

// writeDOT renders p's contraction tree as a Graphviz
// digraph: one node per step (labeled with its subscripts
// string) and one edge per input position consumed by a
// later step, pointing from producer to consumer. This is
// purely additive tooling for inspecting a plan; it has no
// bearing on compilation and is never required to produce
// a path.
func writeDOT(w io.Writer, p Path) error {
	producer := make(map[subscripts.Position]int)
	for i, ss := range p.Steps {
		producer[ss.Output.Pos] = i
	}

	if _, err := fmt.Fprintln(w, "digraph path {"); err != nil {
		return err
	}
	for i, ss := range p.Steps {
		if _, err := fmt.Fprintf(w, "  step%d [label=%q];\n", i, ss.String()); err != nil {
			return err
		}
	}
	for i, ss := range p.Steps {
		for _, in := range ss.Inputs {
			if from, ok := producer[in.Pos]; ok {
				if _, err := fmt.Fprintf(w, "  step%d -> step%d;\n", from, i); err != nil {
					return err
				}
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

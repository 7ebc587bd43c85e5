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

package codegen

import (
	"bytes"
	"fmt"
	"go/format"

	"github.com/einsumc/einsumc/path"
)

// Fragment is the emitted program fragment for one
// compiled expression: the deduplicated per-step function
// definitions plus a driver function that binds caller
// arguments, runs each step in order, and returns the
// final result.
//
// Go has neither a bare expression-block syntax nor
// generic function literals (a type parameter list is only
// legal on a func declaration, never a closure), so the
// source's `{ fn defs; let bindings; result }` block
// expression becomes a flat sequence of top-level
// declarations: every per-step function sits beside a
// single driver function, rather than nested inside it.
type Fragment struct {
	// Source is the formatted Go source of the fragment:
	// zero or more generic per-step function declarations
	// followed by the driver function declaration.
	Source string
	// DriverName is the name of the driver function the
	// fragment declares, derived from the final step's
	// escaped identifier.
	DriverName string
}

// ErrArgCount is returned when the number of argument
// expressions passed to Driver doesn't match the number of
// inputs the compiled subscripts require.
var ErrArgCount = fmt.Errorf("codegen: argument count mismatch")

// Driver builds the full emitted fragment for a planned
// Path: one specialized function per distinct step
// (deduplicated by EscapedIdent), followed by a driver
// function that binds argExprs to arg0, arg1, … in order,
// calls each step, and returns the original output.
//
// argExprs are opaque Go source snippets forwarded
// verbatim into the driver body, exactly as the source
// forwards the macro's argument token trees into `let
// arg_i = <expr>;`; einsumc never inspects or evaluates
// them.
func Driver(p path.Path, argExprs []string) (Fragment, error) {
	if got, want := len(argExprs), p.NumArgs(); got != want {
		return Fragment{}, fmt.Errorf("%w: subscripts want %d args, got %d", ErrArgCount, want, got)
	}

	var b bytes.Buffer

	seen := make(map[string]bool)
	for _, ss := range p.Steps {
		id := ss.EscapedIdent()
		if seen[id] {
			continue
		}
		seen[id] = true
		b.WriteString(FunctionDef(ss))
		b.WriteString("\n")
	}

	driverName := "Compute_" + p.Output().Pos.String() + "_" + p.Steps[len(p.Steps)-1].EscapedIdent()
	fmt.Fprintf(&b, "func %s() any {\n", driverName)
	for i, expr := range argExprs {
		fmt.Fprintf(&b, "\targ%d := %s\n", i, expr)
	}
	for _, ss := range p.Steps {
		fmt.Fprintf(&b, "\t%s := %s(", ss.Output.Pos.String(), ss.EscapedIdent())
		for i, in := range ss.Inputs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(in.Pos.String())
		}
		b.WriteString(")\n")
	}
	fmt.Fprintf(&b, "\treturn %s\n}\n", p.Output().Pos.String())

	formatted, err := format.Source(b.Bytes())
	if err != nil {
		// Keep the unformatted source in the error so a
		// caller debugging a codegen defect can still see
		// what was emitted.
		return Fragment{}, fmt.Errorf("codegen: formatting emitted fragment: %w\n%s", err, b.String())
	}

	return Fragment{Source: string(formatted), DriverName: driverName}, nil
}

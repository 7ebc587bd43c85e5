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

// Package subscripts implements the subscripts
// algebra at the core of an einsum compiler: the
// raw surface syntax, canonical index remapping,
// factorization, and the cost metrics the path
// planner minimizes.
//
// The critical entry points for this package are
// Parse, FromRaw and (*Subscripts).Factorize.
package subscripts

import "strings"

// RawSubscript is a single comma-separated subscript
// term as it appears in surface syntax, e.g. "ij" or
// "i...j". It has not yet been assigned a Position or
// had its indices canonically remapped.
type RawSubscript struct {
	// Start holds the indices before an ellipsis, or
	// all indices when Ellipsis is false.
	Start []rune
	// End holds the indices after an ellipsis. Empty
	// when Ellipsis is false.
	End []rune
	// Ellipsis reports whether "..." appeared in this
	// subscript.
	Ellipsis bool
}

// Indices returns the single-character indices of r in
// left-to-right order, concatenating Start and End for
// the ellipsis form.
func (r RawSubscript) Indices() []rune {
	if !r.Ellipsis {
		out := make([]rune, len(r.Start))
		copy(out, r.Start)
		return out
	}
	out := make([]rune, 0, len(r.Start)+len(r.End))
	out = append(out, r.Start...)
	out = append(out, r.End...)
	return out
}

// String renders r the way the compiler's escaped_ident
// and Debug forms expect: plain indices concatenated, or
// start + "___" + end for the ellipsis form.
func (r RawSubscript) String() string {
	var b strings.Builder
	for _, c := range r.Start {
		b.WriteRune(c)
	}
	if r.Ellipsis {
		b.WriteString("___")
		for _, c := range r.End {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Equal reports whether r and o denote the same raw
// subscript, ignoring nothing (whitespace is already
// discarded by the parser before RawSubscript values
// exist).
func (r RawSubscript) Equal(o RawSubscript) bool {
	if r.Ellipsis != o.Ellipsis {
		return false
	}
	return runesEqual(r.Start, o.Start) && runesEqual(r.End, o.End)
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Indices builds a plain (non-ellipsis) RawSubscript from
// a string of index characters. It is a convenience used
// by tests and by Dot/Gemm below.
func Indices(s string) RawSubscript {
	return RawSubscript{Start: []rune(s)}
}

// RawSubscripts is the parsed, un-canonicalized result of
// a subscripts string: an ordered, non-empty list of input
// RawSubscript plus an optional output. A nil Output marks
// implicit mode.
type RawSubscripts struct {
	Inputs []RawSubscript
	Output *RawSubscript
}

// Equal reports whether r and o parse to the same value,
// which Parse guarantees is independent of whitespace.
func (r RawSubscripts) Equal(o RawSubscripts) bool {
	if len(r.Inputs) != len(o.Inputs) {
		return false
	}
	for i := range r.Inputs {
		if !r.Inputs[i].Equal(o.Inputs[i]) {
			return false
		}
	}
	if (r.Output == nil) != (o.Output == nil) {
		return false
	}
	if r.Output != nil && !r.Output.Equal(*o.Output) {
		return false
	}
	return true
}

// Dot returns the raw subscripts for a BLAS-style DOT
// product, "a,a->".
func Dot() RawSubscripts {
	out := Indices("")
	return RawSubscripts{
		Inputs: []RawSubscript{Indices("a"), Indices("a")},
		Output: &out,
	}
}

// Gemm returns the raw subscripts for a BLAS-style GEMM,
// "ab,bc->ac".
func Gemm() RawSubscripts {
	out := Indices("ac")
	return RawSubscripts{
		Inputs: []RawSubscript{Indices("ab"), Indices("bc")},
		Output: &out,
	}
}

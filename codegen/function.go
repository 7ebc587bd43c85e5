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

	"golang.org/x/exp/slices"

	"github.com/einsumc/einsumc/subscripts"
)

// FunctionDef builds the Go source of the specialized
// contraction function for one planned step. The function
// is generic over the element type T and over one storage
// type per input, ranked exactly to that input's index
// count; it returns an owned ndarray.Dense[T] of the
// output's rank.
//
// The contraction loop body uses a single "=" assignment,
// not "+=": for inputs with non-empty contraction indices
// only the last iteration's value survives. This reproduces
// a documented quirk of the source this compiler is modeled
// on rather than computing true
// einsum accumulation; callers that need correct reduction
// must post-process or wait on an upstream fix to that
// design, see DESIGN.md.
func FunctionDef(ss subscripts.Subscripts) string {
	var b bytes.Buffer

	fnName := ss.EscapedIdent()
	n := len(ss.Inputs)

	storages := make([]string, n)
	for i := range storages {
		storages[i] = fmt.Sprintf("S%d", i)
	}

	fmt.Fprintf(&b, "func %s[T ndarray.Scalar, %s](", fnName, joinTypeParamDecls(storages))
	for i, in := range ss.Inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", in.Pos.String(), storages[i])
	}
	fmt.Fprintf(&b, ") *ndarray.Dense[T] {\n")

	writeRankAsserts(&b, ss)
	writeArraySizes(&b, ss)
	writeArraySizeAsserts(&b, ss)
	writeContraction(&b, ss)

	fmt.Fprintf(&b, "\treturn %s\n", ss.Output.Pos.String())
	b.WriteString("}\n")

	return b.String()
}

// joinTypeParamDecls renders the per-input storage type
// parameter declaration list, e.g.
// "S0 ndarray.Tensor[T], S1 ndarray.Tensor[T]". Each input
// gets its own type parameter, constrained identically,
// so distinct concrete storage types may back each input
// argument — the Go analogue of the source's one
// storage-capability type parameter per input.
func joinTypeParamDecls(names []string) string {
	var b bytes.Buffer
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s ndarray.Tensor[T]", n)
	}
	return b.String()
}

// writeRankAsserts emits one assertion per input pinning
// its rank to the index count the subscripts specify. Go
// generics have no const-generic array-rank parameter the
// way the source's Ix2/Ix3 dimension types do, so rank is
// pinned with a runtime check here instead of purely at
// the type level.
func writeRankAsserts(b *bytes.Buffer, ss subscripts.Subscripts) {
	for _, in := range ss.Inputs {
		fmt.Fprintf(b, "\tndarray.AssertEqual(\"rank(%s)\", len(%s.Dims()), %d)\n",
			in.Pos.String(), in.Pos.String(), len(in.Indices()))
	}
}

// writeArraySizes emits the "define index sizes" step: the
// first occurrence of an index across all inputs binds
// n_<index>; later occurrences are read but discarded,
// matching the source's "first occurrence binds, rest are
// ignored" rule.
func writeArraySizes(b *bytes.Buffer, ss subscripts.Subscripts) {
	appeared := make(map[rune]bool)
	for _, in := range ss.Inputs {
		idx := in.Indices()
		if len(idx) == 0 {
			// A rank-0 input (a bare scalar factor) has no
			// axes to destructure; Dims() still gets called
			// for the rank assertion above, nothing more to
			// bind here.
			continue
		}
		fmt.Fprintf(b, "\t%sDims := %s.Dims()\n", in.Pos.String(), in.Pos.String())
		for axis, c := range idx {
			if appeared[c] {
				fmt.Fprintf(b, "\t_ = %sDims[%d]\n", in.Pos.String(), axis)
				continue
			}
			appeared[c] = true
			fmt.Fprintf(b, "\t%s := %sDims[%d]\n", nIdent(c), in.Pos.String(), axis)
		}
	}
}

// writeArraySizeAsserts emits the "size consistency
// assertions" step: for each input, re-destructure its
// shape into positional locals and assert each one equals
// the already-bound size for its index.
func writeArraySizeAsserts(b *bytes.Buffer, ss subscripts.Subscripts) {
	for _, in := range ss.Inputs {
		idx := in.Indices()
		if len(idx) == 0 {
			continue
		}
		b.WriteString("\t{\n")
		fmt.Fprintf(b, "\t\td := %s.Dims()\n", in.Pos.String())
		for axis, c := range idx {
			local := nEachIdent(axis)
			fmt.Fprintf(b, "\t\t%s := d[%d]\n", local, axis)
			fmt.Fprintf(b, "\t\tndarray.AssertEqual(%q, %s, %s)\n", string(c), local, nIdent(c))
		}
		b.WriteString("\t}\n")
	}
}

// writeContraction emits output allocation and the nested
// contraction loops, in the order output indices first,
// then contraction indices, per the compiler's loop-order
// rule.
func writeContraction(b *bytes.Buffer, ss subscripts.Subscripts) {
	outIdx := ss.Output.Indices()
	nOut := make([]string, len(outIdx))
	for i, c := range outIdx {
		nOut[i] = nIdent(c)
	}
	fmt.Fprintf(b, "\t%s := ndarray.Zeros[T](%s)\n", ss.Output.Pos.String(), joinArgs(nOut))

	var loopIdx []rune
	loopIdx = append(loopIdx, outIdx...)
	contracted := ss.ContractionIndices()
	var contractedSorted []rune
	for c := range contracted {
		contractedSorted = append(contractedSorted, c)
	}
	slices.Sort(contractedSorted)
	loopIdx = append(loopIdx, contractedSorted...)

	indent := "\t"
	for _, c := range loopIdx {
		fmt.Fprintf(b, "%sfor %s := 0; %s < %s; %s++ {\n", indent, indexIdent(c), indexIdent(c), nIdent(c), indexIdent(c))
		indent += "\t"
	}

	// Single assignment (not accumulation); see FunctionDef doc.
	var rhs bytes.Buffer
	for i, in := range ss.Inputs {
		if i > 0 {
			rhs.WriteString(" * ")
		}
		idx := in.Indices()
		idxStrs := make([]string, len(idx))
		for j, c := range idx {
			idxStrs[j] = indexIdent(c)
		}
		fmt.Fprintf(&rhs, "%s.At(%s)", in.Pos.String(), joinArgs(idxStrs))
	}
	outIdxStrs := make([]string, len(outIdx))
	for i, c := range outIdx {
		outIdxStrs[i] = indexIdent(c)
	}
	fmt.Fprintf(b, "%s%s.Set(%s, %s)\n", indent, ss.Output.Pos.String(), rhs.String(), joinArgs(outIdxStrs))

	for range loopIdx {
		indent = indent[:len(indent)-1]
		fmt.Fprintf(b, "%s}\n", indent)
	}
}

func joinArgs(args []string) string {
	var b bytes.Buffer
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a)
	}
	return b.String()
}

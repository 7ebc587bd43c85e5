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

package subscripts

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Subscript pairs a RawSubscript with the Position of the
// tensor it names.
type Subscript struct {
	Raw RawSubscript
	Pos Position
}

// Indices returns the single-character indices of s, in
// the order that determines tensor-element index tuples.
func (s Subscript) Indices() []rune { return s.Raw.Indices() }

// String renders s as its raw form; use Subscripts.String
// for the full "raw | position" debug form.
func (s Subscript) String() string { return s.Raw.String() }

// Subscripts is the core compile-time value: an ordered,
// non-empty list of input Subscript plus exactly one
// output Subscript. It is immutable once constructed,
// except for the one-time canonical index remapping
// performed during construction.
type Subscripts struct {
	Inputs []Subscript
	Output Subscript
}

// FromRaw builds canonical Subscripts from parsed raw
// subscripts, assigning Arg positions to the inputs in
// order, minting a fresh Out position from ns for the
// output, synthesizing an implicit-mode output when raw
// has none, and performing the one-time canonical index
// remapping.
func FromRaw(ns *Namespace, raw RawSubscripts) Subscripts {
	inputs := make([]Subscript, len(raw.Inputs))
	for i, r := range raw.Inputs {
		inputs[i] = Subscript{Raw: r, Pos: ArgPos(i)}
	}
	outPos := ns.NewIdent()

	var output Subscript
	if raw.Output != nil {
		output = Subscript{Raw: *raw.Output, Pos: outPos}
	} else {
		count := countIndices(inputs)
		var free []rune
		for c, n := range count {
			if n == 1 {
				free = append(free, c)
			}
		}
		slices.Sort(free)
		output = Subscript{Raw: RawSubscript{Start: free}, Pos: outPos}
	}

	ss := Subscripts{Inputs: inputs, Output: output}
	ss.remapIndices()
	return ss
}

// FromIndices parses s and builds canonical Subscripts in
// one step; a convenience for tests and callers that don't
// need the intermediate RawSubscripts.
func FromIndices(ns *Namespace, s string) (Subscripts, error) {
	raw, err := Parse(s)
	if err != nil {
		return Subscripts{}, err
	}
	return FromRaw(ns, raw), nil
}

// String renders ss as "ab,bc->ac | arg0,arg1->out0",
// matching the source's Debug/Display implementation.
func (ss Subscripts) String() string {
	var b strings.Builder
	for i, in := range ss.Inputs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(in.Raw.String())
	}
	fmt.Fprintf(&b, "->%s | ", ss.Output.Raw.String())
	for i, in := range ss.Inputs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(in.Pos.String())
	}
	fmt.Fprintf(&b, "->%s", ss.Output.Pos.String())
	return b.String()
}

// Equal reports whether ss and o are the same canonical
// subscripts value: equal remapped indices and equal
// positions. Two Subscripts built from
// consistently relabeled inputs (e.g. "ij,jk->ik" and
// "xz,zy->xy") compare Equal once each has gone through
// FromRaw, since remapping is applied at construction.
func (ss Subscripts) Equal(o Subscripts) bool {
	if len(ss.Inputs) != len(o.Inputs) {
		return false
	}
	for i := range ss.Inputs {
		if !ss.Inputs[i].Raw.Equal(o.Inputs[i].Raw) || ss.Inputs[i].Pos != o.Inputs[i].Pos {
			return false
		}
	}
	return ss.Output.Raw.Equal(o.Output.Raw) && ss.Output.Pos == o.Output.Pos
}

// MemoryOrder returns beta, the exponent of the output's
// memory footprint in the per-index size N.
func (ss Subscripts) MemoryOrder() int {
	return len(ss.Output.Indices())
}

// ComputeOrder returns alpha, the exponent of the
// multiply-add work this contraction requires.
func (ss Subscripts) ComputeOrder() int {
	return ss.MemoryOrder() + len(ss.ContractionIndices())
}

// ContractionIndices returns the set of indices appearing
// two or more times across the inputs but not present in
// the output: the indices this contraction sums over.
func (ss Subscripts) ContractionIndices() map[rune]struct{} {
	count := countIndices(ss.Inputs)
	out := make(map[rune]struct{})
	for c, n := range count {
		if n >= 2 {
			out[c] = struct{}{}
		}
	}
	for _, c := range ss.Output.Indices() {
		delete(out, c)
	}
	return out
}

// EscapedIdent returns a deterministic string usable as a
// Go function name: each input's raw display joined by
// "_", then "_" and the output's raw display. This is not
// injective across ellipsis placements (e.g. "i...,j->ij"
// and "i,...j->ij" both escape to "a____b__ab" once
// canonicalized); that's acceptable because the emitted
// name only needs to be unique within the single
// compile-unit driver block that declares it, and Driver
// dedupes by this same string before emission.
func (ss Subscripts) EscapedIdent() string {
	var b strings.Builder
	for _, in := range ss.Inputs {
		b.WriteString(in.Raw.String())
		b.WriteByte('_')
	}
	b.WriteByte('_')
	b.WriteString(ss.Output.Raw.String())
	return sanitizeIdent(b.String())
}

// sanitizeIdent maps the escaped subscripts string into a
// valid Go identifier. The only characters EscapedIdent
// can ever produce are lowercase ascii letters and
// underscores, which are already valid in a Go identifier,
// so this is a defensive identity pass guarding against a
// future index alphabet change.
func sanitizeIdent(s string) string {
	return s
}

// ErrDegenerateFactorization is returned by Factorize when
// the requested inner set selects fewer than 2 inputs or
// all of them.
var ErrDegenerateFactorization = errors.New("subscripts: factorization subset must select at least 2 and fewer than all inputs")

// ErrUnknownIndex is returned by Contract when the
// requested index is not currently a contraction index.
var ErrUnknownIndex = errors.New("subscripts: index is not a contraction index")

// Factorize splits ss into a first step that contracts the
// inputs named by inner and a remaining step that consumes
// the first step's output alongside the inputs not
// selected. inner must name at least 2 and fewer than all
// of ss.Inputs; otherwise Factorize returns
// ErrDegenerateFactorization.
func (ss Subscripts) Factorize(ns *Namespace, inner map[Position]struct{}) (innerSS, outerSS Subscripts, err error) {
	n := len(ss.Inputs)
	if len(inner) < 2 || len(inner) >= n {
		return Subscripts{}, Subscripts{}, ErrDegenerateFactorization
	}

	var innerInputs, outerInputs []Subscript
	type counts struct{ inInner, inOuter int }
	seen := make(map[rune]*counts)

	touch := func(c rune) *counts {
		if cc, ok := seen[c]; ok {
			return cc
		}
		cc := &counts{}
		seen[c] = cc
		return cc
	}

	for _, in := range ss.Inputs {
		if _, ok := inner[in.Pos]; ok {
			innerInputs = append(innerInputs, in.cloneRaw())
			for _, c := range in.Indices() {
				touch(c).inInner++
			}
		} else {
			outerInputs = append(outerInputs, in.cloneRaw())
			for _, c := range in.Indices() {
				touch(c).inOuter++
			}
		}
	}

	var intermediate []rune
	for c, cc := range seen {
		if cc.inInner == 1 || (cc.inInner >= 2 && cc.inOuter > 0) {
			intermediate = append(intermediate, c)
		}
	}
	slices.Sort(intermediate)

	interPos := ns.NewIdent()
	// innerSS and outerSS each remap their own indices
	// in place (see remapIndices), so the intermediate
	// output and every input must own an independent copy
	// of its rune slices: none of innerInputs, outerInputs,
	// the two intermediate Subscript values, or ss's own
	// Inputs/Output may share backing arrays, or one side's
	// remap would corrupt the other (or the caller's ss,
	// which brute-force search reuses across sibling
	// branches).
	innerOut := Subscript{Raw: RawSubscript{Start: append([]rune(nil), intermediate...)}, Pos: interPos}
	outerIn := Subscript{Raw: RawSubscript{Start: append([]rune(nil), intermediate...)}, Pos: interPos}
	outerInputs = append([]Subscript{outerIn}, outerInputs...)

	innerSS = Subscripts{Inputs: innerInputs, Output: innerOut}
	outerSS = Subscripts{Inputs: outerInputs, Output: ss.Output.cloneRaw()}
	innerSS.remapIndices()
	outerSS.remapIndices()
	return innerSS, outerSS, nil
}

// cloneRaw returns a copy of s whose Raw.Start and Raw.End
// slices have independent backing arrays, safe to pass to
// remapIndices without aliasing s's own storage.
func (s Subscript) cloneRaw() Subscript {
	s.Raw.Start = append([]rune(nil), s.Raw.Start...)
	s.Raw.End = append([]rune(nil), s.Raw.End...)
	return s
}

// Contract eliminates a single contraction index in one
// step, grouping every input that carries index together
// into an intermediate and leaving every other input
// untouched. It is a narrower convenience over Factorize
// recovered from an earlier revision of the original
// implementation, useful for callers that want to drive
// contraction one index at a time instead of running the
// full path planner.
//
// When index spans every input (the common two-input
// matmul case) or is confined to a single input (e.g. a
// trace like "ii,j->j"), there is no proper subset of
// inputs left to factor out: ss itself already contracts
// index when run as one step, so Contract returns ss
// unchanged rather than asking Factorize to split off a
// degenerate inner/outer pair.
func (ss Subscripts) Contract(ns *Namespace, index rune) (Subscripts, error) {
	if _, ok := ss.ContractionIndices()[index]; !ok {
		return Subscripts{}, fmt.Errorf("%w: %q", ErrUnknownIndex, index)
	}

	inner := make(map[Position]struct{})
	for _, in := range ss.Inputs {
		if slices.Contains(in.Indices(), index) {
			inner[in.Pos] = struct{}{}
		}
	}

	if len(inner) < 2 || len(inner) >= len(ss.Inputs) {
		return ss, nil
	}

	_, outer, err := ss.Factorize(ns, inner)
	if err != nil {
		return Subscripts{}, err
	}
	return outer, nil
}

// remapIndices performs the one-time canonical index
// remapping: the first distinct index encountered
// traversing inputs then output, in order, is remapped to
// 'a', the next to 'b', and so on. Ellipsis segments are
// traversed start-then-end. This makes subscripts that
// differ only by a consistent relabeling of indices
// compare Equal.
func (ss *Subscripts) remapIndices() {
	m := make(map[rune]rune)
	next := rune('a')

	remap := func(c rune) rune {
		if r, ok := m[c]; ok {
			return r
		}
		m[c] = next
		r := next
		next++
		return r
	}

	update := func(r *RawSubscript) {
		for i, c := range r.Start {
			r.Start[i] = remap(c)
		}
		for i, c := range r.End {
			r.End[i] = remap(c)
		}
	}

	for i := range ss.Inputs {
		update(&ss.Inputs[i].Raw)
	}
	update(&ss.Output.Raw)
}

func countIndices(inputs []Subscript) map[rune]int {
	count := make(map[rune]int)
	for _, in := range inputs {
		for _, c := range in.Indices() {
			count[c]++
		}
	}
	return count
}

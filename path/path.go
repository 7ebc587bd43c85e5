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

// Package path implements the contraction path planner: a
// brute-force search over factorizations that minimizes
// (max compute order, max memory order) lexicographically.
package path

import (
	"io"

	"github.com/dchest/siphash"
	"github.com/einsumc/einsumc/subscripts"
)

// Path is a planned sequence of subscripts steps that
// together compute the Original expression. Steps is
// non-empty; its last element's output has the original
// expression's raw shape and Position Out(0), the final
// result identifier.
type Path struct {
	Original subscripts.Subscripts
	Steps    []subscripts.Subscripts
}

// NumArgs returns the number of caller-supplied input
// tensors the path's original expression requires.
func (p Path) NumArgs() int { return len(p.Original.Inputs) }

// Output returns the original expression's output
// subscript, the identifier the whole Path ultimately
// produces.
func (p Path) Output() subscripts.Subscript { return p.Original.Output }

// ComputeOrder returns the maximum compute order across
// every step of p.
func (p Path) ComputeOrder() int { return computeOrder(p.Steps) }

// MemoryOrder returns the maximum memory order across
// every step of p.
func (p Path) MemoryOrder() int { return memoryOrder(p.Steps) }

func computeOrder(steps []subscripts.Subscripts) int {
	best := steps[0].ComputeOrder()
	for _, ss := range steps[1:] {
		if o := ss.ComputeOrder(); o > best {
			best = o
		}
	}
	return best
}

func memoryOrder(steps []subscripts.Subscripts) int {
	best := steps[0].MemoryOrder()
	for _, ss := range steps[1:] {
		if o := ss.MemoryOrder(); o > best {
			best = o
		}
	}
	return best
}

// key is the (compute order, memory order) tuple brute
// force minimizes lexicographically.
type key struct {
	compute, memory int
}

func keyOf(steps []subscripts.Subscripts) key {
	return key{computeOrder(steps), memoryOrder(steps)}
}

func (k key) less(o key) bool {
	if k.compute != o.compute {
		return k.compute < o.compute
	}
	return k.memory < o.memory
}

// BruteForce computes the Path for indices: parse,
// canonicalize with a fresh Namespace, and run the
// brute-force planner.
func BruteForce(indices string) (Path, error) {
	ns := subscripts.InitNamespace()
	ss, err := subscripts.FromIndices(&ns, indices)
	if err != nil {
		return Path{}, err
	}
	return BruteForceSubscripts(&ns, ss)
}

// BruteForceSubscripts runs the planner on an already
// constructed Subscripts value, using ns only to observe
// the Namespace state prior to planning (the planner
// clones ns per speculative branch, so ns itself is left
// unused after planning, per the source's design).
func BruteForceSubscripts(ns *subscripts.Namespace, ss subscripts.Subscripts) (Path, error) {
	memo := newMemo()
	steps, err := bruteForce(ns, ss, memo)
	if err != nil {
		return Path{}, err
	}
	return Path{Original: ss, Steps: steps}, nil
}

func bruteForce(ns *subscripts.Namespace, ss subscripts.Subscripts, memo *memo) ([]subscripts.Subscripts, error) {
	if len(ss.Inputs) <= 2 {
		return []subscripts.Subscripts{ss}, nil
	}

	if cached, ok := memo.get(ss); ok {
		return cached, nil
	}

	n := len(ss.Inputs)
	var best []subscripts.Subscripts
	var bestKey key
	haveBest := false

	consider := func(candidate []subscripts.Subscripts) {
		k := keyOf(candidate)
		if !haveBest || k.less(bestKey) {
			best = candidate
			bestKey = k
			haveBest = true
		}
	}

	// Subset enumeration uses the 2^n mask space; masks
	// are walked in increasing order and positions are
	// extracted in input order, fixing the tie-break the
	// source relies on (first-discovered wins on an equal
	// key, since consider only replaces on strict
	// improvement).
	for mask := 0; mask < (1 << uint(n)); mask++ {
		inner := make(map[subscripts.Position]struct{})
		m := mask
		for i := 0; i < n; i++ {
			if m&1 == 1 {
				inner[ss.Inputs[i].Pos] = struct{}{}
			}
			m >>= 1
		}
		if len(inner) < 2 || len(inner) >= n {
			continue
		}

		branchNS := ns.Clone()
		innerSS, outerSS, err := ss.Factorize(&branchNS, inner)
		if err != nil {
			return nil, err
		}
		sub, err := bruteForce(&branchNS, outerSS, memo)
		if err != nil {
			return nil, err
		}
		candidate := make([]subscripts.Subscripts, 0, len(sub)+1)
		candidate = append(candidate, innerSS)
		candidate = append(candidate, sub...)
		consider(candidate)
	}

	// Also consider no factorization at all.
	consider([]subscripts.Subscripts{ss})

	memo.put(ss, best)
	return best, nil
}

// WriteDOT writes a Graphviz description of the
// contraction tree p represents: one node per step,
// labeled with its subscripts, and an edge from the step
// that produces each consumed position to the step that
// consumes it.
func (p Path) WriteDOT(w io.Writer) error {
	return writeDOT(w, p)
}

// memoKey hashes the canonical string form of ss with
// siphash into a planner memoization bucket. Collisions
// are resolved by comparing the canonical string itself
// before reusing a cached plan, so a hash collision can
// only cost a cache miss, never an incorrect reuse.
func memoKey(ss subscripts.Subscripts) uint64 {
	s := ss.String()
	return siphash.Hash(0, 0, []byte(s))
}

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

import "fmt"

// PositionKind distinguishes a user-supplied argument
// tensor from a compiler-introduced intermediate.
type PositionKind uint8

const (
	// Arg names the n-th argument the caller passed in,
	// 0-based by argument order.
	Arg PositionKind = iota
	// Out names the n-th intermediate tensor the
	// compiler introduced, 0-based by issuance order.
	Out
)

// Position is a tagged identifier naming a tensor in the
// emitted driver. It is a value type, never a pointer or
// handle into a tensor object.
type Position struct {
	Kind PositionKind
	N    int
}

// ArgPos returns the Position for the n-th caller argument.
func ArgPos(n int) Position { return Position{Kind: Arg, N: n} }

// String renders the position the way the emitted driver
// binds it: "arg0", "out3", and so on.
func (p Position) String() string {
	switch p.Kind {
	case Arg:
		return fmt.Sprintf("arg%d", p.N)
	case Out:
		return fmt.Sprintf("out%d", p.N)
	default:
		panic("subscripts: unknown PositionKind")
	}
}

// Namespace issues fresh Out positions. It is a plain
// counter threaded through construction, not global
// state: cloning a Namespace preserves its counter value
// so independent planner search branches can explore
// without interfering with each other's numbering.
type Namespace struct {
	last int
}

// InitNamespace returns a Namespace whose counter starts
// at zero.
func InitNamespace() Namespace {
	return Namespace{}
}

// NewIdent mints and returns a fresh Out position,
// advancing the counter.
func (n *Namespace) NewIdent() Position {
	p := Position{Kind: Out, N: n.last}
	n.last++
	return p
}

// Clone returns an independent copy of n. Go structs
// already copy by value, but Clone is named explicitly to
// keep the planner's branch-isolation intent visible at
// call sites, the way the source's derived Clone impl
// does.
func (n Namespace) Clone() Namespace {
	return Namespace{last: n.last}
}

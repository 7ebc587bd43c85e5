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

// Package ndarray is the minimal n-dimensional array
// contract emitted contraction kernels are compiled
// against. It stands in for the external tensor runtime
// spec.md's scope section calls out as an out-of-scope
// collaborator: einsumc only needs shape inspection, a
// zero-valued allocator and rank-sized-tuple indexing, not
// a full array library. There is no broadcasting, no BLAS
// dispatch and no GPU path, by design.
package ndarray

import "fmt"

// Scalar is the element type contraction kernels operate
// over: it must support addition, multiplication and have
// a usable zero value.
type Scalar interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64 | ~complex64 | ~complex128
}

// Tensor is the read-only view type every emitted
// contraction function accepts for its input tensors. Rank
// is fixed per call site by the compiler; Dims()'s length
// always equals the subscript's index count.
type Tensor[T Scalar] interface {
	// Dims returns the tensor's shape, one entry per axis.
	Dims() []int
	// At returns the element at idx, which must have
	// length equal to len(Dims()).
	At(idx ...int) T
}

// Dense is the owned array type emitted contraction
// functions return. It is allocated zero-valued by Zeros
// and filled in by element Set calls during the
// contraction loop.
type Dense[T Scalar] struct {
	shape  []int
	stride []int
	data   []T
}

// Zeros allocates a Dense array of the given shape, every
// element initialized to T's zero value.
func Zeros[T Scalar](shape ...int) *Dense[T] {
	n := 1
	for _, d := range shape {
		n *= d
	}
	stride := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		stride[i] = acc
		acc *= shape[i]
	}
	return &Dense[T]{
		shape:  append([]int(nil), shape...),
		stride: stride,
		data:   make([]T, n),
	}
}

// Dims implements Tensor.
func (d *Dense[T]) Dims() []int { return d.shape }

// At implements Tensor.
func (d *Dense[T]) At(idx ...int) T {
	return d.data[d.offset(idx)]
}

// Set assigns the element at idx to v.
func (d *Dense[T]) Set(v T, idx ...int) {
	d.data[d.offset(idx)] = v
}

func (d *Dense[T]) offset(idx []int) int {
	off := 0
	for i, x := range idx {
		off += x * d.stride[i]
	}
	return off
}

// AssertEqual panics if got != want. Emitted contraction
// functions call this once per input axis to verify the
// caller's tensors agree on every shared index's size;
// this is the runtime failure surface described in the
// compiler's error-handling design, not a compiler-time
// diagnostic.
func AssertEqual(name string, got, want int) {
	if got != want {
		panic(fmt.Sprintf("einsumc: dimension mismatch on index %q: got %d, want %d", name, got, want))
	}
}

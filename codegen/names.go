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

// Package codegen emits Go source for a planned
// contraction path: one specialized function per distinct
// step, and the driver block that wires caller arguments
// through the plan to the final result.
package codegen

import "fmt"

// nIdent returns the identifier bound to the size of index
// c, e.g. n_i for index 'i'.
func nIdent(c rune) string { return fmt.Sprintf("n_%c", c) }

// indexIdent returns the loop-variable identifier for
// index c. Indices are already valid Go identifiers
// (single lowercase letters), so this is the identity.
func indexIdent(c rune) string { return string(c) }

// nEachIdent returns the positional local bound when
// destructuring an input's shape a second time for
// assertions, e.g. n_0, n_1 for the axes of one input.
func nEachIdent(axis int) string { return fmt.Sprintf("n_%d", axis) }

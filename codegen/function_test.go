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
	"go/format"
	"strings"
	"testing"

	"github.com/einsumc/einsumc/subscripts"
)

func TestFunctionDefParses(t *testing.T) {
	inputs := []string{"ij,jk->ik", "a,a->", "ab,bc->ac", "ii->i"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			ns := subscripts.InitNamespace()
			ss, err := subscripts.FromIndices(&ns, in)
			if err != nil {
				t.Fatalf("FromIndices(%q): %s", in, err)
			}
			src := FunctionDef(ss)
			if _, err := format.Source([]byte(src)); err != nil {
				t.Fatalf("FunctionDef(%q) produced unformattable Go:\n%s\nerror: %s", in, src, err)
			}
		})
	}
}

func TestFunctionDefUsesSingleAssignment(t *testing.T) {
	// §9: the contraction loop body uses "=", never "+=",
	// which is a documented known-quirk, not a bug to fix.
	ns := subscripts.InitNamespace()
	ss, err := subscripts.FromIndices(&ns, "ij,jk->ik")
	if err != nil {
		t.Fatal(err)
	}
	src := FunctionDef(ss)
	if strings.Contains(src, "+=") {
		t.Errorf("FunctionDef emitted += accumulation; expected a single = assignment:\n%s", src)
	}
	if !strings.Contains(src, ".Set(") {
		t.Errorf("FunctionDef never calls Set:\n%s", src)
	}
}

func TestFunctionDefRankAssert(t *testing.T) {
	ns := subscripts.InitNamespace()
	ss, err := subscripts.FromIndices(&ns, "ab,bc->ac")
	if err != nil {
		t.Fatal(err)
	}
	src := FunctionDef(ss)
	if !strings.Contains(src, `ndarray.AssertEqual("rank(arg0)", len(arg0.Dims()), 2)`) {
		t.Errorf("FunctionDef missing rank assertion for arg0:\n%s", src)
	}
}

func TestFunctionDefScalarInput(t *testing.T) {
	// A rank-0 input (bare scalar factor) must not declare
	// any shape locals that would go unused.
	ns := subscripts.InitNamespace()
	ss, err := subscripts.FromIndices(&ns, "a,->a")
	if err != nil {
		t.Fatal(err)
	}
	src := FunctionDef(ss)
	if _, err := format.Source([]byte(src)); err != nil {
		t.Fatalf("FunctionDef with scalar input produced unformattable Go:\n%s\nerror: %s", src, err)
	}
	if strings.Contains(src, "arg1Dims") || strings.Contains(src, "d := arg1.Dims()") {
		t.Errorf("FunctionDef declared shape locals for the rank-0 input arg1:\n%s", src)
	}
}

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
	"bytes"
	"fmt"
	"testing"
)

func TestBruteForceTwoInputs(t *testing.T) {
	// Two inputs never need factorization: the plan is the
	// expression itself, one step.
	p, err := BruteForce("ij,jk->ik")
	if err != nil {
		t.Fatalf("BruteForce: %s", err)
	}
	if len(p.Steps) != 1 {
		t.Fatalf("len(Steps) = %d, want 1", len(p.Steps))
	}
	if p.NumArgs() != 2 {
		t.Errorf("NumArgs() = %d, want 2", p.NumArgs())
	}
}

func TestBruteForceThreeInputs(t *testing.T) {
	// "ab,bc,cd->ad": without factorizing, compute order is
	// high (every index appears in one combined expression);
	// factorizing into two pairwise matmuls should always be
	// found since it's a valid candidate the search considers.
	p, err := BruteForce("ab,bc,cd->ad")
	if err != nil {
		t.Fatalf("BruteForce: %s", err)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2 (factorized into two pairwise steps)", len(p.Steps))
	}
	if p.NumArgs() != 3 {
		t.Errorf("NumArgs() = %d, want 3", p.NumArgs())
	}
	// Unfactorized cost: compute order 4 (a,b,c,d all free or
	// contracted in one expression), memory order 2. The
	// planner must do at least as well.
	if p.ComputeOrder() > 4 {
		t.Errorf("ComputeOrder() = %d, should not exceed the unfactorized cost of 4", p.ComputeOrder())
	}
}

func TestBruteForceOptimality(t *testing.T) {
	// "ab,bc,cd->ad" done in one unfactorized step costs
	// compute order 4 (b and c both contracted, output order
	// 2). Factorizing into two pairwise matmuls lowers that
	// to compute order 3; the planner must find this.
	p, err := BruteForce("ab,bc,cd->ad")
	if err != nil {
		t.Fatalf("BruteForce: %s", err)
	}
	if got, want := p.ComputeOrder(), 3; got != want {
		t.Errorf("ComputeOrder() = %d, want %d", got, want)
	}
	if got, want := p.MemoryOrder(), 2; got != want {
		t.Errorf("MemoryOrder() = %d, want %d", got, want)
	}
}

func TestBruteForceDeterministic(t *testing.T) {
	a, err := BruteForce("ab,bc,cd,de->ae")
	if err != nil {
		t.Fatalf("BruteForce: %s", err)
	}
	b, err := BruteForce("ab,bc,cd,de->ae")
	if err != nil {
		t.Fatalf("BruteForce: %s", err)
	}
	if len(a.Steps) != len(b.Steps) {
		t.Fatalf("two runs produced different step counts: %d vs %d", len(a.Steps), len(b.Steps))
	}
	for i := range a.Steps {
		if !a.Steps[i].Equal(b.Steps[i]) {
			t.Errorf("step %d differs between runs: %s vs %s", i, a.Steps[i].String(), b.Steps[i].String())
		}
	}
}

func TestWriteDOT(t *testing.T) {
	p, err := BruteForce("ab,bc,cd->ad")
	if err != nil {
		t.Fatalf("BruteForce: %s", err)
	}
	var buf bytes.Buffer
	if err := p.WriteDOT(&buf); err != nil {
		t.Fatalf("WriteDOT: %s", err)
	}
	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("digraph path {")) {
		t.Errorf("WriteDOT output missing digraph header:\n%s", out)
	}
	wantNodes := fmt.Sprintf("step%d", len(p.Steps)-1)
	if !bytes.Contains(buf.Bytes(), []byte(wantNodes)) {
		t.Errorf("WriteDOT output missing node %q:\n%s", wantNodes, out)
	}
}

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
	"fmt"
	"testing"
)

func TestParseValid(t *testing.T) {
	testcases := []struct {
		input string
		want  RawSubscripts
	}{
		{
			"ij,jk->ik",
			RawSubscripts{
				Inputs: []RawSubscript{Indices("ij"), Indices("jk")},
				Output: func() *RawSubscript { r := Indices("ik"); return &r }(),
			},
		},
		{
			"ij,jk",
			RawSubscripts{
				Inputs: []RawSubscript{Indices("ij"), Indices("jk")},
			},
		},
		{
			"  i j , j  k  -> i k ",
			RawSubscripts{
				Inputs: []RawSubscript{Indices("ij"), Indices("jk")},
				Output: func() *RawSubscript { r := Indices("ik"); return &r }(),
			},
		},
		{
			"a,a->",
			Dot(),
		},
		{
			"i...j,jk->i...k",
			RawSubscripts{
				Inputs: []RawSubscript{
					{Start: []rune("i"), End: []rune("j"), Ellipsis: true},
					Indices("jk"),
				},
				Output: func() *RawSubscript {
					r := RawSubscript{Start: []rune("i"), End: []rune("k"), Ellipsis: true}
					return &r
				}(),
			},
		},
	}

	for i := range testcases {
		tc := testcases[i]
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			got, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q): unexpected error: %s", tc.input, err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	inputs := []string{
		"ij,jk->ik,",
		"ij..k",
		"ij->kl Extra",
		"i1j,jk->ik",
		"ij,jk-ik",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			if err == nil {
				t.Fatalf("Parse(%q): expected error, got none", in)
			}
			if _, ok := err.(*SyntaxError); !ok {
				t.Errorf("Parse(%q): error %v is not *SyntaxError", in, err)
			}
		})
	}
}

func TestParseStable(t *testing.T) {
	inputs := []string{"ij,jk->ik", "a,a->", "ab,bc->ac", "i...j,jk->i...k"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			raw, err := Parse(in)
			if err != nil {
				t.Fatalf("Parse(%q): %s", in, err)
			}
			again, err := Parse(in)
			if err != nil {
				t.Fatalf("re-Parse(%q): %s", in, err)
			}
			if !raw.Equal(again) {
				t.Errorf("Parse(%q) is not stable across repeated calls", in)
			}
		})
	}
}

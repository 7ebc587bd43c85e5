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

import "github.com/einsumc/einsumc/subscripts"

// memo caches brute-force results by canonical subscripts
// string, bucketed by a siphash digest so lookups don't
// have to hash-compare every entry in a bucket against the
// full string more than once. Memoization is optional per
// the planner's design notes; it shortens the recursion
// for inputs with repeated substructure, such as chains of
// identical pairwise contractions.
type memo struct {
	buckets map[uint64][]memoEntry
}

type memoEntry struct {
	key   string
	steps []subscripts.Subscripts
}

func newMemo() *memo {
	return &memo{buckets: make(map[uint64][]memoEntry)}
}

func (m *memo) get(ss subscripts.Subscripts) ([]subscripts.Subscripts, bool) {
	s := ss.String()
	h := memoKey(ss)
	for _, e := range m.buckets[h] {
		if e.key == s {
			return e.steps, true
		}
	}
	return nil, false
}

func (m *memo) put(ss subscripts.Subscripts, steps []subscripts.Subscripts) {
	s := ss.String()
	h := memoKey(ss)
	m.buckets[h] = append(m.buckets[h], memoEntry{key: s, steps: steps})
}

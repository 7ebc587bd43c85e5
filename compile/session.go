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

package compile

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/einsumc/einsumc/codegen"
	"github.com/einsumc/einsumc/path"
	"github.com/einsumc/einsumc/planstore"
)

// Session wraps Source and Manifest.Compile with a stable
// identifier for telemetry and an optional on-disk plan
// cache, the way the teacher tags each inbound query with
// a fresh uuid.New() for the life of the request. A Session
// never changes what gets emitted; Store is purely an
// optimization over repeated planning of the same
// subscripts.
type Session struct {
	ID    uuid.UUID
	Store *planstore.Store
}

// NewSession returns a Session with a fresh ID and no plan
// cache; set Store afterward to enable one.
func NewSession() *Session {
	return &Session{ID: uuid.New()}
}

// Source compiles subscriptsLiteral the same way the
// package-level Source does, except the planning step goes
// through s.Store when one is set.
func (s *Session) Source(subscriptsLiteral string, argExprs []string) (codegen.Fragment, error) {
	ns, ss, err := canonicalize(subscriptsLiteral, argExprs)
	if err != nil {
		return codegen.Fragment{}, err
	}

	var p path.Path
	if s.Store != nil {
		p, err = s.Store.Plan(&ns, ss, path.BruteForceSubscripts)
	} else {
		p, err = path.BruteForceSubscripts(&ns, ss)
	}
	if err != nil {
		return codegen.Fragment{}, fmt.Errorf("einsumc: planning %q: %w", subscriptsLiteral, err)
	}

	return emit(p, subscriptsLiteral, argExprs)
}

// Compile runs m through s.Source entry by entry, the
// session-scoped analogue of (*Manifest).Compile.
func (s *Session) Compile(m *Manifest) ([]GeneratedFile, error) {
	out := make([]GeneratedFile, 0, len(m.Entries))
	for _, e := range m.Entries {
		frag, err := s.Source(e.Subscripts, e.Args)
		if err != nil {
			return nil, fmt.Errorf("compile: session %s: entry %s: %w", s.ID, e.Out, err)
		}
		out = append(out, GeneratedFile{
			Path:    e.Out,
			Package: e.Package,
			Body:    frag.Source,
		})
	}
	return out, nil
}

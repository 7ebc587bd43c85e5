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

// Package compile implements the top-level compiler entry
// point: parse a subscripts literal and argument
// expressions, build canonical subscripts, plan a
// contraction path, and emit the resulting Go fragment.
package compile

import (
	"fmt"

	"github.com/einsumc/einsumc/codegen"
	"github.com/einsumc/einsumc/path"
	"github.com/einsumc/einsumc/subscripts"
)

// ErrArgCount reports a mismatch between the number of
// inputs a subscripts string declares and the number of
// argument expressions the caller supplied.
type ErrArgCount struct {
	Subscripts string
	Want, Got  int
}

func (e *ErrArgCount) Error() string {
	return fmt.Sprintf("einsumc: subscripts %q wants %d arguments, got %d", e.Subscripts, e.Want, e.Got)
}

// Source compiles a surface-syntax subscripts literal and
// a list of opaque argument source expressions into an
// emitted Go fragment, following the compiler's five-step
// entry contract: parse, canonicalize, check argument
// count, plan, emit.
func Source(subscriptsLiteral string, argExprs []string) (codegen.Fragment, error) {
	ns, ss, err := canonicalize(subscriptsLiteral, argExprs)
	if err != nil {
		return codegen.Fragment{}, err
	}

	p, err := path.BruteForceSubscripts(&ns, ss)
	if err != nil {
		return codegen.Fragment{}, fmt.Errorf("einsumc: planning %q: %w", subscriptsLiteral, err)
	}

	return emit(p, subscriptsLiteral, argExprs)
}

// canonicalize runs the parse/canonicalize/arg-count-check
// prefix shared by Source and Session.Source.
func canonicalize(subscriptsLiteral string, argExprs []string) (subscripts.Namespace, subscripts.Subscripts, error) {
	raw, err := subscripts.Parse(subscriptsLiteral)
	if err != nil {
		return subscripts.Namespace{}, subscripts.Subscripts{}, fmt.Errorf("einsumc: %w", err)
	}

	ns := subscripts.InitNamespace()
	ss := subscripts.FromRaw(&ns, raw)

	if want, got := len(ss.Inputs), len(argExprs); want != got {
		return subscripts.Namespace{}, subscripts.Subscripts{}, &ErrArgCount{Subscripts: subscriptsLiteral, Want: want, Got: got}
	}
	return ns, ss, nil
}

// emit runs codegen.Driver over a planned Path, wrapping
// any failure with the originating subscripts literal for
// context.
func emit(p path.Path, subscriptsLiteral string, argExprs []string) (codegen.Fragment, error) {
	frag, err := codegen.Driver(p, argExprs)
	if err != nil {
		return codegen.Fragment{}, fmt.Errorf("einsumc: emitting %q: %w", subscriptsLiteral, err)
	}
	return frag, nil
}

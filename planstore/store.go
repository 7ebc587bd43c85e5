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

// Package planstore provides an on-disk cache for planned
// contraction Paths, keyed by canonical subscripts string.
//
// A build pipeline that compiles the same subscripts across
// many packages can skip re-running the brute-force search
// by consulting a shared Store first. The store never
// changes what gets emitted: a hit is only ever trusted
// after the cached plan's canonical subscripts string is
// compared byte-for-byte against what the caller is asking
// to plan, so a hit returns exactly the Path the brute-force
// search would have produced itself.
package planstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dchest/siphash"
	"github.com/klauspost/compress/zstd"

	"github.com/einsumc/einsumc/path"
	"github.com/einsumc/einsumc/subscripts"
)

// Logger is satisfied by *log.Logger; a Store with a nil
// Logger stays silent about recoverable I/O errors.
type Logger interface {
	Printf(f string, args ...interface{})
}

// Store is a directory-backed cache of planned Paths.
// The zero value is not usable; construct one with Open.
type Store struct {
	Logger Logger

	dir string

	mu sync.Mutex

	hits, misses, failures int64
}

// Open prepares dir as a plan store, creating it if
// necessary.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("planstore: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Hits returns the number of successful cache lookups.
func (s *Store) Hits() int64 { return atomic.LoadInt64(&s.hits) }

// Misses returns the number of lookups that found no usable
// entry.
func (s *Store) Misses() int64 { return atomic.LoadInt64(&s.misses) }

// Failures returns the number of times a cache write or
// read failed for a reason other than a plain miss.
func (s *Store) Failures() int64 { return atomic.LoadInt64(&s.failures) }

func (s *Store) errorf(f string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Printf(f, args...)
	}
}

// entryPath mirrors the teacher cache's one-level
// indirection (first two hex digits become a subdirectory)
// so that a store with many distinct subscripts never puts
// an unreasonable number of files in one directory.
func (s *Store) entryPath(key uint64) (dir, file string) {
	id := fmt.Sprintf("%016x", key)
	dir = filepath.Join(s.dir, id[:2])
	file = filepath.Join(dir, id[2:])
	return dir, file
}

// Plan returns a cached Path for ss if one exists and its
// stored canonical subscripts string matches ss's exactly;
// otherwise it calls build, caches the result, and returns
// it. build is typically path.BruteForceSubscripts.
func (s *Store) Plan(ns *subscripts.Namespace, ss subscripts.Subscripts, build func(*subscripts.Namespace, subscripts.Subscripts) (path.Path, error)) (path.Path, error) {
	key := storeKey(ss)
	s.mu.Lock()
	p, ok, err := s.load(key, ss)
	s.mu.Unlock()
	if err != nil {
		atomic.AddInt64(&s.failures, 1)
		s.errorf("planstore: load %016x: %s", key, err)
	} else if ok {
		atomic.AddInt64(&s.hits, 1)
		return p, nil
	}
	atomic.AddInt64(&s.misses, 1)

	p, err = build(ns, ss)
	if err != nil {
		return path.Path{}, err
	}

	s.mu.Lock()
	err = s.store(key, p)
	s.mu.Unlock()
	if err != nil {
		atomic.AddInt64(&s.failures, 1)
		s.errorf("planstore: store %016x: %s", key, err)
	}
	return p, nil
}

func (s *Store) load(key uint64, want subscripts.Subscripts) (path.Path, bool, error) {
	_, file := s.entryPath(key)
	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path.Path{}, false, nil
		}
		return path.Path{}, false, err
	}
	defer f.Close()

	p, storedIdent, err := decode(f)
	if err != nil {
		return path.Path{}, false, err
	}
	if storedIdent != want.String() {
		// hash collision, or a stale entry from an older
		// version of this compiler: treat as a miss rather
		// than trust a mismatched plan.
		return path.Path{}, false, nil
	}
	return p, true, nil
}

func (s *Store) store(key uint64, p path.Path) error {
	dir, file := s.entryPath(key)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "plan-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	var buf bytes.Buffer
	if err := encode(&buf, p); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, file)
}

// storeKey hashes ss's canonical string to a bucket; the
// stored entry's canonical string is compared on every read
// before being trusted, so a collision here only ever costs
// a cache miss, never a wrong answer.
func storeKey(ss subscripts.Subscripts) uint64 {
	return siphash.Hash(0, 0, []byte(ss.String()))
}

// encode writes p to w as a zstd-compressed stream: the
// original Subscripts, the step count, then each step's
// Subscripts in turn. The format is private to this
// package and exists only to round-trip a Path exactly,
// not as a general subscripts serialization.
func encode(w io.Writer, p path.Path) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	writeSubscripts(enc, p.Original)
	fmt.Fprintln(enc, len(p.Steps))
	for _, ss := range p.Steps {
		writeSubscripts(enc, ss)
	}
	return enc.Close()
}

// decode reads back a Path written by encode, plus the
// canonical string of its original Subscripts for the
// caller to verify before trusting the result.
func decode(r io.Reader) (path.Path, string, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return path.Path{}, "", err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	original, err := readSubscripts(sc)
	if err != nil {
		return path.Path{}, "", err
	}

	n, err := readInt(sc)
	if err != nil {
		return path.Path{}, "", err
	}

	steps := make([]subscripts.Subscripts, n)
	for i := range steps {
		ss, err := readSubscripts(sc)
		if err != nil {
			return path.Path{}, "", err
		}
		steps[i] = ss
	}

	return path.Path{Original: original, Steps: steps}, original.String(), nil
}

// writeSubscripts emits one Subscripts as: the input count,
// one line per input, then one line for the output. Each
// subscript line is "<kind><n> <indices>", where <indices>
// is the subscript's raw index string with "~" marking an
// ellipsis split point, e.g. "ab~cd" for Start="ab",
// End="cd".
func writeSubscripts(w io.Writer, ss subscripts.Subscripts) {
	fmt.Fprintln(w, len(ss.Inputs))
	for _, in := range ss.Inputs {
		writeSubscript(w, in)
	}
	writeSubscript(w, ss.Output)
}

func writeSubscript(w io.Writer, s subscripts.Subscript) {
	fmt.Fprintf(w, "%s %s\n", s.Pos.String(), rawIndexString(s.Raw))
}

// rawIndexString renders r as a single whitespace-free
// token, using "-" for the rank-0 case (a bare scalar has
// no indices, and an empty token can't round-trip through
// fmt.Sscanf's "%s").
func rawIndexString(r subscripts.RawSubscript) string {
	var b bytes.Buffer
	b.WriteString(string(r.Start))
	if r.Ellipsis {
		b.WriteByte('~')
		b.WriteString(string(r.End))
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func readSubscripts(sc *bufio.Scanner) (subscripts.Subscripts, error) {
	n, err := readInt(sc)
	if err != nil {
		return subscripts.Subscripts{}, err
	}
	inputs := make([]subscripts.Subscript, n)
	for i := range inputs {
		s, err := readSubscript(sc)
		if err != nil {
			return subscripts.Subscripts{}, err
		}
		inputs[i] = s
	}
	out, err := readSubscript(sc)
	if err != nil {
		return subscripts.Subscripts{}, err
	}
	return subscripts.Subscripts{Inputs: inputs, Output: out}, nil
}

func readSubscript(sc *bufio.Scanner) (subscripts.Subscript, error) {
	if !sc.Scan() {
		return subscripts.Subscript{}, io.ErrUnexpectedEOF
	}
	var pos, idx string
	if _, err := fmt.Sscanf(sc.Text(), "%s %s", &pos, &idx); err != nil {
		return subscripts.Subscript{}, fmt.Errorf("planstore: malformed entry: %w", err)
	}
	p, err := parsePosition(pos)
	if err != nil {
		return subscripts.Subscript{}, err
	}
	return subscripts.Subscript{Raw: parseRawIndexString(idx), Pos: p}, nil
}

func parsePosition(s string) (subscripts.Position, error) {
	var n int
	switch {
	case strings.HasPrefix(s, "arg"):
		if _, err := fmt.Sscanf(s, "arg%d", &n); err != nil {
			return subscripts.Position{}, fmt.Errorf("planstore: malformed position %q: %w", s, err)
		}
		return subscripts.ArgPos(n), nil
	case strings.HasPrefix(s, "out"):
		if _, err := fmt.Sscanf(s, "out%d", &n); err != nil {
			return subscripts.Position{}, fmt.Errorf("planstore: malformed position %q: %w", s, err)
		}
		return subscripts.Position{Kind: subscripts.Out, N: n}, nil
	default:
		return subscripts.Position{}, fmt.Errorf("planstore: unrecognized position %q", s)
	}
}

func parseRawIndexString(s string) subscripts.RawSubscript {
	if s == "-" {
		return subscripts.RawSubscript{}
	}
	if i := strings.IndexByte(s, '~'); i >= 0 {
		return subscripts.RawSubscript{Start: []rune(s[:i]), End: []rune(s[i+1:]), Ellipsis: true}
	}
	return subscripts.RawSubscript{Start: []rune(s)}
}

func readInt(sc *bufio.Scanner) (int, error) {
	if !sc.Scan() {
		return 0, io.ErrUnexpectedEOF
	}
	var n int
	if _, err := fmt.Sscanf(sc.Text(), "%d", &n); err != nil {
		return 0, fmt.Errorf("planstore: malformed count: %w", err)
	}
	return n, nil
}

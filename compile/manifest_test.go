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
	"os"
	"path/filepath"
	"testing"
)

const testManifestYAML = `
entries:
  - subscripts: "ij,jk->ik"
    args: ["a", "b"]
    out: "matmul.go"
    package: "generated"
  - subscripts: "a,a->"
    args: ["x", "y"]
    out: "dot.go"
    package: "generated"
`

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(p, []byte(testManifestYAML), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(p)
	if err != nil {
		t.Fatalf("LoadManifest: %s", err)
	}
	if len(m.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(m.Entries))
	}
	if m.Entries[0].Subscripts != "ij,jk->ik" {
		t.Errorf("Entries[0].Subscripts = %q", m.Entries[0].Subscripts)
	}
	if m.Entries[1].Out != "dot.go" {
		t.Errorf("Entries[1].Out = %q, want %q", m.Entries[1].Out, "dot.go")
	}
}

func TestManifestCompile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(p, []byte(testManifestYAML), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(p)
	if err != nil {
		t.Fatalf("LoadManifest: %s", err)
	}

	files, err := m.Compile()
	if err != nil {
		t.Fatalf("Compile: %s", err)
	}
	if len(files) != len(m.Entries) {
		t.Fatalf("len(files) = %d, want %d", len(files), len(m.Entries))
	}
	for i, f := range files {
		if f.Path != m.Entries[i].Out {
			t.Errorf("files[%d].Path = %q, want %q", i, f.Path, m.Entries[i].Out)
		}
		if f.Body == "" {
			t.Errorf("files[%d].Body is empty", i)
		}
	}
}

func TestManifestCompileBadEntry(t *testing.T) {
	m := &Manifest{Entries: []ManifestEntry{
		{Subscripts: "ij,jk->ik", Args: []string{"onlyOne"}, Out: "bad.go", Package: "generated"},
	}}
	if _, err := m.Compile(); err == nil {
		t.Error("expected Compile to fail on an arg-count mismatch, got none")
	}
}

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
	"os"

	"sigs.k8s.io/yaml"
)

// ManifestEntry names one compilation unit in a batch
// build: a subscripts literal, the argument expressions to
// bind it to, the output file to write the generated
// fragment into, and the package clause that file should
// declare.
type ManifestEntry struct {
	Subscripts string   `json:"subscripts"`
	Args       []string `json:"args"`
	Out        string   `json:"out"`
	Package    string   `json:"package"`
}

// Manifest is a batch of compilation units, loaded from a
// YAML (or JSON, since JSON is valid YAML) file. It
// recovers, in a language with no macro system, the spirit
// of driving many call sites through one compile pass.
type Manifest struct {
	Entries []ManifestEntry `json:"entries"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compile: reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("compile: parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// GeneratedFile is one compiled manifest entry's output:
// the destination path, the package clause to prepend, and
// the fragment body produced by Source.
type GeneratedFile struct {
	Path    string
	Package string
	Body    string
}

// Compile runs Source over every entry in m and returns the
// resulting files in manifest order. A single entry's
// failure aborts the whole batch and names the offending
// entry's output path in the returned error, since a
// partially-applied build step is worse than a build that
// fails loudly.
func (m *Manifest) Compile() ([]GeneratedFile, error) {
	out := make([]GeneratedFile, 0, len(m.Entries))
	for _, e := range m.Entries {
		frag, err := Source(e.Subscripts, e.Args)
		if err != nil {
			return nil, fmt.Errorf("compile: entry %s: %w", e.Out, err)
		}
		out = append(out, GeneratedFile{
			Path:    e.Out,
			Package: e.Package,
			Body:    frag.Source,
		})
	}
	return out, nil
}

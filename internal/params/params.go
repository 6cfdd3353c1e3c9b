// Package params reads positional-parameter files: approximate reference
// positions around which a junction's overhang may be chosen. Each entry
// becomes a window pool spec over the reference sequence.
//
// Two layouts are accepted. TSV (whitespace separated, '#' comments):
//
//	name  position  [window]
//
// and YAML:
//
//	junctions:
//	  - {name: j1, position: 120, window: 8}
//
// Positions are 0-based reference coordinates.
package params

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"ohfid-core/pool"
)

var ErrNoEntries = errors.New("positional-parameter file has no entries")

// Entry is one junction position. Window ≤ 0 means "use the default".
type Entry struct {
	Name     string `yaml:"name"`
	Position int    `yaml:"position"`
	Window   int    `yaml:"window,omitempty"`
}

type yamlFile struct {
	Junctions []Entry `yaml:"junctions"`
}

// Spec converts e into a window spec covering every k-mer that starts within
// Window bases of Position: [Position-Window, Position+Window+k).
func (e Entry) Spec(k, defWindow int) pool.Spec {
	w := e.Window
	if w <= 0 {
		w = defWindow
	}
	start := e.Position - w
	if start < 0 {
		start = 0
	}
	sp := pool.WindowSpec(start, e.Position+w+k)
	if e.Name != "" {
		sp.Raw = e.Name + ":" + sp.Raw
	}
	return sp
}

// Specs converts every entry.
func Specs(entries []Entry, k, defWindow int) []pool.Spec {
	out := make([]pool.Spec, len(entries))
	for i, e := range entries {
		out[i] = e.Spec(k, defWindow)
	}
	return out
}

// Load picks the layout from the file extension (.yaml/.yml → YAML).
func Load(path string) ([]Entry, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	var list []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		list, err = ParseYAML(fh)
	default:
		list, err = ParseTSV(fh)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// ParseTSV reads name/position/window lines. A leading header line whose
// second column is literally "position" is skipped.
func ParseTSV(r io.Reader) ([]Entry, error) {
	var list []Entry
	sc := bufio.NewScanner(r)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		f := strings.Fields(line)
		if len(f) < 2 || len(f) > 3 {
			return nil, fmt.Errorf("line %d: bad field count", ln)
		}
		if len(list) == 0 && strings.EqualFold(f[1], "position") {
			continue
		}
		e := Entry{Name: f[0]}
		if _, err := fmt.Sscan(f[1], &e.Position); err != nil {
			return nil, fmt.Errorf("line %d: bad position: %v", ln, err)
		}
		if len(f) == 3 {
			if _, err := fmt.Sscan(f[2], &e.Window); err != nil {
				return nil, fmt.Errorf("line %d: bad window: %v", ln, err)
			}
		}
		if err := e.check(); err != nil {
			return nil, fmt.Errorf("line %d: %w", ln, err)
		}
		list = append(list, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNoEntries
	}
	return list, nil
}

// ParseYAML reads a `junctions:` list.
func ParseYAML(r io.Reader) ([]Entry, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoEntries
		}
		return nil, err
	}
	for i, e := range f.Junctions {
		if err := e.check(); err != nil {
			return nil, fmt.Errorf("junction %d: %w", i+1, err)
		}
	}
	if len(f.Junctions) == 0 {
		return nil, ErrNoEntries
	}
	return f.Junctions, nil
}

func (e Entry) check() error {
	if e.Position < 0 {
		return fmt.Errorf("position must be ≥ 0, got %d", e.Position)
	}
	if e.Window < 0 {
		return fmt.Errorf("window must be ≥ 0, got %d", e.Window)
	}
	return nil
}

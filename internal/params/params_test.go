package params

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ohfid-core/pool"
)

func TestParseTSV(t *testing.T) {
	in := "# positions\nname\tposition\twindow\nj1 120\nj2\t300\t4\n\n"
	list, err := ParseTSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "j1", Position: 120}, {Name: "j2", Position: 300, Window: 4}}, list)
}

func TestParseTSVErrors(t *testing.T) {
	for _, in := range []string{"j1\n", "j1 x\n", "j1 1 2 3\n", "j1 -4\n", "# only comments\n"} {
		_, err := ParseTSV(strings.NewReader(in))
		assert.Error(t, err, "input %q", in)
	}
	_, err := ParseTSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrNoEntries))
}

func TestParseYAML(t *testing.T) {
	in := "junctions:\n  - {name: a, position: 10}\n  - name: b\n    position: 40\n    window: 2\n"
	list, err := ParseYAML(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "a", Position: 10}, {Name: "b", Position: 40, Window: 2}}, list)

	_, err = ParseYAML(strings.NewReader("junctions: []\n"))
	assert.True(t, errors.Is(err, ErrNoEntries))
	_, err = ParseYAML(strings.NewReader("junctions:\n  - {name: a, pos: 1}\n"))
	assert.Error(t, err, "unknown field")
}

func TestEntrySpecWindow(t *testing.T) {
	sp := Entry{Name: "j", Position: 20}.Spec(4, 10)
	assert.Equal(t, pool.KindWindow, sp.Kind)
	assert.Equal(t, 10, sp.Start)
	assert.Equal(t, 34, sp.End)
	assert.Equal(t, "j:[10,34)", sp.Raw)

	sp = Entry{Position: 3, Window: 5}.Spec(4, 10)
	assert.Equal(t, 0, sp.Start, "clipped at the reference start")
	assert.Equal(t, 12, sp.End)
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	y := filepath.Join(dir, "p.yml")
	require.NoError(t, os.WriteFile(y, []byte("junctions:\n  - {name: a, position: 5}\n"), 0o644))
	tsv := filepath.Join(dir, "p.tsv")
	require.NoError(t, os.WriteFile(tsv, []byte("a 5\n"), 0o644))

	a, err := Load(y)
	require.NoError(t, err)
	b, err := Load(tsv)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = Load(filepath.Join(dir, "missing.tsv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

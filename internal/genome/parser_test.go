package genome

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genarch/internal/architecture"
)

func TestParser_SingleGenome(t *testing.T) {
	p := NewParserFromReader(strings.NewReader("0,2,0110\n"))

	g, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Equal(t, []int{0, 2}, g.GeneStarts)
	// Digits run from the last site to the first.
	assert.Equal(t, []int{0, 1, 1, 0}, g.Values)
	assert.Equal(t, 1, p.LineNumber())

	g, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestParser_SkipsCommentsAndBlankLines(t *testing.T) {
	input := "# ancestors\n\n0,4,11110000\n   \n# tail\n3,1,00000001"

	genomes, err := NewParserFromReader(strings.NewReader(input)).ReadAll()
	require.NoError(t, err)
	require.Len(t, genomes, 2)

	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1}, genomes[0].Values)
	assert.Equal(t, []int{3, 1}, genomes[1].GeneStarts)
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0, 0, 0}, genomes[1].Values)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no values", "0110\n"},
		{"bad start", "x,0110\n"},
		{"bad value", "0,01a0\n"},
		{"empty values", "0,2,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParserFromReader(strings.NewReader(tt.input)).Next()
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, 1, pe.Line)
		})
	}
}

func TestGenome_Architecture(t *testing.T) {
	g := &Genome{GeneStarts: []int{0, 3}, Values: make([]int, 6)}

	a, err := g.Architecture(4)
	require.NoError(t, err)
	assert.Equal(t, 6, a.GenomeLength())
	assert.Equal(t, 2, a.GeneCount())
	assert.Equal(t, []int{3, 4, 5, 0}, a.PositionsOf(1))

	g.GeneStarts = []int{0, 6}
	_, err = g.Architecture(4)
	assert.ErrorIs(t, err, architecture.ErrInvalidLayout)
}

func TestGenome_StringRoundTrip(t *testing.T) {
	line := "5,0,1,0010110100"
	g, err := NewParserFromReader(strings.NewReader(line)).Next()
	require.NoError(t, err)
	assert.Equal(t, line, g.String())
}

func TestNewParser_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ancestors.txt")
	require.NoError(t, os.WriteFile(path, []byte("0,1,01\n"), 0644))

	p, err := NewParser(path)
	require.NoError(t, err)
	defer p.Close()

	g, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, g.Values)

	_, err = NewParser(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

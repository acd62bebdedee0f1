// Package genome reads concrete genomes: gene start positions plus a value
// for every genome site.
package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/inodb/genarch/internal/architecture"
)

// Genome is a gene layout together with the site values it carries.
type Genome struct {
	GeneStarts []int
	Values     []int // one value per genome site
}

// Architecture returns the layout of g for genes of geneLength positions.
func (g *Genome) Architecture(geneLength int) (*architecture.Architecture, error) {
	return architecture.New(len(g.Values), len(g.GeneStarts), geneLength, g.GeneStarts)
}

// String renders g as a genome line.
func (g *Genome) String() string {
	var b strings.Builder
	for _, s := range g.GeneStarts {
		b.WriteString(strconv.Itoa(s))
		b.WriteByte(',')
	}
	for i := len(g.Values) - 1; i >= 0; i-- {
		b.WriteByte(byte('0' + g.Values[i]))
	}
	return b.String()
}

// Parser reads genomes from a file with one genome per line:
//
//	start,start,...,bits
//
// The last field holds one digit per site, written from the last site to the
// first. Blank lines and lines starting with '#' are skipped.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	lineNumber int
}

// NewParser opens path for reading. Use "-" for stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genome file: %w", err)
	}

	return &Parser{
		reader: bufio.NewReader(file),
		file:   file,
	}, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(r)}
}

// Next reads the next genome.
// Returns nil, nil when there are no more genomes.
func (p *Parser) Next() (*Genome, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read genome line: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}

		return p.parseLine(line)
	}
}

// ReadAll reads every remaining genome.
func (p *Parser) ReadAll() ([]*Genome, error) {
	var genomes []*Genome
	for {
		g, err := p.Next()
		if err != nil {
			return nil, err
		}
		if g == nil {
			return genomes, nil
		}
		genomes = append(genomes, g)
	}
}

func (p *Parser) parseLine(line string) (*Genome, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected gene starts followed by site values, found %d fields", len(fields)),
		}
	}

	g := &Genome{GeneStarts: make([]int, len(fields)-1)}
	for i, f := range fields[:len(fields)-1] {
		start, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid gene start: %s", f),
			}
		}
		g.GeneStarts[i] = start
	}

	bits := strings.TrimSpace(fields[len(fields)-1])
	if bits == "" {
		return nil, &ParseError{Line: p.lineNumber, Message: "empty site values"}
	}
	g.Values = make([]int, len(bits))
	for k := 0; k < len(bits); k++ {
		c := bits[k]
		if c < '0' || c > '9' {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid site value: %q", c),
			}
		}
		g.Values[len(bits)-1-k] = int(c - '0')
	}

	return g, nil
}

// LineNumber returns the current line number.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the underlying file, if any.
func (p *Parser) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error parsing a genome file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("genome parse error at line %d: %s", e.Line, e.Message)
}

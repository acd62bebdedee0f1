package environment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/inodb/genarch/internal/fitness"
)

// ParseError reports a malformed targets file.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("targets parse error at line %d: %s", e.Line, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadTargets reads an environment from a targets file.
func LoadTargets(path string, geneCount, geneLength int) (fitness.Targets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	return ParseTargets(f, geneCount, geneLength)
}

// ParseTargets reads the first environment line from r. Blank lines and lines
// starting with '#' are skipped. An environment line looks like
//
//	[ 01101100 11110000 ]
//
// with one token per gene. Each token holds one digit per gene position,
// written from the last position to the first.
func ParseTargets(r io.Reader, geneCount, geneLength int) (fitness.Targets, error) {
	scanner := bufio.NewScanner(r)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "[") {
			return nil, &ParseError{Line: lineNumber, Message: "expected '[' to open environment"}
		}

		line = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
		tokens := strings.Fields(line)
		if len(tokens) != geneCount {
			return nil, &ParseError{
				Line:    lineNumber,
				Message: fmt.Sprintf("found %d gene targets, expected %d", len(tokens), geneCount),
				Err:     fitness.ErrShapeMismatch,
			}
		}

		targets := make(fitness.Targets, geneCount)
		for g, tok := range tokens {
			values, err := parseTargetToken(tok)
			if err != nil {
				return nil, &ParseError{
					Line:    lineNumber,
					Message: fmt.Sprintf("target %d: %v", g, err),
				}
			}
			if len(values) != geneLength {
				return nil, &ParseError{
					Line:    lineNumber,
					Message: fmt.Sprintf("target %d has %d positions, expected %d", g, len(values), geneLength),
					Err:     fitness.ErrShapeMismatch,
				}
			}
			row := make([]int, geneLength)
			for k, v := range values {
				row[geneLength-1-k] = v
			}
			targets[g] = row
		}
		return targets, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return nil, &ParseError{Line: lineNumber, Message: "no environment line found"}
}

// parseTargetToken reads the values of one gene token in written order.
// Single digits stand alone; larger values are bracketed, e.g. "1[12]0".
func parseTargetToken(tok string) ([]int, error) {
	var values []int
	for k := 0; k < len(tok); k++ {
		c := tok[k]
		switch {
		case c >= '0' && c <= '9':
			values = append(values, int(c-'0'))
		case c == '[':
			end := strings.IndexByte(tok[k:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '[' in %q", tok)
			}
			v, err := strconv.Atoi(tok[k+1 : k+end])
			if err != nil || v < 0 {
				return nil, fmt.Errorf("invalid value %q", tok[k:k+end+1])
			}
			values = append(values, v)
			k += end
		default:
			return nil, fmt.Errorf("invalid value %q", c)
		}
	}
	return values, nil
}

// FormatTargets renders targets in the format read by ParseTargets.
// Values above 9 are bracketed.
func FormatTargets(targets fitness.Targets) string {
	var b strings.Builder
	b.WriteString("[")
	for _, row := range targets {
		b.WriteByte(' ')
		for i := len(row) - 1; i >= 0; i-- {
			if v := row[i]; v >= 0 && v <= 9 {
				b.WriteByte(byte('0' + v))
			} else {
				b.WriteString("[" + strconv.Itoa(v) + "]")
			}
		}
	}
	b.WriteString(" ]")
	return b.String()
}

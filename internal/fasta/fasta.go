// Package fasta provides a streaming FASTA record scanner.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one FASTA entry: the header line (without '>') and the
// concatenated sequence.
type Record struct {
	Header string
	Seq    string
}

// Scanner reads FASTA records one at a time.
type Scanner struct {
	s       *bufio.Scanner
	pending string
	done    bool
}

// NewScanner creates a scanner over r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	// Transcript sequences can run long on a single line.
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 10*1024*1024)
	return &Scanner{s: s}
}

// Next returns the next record, or nil at end of input.
func (sc *Scanner) Next() (*Record, error) {
	if sc.done {
		return nil, nil
	}

	header := sc.pending
	var seq strings.Builder

	for sc.s.Scan() {
		line := strings.TrimSpace(sc.s.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if header == "" {
				header = strings.TrimPrefix(line, ">")
				continue
			}
			sc.pending = strings.TrimPrefix(line, ">")
			return &Record{Header: header, Seq: seq.String()}, nil
		}
		if header == "" {
			return nil, fmt.Errorf("fasta: sequence data before first header")
		}
		seq.WriteString(line)
	}
	if err := sc.s.Err(); err != nil {
		return nil, fmt.Errorf("scan fasta: %w", err)
	}

	sc.done = true
	if header == "" {
		return nil, nil
	}
	return &Record{Header: header, Seq: seq.String()}, nil
}

// Fields splits a pipe-delimited header into its positional fields.
// GENCODE transcript headers look like:
//
//	ENST00000456328.2|ENSG00000290825.1|-|-|DDX11L2-202|DDX11L2|1657|
func Fields(header string) []string {
	return strings.Split(header, "|")
}

// StripVersion removes a trailing ".N" version from an Ensembl ID.
func StripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}

// Package gtf parses GTF (Gene Transfer Format) feature lines.
package gtf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Feature is one parsed GTF line.
type Feature struct {
	Chrom      string
	Source     string
	Type       string
	Start      int64
	End        int64
	Score      string
	Strand     string
	Phase      string
	Attributes map[string]string
}

// Attr returns a named attribute or "".
func (f *Feature) Attr(key string) string {
	return f.Attributes[key]
}

// Reader streams features from GTF input. Comment and malformed lines
// are skipped.
type Reader struct {
	s *bufio.Scanner
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)
	return &Reader{s: s}
}

// Next returns the next feature, or nil at end of input.
func (r *Reader) Next() (*Feature, error) {
	for r.s.Scan() {
		line := r.s.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		feat, err := ParseLine(line)
		if err != nil {
			continue
		}
		return feat, nil
	}
	if err := r.s.Err(); err != nil {
		return nil, fmt.Errorf("scan gtf: %w", err)
	}
	return nil, nil
}

// ParseLine parses a single tab-delimited GTF line.
func ParseLine(line string) (*Feature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}
	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	return &Feature{
		Chrom:      fields[0],
		Source:     fields[1],
		Type:       fields[2],
		Start:      start,
		End:        end,
		Score:      fields[5],
		Strand:     fields[6],
		Phase:      fields[7],
		Attributes: parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ...
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}
		key := part[:idx]
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), "\"")
		attrs[key] = value
	}
	return attrs
}

// StripVersion removes a trailing ".N" version from an Ensembl ID.
// e.g. "ENSG00000141510.19" -> "ENSG00000141510"
func StripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}

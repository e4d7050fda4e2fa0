// Package gaf parses GO Annotation File (GAF 2.x) records.
package gaf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one GAF annotation line. Only the columns the annotation
// pipeline consumes are kept.
type Record struct {
	DB           string
	ObjectID     string
	ObjectSymbol string
	Qualifier    string
	GOID         string
	Evidence     string
	Aspect       string
	ObjectName   string
	ObjectType   string
	Taxon        string
}

// Reader streams records from GAF input, skipping '!' comment lines.
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

// Next returns the next record, or nil at end of input.
func (r *Reader) Next() (*Record, error) {
	for r.s.Scan() {
		line := r.s.Text()
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 13 {
			continue
		}
		return &Record{
			DB:           fields[0],
			ObjectID:     fields[1],
			ObjectSymbol: fields[2],
			Qualifier:    fields[3],
			GOID:         fields[4],
			Evidence:     fields[6],
			Aspect:       fields[8],
			ObjectName:   fields[9],
			ObjectType:   fields[11],
			Taxon:        fields[12],
		}, nil
	}
	if err := r.s.Err(); err != nil {
		return nil, fmt.Errorf("scan gaf: %w", err)
	}
	return nil, nil
}

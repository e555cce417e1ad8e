// Package seqio loads sequences for alignment from plain or FASTA-formatted
// files. The aligner itself only ever sees validated byte slices; everything
// file-shaped lives here.
package seqio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Record is one named sequence.
type Record struct {
	Name string
	Seq  []byte
}

// Load reads a sequence file. Files starting with '>' are parsed as FASTA
// (headers start records, sequence lines are concatenated); anything else is
// one unnamed record with whitespace stripped.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Parse reads records from r in the format described by Load.
func Parse(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var recs []Record
	var cur *Record
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		if b[0] == '>' {
			recs = append(recs, Record{Name: string(bytes.TrimSpace(b[1:]))})
			cur = &recs[len(recs)-1]
			continue
		}
		if cur == nil {
			if len(recs) > 0 {
				return nil, fmt.Errorf("line %d: sequence data outside a record", line)
			}
			recs = append(recs, Record{})
			cur = &recs[0]
		}
		cur.Seq = append(cur.Seq, b...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no sequence records")
	}
	for i := range recs {
		if len(recs[i].Seq) == 0 {
			return nil, fmt.Errorf("record %q is empty", recs[i].Name)
		}
	}
	return recs, nil
}

// First loads a file and returns its first record, a convenience for the
// common one-sequence-per-file layout.
func First(path string) (Record, error) {
	recs, err := Load(path)
	if err != nil {
		return Record{}, err
	}
	return recs[0], nil
}

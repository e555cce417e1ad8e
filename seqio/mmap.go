package seqio

import (
	"bytes"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// File is a read-only memory-mapped sequence file. Large references are
// mapped rather than read so repeated alignments against the same reference
// share pages.
type File struct {
	f    *os.File
	data mmap.MMap
}

// Open maps a file read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{f: f, data: m}, nil
}

// Bytes returns the full mapped file. Valid until Close; callers must not
// modify it.
func (m *File) Bytes() []byte {
	return m.data
}

// Seq returns the mapped file as one raw sequence with trailing whitespace
// trimmed, sharing the mapping (zero copy). Fails on FASTA-formatted files,
// whose sequences need line joining; use Records for those.
func (m *File) Seq() ([]byte, error) {
	if len(m.data) > 0 && m.data[0] == '>' {
		return nil, fmt.Errorf("mapped file is FASTA; use Records")
	}
	seq := bytes.TrimRight(m.data, "\r\n \t")
	if bytes.ContainsAny(seq, "\r\n") {
		return nil, fmt.Errorf("mapped file has interior line breaks; use Records")
	}
	return seq, nil
}

// Records parses the mapped file as FASTA or plain sequence. Sequence bytes
// are copied out of the mapping.
func (m *File) Records() ([]Record, error) {
	return Parse(bytes.NewReader(m.data))
}

// Close unmaps and closes the file.
func (m *File) Close() error {
	if m.data != nil {
		if err := m.data.Unmap(); err != nil {
			return err
		}
		m.data = nil
	}
	if m.f != nil {
		err := m.f.Close()
		m.f = nil
		return err
	}
	return nil
}

package hash

import (
	"bytes"
	"encoding/binary"
	"io"
)

// WriterToWithDomain represents a type writing itself, and knowing its domain.
//
// Providing a domain string lets us distinguish the output of different types
// implementing this same interface.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a context string, which should be unique for each implementor
	Domain() string
}

// writeWithDomain writes out `len(domain) ‖ domain ‖ len(data) ‖ data`.
//
// Lengths are 8 byte big-endian, so that no two distinct sequences of writes
// produce the same input to the hash.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	var data bytes.Buffer
	if _, err := object.WriteTo(&data); err != nil {
		return err
	}
	domain := object.Domain()
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(domain)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, domain); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(length[:], uint64(data.Len()))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	_, err := data.WriteTo(w)
	return err
}

// BytesWithDomain is a useful wrapper to annotate some chunk of data with a domain.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes)
	return int64(n), err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}

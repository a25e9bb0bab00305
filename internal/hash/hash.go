package hash

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/vote-ledger/internal/params"
	"github.com/zeebo/blake3"
)

const DigestLengthBytes = params.SecBytes * 2 // 64

// Hash is the hash function we use for deriving Fiat-Shamir challenges.
//
// Internally, this is a wrapper around blake3, whose extendable output lets us
// read as many bytes as the challenge space requires.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct, optionally initialized with a context string.
func New(domain ...string) *Hash {
	hash := &Hash{h: blake3.New()}
	for _, d := range domain {
		_ = hash.WriteAny(&BytesWithDomain{
			TheDomain: "Context",
			Bytes:     []byte(d),
		})
	}
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.ReadBytes: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - *saferith.Nat
//   - *saferith.Modulus
//   - hash.WriterToWithDomain
//
// Numbers are written as their minimal big-endian encoding, so that the same
// value always hashes the same way regardless of its announced capacity.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var err error
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			err = writeWithDomain(hash.h, &BytesWithDomain{
				TheDomain: "[]byte",
				Bytes:     t,
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write []byte: %w", err)
			}
		case *saferith.Nat:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Nat: nil")
			}
			err = writeWithDomain(hash.h, &BytesWithDomain{
				TheDomain: "saferith.Nat",
				Bytes:     t.Big().Bytes(),
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write *saferith.Nat: %w", err)
			}
		case *saferith.Modulus:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Modulus: nil")
			}
			err = writeWithDomain(hash.h, &BytesWithDomain{
				TheDomain: "saferith.Modulus",
				Bytes:     t.Big().Bytes(),
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write *saferith.Modulus: %w", err)
			}
		case WriterToWithDomain:
			if err = writeWithDomain(hash.h, t); err != nil {
				return fmt.Errorf("hash.Hash: write io.WriterTo: %w", err)
			}
		default:
			return fmt.Errorf("hash.Hash: unsupported type %T", d)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

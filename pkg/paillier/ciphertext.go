package paillier

import (
	"errors"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/vote-ledger/internal/params"
)

// Ciphertext represents an integer of the for (1+N)ᵐρᴺ (mod N²), representing the encryption of m ∈ ℤₙ.
type Ciphertext struct {
	c *saferith.Nat
}

// Add sets ct to the homomorphic sum ct ⊕ ct₂.
// ct = ct•ct₂ (mod N²). A nil or empty ct₂ leaves ct unchanged.
func (ct *Ciphertext) Add(pk *PublicKey, ct2 *Ciphertext) *Ciphertext {
	if ct2 == nil || ct2.c == nil {
		return ct
	}
	ct.c.ModMul(ct.c, ct2.c, pk.nSquared.Modulus)
	return ct
}

// Mul sets ct to the homomorphic multiplication of k ⊙ ct.
// ct = ctᵏ (mod N²).
func (ct *Ciphertext) Mul(pk *PublicKey, k *saferith.Nat) *Ciphertext {
	if k == nil {
		return ct
	}
	ct.c = pk.nSquared.Exp(ct.c, k)
	return ct
}

// Equal check whether ct ≡ ctₐ (mod N²).
func (ct *Ciphertext) Equal(ctA *Ciphertext) bool {
	return ct.c.Eq(ctA.c) == 1
}

// Clone returns a deep copy of ct.
func (ct Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetNat(ct.c)}
}

// Nat returns the underlying integer. It must not be modified.
func (ct *Ciphertext) Nat() *saferith.Nat {
	return ct.c
}

// NewCiphertext wraps an integer as a ciphertext, without any validation.
func NewCiphertext(c *saferith.Nat) *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetNat(c)}
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (ct *Ciphertext) WriteTo(w io.Writer) (int64, error) {
	if ct == nil || ct.c == nil {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write(ct.c.Big().Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (*Ciphertext) Domain() string {
	return "Paillier Ciphertext"
}

// MarshalBinary returns the minimal big-endian encoding of the ciphertext.
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {
	if ct == nil || ct.c == nil {
		return nil, errors.New("paillier: nil ciphertext")
	}
	return ct.c.Big().Bytes(), nil
}

// UnmarshalBinary sets ct from a big-endian encoding.
func (ct *Ciphertext) UnmarshalBinary(data []byte) error {
	if len(data) == 0 || len(data) > params.BytesCiphertext {
		return errors.New("paillier: invalid ciphertext length")
	}
	ct.c = new(saferith.Nat).SetBytes(data)
	return nil
}

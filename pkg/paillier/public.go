package paillier

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/vote-ledger/pkg/math/arith"
	"github.com/taurusgroup/vote-ledger/pkg/math/sample"
)

var (
	ErrPlaintextRange = errors.New("paillier: plaintext must be in [0, N)")
	ErrNilKey         = errors.New("paillier: nil public key")
)

// PublicKey is the public part of an election key, a modulus N = p⋅q
// together with the generator g = N + 1.
//
// Anyone holding it can encrypt votes and combine ciphertexts.
type PublicKey struct {
	// n = p⋅q
	n *arith.Modulus
	// nSquared = n²
	nSquared *arith.Modulus

	// nNat = n as a Nat, cached for encryption
	nNat *saferith.Nat
	// g = n + 1
	g *saferith.Nat

	// read-only copies of n and n² for range checks
	nBound, nSquaredBound arith.Bound
}

// NewPublicKey returns an initialized PublicKey for the modulus n.
func NewPublicKey(n *saferith.Modulus) *PublicKey {
	oneNat := new(saferith.Nat).SetUint64(1)
	nNat := n.Nat()
	g := new(saferith.Nat).Add(nNat, oneNat, -1)
	nSquared := saferith.ModulusFromNat(new(saferith.Nat).Mul(nNat, nNat, -1))
	return &PublicKey{
		n:             arith.ModulusFromN(n),
		nSquared:      arith.ModulusFromN(nSquared),
		nNat:          nNat,
		g:             g,
		nBound:        arith.NewBound(n),
		nSquaredBound: arith.NewBound(nSquared),
	}
}

// N returns the modulus N.
func (pk *PublicKey) N() *saferith.Modulus {
	return pk.n.Modulus
}

// NSquared returns the modulus N², in which ciphertexts live.
func (pk *PublicKey) NSquared() *saferith.Modulus {
	return pk.nSquared.Modulus
}

// G returns the generator g = N + 1.
func (pk *PublicKey) G() *saferith.Nat {
	return pk.g
}

// Equal returns true if pk = other.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.nNat.Eq(other.nNat) == 1
}

// Nonce returns a suitable nonce ρ for encryption.
// ρ ∈ ℤₙˣ
func (pk *PublicKey) Nonce() *saferith.Nat {
	return pk.NonceFrom(rand.Reader)
}

// NonceFrom returns a nonce ρ ∈ ℤₙˣ sampled from r.
func (pk *PublicKey) NonceFrom(r io.Reader) *saferith.Nat {
	return sample.UnitModN(r, pk.n.Modulus)
}

// Enc returns the encryption of m under the public key pk, using a fresh nonce.
//
// Encryption is probabilistic: encrypting the same m twice yields different ciphertexts.
func (pk *PublicKey) Enc(m *saferith.Nat) (*Ciphertext, error) {
	return pk.EncFrom(rand.Reader, m)
}

// EncFrom is Enc, with the nonce sampled from r.
func (pk *PublicKey) EncFrom(r io.Reader, m *saferith.Nat) (*Ciphertext, error) {
	if pk == nil {
		return nil, ErrNilKey
	}
	return pk.EncWithNonce(m, pk.NonceFrom(r))
}

// EncWithNonce returns the encryption of m ∈ [0, N) under pk for the given nonce.
//
// ct = gᵐρᴺ (mod N²)
func (pk *PublicKey) EncWithNonce(m, nonce *saferith.Nat) (*Ciphertext, error) {
	if pk == nil {
		return nil, ErrNilKey
	}
	if err := pk.ValidatePlaintext(m); err != nil {
		return nil, err
	}
	if nonce == nil {
		return nil, errors.New("paillier: nil nonce")
	}

	// gᵐ (mod N²)
	c := pk.nSquared.Exp(pk.g, m)
	// ρᴺ (mod N²)
	rho := pk.nSquared.Exp(nonce, pk.nNat)
	c.ModMul(c, rho, pk.nSquared.Modulus)
	return &Ciphertext{c: c}, nil
}

// ValidatePlaintext returns an error if m ∉ [0, N).
func (pk *PublicKey) ValidatePlaintext(m *saferith.Nat) error {
	if m == nil {
		return fmt.Errorf("%w: nil", ErrPlaintextRange)
	}
	if !pk.nBound.Contains(m) {
		return ErrPlaintextRange
	}
	return nil
}

// ValidateCiphertexts checks if all ciphertexts are in the correct range and coprime to N²
// ct ∈ [1, …, N²-1] AND GCD(ct,N²) = 1.
func (pk *PublicKey) ValidateCiphertexts(cts ...*Ciphertext) bool {
	for _, ct := range cts {
		if ct == nil || ct.c == nil {
			return false
		}
		if !pk.nSquaredBound.IsUnit(ct.c) {
			return false
		}
	}
	return true
}

// Sum returns the homomorphic sum of all ciphertexts, starting from the trivial encryption 1 of 0.
//
// Sum(ct₁, …, ctₖ) = ∏ ctᵢ (mod N²)
func (pk *PublicKey) Sum(cts ...*Ciphertext) *Ciphertext {
	acc := &Ciphertext{c: new(saferith.Nat).SetUint64(1)}
	for _, ct := range cts {
		acc.Add(pk, ct)
	}
	return acc
}

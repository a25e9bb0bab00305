package paillier

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/vote-ledger/pkg/math/arith"
	"github.com/taurusgroup/vote-ledger/pkg/math/sample"
	"github.com/taurusgroup/vote-ledger/pkg/pool"
)

var (
	// ErrKeyGeneration is returned when no suitable primes could be found.
	ErrKeyGeneration = errors.New("paillier: key generation failed")
	ErrKeySize       = errors.New("paillier: key size must be an even number of bits, at least 32")
	ErrPrimeNil      = errors.New("paillier: prime is nil")
	ErrPrimesEqual   = errors.New("paillier: prime factors must be distinct")
)

// SecretKey is the election key. It contains the public key, together with
// the trapdoor lambda, mu needed to decrypt.
//
// Only the tallying authority should hold it.
type SecretKey struct {
	*PublicKey
	// p, q such that N = p⋅q
	p, q *saferith.Nat
	// lambda = λ = lcm(p-1, q-1)
	lambda *saferith.Nat
	// mu = μ = L(g^λ mod N²)⁻¹ mod N
	mu *saferith.Nat
	// nSquaredCRT is N² with its factorization p², q², to accelerate decryption
	nSquaredCRT *arith.Modulus
}

// Lambda returns λ = lcm(p-1, q-1).
func (sk *SecretKey) Lambda() *saferith.Nat {
	return sk.lambda
}

// Mu returns μ = L(g^λ mod N²)⁻¹ mod N.
func (sk *SecretKey) Mu() *saferith.Nat {
	return sk.mu
}

// P returns the first of the two factors composing this key.
func (sk *SecretKey) P() *saferith.Nat {
	return sk.p
}

// Q returns the second of the two factors composing this key.
func (sk *SecretKey) Q() *saferith.Nat {
	return sk.q
}

// KeyGen generates a new PublicKey and it's associated SecretKey, for a modulus of the given size.
//
// The prime search is bounded, and fails with ErrKeyGeneration when exhausted.
func KeyGen(rand io.Reader, bits int, pl *pool.Pool) (pk *PublicKey, sk *SecretKey, err error) {
	if bits < 32 || bits%2 != 0 {
		return nil, nil, ErrKeySize
	}
	p, q, err := sample.Paillier(rand, bits, pl)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}
	sk, err = NewSecretKeyFromPrimes(p, q)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}
	return sk.PublicKey, sk, nil
}

// NewSecretKeyFromPrimes generates a new SecretKey. Assumes that P and Q are prime.
func NewSecretKeyFromPrimes(P, Q *saferith.Nat) (*SecretKey, error) {
	if P == nil || Q == nil {
		return nil, ErrPrimeNil
	}
	if P.Eq(Q) == 1 {
		return nil, ErrPrimesEqual
	}
	oneNat := new(saferith.Nat).SetUint64(1)

	nNat := new(saferith.Nat).Mul(P, Q, -1)
	pk := NewPublicKey(saferith.ModulusFromNat(nNat))
	n := pk.n.Modulus

	pMinus1 := new(saferith.Nat).Sub(P, oneNat, -1)
	qMinus1 := new(saferith.Nat).Sub(Q, oneNat, -1)
	// λ = lcm(p-1, q-1)
	lambda := arith.LCM(pMinus1, qMinus1)

	pSquared := new(saferith.Nat).Mul(P, P, -1)
	qSquared := new(saferith.Nat).Mul(Q, Q, -1)
	nSquaredCRT := arith.ModulusFromFactors(pSquared, qSquared)

	// μ = [(g^λ mod N²) - 1]/N, inverted mod N
	mu := nSquaredCRT.Exp(pk.g, lambda)
	mu.Sub(mu, oneNat, -1)
	mu.Div(mu, n, -1)
	if mu.IsUnit(n) != 1 {
		return nil, errors.New("paillier: L(g^λ) is not invertible mod N")
	}
	mu.ModInverse(mu, n)

	return &SecretKey{
		PublicKey:   pk,
		p:           P,
		q:           Q,
		lambda:      lambda,
		mu:          mu,
		nSquaredCRT: nSquaredCRT,
	}, nil
}

// Dec decrypts c and returns the plaintext m ∈ [0, N).
// It returns an error if gcd(c, N²) != 1 or if c is not in [1, N²-1].
//
// m = L(c^λ mod N²)⋅μ mod N, with L(x) = (x-1)/N
func (sk *SecretKey) Dec(ct *Ciphertext) (*saferith.Nat, error) {
	if !sk.PublicKey.ValidateCiphertexts(ct) {
		return nil, errors.New("paillier: failed to decrypt invalid ciphertext")
	}
	oneNat := new(saferith.Nat).SetUint64(1)
	n := sk.PublicKey.n.Modulus

	// r = c^λ 						(mod N²)
	result := sk.nSquaredCRT.Exp(ct.c, sk.lambda)
	// r = c^λ - 1
	result.Sub(result, oneNat, -1)
	// r = [(c^λ - 1)/N]
	result.Div(result, n, -1)
	// r = [(c^λ - 1)/N] • μ		(mod N)
	result.ModMul(result, sk.mu, n)
	return result, nil
}

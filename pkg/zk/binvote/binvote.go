// Package binvote implements the challenge-response transcript attached to every ballot,
// meant to show that the encrypted vote is 0 or 1.
//
// The transcript is a Schnorr proof of knowledge of the voter's identity key x behind y = gˣ,
// where the challenge is derived from the ciphertext and the claimed vote:
//
//	a = gʳ, b = yʳ
//	c = H(p, y, gᵛ, a, b, ct) mod p
//	z = r + c⋅x mod (p-1)
//
// The commitment randomness r is published with the proof. This is the deployed transcript
// format and is kept as is: it does not bind the Paillier plaintext to v, and anyone
// holding (c, z, r) with c invertible mod p-1 can recover x. See the package tests.
package binvote

import (
	"errors"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/vote-ledger/internal/hash"
	"github.com/taurusgroup/vote-ledger/pkg/ballot"
	"github.com/taurusgroup/vote-ledger/pkg/group"
	"github.com/taurusgroup/vote-ledger/pkg/math/sample"
	"github.com/taurusgroup/vote-ledger/pkg/paillier"
)

const domain = "Binary Vote"

var ErrNilInput = errors.New("binvote: nil input")

// challenge computes c = H(p, y, gᵛ, a, b, ct) mod p.
func challenge(grp *group.Group, y, gv, a, b *saferith.Nat, ct *paillier.Ciphertext) (*saferith.Nat, error) {
	h := hash.New(domain)
	if err := h.WriteAny(grp.P(), y, gv, a, b, ct); err != nil {
		return nil, err
	}
	return new(saferith.Nat).Mod(new(saferith.Nat).SetBytes(h.Sum()), grp.P()), nil
}

// Prove produces the transcript for vote v under the identity key kp.
//
// Prove does not check that v ∈ {0,1}; it is the caller who decides which votes are acceptable.
func Prove(rand io.Reader, grp *group.Group, kp *group.KeyPair, vote uint64, ct *paillier.Ciphertext) (*ballot.Proof, error) {
	if grp == nil || kp == nil || kp.Secret == nil || kp.Public == nil || ct == nil || ct.Nat() == nil {
		return nil, ErrNilInput
	}
	order := grp.Order()

	r := sample.ModN(rand, grp.P())
	a := grp.ExpG(r)
	b := grp.Exp(kp.Public, r)
	gv := grp.ExpG(new(saferith.Nat).SetUint64(vote))

	c, err := challenge(grp, kp.Public, gv, a, b, ct)
	if err != nil {
		return nil, err
	}

	// z = r + c⋅x (mod p-1)
	z := new(saferith.Nat).ModMul(
		new(saferith.Nat).Mod(c, order),
		new(saferith.Nat).Mod(kp.Secret, order),
		order)
	z.ModAdd(z, new(saferith.Nat).Mod(r, order), order)

	return &ballot.Proof{C: c, Z: z, R: r}, nil
}

// Result details which of the verification equations hold for a transcript.
type Result struct {
	// Knowledge is gᶻ ≡ a⋅yᶜ (mod p) for a = gʳ.
	Knowledge bool
	// Disjunction is yᶻ ≡ b⋅(g⁰)ᶜ or yᶻ ≡ b⋅(g¹)ᶜ (mod p) for b = yᶻ, as in the deployed verifier.
	Disjunction bool
	// Challenge is c = H(p, y, gᵛ, gʳ, yʳ, ct) mod p for some v ∈ {0,1}.
	Challenge bool
}

// Valid returns true when every equation holds.
func (res Result) Valid() bool {
	return res.Knowledge && res.Disjunction && res.Challenge
}

// Check evaluates each verification equation for the proof that ct is a binary vote by y.
//
// Malformed inputs (nil fields, values out of range) yield a Result with every field false.
func Check(grp *group.Group, y *saferith.Nat, ct *paillier.Ciphertext, proof *ballot.Proof) Result {
	var res Result
	if grp == nil || ct == nil || ct.Nat() == nil || proof == nil {
		return res
	}
	if proof.C == nil || proof.Z == nil || proof.R == nil {
		return res
	}
	if !grp.IsElement(y) {
		return res
	}
	if !grp.IsExponent(proof.C) || !grp.IsExponent(proof.R) || !grp.IsReduced(proof.Z) {
		return res
	}
	// the same vote may be checked from several goroutines, only copies are operated on
	y = new(saferith.Nat).SetNat(y)
	proof = proof.Clone()

	a := grp.ExpG(proof.R)

	// gᶻ ≡ a⋅yᶜ (mod p)
	lhs := grp.ExpG(proof.Z)
	rhs := grp.Mul(a, grp.Exp(y, proof.C))
	res.Knowledge = lhs.Eq(rhs) == 1

	// yᶻ ≡ b⋅(gᵛ)ᶜ (mod p) for v ∈ {0,1}
	yz := grp.Exp(y, proof.Z)
	b := yz
	for v := uint64(0); v <= 1; v++ {
		gvc := grp.Exp(grp.ExpG(new(saferith.Nat).SetUint64(v)), proof.C)
		if yz.Eq(grp.Mul(b, gvc)) == 1 {
			res.Disjunction = true
		}
	}

	bCommit := grp.Exp(y, proof.R)
	for v := uint64(0); v <= 1; v++ {
		gv := grp.ExpG(new(saferith.Nat).SetUint64(v))
		c, err := challenge(grp, y, gv, a, bCommit, ct)
		if err != nil {
			return Result{}
		}
		if c.Eq(proof.C) == 1 {
			res.Challenge = true
		}
	}
	return res
}

// Verify returns true if proof is a valid transcript for ct, by the voter with public key y.
func Verify(grp *group.Group, y *saferith.Nat, ct *paillier.Ciphertext, proof *ballot.Proof) bool {
	return Check(grp, y, ct, proof).Valid()
}

// Legacy binds Prove and Verify to a group and randomness source.
type Legacy struct {
	Group *group.Group
	Rand  io.Reader
}

// Prove implements voting.ProofSystem.
func (l Legacy) Prove(kp *group.KeyPair, vote uint64, ct *paillier.Ciphertext) (*ballot.Proof, error) {
	return Prove(l.Rand, l.Group, kp, vote, ct)
}

// Verify implements voting.ProofSystem.
func (l Legacy) Verify(y *saferith.Nat, ct *paillier.Ciphertext, proof *ballot.Proof) bool {
	return Verify(l.Group, y, ct, proof)
}

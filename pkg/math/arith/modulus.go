package arith

import (
	"math/big"

	"github.com/cronokirby/saferith"
)

// Modulus wraps a saferith.Modulus and enables faster modular exponentiation when
// the factorization is known.
// When n = p⋅q, xᵉ (mod n) can be computed with only two exponentiations
// with p and q respectively.
type Modulus struct {
	// represents modulus n
	*saferith.Modulus
	// n = p⋅q
	p, q *saferith.Modulus
	// pInv = p⁻¹ (mod q)
	pNat, pInv *saferith.Nat
}

// ModulusFromN creates a simple wrapper around a given modulus n.
// The modulus is not copied.
func ModulusFromN(n *saferith.Modulus) *Modulus {
	return &Modulus{
		Modulus: n,
	}
}

// ModulusFromFactors creates the necessary cached values to accelerate
// exponentiation mod n. p and q must be coprime.
func ModulusFromFactors(p, q *saferith.Nat) *Modulus {
	nNat := new(saferith.Nat).Mul(p, q, -1)
	nMod := saferith.ModulusFromNat(nNat)
	pMod := saferith.ModulusFromNat(p)
	qMod := saferith.ModulusFromNat(q)
	pInvQ := new(saferith.Nat).ModInverse(p, qMod)
	pNat := new(saferith.Nat).SetNat(p)
	return &Modulus{
		Modulus: nMod,
		p:       pMod,
		q:       qMod,
		pNat:    pNat,
		pInv:    pInvQ,
	}
}

// Exp is equivalent to (saferith.Nat).Exp(x, e, n.Modulus).
// It returns xᵉ (mod n).
func (n *Modulus) Exp(x, e *saferith.Nat) *saferith.Nat {
	if n.hasFactorization() {
		var xp, xq saferith.Nat
		xp.Exp(x, e, n.p) // x₁ = xᵉ (mod p)
		xq.Exp(x, e, n.q) // x₂ = xᵉ (mod q)
		// r = x₁ + p ⋅ [p⁻¹ (mod q)] ⋅ [x₂ - x₁] (mod n)
		r := xq.ModSub(&xq, &xp, n.Modulus)
		r.ModMul(r, n.pInv, n.Modulus)
		r.ModMul(r, n.pNat, n.Modulus)
		r.ModAdd(r, &xp, n.Modulus)
		return r
	}
	return new(saferith.Nat).Exp(x, e, n.Modulus)
}

func (n Modulus) hasFactorization() bool {
	return n.p != nil && n.q != nil && n.pNat != nil && n.pInv != nil
}

// LCM returns lcm(a, b) = a⋅b / gcd(a, b).
func LCM(a, b *saferith.Nat) *saferith.Nat {
	aBig, bBig := a.Big(), b.Big()
	gcd := new(big.Int).GCD(nil, nil, aBig, bBig)
	l := new(big.Int).Mul(aBig, bBig)
	l.Quo(l, gcd)
	return new(saferith.Nat).SetBig(l, l.BitLen())
}

// Bound is an upper bound that can be compared against from many goroutines.
//
// (*saferith.Nat).CmpMod writes to the limbs of the modulus, so a shared
// *saferith.Modulus must not be compared against concurrently.
type Bound struct {
	n *big.Int
}

// NewBound caches m as a read-only bound.
func NewBound(m *saferith.Modulus) Bound {
	return Bound{n: m.Big()}
}

// Contains returns true if 0 ≤ x < m. x is not modified.
func (b Bound) Contains(x *saferith.Nat) bool {
	return x != nil && x.Big().Cmp(b.n) < 0
}

// IsUnit returns true if 0 < x < m and gcd(x, m) = 1. x is not modified.
func (b Bound) IsUnit(x *saferith.Nat) bool {
	if !b.Contains(x) {
		return false
	}
	xBig := x.Big()
	if xBig.Sign() == 0 {
		return false
	}
	return new(big.Int).GCD(nil, nil, xBig, b.n).Cmp(big.NewInt(1)) == 0
}

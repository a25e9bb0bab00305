// Package group implements the multiplicative group modulo a safe prime p,
// in which voters hold their identity keys y = gˣ (mod p).
package group

import (
	"errors"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/vote-ledger/internal/params"
	"github.com/taurusgroup/vote-ledger/pkg/math/arith"
	"github.com/taurusgroup/vote-ledger/pkg/math/sample"
)

// Group is ℤₚˣ with a fixed generator g.
type Group struct {
	p *saferith.Modulus
	// order = p - 1, the modulus in which exponents are reduced
	order *saferith.Modulus
	g     *saferith.Nat

	// read-only copies of p and p-1 for range checks
	pBound, orderBound arith.Bound
}

var defaultGroup = mustNew(params.GroupPrimeHex, params.GroupGenerator)

// Default returns the 2048-bit MODP group of RFC 3526, with g = 2.
func Default() *Group {
	return defaultGroup
}

func mustNew(pHex string, g uint64) *Group {
	p, err := saferith.ModulusFromHex(pHex)
	if err != nil {
		panic(err)
	}
	grp, err := New(p, new(saferith.Nat).SetUint64(g))
	if err != nil {
		panic(err)
	}
	return grp
}

// New returns the group modulo p generated by g. p must be an odd prime, and 1 < g < p.
func New(p *saferith.Modulus, g *saferith.Nat) (*Group, error) {
	if p == nil || g == nil {
		return nil, errors.New("group: nil parameter")
	}
	if p.BitLen() < 3 || p.Big().Bit(0) != 1 {
		return nil, errors.New("group: modulus must be an odd prime")
	}
	pBound := arith.NewBound(p)
	if !pBound.Contains(g) {
		return nil, errors.New("group: generator must be smaller than p")
	}
	if g.Big().Cmp(oneBig) <= 0 {
		return nil, errors.New("group: generator must be greater than 1")
	}
	orderNat := new(saferith.Nat).Sub(p.Nat(), new(saferith.Nat).SetUint64(1), -1)
	order := saferith.ModulusFromNat(orderNat)
	return &Group{
		p:          p,
		order:      order,
		g:          new(saferith.Nat).SetNat(g),
		pBound:     pBound,
		orderBound: arith.NewBound(order),
	}, nil
}

// P returns the prime modulus. For efficiency, the value returned is a pointer to the same underlying value.
func (grp *Group) P() *saferith.Modulus {
	return grp.p
}

// Order returns p - 1, the modulus for exponents.
func (grp *Group) Order() *saferith.Modulus {
	return grp.order
}

// G returns the generator. It must not be modified.
func (grp *Group) G() *saferith.Nat {
	return grp.g
}

// Exp returns xᵉ (mod p).
func (grp *Group) Exp(x, e *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).Exp(x, e, grp.p)
}

// ExpG returns gᵉ (mod p).
func (grp *Group) ExpG(e *saferith.Nat) *saferith.Nat {
	return grp.Exp(grp.g, e)
}

// Mul returns x⋅y (mod p).
func (grp *Group) Mul(x, y *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).ModMul(x, y, grp.p)
}

// IsElement returns true if 0 < x < p.
func (grp *Group) IsElement(x *saferith.Nat) bool {
	return grp.pBound.IsUnit(x)
}

// IsExponent returns true if 0 ≤ x < p.
func (grp *Group) IsExponent(x *saferith.Nat) bool {
	return grp.pBound.Contains(x)
}

// IsReduced returns true if 0 ≤ x < p-1.
func (grp *Group) IsReduced(x *saferith.Nat) bool {
	return grp.orderBound.Contains(x)
}

// KeyPair is a voter identity: a secret exponent x, and the public key y = gˣ (mod p).
//
// The public key is the voter's durable identity in the registry.
type KeyPair struct {
	Public *saferith.Nat
	Secret *saferith.Nat
}

// NewKeyPair samples x with |p|-1 bits, and computes y = gˣ (mod p).
func (grp *Group) NewKeyPair(rand io.Reader) *KeyPair {
	x := sample.Bits(rand, grp.p.BitLen()-1)
	return &KeyPair{
		Public: grp.ExpG(x),
		Secret: x,
	}
}

var oneBig = new(saferith.Nat).SetUint64(1).Big()

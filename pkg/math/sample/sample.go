package sample

import (
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func mustReadBits(rand io.Reader, buf []byte) {
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err == nil {
			return
		}
	}
	panic(ErrMaxIterations)
}

// ModN samples an element of ℤₙ.
//
// n is only read, so that it may be shared between goroutines.
func ModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	bound := n.Big()
	candidate := new(big.Int)
	buf := make([]byte, (n.BitLen()+7)/8)
	// clear the bits above n's length so that rejection succeeds with probability ≥ ½
	topBits := uint(n.BitLen() % 8)
	for {
		mustReadBits(rand, buf)
		if topBits != 0 {
			buf[0] &= byte(1<<topBits) - 1
		}
		if candidate.SetBytes(buf).Cmp(bound) < 0 {
			break
		}
	}
	return new(saferith.Nat).SetBytes(buf)
}

// UnitModN returns a u ∈ ℤₙˣ.
func UnitModN(rand io.Reader, n *saferith.Modulus) *saferith.Nat {
	bound := n.Big()
	one := big.NewInt(1)
	gcd := new(big.Int)
	for i := 0; i < maxIterations; i++ {
		u := ModN(rand, n)
		if gcd.GCD(nil, nil, u.Big(), bound).Cmp(one) == 0 {
			return u
		}
	}
	panic(ErrMaxIterations)
}

// Bits returns a uniform integer with at most bits bits.
func Bits(rand io.Reader, bits int) *saferith.Nat {
	buf := make([]byte, (bits+7)/8)
	mustReadBits(rand, buf)
	if extra := uint(len(buf)*8 - bits); extra != 0 {
		buf[0] &= byte(0xff >> extra)
	}
	return new(saferith.Nat).SetBytes(buf)
}

package sample

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/vote-ledger/internal/params"
	"github.com/taurusgroup/vote-ledger/pkg/pool"
)

// trialPrimes contains the first 128 odd prime numbers
var trialPrimes = []uint64{
	3, 5, 7, 11, 13, 17, 19, 23,
	29, 31, 37, 41, 43, 47, 53, 59,
	61, 67, 71, 73, 79, 83, 89, 97,
	101, 103, 107, 109, 113, 127, 131, 137,
	139, 149, 151, 157, 163, 167, 173, 179,
	181, 191, 193, 197, 199, 211, 223, 227,
	229, 233, 239, 241, 251, 257, 263, 269,
	271, 277, 281, 283, 293, 307, 311, 313,
	317, 331, 337, 347, 349, 353, 359, 367,
	373, 379, 383, 389, 397, 401, 409, 419,
	421, 431, 433, 439, 443, 449, 457, 461,
	463, 467, 479, 487, 491, 499, 503, 509,
	521, 523, 541, 547, 557, 563, 569, 571,
	577, 587, 593, 599, 601, 607, 613, 617,
	619, 631, 641, 643, 647, 653, 659, 661,
	673, 677, 683, 691, 701, 709, 719, 727,
	733, 739, 743, 751, 757, 761, 769, 773,
}

// maxPrimeIterations is the number of candidates we are willing to test,
// across all workers, before giving up.
const maxPrimeIterations = 100_000

// ErrMaxPrimeIterations is the error we return when we fail to generate a prime.
var ErrMaxPrimeIterations = fmt.Errorf("sample: failed to generate prime after %d iterations", maxPrimeIterations)

var errPrimeTooSmall = errors.New("sample: prime size must be at least 16 bits")

// candidate returns a random odd number of exactly bits bits, with the top two bits set,
// so that the product of two candidates is never one bit short.
//
// The candidate is not divisible by any of the trial primes, but has not undergone
// any heavier test.
func candidate(rand io.Reader, bits int) (*big.Int, error) {
	lastBits := uint(bits % 8)
	if lastBits == 0 {
		lastBits = 8
	}
	bytes := make([]byte, (bits+7)/8)
	p := new(big.Int)
	scratch := new(big.Int)
	if _, err := io.ReadFull(rand, bytes); err != nil {
		return nil, err
	}
	bytes[0] &= uint8(int(1<<lastBits) - 1)
	if lastBits >= 2 {
		bytes[0] |= 0b11 << (lastBits - 2)
	} else {
		bytes[0] |= 1
		bytes[1] |= 0b1000_0000
	}
	bytes[len(bytes)-1] |= 1
	p.SetBytes(bytes)

	for _, prime := range trialPrimes {
		scratch.SetUint64(prime)
		if scratch.Mod(p, scratch).Sign() == 0 {
			return nil, nil
		}
	}
	return p, nil
}

// Prime returns a probable prime of exactly bits bits.
//
// At most maxPrimeIterations candidates are tested, spread over the workers of pl.
func Prime(rand io.Reader, bits int, pl *pool.Pool) (*saferith.Nat, error) {
	primes, err := Primes(rand, bits, 1, pl)
	if err != nil {
		return nil, err
	}
	return primes[0], nil
}

// Primes returns count independent probable primes of exactly bits bits.
func Primes(rand io.Reader, bits, count int, pl *pool.Pool) ([]*saferith.Nat, error) {
	if bits < 16 {
		return nil, errPrimeTooSmall
	}
	if pl != nil {
		rand = pool.NewLockedReader(rand)
	}
	var attempts int64
	results, err := pl.Search(count, func() (interface{}, error) {
		if atomic.AddInt64(&attempts, 1) > maxPrimeIterations {
			return nil, ErrMaxPrimeIterations
		}
		p, err := candidate(rand, bits)
		if err != nil {
			return nil, fmt.Errorf("sample: read randomness: %w", err)
		}
		if p == nil || !p.ProbablyPrime(params.PrimalityIterations) {
			return nil, nil
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	primes := make([]*saferith.Nat, count)
	for i, r := range results {
		p := r.(*big.Int)
		primes[i] = new(saferith.Nat).SetBig(p, bits)
	}
	return primes, nil
}

// Paillier generates the two distinct primes p, q of bits/2 bits each, for a modulus n = p⋅q of size bits.
func Paillier(rand io.Reader, bits int, pl *pool.Pool) (p, q *saferith.Nat, err error) {
	for {
		primes, err := Primes(rand, bits/2, 2, pl)
		if err != nil {
			return nil, nil, err
		}
		if primes[0].Eq(primes[1]) != 1 {
			return primes[0], primes[1], nil
		}
	}
}

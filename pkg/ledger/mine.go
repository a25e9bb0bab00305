package ledger

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/taurusgroup/vote-ledger/pkg/ballot"
	"golang.org/x/sync/errgroup"
)

// pollInterval is the number of nonces a worker tries between two checks of its context.
const pollInterval = 1 << 10

// Miner searches for nonces in parallel.
type Miner struct {
	// Workers is the number of goroutines searching, runtime.NumCPU() if <= 0.
	Workers int
	// MaxAttempts bounds the number of hashes computed over all workers, unbounded if 0.
	MaxAttempts uint64
}

func (m Miner) workers() int {
	if m.Workers <= 0 {
		return runtime.NumCPU()
	}
	return m.Workers
}

// Mine searches for a nonce such that the hash of b starts with difficulty '0' characters,
// using workers goroutines.
func (b *Block) Mine(ctx context.Context, difficulty, workers int) error {
	return Miner{Workers: workers}.Mine(ctx, b, difficulty)
}

// Mine searches for a nonce for b, and sets the nonce and hash of b when one is found.
//
// Worker i tries the nonces i, i+w, i+2w, ... where w is the number of workers.
// The first worker to find a valid nonce stops the others.
// If ctx is done first, the error wraps ErrMiningTimeout,
// and if MaxAttempts hashes were computed without success, it is ErrMiningExhausted.
// In both cases b is left unchanged.
//
// A block is mined at most once: mining a sealed block returns ErrBlockSealed.
// b must not be mined from several goroutines at once.
func (m Miner) Mine(ctx context.Context, b *Block, difficulty int) error {
	if b.sealed {
		return ErrBlockSealed
	}
	if difficulty < 0 || difficulty > MaxDifficulty {
		return ErrDifficulty
	}
	encoded, err := ballot.MarshalVotes(b.votes)
	if err != nil {
		return fmt.Errorf("ledger: encode votes: %w", err)
	}
	workers := m.workers()

	var (
		found    atomic.Bool
		attempts atomic.Uint64
		once     sync.Once
		nonce    uint64
		digest   []byte
	)
	errGroup, groupCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := uint64(w)
		h := newHasher(b, encoded)
		errGroup.Go(func() error {
			for candidate, tries := start, 0; ; candidate, tries = candidate+uint64(workers), tries+1 {
				if found.Load() {
					return nil
				}
				if tries%pollInterval == 0 {
					if err := groupCtx.Err(); err != nil {
						return err
					}
				}
				if m.MaxAttempts > 0 && attempts.Add(1) > m.MaxAttempts {
					return ErrMiningExhausted
				}
				sum := h.sum(candidate)
				if leadingZeros(sum, difficulty) {
					once.Do(func() {
						nonce, digest = candidate, sum
						found.Store(true)
					})
					return nil
				}
			}
		})
	}
	err = errGroup.Wait()

	if found.Load() {
		b.nonce = nonce
		b.hash = hex.EncodeToString(digest)
		b.sealed = true
		return nil
	}
	if errors.Is(err, ErrMiningExhausted) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrMiningTimeout, ctxErr)
	}
	return err
}

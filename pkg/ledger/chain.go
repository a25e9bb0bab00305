package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taurusgroup/vote-ledger/pkg/ballot"
	"go.dedis.ch/onet/v3/log"
)

// Chain is an append-only sequence of mined blocks, starting with a genesis block,
// together with the votes waiting to be sealed into the next block.
//
// All methods are safe for concurrent use. Seals are serialized, and readers
// always observe a consistent prefix of the chain.
type Chain struct {
	miner Miner
	clock func() time.Time

	// sealMtx is held for the whole of SealPendingVotes, mining included.
	sealMtx sync.Mutex

	mtx        sync.RWMutex
	blocks     []*Block
	pending    []*ballot.EncryptedVote
	difficulty int
}

// Option configures a Chain.
type Option func(*Chain)

// WithWorkers sets the number of goroutines used to mine each block.
func WithWorkers(n int) Option {
	return func(c *Chain) { c.miner.Workers = n }
}

// WithMaxAttempts bounds the number of hashes computed when mining a block.
func WithMaxAttempts(n uint64) Option {
	return func(c *Chain) { c.miner.MaxAttempts = n }
}

// WithClock sets the source of block timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Chain) { c.clock = clock }
}

// NewChain creates a chain with a genesis block mined at difficulty.
func NewChain(ctx context.Context, difficulty int, opts ...Option) (*Chain, error) {
	c := &Chain{clock: time.Now, difficulty: difficulty}
	for _, opt := range opts {
		opt(c)
	}
	genesis, err := newBlock(GenesisPreviousHash, nil, c.clock())
	if err != nil {
		return nil, err
	}
	if err = c.miner.Mine(ctx, genesis, difficulty); err != nil {
		return nil, fmt.Errorf("ledger: genesis: %w", err)
	}
	c.blocks = []*Block{genesis}
	log.Lvl2("mined genesis block", genesis.hash)
	return c, nil
}

// AddVote appends v to the pending votes. It is not validated.
func (c *Chain) AddVote(v *ballot.EncryptedVote) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.pending = append(c.pending, v)
}

// Pending returns the votes not yet sealed, in the order they were added.
func (c *Chain) Pending() []*ballot.EncryptedVote {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return append([]*ballot.EncryptedVote(nil), c.pending...)
}

// SealPendingVotes mines a block holding the pending votes, linked to the latest block,
// and appends it to the chain.
//
// Votes added while the block is being mined stay pending for the next seal.
// On error the chain and the pending votes are unchanged.
func (c *Chain) SealPendingVotes(ctx context.Context) (*Block, error) {
	c.sealMtx.Lock()
	defer c.sealMtx.Unlock()

	c.mtx.RLock()
	previous := c.blocks[len(c.blocks)-1].hash
	votes := append([]*ballot.EncryptedVote(nil), c.pending...)
	difficulty := c.difficulty
	c.mtx.RUnlock()

	b, err := newBlock(previous, votes, c.clock())
	if err != nil {
		return nil, err
	}
	if err = c.miner.Mine(ctx, b, difficulty); err != nil {
		return nil, err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.blocks = append(c.blocks, b)
	// only seals remove pending votes, so the sealed ones are still at the front
	c.pending = append([]*ballot.EncryptedVote(nil), c.pending[len(votes):]...)
	log.Lvlf2("mined block %d with %d votes, nonce %d: %s", len(c.blocks)-1, len(votes), b.nonce, b.hash)
	return b, nil
}

func (c *Chain) snapshot() []*Block {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.blocks[:len(c.blocks):len(c.blocks)]
}

// IsChainValid checks that every block after genesis still has the hash it was mined with,
// and is linked to the hash of the block before it.
func (c *Chain) IsChainValid() bool {
	blocks := c.snapshot()
	for i := 1; i < len(blocks); i++ {
		current, previous := blocks[i], blocks[i-1]
		if current.CalculateHash() != current.hash {
			log.Lvl3("block", i, "hash mismatch")
			return false
		}
		if current.previousHash != previous.hash {
			log.Lvl3("block", i, "is not linked to block", i-1)
			return false
		}
	}
	return true
}

// Blocks returns the blocks of the chain, genesis first.
func (c *Chain) Blocks() []*Block {
	return append([]*Block(nil), c.snapshot()...)
}

// Latest returns the last block of the chain.
func (c *Chain) Latest() *Block {
	blocks := c.snapshot()
	return blocks[len(blocks)-1]
}

// Len returns the number of blocks, genesis included.
func (c *Chain) Len() int {
	return len(c.snapshot())
}

// Difficulty is the number of leading '0' characters required of new blocks.
func (c *Chain) Difficulty() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.difficulty
}

// SetDifficulty changes the difficulty of the blocks sealed from now on.
func (c *Chain) SetDifficulty(difficulty int) error {
	if difficulty < 0 || difficulty > MaxDifficulty {
		return ErrDifficulty
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.difficulty = difficulty
	return nil
}

// AllVotes returns an iterator over the votes of every block, in chain order.
func (c *Chain) AllVotes() *VoteIterator {
	return &VoteIterator{blocks: c.snapshot()}
}

// Votes returns the votes of every block, in chain order.
func (c *Chain) Votes() []*ballot.EncryptedVote {
	var votes []*ballot.EncryptedVote
	for it := c.AllVotes(); ; {
		v, ok := it.Next()
		if !ok {
			return votes
		}
		votes = append(votes, v)
	}
}

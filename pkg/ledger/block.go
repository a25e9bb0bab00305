// Package ledger stores encrypted votes in an append-only chain of hash-linked blocks,
// each sealed by proof-of-work.
package ledger

import (
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"time"

	"github.com/taurusgroup/vote-ledger/pkg/ballot"
	"golang.org/x/crypto/sha3"
)

// GenesisPreviousHash is the previous hash of the first block of every chain.
const GenesisPreviousHash = "0"

// MaxDifficulty is the length of a hex encoded block hash.
const MaxDifficulty = 64

// Block is a sealed container of votes.
//
// The previous hash, votes and timestamp are fixed when the block is created.
// The nonce and hash only change while the block is mined.
type Block struct {
	previousHash string
	votes        []*ballot.EncryptedVote
	timestamp    int64
	nonce        uint64
	hash         string
	// sealed is set once a nonce was found, the block never changes afterwards
	sealed bool
}

// NewBlock creates a block linked to previousHash, holding a copy of votes.
// The timestamp is the current time in milliseconds, and the nonce is 0.
func NewBlock(previousHash string, votes []*ballot.EncryptedVote) (*Block, error) {
	return newBlock(previousHash, votes, time.Now())
}

func newBlock(previousHash string, votes []*ballot.EncryptedVote, now time.Time) (*Block, error) {
	b := &Block{
		previousHash: previousHash,
		votes:        make([]*ballot.EncryptedVote, 0, len(votes)),
		timestamp:    now.UnixMilli(),
	}
	for i, v := range votes {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("ledger: vote %d: %w", i, err)
		}
		b.votes = append(b.votes, v.Clone())
	}
	encoded, err := ballot.MarshalVotes(b.votes)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode votes: %w", err)
	}
	b.hash = hex.EncodeToString(newHasher(b, encoded).sum(b.nonce))
	return b, nil
}

// PreviousHash is the hash of the block this one is linked to.
func (b *Block) PreviousHash() string { return b.previousHash }

// Timestamp is the creation time of the block, in milliseconds since the Unix epoch.
func (b *Block) Timestamp() int64 { return b.timestamp }

// Nonce is the proof-of-work counter.
func (b *Block) Nonce() uint64 { return b.nonce }

// Hash is the hash stored in the block when it was mined.
func (b *Block) Hash() string { return b.hash }

// Sealed returns true once the block has been mined.
func (b *Block) Sealed() bool { return b.sealed }

// Len returns the number of votes in the block.
func (b *Block) Len() int { return len(b.votes) }

// Votes returns the votes of the block, in order.
// The slice is a copy, but the votes are shared and must not be modified.
func (b *Block) Votes() []*ballot.EncryptedVote {
	return append([]*ballot.EncryptedVote(nil), b.votes...)
}

// CalculateHash recomputes the hash from the current fields of the block:
//
//	hex(SHA3-256(previousHash ‖ timestamp ‖ nonce ‖ votes))
//
// timestamp and nonce are in decimal, and votes is the canonical CBOR encoding of the vote list.
// It returns the empty string if the votes cannot be encoded.
func (b *Block) CalculateHash() string {
	encoded, err := ballot.MarshalVotes(b.votes)
	if err != nil {
		return ""
	}
	return hex.EncodeToString(newHasher(b, encoded).sum(b.nonce))
}

// MeetsDifficulty returns true if the stored hash starts with difficulty '0' characters.
func (b *Block) MeetsDifficulty(difficulty int) bool {
	if difficulty < 0 || difficulty > len(b.hash) {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if b.hash[i] != '0' {
			return false
		}
	}
	return true
}

// hasher computes block hashes for varying nonces, reusing its buffers.
type hasher struct {
	prefix []byte
	votes  []byte
	buf    []byte
	state  hash.Hash
}

func newHasher(b *Block, votes []byte) *hasher {
	prefix := make([]byte, 0, len(b.previousHash)+20)
	prefix = append(prefix, b.previousHash...)
	prefix = strconv.AppendInt(prefix, b.timestamp, 10)
	return &hasher{prefix: prefix, votes: votes, buf: make([]byte, 0, 20), state: sha3.New256()}
}

func (h *hasher) sum(nonce uint64) []byte {
	h.state.Reset()
	_, _ = h.state.Write(h.prefix)
	h.buf = strconv.AppendUint(h.buf[:0], nonce, 10)
	_, _ = h.state.Write(h.buf)
	_, _ = h.state.Write(h.votes)
	return h.state.Sum(nil)
}

// leadingZeros returns true if the hex encoding of digest starts with difficulty '0' characters.
func leadingZeros(digest []byte, difficulty int) bool {
	for i := 0; i < difficulty; i++ {
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f != 0 {
			return false
		}
	}
	return true
}

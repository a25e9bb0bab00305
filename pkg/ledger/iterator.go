package ledger

import "github.com/taurusgroup/vote-ledger/pkg/ballot"

// VoteIterator walks the votes of a fixed set of blocks.
// Blocks sealed after the iterator was created are not visited.
type VoteIterator struct {
	blocks []*Block
	block  int
	vote   int
}

// Next returns the next vote, or false when all votes have been visited.
func (it *VoteIterator) Next() (*ballot.EncryptedVote, bool) {
	for it.block < len(it.blocks) {
		votes := it.blocks[it.block].votes
		if it.vote < len(votes) {
			v := votes[it.vote]
			it.vote++
			return v, true
		}
		it.block++
		it.vote = 0
	}
	return nil, false
}

// Reset restarts the iteration from the first vote.
func (it *VoteIterator) Reset() {
	it.block, it.vote = 0, 0
}

// Len returns the total number of votes the iterator visits.
func (it *VoteIterator) Len() int {
	n := 0
	for _, b := range it.blocks {
		n += len(b.votes)
	}
	return n
}

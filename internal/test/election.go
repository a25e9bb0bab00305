// Package test holds fixtures shared by the tests of several packages.
package test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/vote-ledger/pkg/ballot"
	"github.com/taurusgroup/vote-ledger/pkg/voting"
)

// KeyBits is the size of the election key used in tests.
const KeyBits = 1024

var (
	electionOnce sync.Once
	election     *voting.Election
	electionErr  error
)

// Election returns an initialized election, shared by all tests of a package.
// Every caller registers fresh voters, so tests never observe each other's votes.
func Election(t testing.TB) *voting.Election {
	electionOnce.Do(func() {
		election = voting.NewElection(voting.WithKeyBits(KeyBits))
		electionErr = election.Initialize()
	})
	require.NoError(t, electionErr)
	return election
}

// Votes registers one voter per value, and casts their votes.
func Votes(t testing.TB, values ...int) []*ballot.EncryptedVote {
	e := Election(t)
	votes := make([]*ballot.EncryptedVote, 0, len(values))
	for _, value := range values {
		kp, err := e.RegisterVoter()
		require.NoError(t, err)
		v, err := e.CastVote(kp, value)
		require.NoError(t, err)
		votes = append(votes, v)
	}
	return votes
}

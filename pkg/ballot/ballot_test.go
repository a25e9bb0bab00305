package ballot

import (
	"bytes"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/vote-ledger/pkg/paillier"
)

func nat(x uint64) *saferith.Nat {
	return new(saferith.Nat).SetUint64(x)
}

func testVote(seed uint64) *EncryptedVote {
	return &EncryptedVote{
		Ciphertext:     paillier.NewCiphertext(nat(1000 + seed)),
		Proof:          &Proof{C: nat(10 + seed), Z: nat(20 + seed), R: nat(30 + seed)},
		VoterPublicKey: nat(40 + seed),
	}
}

func TestMarshalDeterministic(t *testing.T) {
	v := testVote(1)
	d1, err := v.MarshalBinary()
	require.NoError(t, err)

	// same values with a wider announced capacity encode identically
	wide := &EncryptedVote{
		Ciphertext:     paillier.NewCiphertext(nat(1001).Resize(4096)),
		Proof:          &Proof{C: nat(11).Resize(2048), Z: nat(21), R: nat(31)},
		VoterPublicKey: nat(41).Resize(2048),
	}
	d2, err := wide.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(d1, d2))

	d3, err := testVote(2).MarshalBinary()
	require.NoError(t, err)
	assert.False(t, bytes.Equal(d1, d3))
}

func TestMarshalRoundTrip(t *testing.T) {
	v := testVote(3)
	data, err := v.MarshalBinary()
	require.NoError(t, err)

	var got EncryptedVote
	require.NoError(t, got.UnmarshalBinary(data))
	assert.True(t, v.Equal(&got))
}

func TestMarshalVotes(t *testing.T) {
	votes := []*EncryptedVote{testVote(1), testVote(2), testVote(3)}
	data, err := MarshalVotes(votes)
	require.NoError(t, err)

	got, err := UnmarshalVotes(data)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range votes {
		assert.True(t, votes[i].Equal(got[i]))
	}

	// order matters
	swapped, err := MarshalVotes([]*EncryptedVote{votes[1], votes[0], votes[2]})
	require.NoError(t, err)
	assert.False(t, bytes.Equal(data, swapped))

	empty, err := MarshalVotes(nil)
	require.NoError(t, err)
	got, err = UnmarshalVotes(empty)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, testVote(0).Validate())

	var nilVote *EncryptedVote
	assert.Error(t, nilVote.Validate())

	v := testVote(0)
	v.Proof.R = nil
	assert.Error(t, v.Validate())
	_, err := v.MarshalBinary()
	assert.Error(t, err)
	_, err = MarshalVotes([]*EncryptedVote{testVote(0), v})
	assert.Error(t, err)

	v = testVote(0)
	v.VoterPublicKey = nil
	assert.Error(t, v.Validate())

	v = testVote(0)
	v.Ciphertext = nil
	assert.Error(t, v.Validate())
}

func TestCloneEqual(t *testing.T) {
	v := testVote(5)
	c := v.Clone()
	assert.True(t, v.Equal(c))
	c.Proof.Z = nat(999)
	assert.False(t, v.Equal(c))
	assert.Equal(t, uint64(25), v.Proof.Z.Big().Uint64(), "clone must not alias")

	assert.True(t, (*EncryptedVote)(nil).Equal(nil))
	assert.False(t, v.Equal(nil))
}

func TestWriteTo(t *testing.T) {
	v := testVote(7)
	var buf bytes.Buffer
	n, err := v.WriteTo(&buf)
	require.NoError(t, err)
	data, _ := v.MarshalBinary()
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, buf.Bytes())
	assert.Equal(t, "Encrypted Vote", v.Domain())
}

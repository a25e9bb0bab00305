package binvote

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/vote-ledger/pkg/ballot"
	"github.com/taurusgroup/vote-ledger/pkg/group"
	"github.com/taurusgroup/vote-ledger/pkg/paillier"
)

func setup(t *testing.T) (*group.Group, *group.KeyPair, *paillier.PublicKey) {
	pk, _, err := paillier.KeyGen(rand.Reader, 512, nil)
	require.NoError(t, err)
	grp := group.Default()
	return grp, grp.NewKeyPair(rand.Reader), pk
}

func encrypt(t *testing.T, pk *paillier.PublicKey, v uint64) *paillier.Ciphertext {
	ct, err := pk.Enc(new(saferith.Nat).SetUint64(v))
	require.NoError(t, err)
	return ct
}

func TestBinVotePass(t *testing.T) {
	grp, kp, pk := setup(t)
	for _, v := range []uint64{0, 1} {
		ct := encrypt(t, pk, v)
		proof, err := Prove(rand.Reader, grp, kp, v, ct)
		require.NoError(t, err)
		assert.True(t, Verify(grp, kp.Public, ct, proof), "failed passing test for vote %d", v)
		// verification is repeatable
		assert.True(t, Verify(grp, kp.Public, ct, proof))
	}
}

func TestBinVoteTamper(t *testing.T) {
	grp, kp, pk := setup(t)
	ct := encrypt(t, pk, 1)
	proof, err := Prove(rand.Reader, grp, kp, 1, ct)
	require.NoError(t, err)
	one := new(saferith.Nat).SetUint64(1)

	tampered := proof.Clone()
	tampered.C = new(saferith.Nat).ModAdd(proof.C, one, grp.P())
	assert.False(t, Verify(grp, kp.Public, ct, tampered), "modified c should fail")

	tampered = proof.Clone()
	tampered.Z = new(saferith.Nat).ModAdd(proof.Z, one, grp.Order())
	assert.False(t, Verify(grp, kp.Public, ct, tampered), "modified z should fail")

	tampered = proof.Clone()
	tampered.R = new(saferith.Nat).ModAdd(proof.R, one, grp.P())
	assert.False(t, Verify(grp, kp.Public, ct, tampered), "modified r should fail")

	other := encrypt(t, pk, 1)
	assert.False(t, Verify(grp, kp.Public, other, proof), "substituted ciphertext should fail")

	stranger := grp.NewKeyPair(rand.Reader)
	assert.False(t, Verify(grp, stranger.Public, ct, proof), "other voter's key should fail")
}

func TestBinVoteMalformed(t *testing.T) {
	grp, kp, pk := setup(t)
	ct := encrypt(t, pk, 0)
	proof, err := Prove(rand.Reader, grp, kp, 0, ct)
	require.NoError(t, err)

	assert.False(t, Verify(grp, kp.Public, ct, nil))
	assert.False(t, Verify(grp, kp.Public, nil, proof))
	assert.False(t, Verify(grp, nil, ct, proof))
	assert.False(t, Verify(grp, kp.Public, ct, &ballot.Proof{C: proof.C, Z: proof.Z}))

	wide := proof.Clone()
	wide.Z = new(saferith.Nat).Add(proof.Z, grp.Order().Nat(), -1)
	assert.False(t, Verify(grp, kp.Public, ct, wide), "unreduced z should fail")

	_, err = Prove(rand.Reader, grp, nil, 0, ct)
	assert.ErrorIs(t, err, ErrNilInput)
	_, err = Prove(rand.Reader, grp, kp, 0, nil)
	assert.ErrorIs(t, err, ErrNilInput)
}

// The disjunction, evaluated as the deployed verifier does, holds for any exponent:
// only the recomputed challenge rejects a transcript claiming v = 2.
func TestBinVoteNonBinaryClaim(t *testing.T) {
	grp, kp, pk := setup(t)
	ct := encrypt(t, pk, 2)
	proof, err := Prove(rand.Reader, grp, kp, 2, ct)
	require.NoError(t, err)

	res := Check(grp, kp.Public, ct, proof)
	assert.True(t, res.Knowledge)
	assert.True(t, res.Disjunction, "disjunction does not constrain the vote")
	assert.False(t, res.Challenge)
	assert.False(t, res.Valid())
}

// The transcript never refers to the Paillier plaintext: a voter encrypting 5
// and claiming 0 produces a proof that verifies.
func TestBinVoteDoesNotBindPlaintext(t *testing.T) {
	grp, kp, pk := setup(t)
	ct := encrypt(t, pk, 5)
	proof, err := Prove(rand.Reader, grp, kp, 0, ct)
	require.NoError(t, err)
	assert.True(t, Verify(grp, kp.Public, ct, proof), "forged ballot is accepted")
}

// Publishing r lets anyone solve z = r + c⋅x for x whenever c is invertible mod p-1.
func TestBinVoteRevealsSecret(t *testing.T) {
	grp, kp, pk := setup(t)
	order := grp.Order().Big()
	for i := 0; i < 64; i++ {
		ct := encrypt(t, pk, 1)
		proof, err := Prove(rand.Reader, grp, kp, 1, ct)
		require.NoError(t, err)

		cInv := new(big.Int).ModInverse(proof.C.Big(), order)
		if cInv == nil {
			continue
		}
		x := new(big.Int).Sub(proof.Z.Big(), proof.R.Big())
		x.Mul(x, cInv)
		x.Mod(x, order)

		recovered := new(saferith.Nat).SetBig(x, order.BitLen())
		assert.Equal(t, saferith.Choice(1), grp.ExpG(recovered).Eq(kp.Public), "recovered exponent should match the identity key")
		return
	}
	t.Fatal("no invertible challenge found")
}

func TestLegacy(t *testing.T) {
	grp, kp, pk := setup(t)
	l := Legacy{Group: grp, Rand: rand.Reader}
	ct := encrypt(t, pk, 1)
	proof, err := l.Prove(kp, 1, ct)
	require.NoError(t, err)
	assert.True(t, l.Verify(kp.Public, ct, proof))
}

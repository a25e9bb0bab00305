package paillier

import (
	"crypto/rand"
	mrand "math/rand"
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/vote-ledger/internal/params"
	"github.com/taurusgroup/vote-ledger/pkg/math/sample"
)

var (
	keyOnce  sync.Once
	testPk   *PublicKey
	testSk   *SecretKey
	testKErr error
)

// testKey returns a key shared by all tests of the package.
func testKey(t testing.TB) (*PublicKey, *SecretKey) {
	keyOnce.Do(func() {
		testPk, testSk, testKErr = KeyGen(rand.Reader, params.BitsPaillier, nil)
	})
	require.NoError(t, testKErr)
	return testPk, testSk
}

func natU(x uint64) *saferith.Nat {
	return new(saferith.Nat).SetUint64(x)
}

func TestKeyGen(t *testing.T) {
	pk, sk := testKey(t)
	assert.Equal(t, params.BitsPaillier, pk.N().BitLen())
	assert.Equal(t, params.BitsPaillierPrime, sk.P().Big().BitLen())
	assert.Equal(t, params.BitsPaillierPrime, sk.Q().Big().BitLen())

	// g = N + 1
	nPlusOne := new(saferith.Nat).Add(pk.N().Nat(), natU(1), -1)
	assert.Equal(t, saferith.Choice(1), pk.G().Eq(nPlusOne))

	// λ divides both (p-1)(q-1) and is a multiple of p-1
	pMinus1 := new(saferith.Nat).Sub(sk.P(), natU(1), -1)
	r := new(saferith.Nat).Mod(sk.Lambda(), saferith.ModulusFromNat(pMinus1))
	assert.Equal(t, saferith.Choice(1), r.EqZero())
	assert.Equal(t, saferith.Choice(1), sk.Mu().IsUnit(pk.N()))
}

func TestKeyGenSize(t *testing.T) {
	_, _, err := KeyGen(rand.Reader, 31, nil)
	assert.ErrorIs(t, err, ErrKeySize)
	_, _, err = KeyGen(rand.Reader, 16, nil)
	assert.ErrorIs(t, err, ErrKeySize)
}

func TestKeyGenExhausted(t *testing.T) {
	zeros := &zeroReader{}
	_, _, err := KeyGen(zeros, 32, nil)
	assert.ErrorIs(t, err, ErrKeyGeneration)
	assert.ErrorIs(t, err, sample.ErrMaxPrimeIterations)
}

// zeroReader returns an endless stream of zeros, for which no candidate is ever a 16-bit prime.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestCiphertextValidate(t *testing.T) {
	pk, sk := testKey(t)

	_, err := sk.Dec(NewCiphertext(natU(0)))
	assert.Error(t, err, "decrypting 0 should fail")

	_, err = sk.Dec(NewCiphertext(pk.N().Nat()))
	assert.Error(t, err, "decrypting N should fail")

	twoN := new(saferith.Nat).Add(pk.N().Nat(), pk.N().Nat(), -1)
	_, err = sk.Dec(NewCiphertext(twoN))
	assert.Error(t, err, "decrypting 2N should fail")

	_, err = sk.Dec(NewCiphertext(pk.NSquared().Nat()))
	assert.Error(t, err, "decrypting N^2 should fail")

	_, err = sk.Dec(nil)
	assert.Error(t, err, "decrypting nil should fail")
}

func TestEncDecRoundTrip(t *testing.T) {
	pk, sk := testKey(t)

	nMinus1 := new(saferith.Nat).Sub(pk.N().Nat(), natU(1), -1)
	for _, m := range []*saferith.Nat{natU(0), natU(1), natU(2), natU(1 << 40), nMinus1, sample.ModN(rand.Reader, pk.N())} {
		ct, err := pk.Enc(m)
		require.NoError(t, err)
		assert.True(t, pk.ValidateCiphertexts(ct))
		got, err := sk.Dec(ct)
		require.NoError(t, err)
		assert.Equal(t, saferith.Choice(1), got.Eq(m), "decryption should return m")
	}
}

func TestEncPlaintextRange(t *testing.T) {
	pk, _ := testKey(t)
	_, err := pk.Enc(pk.N().Nat())
	assert.ErrorIs(t, err, ErrPlaintextRange)
	_, err = pk.Enc(nil)
	assert.ErrorIs(t, err, ErrPlaintextRange)
}

func TestEncProbabilistic(t *testing.T) {
	pk, _ := testKey(t)
	ct1, err := pk.Enc(natU(1))
	require.NoError(t, err)
	ct2, err := pk.Enc(natU(1))
	require.NoError(t, err)
	assert.False(t, ct1.Equal(ct2), "two encryptions of the same value should differ")
}

func TestEncWithNonce(t *testing.T) {
	pk, _ := testKey(t)
	nonce := pk.Nonce()
	ct1, err := pk.EncWithNonce(natU(7), nonce)
	require.NoError(t, err)
	ct2, err := pk.EncWithNonce(natU(7), nonce)
	require.NoError(t, err)
	assert.True(t, ct1.Equal(ct2))
}

func TestHomomorphicAdd(t *testing.T) {
	pk, sk := testKey(t)
	halfN := new(saferith.Nat).Rsh(pk.N().Nat(), 1, -1)
	half := saferith.ModulusFromNat(halfN)

	for i := 0; i < 5; i++ {
		a := sample.ModN(rand.Reader, half)
		b := sample.ModN(rand.Reader, half)
		ctA, err := pk.Enc(a)
		require.NoError(t, err)
		ctB, err := pk.Enc(b)
		require.NoError(t, err)

		sum, err := sk.Dec(ctA.Clone().Add(pk, ctB))
		require.NoError(t, err)
		want := new(saferith.Nat).Add(a, b, -1)
		assert.Equal(t, saferith.Choice(1), sum.Eq(want))

		// ctA must not have been modified by the sum on its clone
		decA, err := sk.Dec(ctA)
		require.NoError(t, err)
		assert.Equal(t, saferith.Choice(1), decA.Eq(a))
	}
}

func TestHomomorphicAddWraps(t *testing.T) {
	pk, sk := testKey(t)
	nMinus1 := new(saferith.Nat).Sub(pk.N().Nat(), natU(1), -1)
	ct1, err := pk.Enc(nMinus1)
	require.NoError(t, err)
	ct2, err := pk.Enc(natU(3))
	require.NoError(t, err)
	got, err := sk.Dec(ct1.Add(pk, ct2))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Big().Uint64(), "(N-1) + 3 = 2 mod N")
}

func TestSum(t *testing.T) {
	pk, sk := testKey(t)
	var cts []*Ciphertext
	for _, v := range []uint64{1, 0, 1, 1, 0} {
		ct, err := pk.Enc(natU(v))
		require.NoError(t, err)
		cts = append(cts, ct)
	}
	got, err := sk.Dec(pk.Sum(cts...))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Big().Uint64())

	empty, err := sk.Dec(pk.Sum())
	require.NoError(t, err)
	assert.Equal(t, saferith.Choice(1), empty.EqZero())
}

func TestAddEmptyCiphertext(t *testing.T) {
	pk, sk := testKey(t)
	ct, err := pk.Enc(natU(4))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		ct.Add(pk, &Ciphertext{})
		ct.Add(pk, nil)
	})
	got, err := sk.Dec(ct)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), got.Big().Uint64())
}

func TestEncFrom(t *testing.T) {
	pk, sk := testKey(t)
	ct1, err := pk.EncFrom(mrand.New(mrand.NewSource(1)), natU(5))
	require.NoError(t, err)
	ct2, err := pk.EncFrom(mrand.New(mrand.NewSource(1)), natU(5))
	require.NoError(t, err)
	assert.True(t, ct1.Equal(ct2), "the same randomness gives the same ciphertext")

	got, err := sk.Dec(ct1)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Big().Uint64())

	var nilKey *PublicKey
	_, err = nilKey.EncFrom(rand.Reader, natU(1))
	assert.ErrorIs(t, err, ErrNilKey)
}

func TestConcurrentEncCheck(t *testing.T) {
	pk, _ := testKey(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ct, err := pk.Enc(natU(1))
			assert.NoError(t, err)
			assert.True(t, pk.ValidateCiphertexts(ct))
		}()
	}
	wg.Wait()
}

func TestMul(t *testing.T) {
	pk, sk := testKey(t)
	ct, err := pk.Enc(natU(6))
	require.NoError(t, err)
	got, err := sk.Dec(ct.Mul(pk, natU(7)))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Big().Uint64())
}

func TestNewSecretKeyFromPrimes(t *testing.T) {
	p, q, err := sample.Paillier(rand.Reader, 256, nil)
	require.NoError(t, err)
	sk, err := NewSecretKeyFromPrimes(p, q)
	require.NoError(t, err)
	ct, err := sk.Enc(natU(12345))
	require.NoError(t, err)
	m, err := sk.Dec(ct)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), m.Big().Uint64())

	_, err = NewSecretKeyFromPrimes(p, p)
	assert.ErrorIs(t, err, ErrPrimesEqual)
	_, err = NewSecretKeyFromPrimes(nil, q)
	assert.ErrorIs(t, err, ErrPrimeNil)
}

func TestPublicKeyMarshal(t *testing.T) {
	pk, sk := testKey(t)
	data, err := pk.MarshalBinary()
	require.NoError(t, err)

	pk2 := new(PublicKey)
	require.NoError(t, pk2.UnmarshalBinary(data))
	assert.True(t, pk.Equal(pk2))

	// a key decoded from its published form encrypts for the original secret key
	ct, err := pk2.Enc(natU(9))
	require.NoError(t, err)
	m, err := sk.Dec(ct)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), m.Big().Uint64())

	assert.Error(t, pk2.UnmarshalBinary([]byte{0xff}))
}

func TestCiphertextMarshal(t *testing.T) {
	pk, sk := testKey(t)
	ct, err := pk.Enc(natU(1))
	require.NoError(t, err)
	data, err := ct.MarshalBinary()
	require.NoError(t, err)

	var ct2 Ciphertext
	require.NoError(t, ct2.UnmarshalBinary(data))
	assert.True(t, ct.Equal(&ct2))
	m, err := sk.Dec(&ct2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.Big().Uint64())

	assert.Error(t, ct2.UnmarshalBinary(nil))
}

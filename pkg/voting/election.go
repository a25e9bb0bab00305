// Package voting coordinates an election: voter registration, casting encrypted
// binary votes with their proofs, verification and homomorphic tallying.
package voting

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/google/uuid"
	"github.com/taurusgroup/vote-ledger/internal/params"
	"github.com/taurusgroup/vote-ledger/pkg/ballot"
	"github.com/taurusgroup/vote-ledger/pkg/group"
	"github.com/taurusgroup/vote-ledger/pkg/paillier"
	"github.com/taurusgroup/vote-ledger/pkg/pool"
	"github.com/taurusgroup/vote-ledger/pkg/zk/binvote"
	"go.dedis.ch/onet/v3/log"
)

// ProofSystem produces and checks the proof attached to each encrypted vote.
type ProofSystem interface {
	Prove(kp *group.KeyPair, vote uint64, ct *paillier.Ciphertext) (*ballot.Proof, error)
	Verify(publicKey *saferith.Nat, ct *paillier.Ciphertext, proof *ballot.Proof) bool
}

// Election is held by the election authority. It owns the election key,
// and reads the shared registry on every cast and verification.
type Election struct {
	id       uuid.UUID
	group    *group.Group
	registry *Registry
	proofs   ProofSystem
	rand     io.Reader
	pool     *pool.Pool
	keyBits  int

	mtx sync.RWMutex
	key *paillier.SecretKey
}

// Option configures an Election.
type Option func(*Election)

// WithRegistry uses an existing registry instead of a fresh one.
func WithRegistry(r *Registry) Option {
	return func(e *Election) { e.registry = r }
}

// WithProofSystem replaces the default transcript construction.
func WithProofSystem(ps ProofSystem) Option {
	return func(e *Election) { e.proofs = ps }
}

// WithGroup sets the group identity keys are generated in.
func WithGroup(grp *group.Group) Option {
	return func(e *Election) { e.group = grp }
}

// WithRandom sets the randomness source for keys, nonces and proofs.
// Reads are serialized, so r need not be safe for concurrent use.
func WithRandom(r io.Reader) Option {
	return func(e *Election) { e.rand = r }
}

// WithPool parallelizes key generation and audits over pl.
func WithPool(pl *pool.Pool) Option {
	return func(e *Election) { e.pool = pl }
}

// WithKeyBits sets the size of the election modulus N.
func WithKeyBits(bits int) Option {
	return func(e *Election) { e.keyBits = bits }
}

// NewElection creates an election. Initialize must be called before votes are cast.
func NewElection(opts ...Option) *Election {
	e := &Election{
		id:      uuid.New(),
		rand:    rand.Reader,
		keyBits: params.BitsPaillier,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rand = pool.NewLockedReader(e.rand)
	if e.group == nil {
		e.group = group.Default()
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.proofs == nil {
		e.proofs = binvote.Legacy{Group: e.group, Rand: e.rand}
	}
	return e
}

// ID identifies the election in logs and reports.
func (e *Election) ID() uuid.UUID {
	return e.id
}

// Registry returns the voter registry.
func (e *Election) Registry() *Registry {
	return e.registry
}

// Group returns the identity group.
func (e *Election) Group() *group.Group {
	return e.group
}

// Initialize generates the election key.
//
// Calling it again replaces the key: ciphertexts produced under the previous key
// can no longer be decrypted.
func (e *Election) Initialize() error {
	_, sk, err := paillier.KeyGen(e.rand, e.keyBits, e.pool)
	if err != nil {
		return fmt.Errorf("voting: initialize: %w", err)
	}
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if e.key != nil {
		log.Warn("election", e.id, ": replacing the election key, earlier ballots become undecryptable")
	}
	e.key = sk
	log.Lvl2("election", e.id, "initialized with a", e.keyBits, "bit key")
	return nil
}

func (e *Election) secretKey() (*paillier.SecretKey, error) {
	e.mtx.RLock()
	defer e.mtx.RUnlock()
	if e.key == nil {
		return nil, ErrNotInitialized
	}
	return e.key, nil
}

// PublicKey returns the public part of the election key.
func (e *Election) PublicKey() (*paillier.PublicKey, error) {
	sk, err := e.secretKey()
	if err != nil {
		return nil, err
	}
	return sk.PublicKey, nil
}

// RegisterVoter creates an identity key pair and registers its public key.
// The caller must keep the secret key private.
func (e *Election) RegisterVoter() (*group.KeyPair, error) {
	kp := e.group.NewKeyPair(e.rand)
	if err := e.registry.Register(kp.Public); err != nil {
		return nil, err
	}
	return kp, nil
}

// CastVote encrypts vote under the election key, proves it is binary
// under the voter's identity key, and marks the voter as having voted.
func (e *Election) CastVote(kp *group.KeyPair, vote int) (*ballot.EncryptedVote, error) {
	if kp == nil {
		return nil, ErrVoterNotRegistered
	}
	voted, err := e.registry.HasVoted(kp.Public)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrAlreadyVoted
	}
	if vote != 0 && vote != 1 {
		return nil, ErrInvalidVoteValue
	}
	sk, err := e.secretKey()
	if err != nil {
		return nil, err
	}

	ct, err := sk.EncFrom(e.rand, new(saferith.Nat).SetUint64(uint64(vote)))
	if err != nil {
		return nil, fmt.Errorf("voting: encrypt: %w", err)
	}
	proof, err := e.proofs.Prove(kp, uint64(vote), ct)
	if err != nil {
		return nil, fmt.Errorf("voting: prove: %w", err)
	}
	if err = e.registry.MarkVoted(kp.Public); err != nil {
		return nil, err
	}
	return &ballot.EncryptedVote{
		Ciphertext:     ct,
		Proof:          proof,
		VoterPublicKey: new(saferith.Nat).SetNat(kp.Public),
	}, nil
}

// VerifyVote checks the proof of v against publicKey.
// It returns false for unregistered keys, and never modifies the registry.
func (e *Election) VerifyVote(publicKey *saferith.Nat, v *ballot.EncryptedVote) bool {
	if !e.registry.IsRegistered(publicKey) {
		log.Lvl3("election", e.id, ": vote from an unregistered voter")
		return false
	}
	if v == nil {
		return false
	}
	if !e.proofs.Verify(publicKey, v.Ciphertext, v.Proof) {
		log.Lvl3("election", e.id, ": invalid proof")
		return false
	}
	return true
}

// Tally sums all votes homomorphically and decrypts the result.
//
// No proof is checked: callers should only pass votes accepted by VerifyVote,
// duplicates included are counted twice. A vote without a ciphertext is an error.
func (e *Election) Tally(votes []*ballot.EncryptedVote) (*saferith.Nat, error) {
	sk, err := e.secretKey()
	if err != nil {
		return nil, err
	}
	cts := make([]*paillier.Ciphertext, 0, len(votes))
	for i, v := range votes {
		if v == nil {
			continue
		}
		if v.Ciphertext == nil || v.Ciphertext.Nat() == nil {
			return nil, fmt.Errorf("voting: tally: vote %d: missing ciphertext", i)
		}
		cts = append(cts, v.Ciphertext)
	}
	result, err := sk.Dec(sk.Sum(cts...))
	if err != nil {
		return nil, fmt.Errorf("voting: tally: %w", err)
	}
	return result, nil
}

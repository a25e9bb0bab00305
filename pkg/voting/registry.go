package voting

import (
	"sync"
	"sync/atomic"

	"github.com/cronokirby/saferith"
)

// Registry tracks which identities may vote, and whether they have.
//
// A voter goes from unregistered, to registered, to voted. The last transition
// happens at most once, and is atomic for each voter without serializing
// unrelated voters.
type Registry struct {
	mtx    sync.RWMutex
	voters map[string]*atomic.Bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{voters: make(map[string]*atomic.Bool)}
}

func registryKey(publicKey *saferith.Nat) string {
	return string(publicKey.Big().Bytes())
}

func (r *Registry) entry(publicKey *saferith.Nat) (*atomic.Bool, bool) {
	if publicKey == nil {
		return nil, false
	}
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	voted, ok := r.voters[registryKey(publicKey)]
	return voted, ok
}

// Register adds publicKey as a voter who has not voted yet.
func (r *Registry) Register(publicKey *saferith.Nat) error {
	if publicKey == nil {
		return ErrVoterNotRegistered
	}
	key := registryKey(publicKey)
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.voters[key]; ok {
		return ErrAlreadyRegistered
	}
	r.voters[key] = new(atomic.Bool)
	return nil
}

// IsRegistered returns true if publicKey was registered.
func (r *Registry) IsRegistered(publicKey *saferith.Nat) bool {
	_, ok := r.entry(publicKey)
	return ok
}

// HasVoted reports whether publicKey has already cast its vote.
func (r *Registry) HasVoted(publicKey *saferith.Nat) (bool, error) {
	voted, ok := r.entry(publicKey)
	if !ok {
		return false, ErrVoterNotRegistered
	}
	return voted.Load(), nil
}

// MarkVoted flips the voted flag of publicKey from false to true.
// Of several concurrent calls for the same key, exactly one succeeds; the others return ErrAlreadyVoted.
func (r *Registry) MarkVoted(publicKey *saferith.Nat) error {
	voted, ok := r.entry(publicKey)
	if !ok {
		return ErrVoterNotRegistered
	}
	if !voted.CompareAndSwap(false, true) {
		return ErrAlreadyVoted
	}
	return nil
}

// Len returns the number of registered voters.
func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.voters)
}

// Voted returns the number of registered voters who have cast their vote.
func (r *Registry) Voted() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	count := 0
	for _, voted := range r.voters {
		if voted.Load() {
			count++
		}
	}
	return count
}

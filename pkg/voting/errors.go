package voting

import "errors"

var (
	// ErrVoterNotRegistered is returned when a public key is absent from the registry.
	ErrVoterNotRegistered = errors.New("voting: voter not registered")
	// ErrAlreadyVoted is returned when a registered voter tries to cast a second vote.
	ErrAlreadyVoted = errors.New("voting: voter has already cast a vote")
	// ErrInvalidVoteValue is returned for votes other than 0 or 1.
	ErrInvalidVoteValue = errors.New("voting: vote must be 0 or 1")
	// ErrAlreadyRegistered is returned when the same public key is registered twice.
	ErrAlreadyRegistered = errors.New("voting: voter already registered")
	// ErrNotInitialized is returned when the election key has not been generated yet.
	ErrNotInitialized = errors.New("voting: election not initialized")
)

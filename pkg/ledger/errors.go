package ledger

import "errors"

var (
	// ErrMiningTimeout is returned when the context of a mining operation is done before a nonce is found.
	ErrMiningTimeout = errors.New("ledger: mining timed out")
	// ErrMiningExhausted is returned when the attempt ceiling is reached before a nonce is found.
	ErrMiningExhausted = errors.New("ledger: mining attempts exhausted")
	// ErrBlockSealed is returned when mining a block that was already mined.
	ErrBlockSealed = errors.New("ledger: block is already sealed")
	// ErrDifficulty is returned for a difficulty outside [0, 64].
	ErrDifficulty = errors.New("ledger: difficulty must be between 0 and 64")
)

package paillier

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
)

type publicKeyMarshal struct {
	N []byte
}

// MarshalBinary encodes the modulus N, so that the election key can be published.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(&publicKeyMarshal{N: pk.n.Big().Bytes()})
}

// UnmarshalBinary decodes a key produced by MarshalBinary.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	var pm publicKeyMarshal
	if err := cbor.Unmarshal(data, &pm); err != nil {
		return fmt.Errorf("paillier: %w", err)
	}
	if len(pm.N) == 0 {
		return errors.New("paillier: empty modulus")
	}
	n := saferith.ModulusFromBytes(pm.N)
	if err := ValidateN(n); err != nil {
		return err
	}
	*pk = *NewPublicKey(n)
	return nil
}

// ValidateN performs basic checks to make sure the modulus is valid:
// - log₂(n) ≥ 32
// - n is odd.
func ValidateN(n *saferith.Modulus) error {
	if bits := n.BitLen(); bits < 32 {
		return fmt.Errorf("paillier: modulus has only %d bits", bits)
	}
	if n.Big().Bit(0) != 1 {
		return errors.New("paillier: modulus N is even")
	}
	return nil
}

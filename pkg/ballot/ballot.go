// Package ballot holds the immutable records produced when a vote is cast,
// and their canonical encoding.
package ballot

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/vote-ledger/pkg/paillier"
)

// Proof is the challenge-response transcript attached to a vote.
type Proof struct {
	// C = H(p, y, gᵛ, a, b, ct) mod p
	C *saferith.Nat
	// Z = r + c⋅x mod (p-1)
	Z *saferith.Nat
	// R is the commitment randomness, a = gʳ, b = yʳ
	R *saferith.Nat
}

// EncryptedVote is the unit stored in the ledger: an encrypted vote, the proof that it is binary,
// and the identity of the voter who cast it.
type EncryptedVote struct {
	Ciphertext     *paillier.Ciphertext
	Proof          *Proof
	VoterPublicKey *saferith.Nat
}

// Equal returns true if both proofs have the same fields.
func (p *Proof) Equal(other *Proof) bool {
	if p == nil || other == nil {
		return p == other
	}
	return natEqual(p.C, other.C) && natEqual(p.Z, other.Z) && natEqual(p.R, other.R)
}

// Clone returns a deep copy of p.
func (p *Proof) Clone() *Proof {
	return &Proof{C: cloneNat(p.C), Z: cloneNat(p.Z), R: cloneNat(p.R)}
}

// Equal returns true if both votes encode the same bytes.
func (v *EncryptedVote) Equal(other *EncryptedVote) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.Ciphertext.Equal(other.Ciphertext) &&
		v.Proof.Equal(other.Proof) &&
		natEqual(v.VoterPublicKey, other.VoterPublicKey)
}

// Clone returns a deep copy of v.
func (v *EncryptedVote) Clone() *EncryptedVote {
	return &EncryptedVote{
		Ciphertext:     v.Ciphertext.Clone(),
		Proof:          v.Proof.Clone(),
		VoterPublicKey: cloneNat(v.VoterPublicKey),
	}
}

// Validate checks that no field is missing.
func (v *EncryptedVote) Validate() error {
	switch {
	case v == nil:
		return errors.New("ballot: nil vote")
	case v.Ciphertext == nil || v.Ciphertext.Nat() == nil:
		return errors.New("ballot: missing ciphertext")
	case v.Proof == nil || v.Proof.C == nil || v.Proof.Z == nil || v.Proof.R == nil:
		return errors.New("ballot: missing proof")
	case v.VoterPublicKey == nil:
		return errors.New("ballot: missing voter public key")
	}
	return nil
}

// WriteTo implements io.WriterTo, writing the canonical encoding of v.
func (v *EncryptedVote) WriteTo(w io.Writer) (int64, error) {
	data, err := v.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (*EncryptedVote) Domain() string {
	return "Encrypted Vote"
}

// voteMarshal is the canonical form of a vote.
// Every integer is its minimal big-endian encoding, and the struct is encoded as a CBOR array.
type voteMarshal struct {
	_              struct{} `cbor:",toarray"`
	Ciphertext     []byte
	C, Z, R        []byte
	VoterPublicKey []byte
}

var encMode cbor.EncMode

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
}

// MarshalBinary returns the deterministic CBOR encoding of v.
// Two votes with the same values always have the same encoding.
func (v *EncryptedVote) MarshalBinary() ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return encMode.Marshal(&voteMarshal{
		Ciphertext:     v.Ciphertext.Nat().Big().Bytes(),
		C:              v.Proof.C.Big().Bytes(),
		Z:              v.Proof.Z.Big().Bytes(),
		R:              v.Proof.R.Big().Bytes(),
		VoterPublicKey: v.VoterPublicKey.Big().Bytes(),
	})
}

// UnmarshalBinary decodes a vote produced by MarshalBinary.
func (v *EncryptedVote) UnmarshalBinary(data []byte) error {
	var vm voteMarshal
	if err := cbor.Unmarshal(data, &vm); err != nil {
		return fmt.Errorf("ballot: %w", err)
	}
	ct := new(paillier.Ciphertext)
	if err := ct.UnmarshalBinary(vm.Ciphertext); err != nil {
		return fmt.Errorf("ballot: %w", err)
	}
	*v = EncryptedVote{
		Ciphertext: ct,
		Proof: &Proof{
			C: new(saferith.Nat).SetBytes(vm.C),
			Z: new(saferith.Nat).SetBytes(vm.Z),
			R: new(saferith.Nat).SetBytes(vm.R),
		},
		VoterPublicKey: new(saferith.Nat).SetBytes(vm.VoterPublicKey),
	}
	return nil
}

// MarshalVotes returns the canonical encoding of an ordered list of votes, as a CBOR array
// of the individual encodings.
func MarshalVotes(votes []*EncryptedVote) ([]byte, error) {
	raw := make([]cbor.RawMessage, 0, len(votes))
	for i, v := range votes {
		data, err := v.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("ballot: vote %d: %w", i, err)
		}
		raw = append(raw, data)
	}
	return encMode.Marshal(raw)
}

// UnmarshalVotes decodes a list produced by MarshalVotes.
func UnmarshalVotes(data []byte) ([]*EncryptedVote, error) {
	var raw []cbor.RawMessage
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ballot: %w", err)
	}
	votes := make([]*EncryptedVote, 0, len(raw))
	for i, r := range raw {
		v := new(EncryptedVote)
		if err := v.UnmarshalBinary(r); err != nil {
			return nil, fmt.Errorf("ballot: vote %d: %w", i, err)
		}
		votes = append(votes, v)
	}
	return votes, nil
}

func natEqual(a, b *saferith.Nat) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Eq(b) == 1
}

func cloneNat(x *saferith.Nat) *saferith.Nat {
	if x == nil {
		return nil
	}
	return new(saferith.Nat).SetNat(x)
}

package hash

import (
	"bytes"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
)

func TestHash_WriteAny(t *testing.T) {
	var err error

	testFunc := func(vs ...interface{}) error {
		h := New()
		for _, v := range vs {
			err = h.WriteAny(v)
			if err != nil {
				return err
			}
		}
		return nil
	}

	assert.NoError(t, testFunc(new(saferith.Nat).SetUint64(35)))
	assert.NoError(t, testFunc(saferith.ModulusFromUint64(101)))
	assert.NoError(t, testFunc([]byte{1, 4, 6}))
	assert.NoError(t, testFunc(&BytesWithDomain{TheDomain: "test", Bytes: []byte{2}}))

	var i *saferith.Nat
	assert.Error(t, testFunc(i))
	assert.Error(t, testFunc(42))

	assert.NoError(t, testFunc(new(saferith.Nat).SetUint64(35), []byte{1, 4, 6}))
}

func TestHash_NatIgnoresCapacity(t *testing.T) {
	small := new(saferith.Nat).SetUint64(1234)
	wide := new(saferith.Nat).SetUint64(1234).Resize(2048)

	h1, h2 := New(), New()
	assert.NoError(t, h1.WriteAny(small))
	assert.NoError(t, h2.WriteAny(wide))
	assert.True(t, bytes.Equal(h1.Sum(), h2.Sum()))
}

func TestHash_Context(t *testing.T) {
	assert.False(t, bytes.Equal(New("a").Sum(), New("b").Sum()))
	assert.True(t, bytes.Equal(New("a").Sum(), New("a").Sum()))
}

func TestHash_Clone(t *testing.T) {
	h := New()
	_ = h.WriteAny([]byte{1})
	c := h.Clone()
	_ = c.WriteAny([]byte{2})
	assert.False(t, bytes.Equal(h.Sum(), c.Sum()))
}

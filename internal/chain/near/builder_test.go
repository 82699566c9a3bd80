package near

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/dappwallet/internal/core/domain"
)

var (
	testKey    = PublicKey{1, 2, 3, 4, 5}
	testHash   = [32]byte{9, 8, 7, 6, 5, 4, 3, 2, 1}
	testHash58 = base58.Encode(testHash[:])
)

type fakeKeys struct {
	key   *AccessKey
	err   error
	calls int
}

func (f *fakeKeys) AccessKey(context.Context, string, PublicKey) (*AccessKey, error) {
	f.calls++
	return f.key, f.err
}

func testIntent() FunctionCallIntent {
	return FunctionCallIntent{
		SignerID:   "alice.near",
		PublicKey:  testKey,
		ReceiverID: "pool.poolv1.near",
		MethodName: "deposit_and_stake",
		Args:       []byte(`{}`),
		Gas:        30_000_000_000_000,
		Deposit:    uint256.NewInt(123123),
	}
}

func TestBuild_NonceIsFetchedPlusOne(t *testing.T) {
	keys := &fakeKeys{key: &AccessKey{Nonce: 41, BlockHash: testHash58}}

	tx, err := NewBuilder(keys).Build(context.Background(), testIntent())
	require.NoError(t, err)

	assert.EqualValues(t, 42, tx.Nonce)
	assert.Equal(t, testHash, tx.BlockHash)
	require.Len(t, tx.Actions, 1)
	assert.Equal(t, "deposit_and_stake", tx.Actions[0].MethodName)
}

func TestBuild_RefetchesEveryTime(t *testing.T) {
	keys := &fakeKeys{key: &AccessKey{Nonce: 1, BlockHash: testHash58}}
	b := NewBuilder(keys)

	_, err := b.Build(context.Background(), testIntent())
	require.NoError(t, err)
	keys.key = &AccessKey{Nonce: 2, BlockHash: testHash58}
	tx, err := b.Build(context.Background(), testIntent())
	require.NoError(t, err)

	assert.Equal(t, 2, keys.calls)
	assert.EqualValues(t, 3, tx.Nonce)
}

func TestBuild_AccessKeyNotFound(t *testing.T) {
	keys := &fakeKeys{err: domain.ErrAccessKeyNotFound}

	_, err := NewBuilder(keys).Build(context.Background(), testIntent())
	assert.ErrorIs(t, err, domain.ErrAccessKeyNotFound)
}

func TestBuild_BadBlockHash(t *testing.T) {
	keys := &fakeKeys{key: &AccessKey{Nonce: 1, BlockHash: "abc"}}

	_, err := NewBuilder(keys).Build(context.Background(), testIntent())
	assert.Error(t, err)
}

func TestBuild_RequiresGas(t *testing.T) {
	keys := &fakeKeys{}
	intent := testIntent()
	intent.Gas = 0

	_, err := NewBuilder(keys).Build(context.Background(), intent)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Zero(t, keys.calls)
}

func TestMarshalBorsh_Layout(t *testing.T) {
	tx := &Transaction{
		SignerID:   "a.near",
		PublicKey:  testKey,
		Nonce:      42,
		ReceiverID: "b.near",
		BlockHash:  testHash,
		Actions: []FunctionCall{{
			MethodName: "m",
			Args:       []byte{0xAA},
			Gas:        7,
			Deposit:    uint256.NewInt(5),
		}},
	}

	raw, err := tx.MarshalBorsh()
	require.NoError(t, err)

	var want bytes.Buffer
	u32 := func(v uint32) { binary.Write(&want, binary.LittleEndian, v) }
	u64 := func(v uint64) { binary.Write(&want, binary.LittleEndian, v) }
	str := func(s string) {
		u32(uint32(len(s)))
		want.WriteString(s)
	}

	str("a.near")
	want.WriteByte(0)
	want.Write(testKey[:])
	u64(42)
	str("b.near")
	want.Write(testHash[:])
	u32(1)
	want.WriteByte(2)
	str("m")
	u32(1)
	want.WriteByte(0xAA)
	u64(7)
	u64(5)
	u64(0)

	assert.Equal(t, want.Bytes(), raw)
}

func TestMarshalBorsh_LargeDeposit(t *testing.T) {
	deposit, err := ParseDeposit("340282366920938463463374607431768211455") // 2^128-1
	require.NoError(t, err)

	tx := &Transaction{Actions: []FunctionCall{{Deposit: deposit}}}
	raw, err := tx.MarshalBorsh()
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), raw[len(raw)-16:])
}

func TestEncode_Base64(t *testing.T) {
	keys := &fakeKeys{key: &AccessKey{Nonce: 41, BlockHash: testHash58}}
	tx, err := NewBuilder(keys).Build(context.Background(), testIntent())
	require.NoError(t, err)

	encoded, err := Encode(tx)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	direct, err := tx.MarshalBorsh()
	require.NoError(t, err)
	assert.Equal(t, direct, raw)
}

func TestParseDeposit(t *testing.T) {
	v, err := ParseDeposit("")
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = ParseDeposit("1000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000000", v.Dec())

	_, err = ParseDeposit("340282366920938463463374607431768211456") // 2^128
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = ParseDeposit("-1")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestClassifySubmitError(t *testing.T) {
	stale := ClassifySubmitError(&domain.ChainRequestError{Code: -32000, Message: "InvalidTxError: InvalidNonce { tx_nonce: 5, ak_nonce: 9 }"})
	assert.ErrorIs(t, stale, domain.ErrStaleNonce)
	var reqErr *domain.ChainRequestError
	assert.True(t, errors.As(stale, &reqErr))

	other := &domain.ChainRequestError{Code: 4001, Message: "User rejected"}
	assert.Same(t, other, ClassifySubmitError(other))
	assert.Nil(t, ClassifySubmitError(nil))
}

func TestParsePublicKey(t *testing.T) {
	pk, err := ParsePublicKey(testKey.String())
	require.NoError(t, err)
	assert.Equal(t, testKey, pk)

	bare, err := ParsePublicKey(base58.Encode(testKey[:]))
	require.NoError(t, err)
	assert.Equal(t, testKey, bare)

	_, err = ParsePublicKey("secp256k1:abc")
	assert.Error(t, err)
	_, err = ParsePublicKey("ed25519:abc")
	assert.Error(t, err)
}

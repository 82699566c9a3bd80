package near

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"
)

// actionFunctionCall is the Borsh enum tag of Action::FunctionCall.
const actionFunctionCall uint8 = 2

// FunctionCall is the only action this package emits.
type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    *uint256.Int
}

// Transaction is an unsigned NEAR transaction.
type Transaction struct {
	SignerID   string
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []FunctionCall
}

// MarshalBorsh encodes the transaction in NEAR's Borsh layout.
func (tx *Transaction) MarshalBorsh() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	writeString(enc, tx.SignerID)
	_ = enc.WriteUint8(KeyTypeED25519)
	_ = enc.WriteBytes(tx.PublicKey[:], false)
	_ = enc.WriteUint64(tx.Nonce, binary.LittleEndian)
	writeString(enc, tx.ReceiverID)
	_ = enc.WriteBytes(tx.BlockHash[:], false)

	_ = enc.WriteUint32(uint32(len(tx.Actions)), binary.LittleEndian)
	for _, action := range tx.Actions {
		if err := writeFunctionCall(enc, action); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeFunctionCall(enc *bin.Encoder, fc FunctionCall) error {
	deposit := fc.Deposit
	if deposit == nil {
		deposit = new(uint256.Int)
	}
	if deposit.BitLen() > 128 {
		return fmt.Errorf("deposit %s overflows u128", deposit.Dec())
	}

	_ = enc.WriteUint8(actionFunctionCall)
	writeString(enc, fc.MethodName)
	_ = enc.WriteUint32(uint32(len(fc.Args)), binary.LittleEndian)
	_ = enc.WriteBytes(fc.Args, false)
	_ = enc.WriteUint64(fc.Gas, binary.LittleEndian)
	// u128 little endian: low limb first.
	_ = enc.WriteUint64(deposit[0], binary.LittleEndian)
	_ = enc.WriteUint64(deposit[1], binary.LittleEndian)
	return nil
}

func writeString(enc *bin.Encoder, s string) {
	_ = enc.WriteUint32(uint32(len(s)), binary.LittleEndian)
	_ = enc.WriteBytes([]byte(s), false)
}

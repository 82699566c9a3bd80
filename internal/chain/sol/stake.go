package sol

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// StakeStateSize is the account size the stake program expects.
const StakeStateSize uint64 = 200

// Instruction indexes of the native programs.
const (
	systemCreateAccountWithSeed uint32 = 3
	stakeInitialize             uint32 = 0
	stakeDelegate               uint32 = 2
)

var (
	sysvarRent         = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	sysvarClock        = solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111")
	sysvarStakeHistory = solana.MustPublicKeyFromBase58("SysvarStakeHistory1111111111111111111111111")
	stakeConfig        = solana.MustPublicKeyFromBase58("StakeConfig11111111111111111111111111111111")
)

// DeriveStakeAddress returns the stake account address owned by the stake
// program for (base, seed). It is a pure function.
func DeriveStakeAddress(base solana.PublicKey, seed string) (solana.PublicKey, error) {
	return solana.CreateWithSeed(base, seed, solana.StakeProgramID)
}

// createAccountWithSeedInstruction funds and allocates stakeAccount from base.
// Format: [u32 index][32 base][u64 len + seed][u64 lamports][u64 space][32 owner]
func createAccountWithSeedInstruction(
	funder, stakeAccount, base solana.PublicKey,
	seed string,
	lamports uint64,
) solana.Instruction {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint32(systemCreateAccountWithSeed, binary.LittleEndian)
	_ = enc.WriteBytes(base.Bytes(), false)
	_ = enc.WriteUint64(uint64(len(seed)), binary.LittleEndian)
	_ = enc.WriteBytes([]byte(seed), false)
	_ = enc.WriteUint64(lamports, binary.LittleEndian)
	_ = enc.WriteUint64(StakeStateSize, binary.LittleEndian)
	_ = enc.WriteBytes(solana.StakeProgramID.Bytes(), false)

	accounts := []*solana.AccountMeta{
		{PublicKey: funder, IsWritable: true, IsSigner: true},
		{PublicKey: stakeAccount, IsWritable: true, IsSigner: false},
	}
	if !base.Equals(funder) {
		accounts = append(accounts, &solana.AccountMeta{PublicKey: base, IsWritable: false, IsSigner: true})
	}

	return solana.NewInstruction(solana.SystemProgramID, accounts, buf.Bytes())
}

// initializeStakeInstruction sets staker and withdrawer with a zero lockup.
// Format: [u32 index][32 staker][32 withdrawer][i64 unix_ts][u64 epoch][32 custodian]
func initializeStakeInstruction(stakeAccount, staker, withdrawer solana.PublicKey) solana.Instruction {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint32(stakeInitialize, binary.LittleEndian)
	_ = enc.WriteBytes(staker.Bytes(), false)
	_ = enc.WriteBytes(withdrawer.Bytes(), false)
	_ = enc.WriteInt64(0, binary.LittleEndian)
	_ = enc.WriteUint64(0, binary.LittleEndian)
	_ = enc.WriteBytes(solana.PublicKey{}.Bytes(), false)

	return solana.NewInstruction(
		solana.StakeProgramID,
		[]*solana.AccountMeta{
			{PublicKey: stakeAccount, IsWritable: true, IsSigner: false},
			{PublicKey: sysvarRent, IsWritable: false, IsSigner: false},
		},
		buf.Bytes(),
	)
}

// delegateStakeInstruction binds stakeAccount to a validator vote account.
func delegateStakeInstruction(stakeAccount, vote, authority solana.PublicKey) solana.Instruction {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, stakeDelegate)

	return solana.NewInstruction(
		solana.StakeProgramID,
		[]*solana.AccountMeta{
			{PublicKey: stakeAccount, IsWritable: true, IsSigner: false},
			{PublicKey: vote, IsWritable: false, IsSigner: false},
			{PublicKey: sysvarClock, IsWritable: false, IsSigner: false},
			{PublicKey: sysvarStakeHistory, IsWritable: false, IsSigner: false},
			{PublicKey: stakeConfig, IsWritable: false, IsSigner: false},
			{PublicKey: authority, IsWritable: false, IsSigner: true},
		},
		data,
	)
}

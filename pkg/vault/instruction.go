package vault

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/minio/sha256-simd"
)

// Instruction is either a Deposit or a Withdraw.
type Instruction interface {
	isInstruction()
	String() string
}

// Deposit moves Amount lamports from the owner into the vault.
type Deposit struct {
	Amount uint64
}

// Withdraw drains the whole vault back to the owner.
type Withdraw struct{}

func (Deposit) isInstruction()  {}
func (Withdraw) isInstruction() {}

func (d Deposit) String() string {
	return fmt.Sprintf("Deposit(%d)", d.Amount)
}

func (Withdraw) String() string {
	return "Withdraw"
}

const vaultActionIxName = "vault_action"

// VaultActionDiscriminator prefixes the instruction data: the first 8 bytes
// of sha256("global:vault_action").
var VaultActionDiscriminator = func() [8]byte {
	var disc [8]byte
	sum := sha256.Sum256([]byte("global:" + vaultActionIxName))
	copy(disc[:], sum[:8])
	return disc
}()

const instructionDataLen = 8 + 1 + 8

// EncodeInstruction serializes instr as vault_action(deposit: bool, amount: u64).
// Withdraw is sent with a zero amount.
func EncodeInstruction(instr Instruction) ([]byte, error) {
	writer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(writer)

	_ = encoder.WriteBytes(VaultActionDiscriminator[:], false)

	switch ix := instr.(type) {
	case Deposit:
		_ = encoder.WriteBool(true)
		_ = encoder.WriteUint64(ix.Amount, bin.LE)
	case Withdraw:
		_ = encoder.WriteBool(false)
		_ = encoder.WriteUint64(0, bin.LE)
	default:
		return nil, fmt.Errorf("unknown vault instruction %T", instr)
	}

	return writer.Bytes(), nil
}

// DecodeInstruction parses vault_action instruction data. The amount carried
// by a withdraw is ignored.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) != instructionDataLen {
		return nil, ErrInvalidInstructionData
	}

	decoder := bin.NewBinDecoder(data)

	disc, err := decoder.ReadNBytes(8)
	if err != nil || !bytes.Equal(disc, VaultActionDiscriminator[:]) {
		return nil, ErrInvalidInstructionData
	}

	flag, err := decoder.ReadByte()
	if err != nil || flag > 1 {
		return nil, ErrInvalidInstructionData
	}

	amount, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return nil, ErrInvalidInstructionData
	}

	if flag == 1 {
		return Deposit{Amount: amount}, nil
	}
	return Withdraw{}, nil
}

package bank

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Overclock-Validator/vault/pkg/vault"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidSignature  = errors.New("ErrInvalidSignature")
	ErrMissingSignatures = errors.New("ErrMissingSignatures")
	ErrWrongProgram      = errors.New("ErrWrongProgram")
)

// Message is the signed part of a vault request. Signers lists the keys
// expected to sign, the owner first.
type Message struct {
	ProgramID solana.PublicKey
	Signers   []solana.PublicKey
	Owner     solana.PublicKey
	Vault     solana.PublicKey
	Data      []byte
}

func (m *Message) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteBytes(m.ProgramID[:], false)
	_ = encoder.WriteUint8(uint8(len(m.Signers)))
	for _, signer := range m.Signers {
		_ = encoder.WriteBytes(signer[:], false)
	}
	_ = encoder.WriteBytes(m.Owner[:], false)
	_ = encoder.WriteBytes(m.Vault[:], false)
	return encoder.WriteBytes(m.Data, true)
}

func (m *Message) Marshal() ([]byte, error) {
	if len(m.Signers) > 255 {
		return nil, fmt.Errorf("too many signers: %d", len(m.Signers))
	}
	writer := new(bytes.Buffer)
	if err := m.MarshalWithEncoder(bin.NewBinEncoder(writer)); err != nil {
		return nil, err
	}
	return writer.Bytes(), nil
}

type Transaction struct {
	Message    Message
	Signatures []solana.Signature
}

// NewTransaction builds an unsigned request from owner against vaultAddr.
func NewTransaction(programID solana.PublicKey, owner solana.PublicKey, vaultAddr solana.PublicKey, instr vault.Instruction) (*Transaction, error) {
	data, err := vault.EncodeInstruction(instr)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		Message: Message{
			ProgramID: programID,
			Signers:   []solana.PublicKey{owner},
			Owner:     owner,
			Vault:     vaultAddr,
			Data:      data,
		},
	}, nil
}

// Sign signs the message with every key listed in Message.Signers, in order.
// Each listed signer must have a matching private key among keys.
func (tx *Transaction) Sign(keys ...solana.PrivateKey) error {
	msg, err := tx.Message.Marshal()
	if err != nil {
		return err
	}

	byPubkey := make(map[solana.PublicKey]solana.PrivateKey, len(keys))
	for _, key := range keys {
		byPubkey[key.PublicKey()] = key
	}

	tx.Signatures = make([]solana.Signature, len(tx.Message.Signers))
	for idx, signer := range tx.Message.Signers {
		key, ok := byPubkey[signer]
		if !ok {
			return fmt.Errorf("no private key for signer %s", signer)
		}
		tx.Signatures[idx], err = key.Sign(msg)
		if err != nil {
			return err
		}
	}

	return nil
}

// VerifySignatures checks every signature against its listed signer and
// returns the verified signer set.
func (tx *Transaction) VerifySignatures() ([]solana.PublicKey, error) {
	if len(tx.Signatures) == 0 || len(tx.Signatures) != len(tx.Message.Signers) {
		return nil, ErrMissingSignatures
	}

	msg, err := tx.Message.Marshal()
	if err != nil {
		return nil, err
	}

	for idx, signer := range tx.Message.Signers {
		if !tx.Signatures[idx].Verify(signer, msg) {
			return nil, ErrInvalidSignature
		}
	}

	return tx.Message.Signers, nil
}

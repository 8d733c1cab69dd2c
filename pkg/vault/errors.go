package vault

import (
	"errors"
	"fmt"
)

// VaultError is a terminal rejection of a vault request. Codes follow the
// custom program error range starting at 6000.
type VaultError struct {
	Code uint32
	Name string
}

func (e *VaultError) Error() string {
	return e.Name
}

var (
	VaultErrUnauthorized       = &VaultError{Code: 6000, Name: "VaultErrUnauthorized"}
	VaultErrAddressMismatch    = &VaultError{Code: 6001, Name: "VaultErrAddressMismatch"}
	VaultErrInvalidAmount      = &VaultError{Code: 6002, Name: "VaultErrInvalidAmount"}
	VaultErrInsufficientFunds  = &VaultError{Code: 6003, Name: "VaultErrInsufficientFunds"}
	VaultErrBelowReserve       = &VaultError{Code: 6004, Name: "VaultErrBelowReserve"}
	VaultErrNothingToWithdraw  = &VaultError{Code: 6005, Name: "VaultErrNothingToWithdraw"}
	VaultErrArithmeticOverflow = &VaultError{Code: 6006, Name: "VaultErrArithmeticOverflow"}
	VaultErrNoValidBumpFound   = &VaultError{Code: 6007, Name: "VaultErrNoValidBumpFound"}
)

var allErrors = []*VaultError{
	VaultErrUnauthorized,
	VaultErrAddressMismatch,
	VaultErrInvalidAmount,
	VaultErrInsufficientFunds,
	VaultErrBelowReserve,
	VaultErrNothingToWithdraw,
	VaultErrArithmeticOverflow,
	VaultErrNoValidBumpFound,
}

var ErrInvalidInstructionData = errors.New("ErrInvalidInstructionData")

// ErrorFromCode maps a wire error code back to its VaultError.
func ErrorFromCode(code uint32) (*VaultError, error) {
	for _, e := range allErrors {
		if e.Code == code {
			return e, nil
		}
	}
	return nil, fmt.Errorf("unknown vault error code %d", code)
}

// CodeOf extracts the VaultError code from err, if it wraps one.
func CodeOf(err error) (uint32, bool) {
	var vaultErr *VaultError
	if errors.As(err, &vaultErr) {
		return vaultErr.Code, true
	}
	return 0, false
}

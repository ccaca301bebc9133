package wallet

import (
	"errors"
	"fmt"
	"strings"
)

// CodeUserRejected is the EIP-1193 error code a signer returns when the
// user declines the signature prompt.
const CodeUserRejected = 4001

// Error is a signer/provider failure carrying the wallet's error code.
type Error struct {
	Code    int
	Name    string
	Message string
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("wallet error %d (%s): %s", e.Code, e.Name, e.Message)
	}
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

// NewRejection builds the error a provider returns on user rejection.
func NewRejection() *Error {
	return &Error{Code: CodeUserRejected, Message: "user rejected the request"}
}

// IsRejection reports whether err is the user declining to sign.
// Rejections are silent cancellations: no ledger entry, no error banner.
func IsRejection(err error) bool {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Code == CodeUserRejected
	}
	return false
}

// signature matches one recognizable environment error and maps it to an
// actionable message.
type signature struct {
	match   func(err error) bool
	message string
}

// errorSignatures is the table of known hardware/environment
// incompatibilities. Unmatched errors fall through to a generic message.
var errorSignatures = []signature{
	{
		match: func(err error) bool {
			var werr *Error
			return errors.As(err, &werr) && werr.Name == "EthAppPleaseEnableContractData"
		},
		message: `Contract data not enabled. Go to Ethereum app Settings and set "Contract Data" to "Allowed"`,
	},
	{
		match: func(err error) bool {
			return strings.Contains(err.Error(), "Failed to sign with Ledger device: U2F DEVICE_INELIGIBLE")
		},
		message: "Can not detect Ledger device. Please make sure your Ledger is unlocked and the Ethereum app is open.",
	},
}

// GenericFailureMessage is shown when no signature matches.
const GenericFailureMessage = "Transaction failed. Please try again."

// Explain translates a signer failure into a user-facing message.
func Explain(err error) string {
	if err == nil {
		return ""
	}
	for _, sig := range errorSignatures {
		if sig.match(err) {
			return sig.message
		}
	}
	return GenericFailureMessage
}

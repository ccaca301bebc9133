// Package flow holds the two state machines that drive a trade to
// completion: one allowance-raising approval and one swap execution.
//
// Every signer failure is absorbed at this boundary and converted into a
// state transition plus a ledger/telemetry side effect. Nothing here is
// fatal; each failure returns the flow to an interactive state.
package flow

import "time"

// State is the single active state of one in-progress flow.
type State string

const (
	StateIdle                 State = "idle"
	StateSubmitting           State = "submitting"
	StateAwaitingSignature    State = "awaiting-user-signature"
	StateAwaitingConfirmation State = "awaiting-network-confirmation"
	StateConfirmed            State = "confirmed"
)

func (s State) String() string {
	return string(s)
}

// ResetPolicy compensates for signers that fail to report a rejection.
// At least one mobile wallet integration swallows the rejection signal,
// leaving the flow stuck awaiting a signature that will never come.
// After ForceResetAfter the flow forces itself back to idle regardless
// of outcome. This is a known limitation, not a correctness guarantee:
// a signature that lands after the reset is still tracked normally.
// Zero disables the reset.
type ResetPolicy struct {
	ForceResetAfter time.Duration
}

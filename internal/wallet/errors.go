// ABOUTME: Error types for wallet tools
// ABOUTME: Carry the ceiling or the downstream failure for error reporting

package wallet

import (
	"fmt"
	"strconv"
)

// AmountExceedsMaxError rejects transfers above the configured ceiling.
type AmountExceedsMaxError struct {
	Amount float64
	Max    float64
}

func (e *AmountExceedsMaxError) Error() string {
	return fmt.Sprintf("amountSol %s exceeds the configured maximum of %s SOL",
		strconv.FormatFloat(e.Amount, 'f', -1, 64), strconv.FormatFloat(e.Max, 'f', -1, 64))
}

// TransferExecutionError wraps a failure of the funds-movement collaborator.
type TransferExecutionError struct {
	Err error
}

func (e *TransferExecutionError) Error() string {
	return "transfer execution failed: " + e.Err.Error()
}

func (e *TransferExecutionError) Unwrap() error { return e.Err }

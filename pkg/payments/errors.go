package payments

import "fmt"

// ConflictError reports a settlement whose transaction id contradicts an
// already-completed payment record for the same order.
type ConflictError struct {
	OrderID  string
	Existing string
	Incoming string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("settlement conflict for order %s: recorded transaction %q, got %q",
		e.OrderID, e.Existing, e.Incoming)
}

// ExternalProviderError wraps a provider-side failure: unknown provider,
// bad signature, unreachable status endpoint.
type ExternalProviderError struct {
	Provider string
	Err      error
}

func (e ExternalProviderError) Error() string {
	return fmt.Sprintf("payment provider %s: %v", e.Provider, e.Err)
}

func (e ExternalProviderError) Unwrap() error {
	return e.Err
}

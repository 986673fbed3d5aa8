package payment

import "context"

// StatusSuccessful is the gateway status a charge must report before
// any settlement effect is applied.
const StatusSuccessful = "successful"

// Verification is the gateway's answer for a charge reference. The
// settlement engine compares AmountCents against the stored net price
// before crediting anything.
type Verification struct {
	Status      string
	AmountCents int64
}

// Gateway abstracts the payment provider. The production
// implementation talks to Omise; tests substitute a stub.
type Gateway interface {
	// Initialize creates a charge for amountCents and returns the URL
	// the tenant must visit to authorize it.
	Initialize(ctx context.Context, email string, amountCents int64, returnURI string) (string, error)
	// Verify fetches the charge behind reference.
	Verify(ctx context.Context, reference string) (*Verification, error)
}

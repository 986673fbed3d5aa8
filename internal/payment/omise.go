package payment

import (
	"context"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// OmiseGateway implements Gateway on top of the Omise SDK. Amounts are
// passed through in minor currency units, which is also what Omise
// expects.
type OmiseGateway struct {
	client     *omise.Client
	currency   string
	sourceType string
}

// NewOmiseGateway builds a gateway from the public/secret key pair.
func NewOmiseGateway(publicKey, secretKey, currency, sourceType string) (*OmiseGateway, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	c.SetDebug(false)
	if currency == "" {
		currency = "thb"
	}
	if sourceType == "" {
		sourceType = "promptpay"
	}
	return &OmiseGateway{client: c, currency: currency, sourceType: sourceType}, nil
}

// Initialize creates a source and a charge for it, returning the
// authorization URL the tenant completes the payment at. Channels
// without a redirect step (promptpay) fall back to the return URI
// carrying the charge id as the reference.
func (g *OmiseGateway) Initialize(ctx context.Context, email string, amountCents int64, returnURI string) (string, error) {
	src := &omise.Source{}
	if err := g.client.Do(src, &operations.CreateSource{
		Type:     g.sourceType,
		Amount:   amountCents,
		Currency: g.currency,
	}); err != nil {
		return "", fmt.Errorf("create source: %w", err)
	}

	ch := &omise.Charge{}
	if err := g.client.Do(ch, &operations.CreateCharge{
		Amount:    amountCents,
		Currency:  g.currency,
		Source:    src.ID,
		ReturnURI: returnURI,
		Metadata:  map[string]any{"email": email},
	}); err != nil {
		return "", fmt.Errorf("create charge: %w", err)
	}

	if ch.AuthorizeURI != "" {
		return ch.AuthorizeURI, nil
	}
	return fmt.Sprintf("%s?reference=%s", returnURI, ch.ID), nil
}

// Verify retrieves the charge behind reference and reports its status
// and amount as recorded by Omise.
func (g *OmiseGateway) Verify(ctx context.Context, reference string) (*Verification, error) {
	ch := &omise.Charge{}
	if err := g.client.Do(ch, &operations.RetrieveCharge{ChargeID: reference}); err != nil {
		return nil, fmt.Errorf("retrieve charge: %w", err)
	}
	return &Verification{Status: string(ch.Status), AmountCents: ch.Amount}, nil
}

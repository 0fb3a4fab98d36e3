package payments

import (
	"context"

	"github.com/example/shopcore/pkg/models"
)

// Attempt is what the caller needs to send the customer to the provider:
// a redirect URL for return-style providers, or QR payload for scan-to-pay
// providers. Exactly one of the two is set.
type Attempt struct {
	Provider    string `json:"provider"`
	RedirectURL string `json:"redirect_url,omitempty"`
	QRContent   string `json:"qr_content,omitempty"`
}

// Outcome is the provider-agnostic result of verifying a callback or
// polling a status endpoint. OrderRef carries the order number the
// provider echoed back. Raw keeps the full provider payload for the
// payment record blob.
type Outcome struct {
	OrderRef      string
	TransactionID string
	Succeeded     bool
	Pending       bool
	Code          string
	Reason        string
	Raw           map[string]string
}

// Provider is one external settlement integration. Implementations are
// constructed once at startup and injected into the gateway; signature
// schemes and payload shapes stay behind this interface.
type Provider interface {
	Name() string
	CreateAttempt(ctx context.Context, order *models.Order, amount float64) (*Attempt, error)
	VerifyCallback(ctx context.Context, params map[string]string) (*Outcome, error)
}

// Poller is implemented by providers whose confirmation is pull-based
// (QR payments) rather than callback-based.
type Poller interface {
	PollStatus(ctx context.Context, orderRef string) (*Outcome, error)
}

package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/models"
)

const qPayName = "qpay"

// QPay is a scan-to-pay provider: CreateAttempt yields QR content for the
// customer's wallet app and confirmation is pull-based through the
// provider's status endpoint. Server notifications are authenticated by a
// shared API key rather than a signature.
type QPay struct {
	merchantID string
	apiKey     string
	baseURL    string
	client     *http.Client
}

func NewQPay(cfg config.QPayConfig) *QPay {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QPay{
		merchantID: cfg.MerchantID,
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		client:     &http.Client{Timeout: timeout},
	}
}

func (p *QPay) Name() string {
	return qPayName
}

func (p *QPay) CreateAttempt(ctx context.Context, order *models.Order, amount float64) (*Attempt, error) {
	return &Attempt{
		Provider:  qPayName,
		QRContent: fmt.Sprintf("qpay://%s/%s/%.2f", p.merchantID, order.OrderNumber, amount),
	}, nil
}

func (p *QPay) VerifyCallback(ctx context.Context, params map[string]string) (*Outcome, error) {
	if params["api_key"] != p.apiKey {
		return nil, errors.New("invalid api key")
	}
	return outcomeFromStatus(params["order_ref"], params["status"], params["transaction_id"], params), nil
}

// qpayStatusResponse is the provider's status endpoint payload.
type qpayStatusResponse struct {
	OrderRef      string `json:"order_ref"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// PollStatus asks the provider whether the QR payment for orderRef went
// through yet.
func (p *QPay) PollStatus(ctx context.Context, orderRef string) (*Outcome, error) {
	endpoint := fmt.Sprintf("%s/v1/status?merchant_id=%s&order_ref=%s",
		p.baseURL, url.QueryEscape(p.merchantID), url.QueryEscape(orderRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var body qpayStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	raw := map[string]string{
		"order_ref":      body.OrderRef,
		"status":         body.Status,
		"transaction_id": body.TransactionID,
		"message":        body.Message,
	}
	return outcomeFromStatus(body.OrderRef, body.Status, body.TransactionID, raw), nil
}

func outcomeFromStatus(orderRef, status, transactionID string, raw map[string]string) *Outcome {
	out := &Outcome{
		OrderRef:      orderRef,
		TransactionID: transactionID,
		Code:          status,
		Raw:           raw,
	}
	switch status {
	case "paid":
		out.Succeeded = true
	case "pending":
		out.Pending = true
	default:
		out.Reason = raw["message"]
	}
	return out
}

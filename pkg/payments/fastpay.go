package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/models"
)

const (
	fastPayName        = "fastpay"
	fastPaySuccessCode = "00"
)

// FastPay is a redirect-return provider. The customer is sent to the
// provider's pay page with a signed query string; the provider redirects
// back (and server-notifies) with a signed result. Both directions use
// HMAC-SHA256 over the sorted parameters.
type FastPay struct {
	merchantID string
	secret     []byte
	payURL     string
	returnURL  string
}

func NewFastPay(cfg config.FastPayConfig) *FastPay {
	return &FastPay{
		merchantID: cfg.MerchantID,
		secret:     []byte(cfg.Secret),
		payURL:     cfg.PayURL,
		returnURL:  cfg.ReturnURL,
	}
}

func (p *FastPay) Name() string {
	return fastPayName
}

func (p *FastPay) CreateAttempt(ctx context.Context, order *models.Order, amount float64) (*Attempt, error) {
	params := map[string]string{
		"merchant_id": p.merchantID,
		"order_ref":   order.OrderNumber,
		"amount":      fmt.Sprintf("%.2f", amount),
		"return_url":  p.returnURL,
	}
	params["signature"] = p.sign(params)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return &Attempt{
		Provider:    fastPayName,
		RedirectURL: p.payURL + "?" + values.Encode(),
	}, nil
}

func (p *FastPay) VerifyCallback(ctx context.Context, params map[string]string) (*Outcome, error) {
	got, ok := params["signature"]
	if !ok {
		return nil, errors.New("missing signature")
	}

	unsigned := make(map[string]string, len(params)-1)
	for k, v := range params {
		if k != "signature" {
			unsigned[k] = v
		}
	}
	if !hmac.Equal([]byte(got), []byte(p.sign(unsigned))) {
		return nil, errors.New("signature mismatch")
	}

	code := params["resp_code"]
	return &Outcome{
		OrderRef:      params["order_ref"],
		TransactionID: params["txn_id"],
		Succeeded:     code == fastPaySuccessCode,
		Code:          code,
		Reason:        params["message"],
		Raw:           params,
	}, nil
}

// sign computes the HMAC-SHA256 hex digest over "k=v" pairs joined by "&"
// in ascending key order, the scheme the provider documents.
func (p *FastPay) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

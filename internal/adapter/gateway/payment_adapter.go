package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rl1809/booking-market/internal/core/domain"
)

const (
	intentsPath      = "/v1/payment_intents"
	defaultTolerance = 5 * time.Minute
)

var (
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrSignatureExpired   = errors.New("signature timestamp outside tolerance")
)

// PaymentAdapter talks to a Stripe-style payment processor: create an
// intent over HTTPS, verify webhook deliveries via the signed
// timestamp scheme (t=<unix>,v1=<hex hmac-sha256 of "<t>.<payload>">).
type PaymentAdapter struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	client        *http.Client
	tolerance     time.Duration
	now           func() time.Time
}

func NewPaymentAdapter(baseURL, secretKey, webhookSecret string, timeout time.Duration) *PaymentAdapter {
	return &PaymentAdapter{
		baseURL:       strings.TrimRight(baseURL, "/"),
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: timeout},
		tolerance:     defaultTolerance,
		now:           time.Now,
	}
}

type createIntentRequest struct {
	AmountCents int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
	LineItems   []intentLineItem  `json:"line_items"`
}

type intentLineItem struct {
	SKUID          string `json:"sku_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type createIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

func (a *PaymentAdapter) CreateIntent(ctx context.Context, amountCents int64, currency, customerID string, lines []domain.Reservation) (*domain.PaymentIntent, error) {
	items := make([]intentLineItem, 0, len(lines))
	for _, r := range lines {
		items = append(items, intentLineItem{SKUID: r.SKUID, Quantity: r.Quantity, UnitPriceCents: r.UnitPriceCents})
	}
	body, err := json.Marshal(createIntentRequest{
		AmountCents: amountCents,
		Currency:    currency,
		Metadata:    map[string]string{"customer_id": customerID},
		LineItems:   items,
	})
	if err != nil {
		return nil, fmt.Errorf("encode intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+intentsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.secretKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read intent response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create intent: gateway returned %d: %s", resp.StatusCode, data)
	}

	var out createIntentResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}
	if out.ID == "" || out.ClientSecret == "" {
		return nil, fmt.Errorf("intent response missing id or client_secret")
	}
	return &domain.PaymentIntent{
		ID:           out.ID,
		ClientSecret: out.ClientSecret,
		AmountCents:  amountCents,
		Currency:     currency,
		CustomerID:   customerID,
	}, nil
}

// VerifySignature checks the Signature header against the shared
// webhook secret. The timestamp is part of the signed content, so a
// captured delivery cannot be replayed past the tolerance window.
func (a *PaymentAdapter) VerifySignature(payload []byte, sigHeader string) error {
	var ts int64
	var candidates [][]byte

	for _, part := range strings.Split(sigHeader, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp %q", ErrMalformedSignature, v)
			}
			ts = n
		case "v1":
			sig, err := hex.DecodeString(v)
			if err != nil {
				continue
			}
			candidates = append(candidates, sig)
		}
	}
	if ts == 0 || len(candidates) == 0 {
		return ErrMalformedSignature
	}

	age := a.now().Sub(time.Unix(ts, 0))
	if age > a.tolerance || age < -a.tolerance {
		return ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range candidates {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

// Sign produces a valid Signature header for a payload. Used by the
// stress client and tests to play the gateway's role.
func Sign(secret string, payload []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

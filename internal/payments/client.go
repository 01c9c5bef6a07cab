// Package payments talks to the external payment gateway. The gateway is the
// source of truth for whether a checkout session settled; nothing here mutates
// payment state.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"beatvault/internal/fulfillment"
	dErrors "beatvault/pkg/domain-errors"
)

// Client fetches checkout-session confirmations over HTTP.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, secretKey: secretKey, httpClient: httpClient}
}

// Confirm retrieves the payment confirmation for a checkout session
// reference. Transport failures are internal errors; the not-paid decision
// belongs to the orchestrator, which inspects the returned status.
func (c *Client) Confirm(ctx context.Context, sessionRef string) (*fulfillment.PaymentConfirmation, error) {
	endpoint := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, url.PathEscape(sessionRef))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "build confirmation request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "confirm payment session", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotPaid, "unknown payment session")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("payment gateway returned status %d", resp.StatusCode))
	}

	var confirmation fulfillment.PaymentConfirmation
	if err := json.NewDecoder(resp.Body).Decode(&confirmation); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "decode payment confirmation", err)
	}
	return &confirmation, nil
}

package banks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Client fetches the bank directory from a VietQR compatible API.
type Client struct {
	url    string
	client *http.Client
}

type remoteBank struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Code              string `json:"code"`
	BIN               string `json:"bin"`
	ShortName         string `json:"shortName"`
	Logo              string `json:"logo"`
	TransferSupported int    `json:"transferSupported"`
}

type remoteResponse struct {
	Code string       `json:"code"`
	Desc string       `json:"desc"`
	Data []remoteBank `json:"data"`
}

// NewClient creates a client for url, e.g. https://api.vietqr.io/v2/banks.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
}

// Fetch downloads the banks that support transfers.
func (c *Client) Fetch(ctx context.Context) ([]Bank, error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("external.service", "bank-directory"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call bank directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bank directory returned status %d", resp.StatusCode)
	}

	var body remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode bank directory: %w", err)
	}
	if body.Code != "" && body.Code != "00" {
		return nil, fmt.Errorf("bank directory error %s: %s", body.Code, body.Desc)
	}

	out := make([]Bank, 0, len(body.Data))
	for _, b := range body.Data {
		if b.TransferSupported == 0 || b.BIN == "" {
			continue
		}
		out = append(out, Bank{
			ID:        b.ID,
			Name:      b.Name,
			Code:      b.Code,
			BIN:       b.BIN,
			ShortName: b.ShortName,
			Logo:      b.Logo,
		})
	}
	span.SetAttributes(attribute.Int("bank_directory.count", len(out)))
	return out, nil
}

// Refresh fetches the remote list and replaces the directory contents.
func (c *Client) Refresh(ctx context.Context, d *Directory) (int, error) {
	list, err := c.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	d.Replace(list)
	return len(list), nil
}

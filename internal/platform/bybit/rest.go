// Package bybit implements the venue adapters: the v5 public-stream feed
// connection and the REST instruments client used once at startup to build
// the cycle catalog.
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// InstrumentsClient fetches the tradeable spot symbol universe from the v5
// market API. It is used only during catalog construction, never on the
// hot path.
type InstrumentsClient struct {
	baseURL string
	client  *http.Client
}

// NewInstrumentsClient creates a client for the given REST base URL, e.g.
// "https://api.bybit.com".
func NewInstrumentsClient(baseURL string) *InstrumentsClient {
	return &InstrumentsClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type instrumentsResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol string `json:"symbol"`
			Status string `json:"status"`
		} `json:"list"`
	} `json:"result"`
}

// SpotSymbols returns every spot symbol currently in "Trading" status.
func (c *InstrumentsClient) SpotSymbols(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/v5/market/instruments-info?%s", c.baseURL,
		url.Values{"category": {"spot"}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("bybit: create instruments request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bybit: fetch instruments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("bybit: instruments status %d: %s", resp.StatusCode, string(body))
	}

	var decoded instrumentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("bybit: decode instruments: %w", err)
	}
	if decoded.RetCode != 0 {
		return nil, fmt.Errorf("bybit: instruments error %d: %s", decoded.RetCode, decoded.RetMsg)
	}

	symbols := make([]string, 0, len(decoded.Result.List))
	for _, inst := range decoded.Result.List {
		if inst.Status == "Trading" {
			symbols = append(symbols, inst.Symbol)
		}
	}
	return symbols, nil
}

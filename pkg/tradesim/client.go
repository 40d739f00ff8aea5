// Package tradesim is a Go client for the tradesim-server HTTP API.
package tradesim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides a Go SDK for interacting with the tradesim-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new tradesim API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is returned for non-success responses other than order
// rejections.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tradesim: %d %s", e.StatusCode, e.Message)
}

// GetAccount retrieves the account snapshot.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var a Account
	if err := c.do(ctx, http.MethodGet, "/api/v1/account", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetPositions retrieves current holdings in acquisition order.
func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	var p []Position
	if err := c.do(ctx, http.MethodGet, "/api/v1/positions", nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// SubmitOrder submits a buy or sell. A rejected order is returned with a
// nil error; inspect OrderResult.Applied and Reason.
func (c *Client) SubmitOrder(ctx context.Context, symbol, side string, quantity int64) (*OrderResult, error) {
	body := map[string]any{"symbol": symbol, "side": side, "quantity": quantity}
	var r OrderResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", body, &r, http.StatusUnprocessableEntity); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListOrders returns up to limit journaled results, newest first.
func (c *Client) ListOrders(ctx context.Context, limit int) ([]OrderResult, error) {
	path := "/api/v1/orders"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var r []OrderResult
	if err := c.do(ctx, http.MethodGet, path, nil, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetQuote retrieves the current quote for symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := c.do(ctx, http.MethodGet, "/api/v1/quotes/"+url.PathEscape(symbol), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Predict estimates symbols, or the server's watchlist when none are given.
func (c *Client) Predict(ctx context.Context, symbols ...string) (*Predictions, error) {
	path := "/api/v1/predictions"
	if len(symbols) > 0 {
		path += "?symbols=" + url.QueryEscape(strings.Join(symbols, ","))
	}
	var p Predictions
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PredictHoldings estimates every held symbol.
func (c *Client) PredictHoldings(ctx context.Context) (*Predictions, error) {
	var p Predictions
	if err := c.do(ctx, http.MethodGet, "/api/v1/predictions/holdings", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// do sends a request and decodes the JSON response into out. Status 200 and
// any status in accept are decoded; others become an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any, accept ...int) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode == http.StatusOK
	for _, s := range accept {
		ok = ok || resp.StatusCode == s
	}
	if !ok {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/metrics"
	"github.com/itsib/0x-swap-api/internal/types"
)

// Client talks JSON over HTTP to the routing engine.
type Client struct {
	baseURL string
	log     *zap.Logger
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (*types.Quote, error) {
	var q types.Quote
	if err := c.post(ctx, "/quote", req, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Client) GetCalldata(ctx context.Context, req CalldataRequest) (*types.PreparedTransaction, error) {
	var tx types.PreparedTransaction
	if err := c.post(ctx, "/calldata", req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) GetLiquidityCurve(ctx context.Context, req DepthRequest) (*LiquidityCurve, error) {
	var lc LiquidityCurve
	if err := c.post(ctx, "/depth", req, &lc); err != nil {
		return nil, err
	}
	return &lc, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RoutingLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("routing %s: %w", path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("routing %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		engErr := &EngineError{Status: resp.StatusCode}
		if json.Unmarshal(b, engErr) != nil || engErr.Code == "" {
			return fmt.Errorf("routing %s %d: %s", path, resp.StatusCode, string(b))
		}
		c.log.Debug("routing engine rejected request",
			zap.String("path", path), zap.String("code", engErr.Code), zap.String("reason", engErr.Reason))
		return engErr
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("routing %s: decode: %w", path, err)
	}
	return nil
}

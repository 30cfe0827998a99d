// Package insight is the Insight block explorer data source.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spv/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/chain"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"go.uber.org/ratelimit"
)

const defaultAPIPrefix = "/api"

var (
	ErrNotFound    = errors.New("insight: not found")
	ErrNoProvider  = errors.New("insight: no default provider for network")
	errRetryStatus = errors.New("insight: retryable status")
)

// providers lists the public explorers used when no URL is configured.
var providers = map[model.Network]string{
	model.Mainnet: "https://insight.bitpay.com",
	model.Testnet: "https://test-insight.bitpay.com",
}

// DefaultURL returns the public explorer for network.
func DefaultURL(network model.Network) (string, error) {
	url, ok := providers[network]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoProvider, network)
	}
	return url, nil
}

// ClientConfig configures the explorer client.
type ClientConfig struct {
	URL               string
	APIPrefix         string
	UserAgent         string
	RequestTimeout    time.Duration
	MaxRetries        int
	RequestsPerSecond int
}

// Client is a minimal Insight API client.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	limiter    ratelimit.Limiter
	metrics    Metrics
	sleep      func(context.Context, time.Duration) error
}

func NewClient(cfg ClientConfig, metrics Metrics) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("insight url is required")
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = defaultAPIPrefix
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	limiter := ratelimit.NewUnlimited()
	if cfg.RequestsPerSecond > 0 {
		limiter = ratelimit.New(cfg.RequestsPerSecond)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    limiter,
		metrics:    metrics,
		sleep:      clock.SleepWithContext,
	}, nil
}

// GetBlock fetches a block with its transaction id list.
func (c *Client) GetBlock(ctx context.Context, hash string) (block *Block, err error) {
	started := time.Now()
	defer func() {
		c.metrics.Observe("get_block", err, started)
	}()

	block = &Block{}
	if err = c.getJSON(ctx, "/block/"+hash, block); err != nil {
		return nil, err
	}
	return block, nil
}

// GetRawTx fetches the serialized transaction.
func (c *Client) GetRawTx(ctx context.Context, txid string) (tx *RawTx, err error) {
	started := time.Now()
	defer func() {
		c.metrics.Observe("get_raw_tx", err, started)
	}()

	tx = &RawTx{}
	if err = c.getJSON(ctx, "/rawtx/"+txid, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	body, err := c.doGet(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", chain.ErrMalformedResponse, path, err)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	url := strings.TrimRight(c.cfg.URL, "/") + c.cfg.APIPrefix + path

	var lastErr error
	for i := 0; i <= c.cfg.MaxRetries; i++ {
		if i > 0 {
			if err := c.sleep(ctx, time.Duration(i)*100*time.Millisecond); err != nil {
				return nil, err
			}
		}

		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, errRetryStatus) && !isTransport(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("GET %s failed after %d attempts: %w", path, c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w %d: %s", errRetryStatus, resp.StatusCode, truncate(body))
	default:
		return nil, fmt.Errorf("insight returned status %d: %s", resp.StatusCode, truncate(body))
	}
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransport(err error) bool {
	var te *transportError
	return errors.As(err, &te) && !errors.Is(err, context.Canceled)
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

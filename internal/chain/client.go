package chain

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"yieldScope/internal/cache"
	"yieldScope/internal/model"
	"yieldScope/internal/telemetry"
)

const DefaultBaseURL = "https://api.koios.rest/api/v1"

// Config controls how the client talks to the upstream API.
type Config struct {
	BaseURL      string
	MinInterval  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Timeout      time.Duration
	Offline      bool
}

func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		MinInterval:  200 * time.Millisecond,
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
		Timeout:      30 * time.Second,
	}
}

// Client fetches account history from a Koios-compatible API.
// Responses are served from the cache when present and written back after a successful fetch.
type Client struct {
	cfg     Config
	http    *http.Client
	cache   cache.Store
	limiter *rate.Limiter
	metrics *telemetry.FetchMetrics
	logger  *zap.Logger

	requests atomic.Uint64

	// netMu keeps at most one upstream request in flight, retries included.
	netMu sync.Mutex

	mu     sync.Mutex
	hashes map[string]struct{}
}

// NewClient builds a client. store and metrics may be nil.
func NewClient(cfg Config, store cache.Store, metrics *telemetry.FetchMetrics, logger *zap.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   store,
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
		logger:  logger,
		hashes:  make(map[string]struct{}),
	}
}

// RequestCount returns the number of HTTP attempts issued, failed attempts and retries included.
func (c *Client) RequestCount() uint64 {
	return c.requests.Load()
}

// ResponseHashes returns the sorted SHA-256 hex digests of every body returned so far.
func (c *Client) ResponseHashes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.hashes))
	for h := range c.hashes {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// AccountTxs returns the address's transactions inside the [from, to] window.
// Bounds are slot numbers or RFC 3339 times; blank bounds are open.
func (c *Client) AccountTxs(ctx context.Context, address, from, to string) ([]model.RawTransaction, error) {
	window, err := ParseRange(from, to)
	if err != nil {
		return nil, err
	}

	key, err := requestKey(window.cacheParams(address))
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string][]string{"_addresses": {address}})
	if err != nil {
		return nil, fmt.Errorf("encode account_txs body: %w", err)
	}

	body, err := c.request(ctx, "account_txs", http.MethodPost, "/account_txs", payload, key)
	if err != nil {
		return nil, err
	}

	var raw []accountTx
	if err := sonnet.Unmarshal(body, &raw); err != nil {
		c.logger.Warn("account_txs response not a list, treating as empty",
			zap.String("address", address),
			zap.Error(err),
		)
		raw = nil
	}

	txs := make([]model.RawTransaction, 0, len(raw))
	for _, tx := range raw {
		txs = append(txs, buildRawTransaction(tx))
	}
	filtered := window.Filter(txs)

	c.logger.Info("account_txs",
		zap.String("address", address),
		zap.Int("count", len(txs)),
		zap.Int("in_range", len(filtered)),
	)
	return filtered, nil
}

// AddressUtxos returns the UTXOs currently held at address.
func (c *Client) AddressUtxos(ctx context.Context, address string) ([]model.Utxo, error) {
	key, err := requestKey(map[string]interface{}{"address": address})
	if err != nil {
		return nil, err
	}
	path := "/address_utxos?_address=" + url.QueryEscape(address)

	body, err := c.request(ctx, "address_utxos", http.MethodGet, path, nil, key)
	if err != nil {
		return nil, err
	}

	var raw []utxo
	if err := sonnet.Unmarshal(body, &raw); err != nil {
		c.logger.Warn("address_utxos response not a list, treating as empty",
			zap.String("address", address),
			zap.Error(err),
		)
		return []model.Utxo{}, nil
	}

	out := make([]model.Utxo, 0, len(raw))
	for _, u := range raw {
		out = append(out, buildUtxo(u))
	}
	return out, nil
}

// TxUtxos returns the inputs and outputs of one transaction.
// Both a bare object and the one-element list form are accepted; anything else is an error.
func (c *Client) TxUtxos(ctx context.Context, txHash string) (model.TxUtxoSet, error) {
	key, err := requestKey(map[string]interface{}{"tx_hash": txHash})
	if err != nil {
		return model.TxUtxoSet{}, err
	}
	path := "/tx_utxos?_tx_hash=" + url.QueryEscape(txHash)

	body, err := c.request(ctx, "tx_utxos", http.MethodGet, path, nil, key)
	if err != nil {
		return model.TxUtxoSet{}, err
	}

	raw, err := decodeTxUtxos(body)
	if err != nil {
		return model.TxUtxoSet{}, fmt.Errorf("parse tx_utxos %s: %w", txHash, err)
	}
	return buildTxUtxoSet(txHash, raw), nil
}

func decodeTxUtxos(body []byte) (txUtxos, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []txUtxos
		if err := sonnet.Unmarshal(trimmed, &list); err != nil {
			return txUtxos{}, err
		}
		if len(list) == 0 {
			return txUtxos{}, nil
		}
		return list[0], nil
	}

	var single txUtxos
	if err := sonnet.Unmarshal(trimmed, &single); err != nil {
		return txUtxos{}, err
	}
	return single, nil
}

func (c *Client) request(ctx context.Context, endpoint, method, path string, payload []byte, key string) ([]byte, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		c.metrics.ObserveCache(endpoint, ok)
		if ok {
			c.logger.Debug("cache hit", zap.String("endpoint", endpoint), zap.String("key", key))
			c.recordHash(cached)
			return cached, nil
		}
	}
	if c.cfg.Offline {
		return nil, fmt.Errorf("%s: %w", endpoint, ErrOfflineMiss)
	}

	c.netMu.Lock()
	defer c.netMu.Unlock()

	target := strings.TrimRight(c.cfg.BaseURL, "/") + path
	var body []byte
	attempt := 0
	err := withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		if attempt > 0 {
			c.metrics.ObserveRetry(endpoint)
		}
		attempt++

		var err error
		body, err = c.do(ctx, endpoint, method, target, payload)
		if err != nil {
			c.logger.Warn("request failed",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			return nil, err
		}
	}
	c.recordHash(body)
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, target string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.requests.Add(1)
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, "transport_error", time.Since(started))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, "transport_error", time.Since(started))
		return nil, fmt.Errorf("%w: read %s body: %w", ErrTransport, endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveRequest(endpoint, "api_error", time.Since(started))
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	c.metrics.ObserveRequest(endpoint, "ok", time.Since(started))
	return body, nil
}

func (c *Client) recordHash(body []byte) {
	sum := sha256.Sum256(body)
	c.mu.Lock()
	c.hashes[hex.EncodeToString(sum[:])] = struct{}{}
	c.mu.Unlock()
}

// requestKey hashes the compact JSON form of params; map keys are emitted sorted.
func requestKey(params map[string]interface{}) (string, error) {
	norm, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode request key: %w", err)
	}
	return cache.KeyFor(string(norm)), nil
}

// IsRetryable reports whether err came from a failure that a later attempt could fix.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.Is(err, ErrTransport) || errors.As(err, &apiErr)
}

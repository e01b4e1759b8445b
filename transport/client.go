package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ErrNoData is returned when a request produced no usable JSON object.
var ErrNoData = errors.New("no response data")

const maxBodyBytes = 1 << 20

// Fetcher retrieves the JSON object served at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (map[string]any, error)
}

// Config controls the HTTP client.
type Config struct {
	// Timeout bounds a single attempt. Zero leaves only the caller's context.
	Timeout time.Duration
	// Retries is the number of extra attempts Fetch makes after a transport failure or gateway
	// error. FetchOnce ignores it.
	Retries uint64
	// Backoff is the base of the exponential delay between attempts.
	Backoff time.Duration
	// MaxBackoff caps a single delay.
	MaxBackoff time.Duration
}

// DefaultConfig returns the transport defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		Retries:    2,
		Backoff:    100 * time.Millisecond,
		MaxBackoff: 2 * time.Second,
	}
}

// HTTPClient is the net/http [Fetcher].
type HTTPClient struct {
	client *http.Client
	cfg    Config
}

// NewHTTPClient returns an HTTPClient. A nil client uses a dedicated http.Client.
func NewHTTPClient(client *http.Client, cfg Config) *HTTPClient {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultConfig().Backoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultConfig().MaxBackoff
	}
	return &HTTPClient{client: client, cfg: cfg}
}

// OnceFetcher is a [Fetcher] that can also send a request exactly once. The engine uses
// FetchOnce for calls that change backend state, where a repeated request is not safe.
type OnceFetcher interface {
	Fetcher
	FetchOnce(ctx context.Context, url string) (map[string]any, error)
}

// Fetch issues a GET for url and decodes the body, retrying transport failures and gateway
// errors.
//
// Context errors are returned as-is so callers can tell cancellation from missing data.
func (c *HTTPClient) Fetch(ctx context.Context, url string) (map[string]any, error) {
	backoff := retry.WithMaxRetries(c.cfg.Retries,
		retry.WithCappedDuration(c.cfg.MaxBackoff, retry.NewExponential(c.cfg.Backoff)))

	var payload map[string]any
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var (
			err       error
			retryable bool
		)
		payload, retryable, err = c.attempt(ctx, url)
		if retryable {
			return retry.RetryableError(err)
		}
		return err
	})
	return c.result(ctx, payload, err)
}

// FetchOnce issues a single GET for url. Nothing is retried.
func (c *HTTPClient) FetchOnce(ctx context.Context, url string) (map[string]any, error) {
	payload, _, err := c.attempt(ctx, url)
	return c.result(ctx, payload, err)
}

func (c *HTTPClient) result(ctx context.Context, payload map[string]any, err error) (map[string]any, error) {
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return payload, nil
}

// attempt sends one request. retryable reports a failure worth another attempt for
// idempotent calls.
func (c *HTTPClient) attempt(ctx context.Context, url string) (payload map[string]any, retryable bool, err error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, oops.Code("TRANSPORT_REQUEST").Wrap(errors.Join(ErrNoData, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, oops.Code("TRANSPORT_UNREACHABLE").Wrap(errors.Join(ErrNoData, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, oops.Code("TRANSPORT_READ").Wrap(errors.Join(ErrNoData, err))
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := oops.Code("TRANSPORT_STATUS").With("status", resp.StatusCode).Wrap(ErrNoData)
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, true, statusErr
		}
		return nil, false, statusErr
	}

	payload, err = decodeObject(body)
	if err != nil || payload == nil {
		return nil, false, oops.Code("TRANSPORT_DECODE").Wrap(errors.Join(ErrNoData, err))
	}
	return payload, false, nil
}

// decodeObject parses a single JSON object. Numbers stay [json.Number] so large ids keep
// every digit.
func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON object")
	}
	return payload, nil
}

// Package kraken implements the exchange client for the Kraken REST API.
// It is the single point of contact with the exchange: it hides pair
// formatting, request signing, volume rounding and the retry policy.
package kraken

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"autotrader/internal/domain"
	"autotrader/pkg/retrier"
)

const (
	// DefaultBaseURL is the production Kraken REST endpoint.
	DefaultBaseURL = "https://api.kraken.com"

	defaultHTTPTimeout = 30 * time.Second
	defaultRetryDelay  = 10 * time.Second

	// volumePrecision is the maximum number of decimals Kraken accepts for
	// an order volume; more decimals get the order rejected.
	volumePrecision = 8
)

// Config carries the client settings.
type Config struct {
	Key      string
	Secret   string
	Asset    string
	Currency string

	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
	// RetryDelay overrides the fixed delay between retried reads.
	RetryDelay time.Duration
}

// Client is a Kraken REST client bound to one trading pair. Construct it once
// at startup and pass it explicitly to collaborators.
type Client struct {
	http     *resty.Client
	key      string
	secret   string
	pair     domain.Pair
	pairCode string
	retry    *retrier.Retrier
	logger   *zap.Logger

	nonceMu   sync.Mutex
	lastNonce int64
}

// New builds a client for the configured asset/currency pair. The pair code
// is computed once here and cached; codes outside the known currency sets
// fall back to the crypto prefix and are reported as configuration warnings.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Key == "" || cfg.Secret == "" {
		return nil, errors.New("kraken api key and secret are required")
	}
	if cfg.Asset == "" || cfg.Currency == "" {
		return nil, errors.New("asset and currency are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	pair := domain.Pair{
		Asset:    strings.ToUpper(cfg.Asset),
		Currency: strings.ToUpper(cfg.Currency),
	}
	for _, code := range pair.UnknownCodes() {
		logger.Warn("currency code not in the known crypto/fiat sets, defaulting to crypto prefix",
			zap.String("code", code))
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(defaultHTTPTimeout).
		SetHeader("User-Agent", "autotrader")

	return &Client{
		http:     httpClient,
		key:      cfg.Key,
		secret:   cfg.Secret,
		pair:     pair,
		pairCode: pair.Kraken(),
		retry:    retrier.Fixed(retryDelay),
		logger:   logger,
	}, nil
}

// Pair returns the exchange pair code the client is bound to.
func (c *Client) Pair() string {
	return c.pairCode
}

// apiResponse is the envelope every Kraken endpoint answers with: either a
// result payload or a non-empty error list.
type apiResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// call issues one API call and normalizes the heterogeneous failure shapes
// (transport failure, empty payload, payload carrying an error field) into a
// single error.
func (c *Client) call(ctx context.Context, endpoint string, private bool, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}

	path := "/0/public/" + endpoint
	if private {
		path = "/0/private/" + endpoint
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded")

	if private {
		nonce := c.nonce()
		params.Set("nonce", nonce)
		body := params.Encode()

		signature, err := sign(path, nonce, body, c.secret)
		if err != nil {
			return errors.Wrapf(err, "%s: sign request", endpoint)
		}

		req.SetHeader("API-Key", c.key).
			SetHeader("API-Sign", signature).
			SetBody(body)
	} else {
		req.SetBody(params.Encode())
	}

	resp, err := req.Post(path)
	if err != nil {
		return errors.Wrapf(err, "%s: request failed", endpoint)
	}
	if len(resp.Body()) == 0 {
		return errors.Errorf("%s: empty response", endpoint)
	}

	var env apiResponse
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return errors.Wrapf(err, "%s: decode response", endpoint)
	}
	if len(env.Error) > 0 {
		return errors.Errorf("%s: exchange error: %s", endpoint, strings.Join(env.Error, ", "))
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return errors.Errorf("%s: empty result", endpoint)
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return errors.Wrapf(err, "%s: decode result", endpoint)
		}
	}

	return nil
}

// nonce returns a strictly increasing nonce for private calls.
func (c *Client) nonce() string {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	n := time.Now().UnixMilli()
	if n <= c.lastNonce {
		n = c.lastNonce + 1
	}
	c.lastNonce = n

	return strconv.FormatInt(n, 10)
}

// sign computes the API-Sign header: HMAC-SHA512 of the URI path and
// SHA256(nonce + body), keyed with the base64-decoded secret.
func sign(path, nonce, body, secret string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", errors.Wrap(err, "decode api secret")
	}

	digest := sha256.Sum256([]byte(nonce + body))

	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(path))
	mac.Write(digest[:])

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

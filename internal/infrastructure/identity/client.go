// Package identity talks to the external identity service that issues account keys.
package identity

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
)

// DefaultBaseURL is the production identity service.
const DefaultBaseURL = "https://w7nbdj3b3nsy3uycjqd7bmuplq0yejgw.lambda-url.us-east-2.on.aws"

const (
	accountPath    = "/v1/account"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client implements ports.AccountKeyClient over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client (default: 10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithTimeout replaces the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.client = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(cl *Client) {
		cl.log = log
	}
}

// NewClient returns a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type accountRequest struct {
	Email string `json:"email"`
	Key   string `json:"key"`
}

type accountResponse struct {
	AccountKey *string `json:"account_key"`
}

// FetchAccountKey implements ports.AccountKeyClient.
func (c *Client) FetchAccountKey(ctx context.Context, email, internalKey string) ports.AccountKeyResult {
	body, err := json.Marshal(accountRequest{Email: email, Key: internalKey})
	if err != nil {
		return c.fail(&ports.ProvisionError{Kind: ports.ProvisionErrorTransport, Message: err.Error()})
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+accountPath, bytes.NewReader(body))
	if err != nil {
		return c.fail(&ports.ProvisionError{Kind: ports.ProvisionErrorTransport, Message: err.Error()})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTLSFailure(err) {
			return c.fail(&ports.ProvisionError{Kind: ports.ProvisionErrorTLS, Message: err.Error()})
		}
		return c.fail(&ports.ProvisionError{Kind: ports.ProvisionErrorTransport, Message: err.Error()})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return c.fail(&ports.ProvisionError{
			Kind:    ports.ProvisionErrorStatus,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		})
	}

	var payload accountResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return c.fail(&ports.ProvisionError{
			Kind:    ports.ProvisionErrorMalformed,
			Status:  resp.StatusCode,
			Message: "decode response: " + err.Error(),
		})
	}
	if payload.AccountKey == nil || *payload.AccountKey == "" {
		return c.fail(&ports.ProvisionError{
			Kind:    ports.ProvisionErrorMalformed,
			Status:  resp.StatusCode,
			Message: "response has no account_key",
		})
	}
	return ports.AccountKeySucceeded(*payload.AccountKey)
}

func (c *Client) fail(perr *ports.ProvisionError) ports.AccountKeyResult {
	if perr.Kind == ports.ProvisionErrorTLS {
		c.log.Error().
			Str("base_url", c.baseURL).
			Str("message", perr.Message).
			Msg("identity service TLS verification failed; check the configured base URL")
	} else {
		c.log.Error().
			Str("kind", string(perr.Kind)).
			Int("status", perr.Status).
			Str("message", perr.Message).
			Msg("account key request failed")
	}
	return ports.AccountKeyFailed(perr)
}

func isTLSFailure(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

var _ ports.AccountKeyClient = (*Client)(nil)

// Package recognition provides the client for the external credential
// recognition and derechohabiente lookup service.
//
// All calls carry a fixed timeout and do not retry; a timeout or error is a
// terminal failure for that conversation step and the flow escalates to its
// manual-entry fallback.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
)

// DefaultTimeout bounds every recognition-service call.
const DefaultTimeout = 30 * time.Second

// Credential is the identity data extracted from a credential photograph.
type Credential struct {
	AffiliationNumber   string                     `json:"affiliationOrPensionNumber"`
	Folio               string                     `json:"folio"`
	DerechohabienteType models.DerechohabienteType `json:"derechohabienteType"`
}

// Complete reports whether all required identity fields were recognized.
func (c Credential) Complete() bool {
	return c.AffiliationNumber != "" && c.Folio != "" &&
		(c.DerechohabienteType == models.DerechohabienteActive || c.DerechohabienteType == models.DerechohabientePensioner)
}

// Identity is the resolved derechohabiente record for a stored
// affiliation/folio pair.
type Identity struct {
	DerechohabienteType models.DerechohabienteType `json:"derechohabienteType"`
	TenureHalfMonths    int                        `json:"tenureHalfMonths"`
}

// FinancialData carries the salary/balance figures used for simulations.
type FinancialData struct {
	Salary       float64 `json:"salary"`
	Balance      float64 `json:"balance"`
	AdjustedDate string  `json:"adjustedDate"`
}

// Recognizer is the contract the conversation flows depend on.
type Recognizer interface {
	// RecognizeCredential extracts identity data from an optimized image.
	RecognizeCredential(ctx context.Context, image []byte) (*Credential, error)

	// ResolveIdentity resolves the derechohabiente type and tenure for a
	// stored affiliation/folio pair.
	ResolveIdentity(ctx context.Context, affiliation, folio string) (*Identity, error)

	// FetchFinancialData resolves the salary/balance/adjusted-date figures
	// used for simulation replies.
	FetchFinancialData(ctx context.Context, affiliation, folio string) (*FinancialData, error)
}

// Opts holds configuration options for the recognition client.
type Opts struct {
	BaseURL string
	Timeout time.Duration
}

// Option defines a configuration option for the recognition client.
type Option func(*Opts)

// WithBaseURL sets the recognition service base URL.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// Client is the HTTP implementation of Recognizer.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a recognition client, applying any provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("recognition service base URL not set")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	slog.Debug("Recognition NewClient", "baseURL", cfg.BaseURL, "timeout", cfg.Timeout)
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// RecognizeCredential posts the optimized image bytes and decodes the
// identity response. A success response missing required fields returns
// models.ErrIncompleteCredential.
func (c *Client) RecognizeCredential(ctx context.Context, image []byte) (*Credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/credentials/recognize", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to build recognition request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	var cred Credential
	if err := c.do(req, &cred); err != nil {
		slog.Error("Recognition RecognizeCredential failed", "error", err)
		return nil, err
	}
	if !cred.Complete() {
		slog.Error("Recognition RecognizeCredential incomplete response",
			"affiliation_set", cred.AffiliationNumber != "", "folio_set", cred.Folio != "", "type", cred.DerechohabienteType)
		return nil, models.ErrIncompleteCredential
	}
	slog.Debug("Recognition RecognizeCredential succeeded", "type", cred.DerechohabienteType)
	return &cred, nil
}

// ResolveIdentity looks up the derechohabiente record for an
// affiliation/folio pair.
func (c *Client) ResolveIdentity(ctx context.Context, affiliation, folio string) (*Identity, error) {
	endpoint := fmt.Sprintf("%s/derechohabientes?afiliacion=%s&folio=%s",
		c.baseURL, url.QueryEscape(affiliation), url.QueryEscape(folio))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build identity request: %w", err)
	}

	var id Identity
	if err := c.do(req, &id); err != nil {
		slog.Error("Recognition ResolveIdentity failed", "error", err, "affiliation", affiliation)
		return nil, err
	}
	slog.Debug("Recognition ResolveIdentity succeeded", "affiliation", affiliation, "type", id.DerechohabienteType, "tenure", id.TenureHalfMonths)
	return &id, nil
}

// FetchFinancialData looks up the simulation figures for an
// affiliation/folio pair.
func (c *Client) FetchFinancialData(ctx context.Context, affiliation, folio string) (*FinancialData, error) {
	endpoint := fmt.Sprintf("%s/derechohabientes/financials?afiliacion=%s&folio=%s",
		c.baseURL, url.QueryEscape(affiliation), url.QueryEscape(folio))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build financial data request: %w", err)
	}

	var data FinancialData
	if err := c.do(req, &data); err != nil {
		slog.Error("Recognition FetchFinancialData failed", "error", err, "affiliation", affiliation)
		return nil, err
	}
	slog.Debug("Recognition FetchFinancialData succeeded", "affiliation", affiliation)
	return &data, nil
}

// do executes the request and decodes a JSON body into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recognition service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("recognition service returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode recognition response: %w", err)
	}
	return nil
}

// Package docgen provides the client for the external document rendering
// service that produces the filled, flattened application PDF.
package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/models"
)

// DefaultTimeout bounds every document rendering call.
const DefaultTimeout = 60 * time.Second

// Request carries the resolved identity fields, the optional co-signer
// sequence and the scenario used to select the document template.
type Request struct {
	Name                string                     `json:"name,omitempty"`
	AffiliationNumber   string                     `json:"affiliation_number"`
	Folio               string                     `json:"folio"`
	DerechohabienteType models.DerechohabienteType `json:"derechohabiente_type"`
	LoanType            models.LoanType            `json:"loan_type"`
	Scenario            models.Scenario            `json:"-"`
	CoSigners           []models.CoSigner          `json:"co_signers,omitempty"`
}

// Generator is the contract the application flow depends on.
type Generator interface {
	GenerateApplication(ctx context.Context, req Request) (*models.Document, error)
}

// TemplateForScenario maps a scenario to the document template identifier.
// ScenarioUnknown has no template and returns an error.
func TemplateForScenario(s models.Scenario) (string, error) {
	switch s {
	case models.ScenarioPensionerShortTerm:
		return "pensioner_short_term", nil
	case models.ScenarioPensionerMediumTerm:
		return "pensioner_medium_term", nil
	case models.ScenarioActiveShortTermNoAval:
		return "active_short_term", nil
	case models.ScenarioActiveShortTermWithAval:
		return "active_short_term_aval", nil
	default:
		return "", fmt.Errorf("no document template for scenario %s", s)
	}
}

// Opts holds configuration options for the docgen client.
type Opts struct {
	BaseURL string
	Timeout time.Duration
}

// Option defines a configuration option for the docgen client.
type Option func(*Opts)

// WithBaseURL sets the document service base URL.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// Client is the HTTP implementation of Generator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a docgen client, applying any provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("document service base URL not set")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	slog.Debug("Docgen NewClient", "baseURL", cfg.BaseURL, "timeout", cfg.Timeout)
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// renderRequest is the wire payload for the document service.
type renderRequest struct {
	Template string  `json:"template"`
	Fields   Request `json:"fields"`
}

// GenerateApplication renders the application form for req and returns the
// flattened PDF as a document reference.
func (c *Client) GenerateApplication(ctx context.Context, req Request) (*models.Document, error) {
	template, err := TemplateForScenario(req.Scenario)
	if err != nil {
		slog.Error("Docgen GenerateApplication no template", "error", err, "scenario", req.Scenario)
		return nil, err
	}

	payload, err := json.Marshal(renderRequest{Template: template, Fields: req})
	if err != nil {
		return nil, fmt.Errorf("failed to encode render request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents/render", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Error("Docgen GenerateApplication request failed", "error", err, "template", template)
		return nil, fmt.Errorf("document service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("Docgen GenerateApplication bad status", "status", resp.StatusCode, "template", template)
		return nil, fmt.Errorf("document service returned status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered document: %w", err)
	}

	slog.Info("Docgen GenerateApplication succeeded", "template", template, "bytes", len(data))
	return &models.Document{
		Data:     data,
		FileName: fmt.Sprintf("solicitud_%s.pdf", req.Folio),
		MimeType: "application/pdf",
	}, nil
}

// Package pdf renders varsel documents through the external pdfgen service.
package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	models "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/pkg/domain"
	dErrors "aktivitetskrav/pkg/domain-errors"
)

// Client calls the pdfgen HTTP service to turn a varsel's structured content
// into the archived PDF.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type renderRequest struct {
	PersonIdent string     `json:"personIdent"`
	Type        string     `json:"type"`
	Document    []string   `json:"document"`
	SvarfristAt *time.Time `json:"svarfristAt,omitempty"`
}

// Render produces the PDF for a varsel. Any non-200 response is a
// document-render failure so the caller can roll back the decision.
func (c *Client) Render(ctx context.Context, personident domain.PersonIdent, v *models.Varsel) ([]byte, error) {
	reqBody, err := json.Marshal(renderRequest{
		PersonIdent: personident.String(),
		Type:        string(v.Type),
		Document:    v.Document,
		SvarfristAt: v.SvarfristAt,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal render request")
	}

	url := fmt.Sprintf("%s/api/v1/genpdf/aktivitetskrav", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create render request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "pdfgen request timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeDocumentRender, "pdfgen request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeDocumentRender, fmt.Sprintf("pdfgen returned status %d", resp.StatusCode))
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDocumentRender, "failed to read pdfgen response")
	}
	if len(pdf) == 0 {
		return nil, dErrors.New(dErrors.CodeDocumentRender, "pdfgen returned an empty document")
	}
	return pdf, nil
}

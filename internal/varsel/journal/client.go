// Package journal archives varsel documents in the national document archive
// and returns the journalpost reference.
package journal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	models "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/pkg/domain"
	dErrors "aktivitetskrav/pkg/domain-errors"
)

// Client calls the archive HTTP service. Archival is idempotent on the varsel
// ID: redelivering the same varsel yields the same journalpost.
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

type journalpostRequest struct {
	EksternReferanseID string `json:"eksternReferanseId"`
	PersonIdent        string `json:"personIdent"`
	Tittel             string `json:"tittel"`
	Filinnhold         string `json:"filinnhold"`
}

type journalpostResponse struct {
	JournalpostID string `json:"journalpostId"`
}

var titles = map[models.Type]string{
	models.TypeForhandsvarselStansAvSykepenger: "Forhandsvarsel om stans av sykepenger",
	models.TypeUnntak:                          "Vurdering av aktivitetskravet - unntak",
	models.TypeOppfylt:                         "Vurdering av aktivitetskravet - oppfylt",
	models.TypeIkkeOppfylt:                     "Vurdering av aktivitetskravet - ikke oppfylt",
	models.TypeIkkeAktuell:                     "Vurdering av aktivitetskravet - ikke aktuelt",
	models.TypeInnstillingOmStans:              "Innstilling om stans av sykepenger",
}

// Create archives the rendered document and returns the journalpost ID.
func (c *Client) Create(ctx context.Context, personident domain.PersonIdent, v *models.Varsel, pdf []byte) (string, error) {
	reqBody, err := json.Marshal(journalpostRequest{
		EksternReferanseID: v.ID.String(),
		PersonIdent:        personident.String(),
		Tittel:             titles[v.Type],
		Filinnhold:         base64.StdEncoding.EncodeToString(pdf),
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal journalpost request")
	}

	url := fmt.Sprintf("%s/api/v1/journalpost", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create journalpost request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "journalpost request timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "journalpost request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read journalpost response")
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		// 409 carries the existing journalpost for a redelivered varsel.
	default:
		return "", dErrors.New(dErrors.CodeInternal, fmt.Sprintf("journalpost returned status %d", resp.StatusCode))
	}

	var jpResp journalpostResponse
	if err := json.Unmarshal(body, &jpResp); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to parse journalpost response")
	}
	if jpResp.JournalpostID == "" {
		return "", dErrors.New(dErrors.CodeInternal, "journalpost response carried no id")
	}
	return jpResp.JournalpostID, nil
}

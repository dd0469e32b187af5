package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trustdesk/backend/internal/models"
)

// HTTPContentDeleter calls the content platform's internal deletion endpoint.
// The client timeout bounds every call; a timeout surfaces to the engine as
// a dependency failure and rolls the action back.
type HTTPContentDeleter struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewHTTPContentDeleter(baseURL, authToken string, timeout time.Duration) *HTTPContentDeleter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPContentDeleter{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type contentDeleteRequest struct {
	Type      models.ReportType `json:"type"`
	SubjectID string            `json:"subject_id"`
}

func (d *HTTPContentDeleter) Delete(ctx context.Context, contentType models.ReportType, subjectRef string) error {
	body, err := json.Marshal(contentDeleteRequest{Type: contentType, SubjectID: subjectRef})
	if err != nil {
		return fmt.Errorf("failed to encode deletion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/internal/content/delete", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build deletion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.authToken)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("content deletion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("content deletion returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}

package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dataplane-labs/quality-sync/internal/models"
)

// DetectPIIRequest identifies the table to run backend PII detection on.
type DetectPIIRequest struct {
	DataSourceID string `json:"dataSourceId"`
	DatabaseName string `json:"databaseName"`
	SchemaName   string `json:"schemaName"`
	TableName    string `json:"tableName"`
}

// DetectPII asks the backend classification service for column verdicts.
// The detect endpoint puts columns at the top level rather than under
// data, so it bypasses the shared envelope helper.
func (c *Client) DetectPII(ctx context.Context, req DetectPIIRequest) ([]models.PIIDetectionResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("detect_pii marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/api/catalog/pii/detect", c.baseURL)
	resp, err := c.doRequestWithRetry(ctx, "detect_pii", http.MethodPost, u, body, nil)
	if err != nil {
		return nil, fmt.Errorf("detect_pii request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detect_pii returned status %d: %s", resp.StatusCode, readBodySnippet(resp.Body))
	}

	var out struct {
		Success bool                        `json:"success"`
		Error   string                      `json:"error,omitempty"`
		Columns []models.PIIDetectionResult `json:"columns"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("detect_pii: failed to parse response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("detect_pii: backend reported failure: %s", out.Error)
	}
	return out.Columns, nil
}

// ClassifyPII submits a manual is/is-not PII override for one column.
func (c *Client) ClassifyPII(ctx context.Context, classification models.PIIClassification) error {
	u := fmt.Sprintf("%s/api/catalog/pii/classify", c.baseURL)
	return c.postJSON(ctx, "classify_pii", u, classification, nil)
}

// CreatePIIRule submits the custom-rule editor form and returns the new
// rule id. The form is validated locally first; validation failures never
// reach the backend.
func (c *Client) CreatePIIRule(ctx context.Context, form models.PIIRuleForm) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	u := fmt.Sprintf("%s/api/pii-rules", c.baseURL)
	if err := c.postJSON(ctx, "create_pii_rule", u, form, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

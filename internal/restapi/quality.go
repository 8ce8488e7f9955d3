package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dataplane-labs/quality-sync/internal/models"
)

// GetAsset fetches the profiled columns of one asset.
func (c *Client) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	u := fmt.Sprintf("%s/api/assets/%s", c.baseURL, url.PathEscape(id))
	if err := c.getJSON(ctx, "get_asset", u, &asset); err != nil {
		return nil, err
	}
	if asset.ID == "" {
		asset.ID = id
	}
	return &asset, nil
}

// GetQualitySummary fetches the REST snapshot the polling path feeds into
// the projector. Calls go through the circuit breaker; while the breaker
// is open the poll tick fails fast instead of stacking timeouts.
func (c *Client) GetQualitySummary(ctx context.Context, dataSourceID string) (*models.SummarySnapshot, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		var snap models.SummarySnapshot
		params := url.Values{}
		params.Set("dataSourceId", dataSourceID)
		u := fmt.Sprintf("%s/api/quality/summary?%s", c.baseURL, params.Encode())
		if err := c.getJSON(ctx, "quality_summary", u, &snap); err != nil {
			return nil, err
		}
		return &snap, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.SummarySnapshot), nil
}

// GetBusinessMetrics backs the business-impact cards.
func (c *Client) GetBusinessMetrics(ctx context.Context, dataSourceID string, databases []string) (*models.BusinessMetrics, error) {
	var bm models.BusinessMetrics
	params := url.Values{}
	params.Set("dataSourceId", dataSourceID)
	if len(databases) > 0 {
		params.Set("databases", strings.Join(databases, ","))
	}
	u := fmt.Sprintf("%s/api/quality/business-metrics?%s", c.baseURL, params.Encode())
	if err := c.getJSON(ctx, "business_metrics", u, &bm); err != nil {
		return nil, err
	}
	return &bm, nil
}

// ListQualityRules pages through the rules hub. enabled=nil lists all
// rules; otherwise the backend filters server-side.
func (c *Client) ListQualityRules(ctx context.Context, enabled *bool, page, perPage int) (*models.RulesPage, error) {
	var rules models.RulesPage
	params := url.Values{}
	if enabled != nil {
		params.Set("enabled", strconv.FormatBool(*enabled))
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		params.Set("perPage", strconv.Itoa(perPage))
	}
	u := fmt.Sprintf("%s/api/quality/rules", c.baseURL)
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}
	if err := c.getJSON(ctx, "list_rules", u, &rules); err != nil {
		return nil, err
	}
	return &rules, nil
}

// ExportRequest is the body of POST /api/quality/export for the formats
// rendered server-side (xlsx, pdf, docx).
type ExportRequest struct {
	Format    string            `json:"format"`
	Filters   map[string]string `json:"filters,omitempty"`
	Sections  []string          `json:"sections,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// ExportReport requests a server-rendered report and returns the binary
// plus a date-stamped filename suggestion.
func (c *Client) ExportReport(ctx context.Context, req ExportRequest) ([]byte, string, error) {
	switch req.Format {
	case "xlsx", "pdf", "docx":
	default:
		return nil, "", fmt.Errorf("export format %q is not server-rendered", req.Format)
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("export_report marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/api/quality/export", c.baseURL)
	resp, err := c.doRequestWithRetry(ctx, "export_report", "POST", u, body, map[string]string{
		"Accept": "application/octet-stream",
	})
	if err != nil {
		return nil, "", fmt.Errorf("export_report request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, "", fmt.Errorf("export_report returned status %d: %s", resp.StatusCode, readBodySnippet(resp.Body))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("export_report read body: %w", err)
	}

	name := fmt.Sprintf("quality-report-%s.%s", req.Timestamp.Format("2006-01-02"), req.Format)
	c.logger.Info("quality report exported", "format", req.Format, "bytes", len(blob))
	return blob, name, nil
}

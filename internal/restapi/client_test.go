package restapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.BackendConfig{
		BaseURL:     srv.URL,
		BearerToken: "test-token",
		Timeout:     2000,
		Retries:     3,
		BackoffMS:   1, // keep retry sleeps negligible in tests
	}, logger.NewNop())
	return c, srv
}

func mockBackend() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/api/quality/summary", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"totals": gin.H{
					"score":         87.5,
					"previousScore": 82.0,
					"openAlerts":    3,
					"rulesActive":   41,
				},
				"dimensions":    gin.H{"completeness": 91.0, "validity": 84.0},
				"assetCoverage": gin.H{"dataSources": 2, "tablesMonitored": 120},
			},
		})
	})

	r.GET("/api/assets/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"id":            c.Param("id"),
				"qualifiedName": "public.users",
				"assetType":     "table",
				"columns": []gin.H{
					{"name": "email", "dataType": "varchar", "nullPercentage": 2.5},
				},
			},
		})
	})

	r.GET("/api/quality/rules", func(c *gin.Context) {
		if c.Query("enabled") != "true" {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": "test expects enabled=true"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"rules": []gin.H{
					{"id": "r1", "name": "not null email", "expression": "null_pct(email) == 0", "enabled": true},
					{"id": "r2", "name": "template", "expression": "null_pct(${column}) == 0", "enabled": true},
				},
				"pagination": gin.H{"total": 2, "page": 1, "perPage": 50},
			},
		})
	})

	r.GET("/api/quality/business-metrics", func(c *gin.Context) {
		if c.Query("dataSourceId") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "dataSourceId required"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"revenueAtRisk":   125000.0,
				"affectedUsers":   4200,
				"slaViolations":   []string{"orders-freshness"},
				"qualityDebtDays": 6.5,
				"trend":           "down",
			},
		})
	})

	r.POST("/api/catalog/pii/classify", func(c *gin.Context) {
		var cl models.PIIClassification
		if err := c.ShouldBindJSON(&cl); err != nil || cl.ColumnName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "columnName required"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	r.POST("/api/catalog/pii/detect", func(c *gin.Context) {
		var req DetectPIIRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"columns": []gin.H{
				{"columnName": "email", "isPII": true, "piiType": "email", "confidence": 0.98},
			},
		})
	})

	r.POST("/api/pii-rules", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"id": "rule-123"}})
	})

	r.POST("/api/quality/export", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/octet-stream", []byte("PDFBYTES"))
	})

	return r
}

func TestGetQualitySummary(t *testing.T) {
	c, _ := newTestClient(t, mockBackend())

	snap, err := c.GetQualitySummary(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, 87.5, snap.Totals.Score)
	assert.Equal(t, 91.0, snap.Dimensions["completeness"])
	assert.Equal(t, 120, snap.AssetCoverage.TablesMonitored)
}

func TestGetAsset(t *testing.T) {
	c, _ := newTestClient(t, mockBackend())

	asset, err := c.GetAsset(context.Background(), "asset-9")
	require.NoError(t, err)
	assert.Equal(t, "public.users", asset.QualifiedName)
	require.Len(t, asset.Columns, 1)
	assert.Equal(t, "email", asset.Columns[0].Name)
}

func TestListQualityRules_EnabledFilter(t *testing.T) {
	c, _ := newTestClient(t, mockBackend())

	enabled := true
	page, err := c.ListQualityRules(context.Background(), &enabled, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Total)

	templates, executable := models.SplitRules(page.Rules)
	assert.Len(t, templates, 1)
	assert.Len(t, executable, 1)
}

func TestGetBusinessMetrics(t *testing.T) {
	c, _ := newTestClient(t, mockBackend())

	bm, err := c.GetBusinessMetrics(context.Background(), "ds-1", []string{"app", "warehouse"})
	require.NoError(t, err)
	assert.Equal(t, 125000.0, bm.RevenueAtRisk)
	assert.Equal(t, 4200, bm.AffectedUsers)
	assert.Equal(t, models.TrendDown, bm.Trend)
}

func TestClassifyPII(t *testing.T) {
	c, _ := newTestClient(t, mockBackend())

	err := c.ClassifyPII(context.Background(), models.PIIClassification{
		DataSourceID: "ds-1", TableName: "users", ColumnName: "ssn",
		IsPII: true, PIIType: "national_id", UserID: "u-1",
	})
	require.NoError(t, err)
}

func TestDetectPII(t *testing.T) {
	c, _ := newTestClient(t, mockBackend())

	cols, err := c.DetectPII(context.Background(), DetectPIIRequest{
		DataSourceID: "ds-1", DatabaseName: "app", SchemaName: "public", TableName: "users",
	})
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.True(t, cols[0].IsPII)
}

func TestCreatePIIRule_LocalValidation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	c := NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: 1000}, logger.NewNop())

	_, err := c.CreatePIIRule(context.Background(), models.PIIRuleForm{Name: "bad", PIIType: "x", Pattern: "("})
	require.Error(t, err)
	assert.Equal(t, int32(0), hits.Load(), "invalid form must never reach the backend")
}

func TestExportReport(t *testing.T) {
	c, _ := newTestClient(t, mockBackend())

	ts := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	blob, name, err := c.ExportReport(context.Background(), ExportRequest{Format: "pdf", Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, []byte("PDFBYTES"), blob)
	assert.Equal(t, "quality-report-2026-08-31.pdf", name)

	_, _, err = c.ExportReport(context.Background(), ExportRequest{Format: "csv"})
	assert.Error(t, err, "csv is built client-side, not server-rendered")
}

func TestRetryOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"totals":{"score":55}}}`))
	}))
	defer srv.Close()

	c := NewClient(config.BackendConfig{
		BaseURL: srv.URL, BearerToken: "test-token", Timeout: 2000, Retries: 3, BackoffMS: 1,
	}, logger.NewNop())

	snap, err := c.GetQualitySummary(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, 55.0, snap.Totals.Score)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSummaryBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(config.BackendConfig{
		BaseURL: srv.URL, Timeout: 500, Retries: 1, BackoffMS: 1,
	}, logger.NewNop())

	for i := 0; i < 6; i++ {
		_, err := c.GetQualitySummary(context.Background(), "ds-1")
		require.Error(t, err)
	}

	// breaker is now open; the call fails fast without touching the server
	start := time.Now()
	_, err := c.GetQualitySummary(context.Background(), "ds-1")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dataplane-labs/quality-sync/internal/models"
)

// Format selects one of the client-side builders. The heavier report
// formats (xlsx, pdf, docx) are rendered by the backend instead, see
// restapi.ExportReport.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatSQL  Format = "sql"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV, FormatJSON, FormatSQL:
		return Format(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Build renders the asset's column list in the requested format. Pure
// text generation, no backend round-trip.
func Build(format Format, asset models.Asset) (string, error) {
	switch format {
	case FormatCSV:
		return BuildCSV(asset)
	case FormatJSON:
		return BuildJSON(asset)
	case FormatSQL:
		return BuildSQL(asset), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

// BuildCSV renders one row per column with the profiling numbers.
func BuildCSV(asset models.Asset) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	header := []string{
		"name", "dataType", "nullable", "isPrimaryKey", "isForeignKey",
		"isPII", "isEncrypted", "nullPercentage", "uniquePercentage", "issues",
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to build csv: %w", err)
	}

	for _, col := range asset.Columns {
		issues := make([]string, 0, len(col.QualityIssues))
		for _, issue := range col.QualityIssues {
			issues = append(issues, string(issue.Type))
		}
		record := []string{
			col.Name,
			col.DataType,
			strconv.FormatBool(col.Nullable),
			strconv.FormatBool(col.IsPrimaryKey),
			strconv.FormatBool(col.IsForeignKey),
			strconv.FormatBool(col.IsPII),
			strconv.FormatBool(col.IsEncrypted),
			strconv.FormatFloat(col.NullPercentage, 'f', 2, 64),
			strconv.FormatFloat(col.UniquePercentage, 'f', 2, 64),
			strings.Join(issues, ";"),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to build csv: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to build csv: %w", err)
	}
	return buf.String(), nil
}

// BuildJSON renders the full asset, indented.
func BuildJSON(asset models.Asset) (string, error) {
	raw, err := json.MarshalIndent(asset, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to build json: %w", err)
	}
	return string(raw) + "\n", nil
}

// BuildSQL reconstructs a CREATE TABLE statement from the profiled
// columns. Types come through as profiled; this is documentation DDL,
// not a migration.
func BuildSQL(asset models.Asset) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "-- Schema reconstructed from quality profile of %s\n", asset.QualifiedName)
	fmt.Fprintf(&buf, "CREATE TABLE %s (\n", asset.QualifiedName)

	var primaryKeys []string
	for i, col := range asset.Columns {
		dataType := col.DataType
		if dataType == "" {
			dataType = "text"
		}
		fmt.Fprintf(&buf, "    %s %s", col.Name, dataType)
		if !col.Nullable {
			buf.WriteString(" NOT NULL")
		}
		if col.IsPrimaryKey {
			primaryKeys = append(primaryKeys, col.Name)
		}
		if i < len(asset.Columns)-1 || len(primaryKeys) > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	if len(primaryKeys) > 0 {
		fmt.Fprintf(&buf, "    PRIMARY KEY (%s)\n", strings.Join(primaryKeys, ", "))
	}
	buf.WriteString(");\n")
	return buf.String()
}

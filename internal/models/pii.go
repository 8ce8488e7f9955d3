package models

import (
	"errors"
	"regexp"
	"strings"
)

// PIIDetectionResult is one column verdict from POST /api/catalog/pii/detect.
type PIIDetectionResult struct {
	ColumnName string  `json:"columnName"`
	IsPII      bool    `json:"isPII"`
	PIIType    string  `json:"piiType"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// PIIClassification is the manual-override request body for
// POST /api/catalog/pii/classify.
type PIIClassification struct {
	DataSourceID string `json:"dataSourceId"`
	DatabaseName string `json:"databaseName"`
	SchemaName   string `json:"schemaName"`
	TableName    string `json:"tableName"`
	ColumnName   string `json:"columnName"`
	IsPII        bool   `json:"isPII"`
	PIIType      string `json:"piiType"`
	Reason       string `json:"reason"`
	UserID       string `json:"userId"`
}

// PIIRuleForm is the custom-rule editor payload for POST /api/pii-rules.
type PIIRuleForm struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PIIType     string   `json:"piiType"`
	Pattern     string   `json:"pattern"` // regex matched against values
	ColumnMatch string   `json:"columnMatch,omitempty"`
	AppliesTo   []string `json:"appliesTo,omitempty"` // data source ids, empty = all
	Enabled     bool     `json:"enabled"`
}

// Validate blocks submission locally; these errors are recoverable in the
// editor and never reach the backend.
func (f *PIIRuleForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("rule name is required")
	}
	if strings.TrimSpace(f.PIIType) == "" {
		return errors.New("pii type is required")
	}
	if strings.TrimSpace(f.Pattern) == "" {
		return errors.New("pattern is required")
	}
	if _, err := regexp.Compile(f.Pattern); err != nil {
		return errors.New("pattern is not a valid regular expression: " + err.Error())
	}
	if f.ColumnMatch != "" {
		if _, err := regexp.Compile(f.ColumnMatch); err != nil {
			return errors.New("column match is not a valid regular expression: " + err.Error())
		}
	}
	return nil
}

package models

// Column is one profiled column of an asset, as returned by
// GET /api/assets/:id. Percentages are 0..100.
type Column struct {
	Name             string         `json:"name"`
	DataType         string         `json:"dataType"`
	Nullable         bool           `json:"nullable"`
	IsPrimaryKey     bool           `json:"isPrimaryKey"`
	IsForeignKey     bool           `json:"isForeignKey"`
	IsPII            bool           `json:"isPII"`
	IsEncrypted      bool           `json:"isEncrypted"`
	PIIType          string         `json:"piiType,omitempty"`
	NullPercentage   float64        `json:"nullPercentage"`
	UniquePercentage float64        `json:"uniquePercentage"`
	SampleValues     []string       `json:"sampleValues,omitempty"`
	QualityIssues    []QualityIssue `json:"qualityIssues,omitempty"`
}

type QualityIssue struct {
	Type        IssueType `json:"type"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
}

// Asset groups the columns of one profiled table/view.
type Asset struct {
	ID            string   `json:"id"`
	QualifiedName string   `json:"qualifiedName"` // schema.table
	AssetType     string   `json:"assetType"`     // table, view
	Columns       []Column `json:"columns"`
}

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dataplane-labs/quality-sync/internal/export"
	"github.com/dataplane-labs/quality-sync/internal/insights"
	"github.com/dataplane-labs/quality-sync/internal/models"
)

// AssetFetcher loads the column profile behind an alert's table.
type AssetFetcher interface {
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
}

// assetDetail is the drill-down state for one table: its column profile
// plus the insights derived from it.
type assetDetail struct {
	asset    *models.Asset
	insights []insights.Insight
}

type assetMsg struct {
	detail *assetDetail
	err    error
}

type exportedMsg struct {
	path string
	err  error
}

func loadAsset(fetcher AssetFetcher, table string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		asset, err := fetcher.GetAsset(ctx, table)
		if err != nil {
			return assetMsg{err: err}
		}
		return assetMsg{detail: &assetDetail{
			asset:    asset,
			insights: insights.Generate(*asset),
		}}
	}
}

func exportColumns(writer *export.Writer, asset models.Asset) tea.Cmd {
	return func() tea.Msg {
		text, err := export.Build(export.FormatCSV, asset)
		if err != nil {
			return exportedMsg{err: err}
		}
		path, err := writer.WriteText(asset.QualifiedName, export.FormatCSV, text)
		return exportedMsg{path: path, err: err}
	}
}

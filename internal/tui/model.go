package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dataplane-labs/quality-sync/internal/export"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/internal/projector"
	"github.com/dataplane-labs/quality-sync/internal/search"
	"github.com/dataplane-labs/quality-sync/internal/syncer"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

type snapshotMsg projector.View

// Model renders projector snapshots. It holds no quality state of its
// own: every frame is a pure function of the latest View copy plus
// local cursor/filter state.
type Model struct {
	handle   *syncer.Handle
	index    *search.AlertIndex
	assets   AssetFetcher
	exporter *export.Writer
	logger   logger.Logger

	updates <-chan struct{}
	view    projector.View

	filter    textinput.Model
	filtering bool
	cursor    int

	detail  *assetDetail
	loading bool
	status  string

	width, height int
}

func New(handle *syncer.Handle, index *search.AlertIndex, assets AssetFetcher, exporter *export.Writer, log logger.Logger) Model {
	filter := textinput.New()
	filter.Placeholder = "severity:critical AND table:orders"
	filter.Prompt = "/ "
	filter.CharLimit = 120

	return Model{
		handle:   handle,
		index:    index,
		assets:   assets,
		exporter: exporter,
		logger:   log,
		updates:  handle.Projector.Subscribe(),
		view:     handle.Projector.Snapshot(),
		filter:   filter,
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.handle, m.updates)
}

func waitForUpdate(handle *syncer.Handle, updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return snapshotMsg(handle.Projector.Snapshot())
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case snapshotMsg:
		m.view = projector.View(msg)
		if err := m.index.Reindex(m.view.Alerts); err != nil {
			m.logger.Warn("failed to reindex alerts", "error", err)
		}
		m.clampCursor()
		return m, waitForUpdate(m.handle, m.updates)

	case assetMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "failed to load table detail: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.status = ""
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "columns written to " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "enter", "esc":
				m.filtering = false
				m.filter.Blur()
				m.clampCursor()
				return m, nil
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.clampCursor()
				return m, cmd
			}
		}

		if m.detail != nil {
			switch msg.String() {
			case "ctrl+c", "q":
				m.handle.Release()
				return m, tea.Quit
			case "esc", "x":
				m.detail = nil
				m.status = ""
				return m, nil
			case "s":
				if m.exporter != nil {
					return m, exportColumns(m.exporter, *m.detail.asset)
				}
				return m, nil
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.handle.Release()
			return m, tea.Quit

		case "enter":
			if alert, ok := m.selectedAlert(); ok && alert.Table != "" && m.assets != nil && !m.loading {
				m.loading = true
				m.status = "loading " + alert.Table + "..."
				return m, loadAsset(m.assets, alert.Table)
			}
			return m, nil

		case "/":
			m.filtering = true
			m.filter.Focus()
			return m, nil

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "j":
			if m.cursor < len(m.visibleAlerts())-1 {
				m.cursor++
			}
			return m, nil

		case "x", "esc":
			m.handle.Projector.ClearError()
			m.view.LastError = ""
			return m, nil

		case "a":
			if alert, ok := m.selectedAlert(); ok && len(alert.Recommendations) > 0 {
				m.handle.Dispatcher.ApplyRecommendation(alert.ID, 0)
			}
			return m, nil

		case "p":
			if alert, ok := m.selectedAlert(); ok && alert.Table != "" {
				m.handle.Dispatcher.RequestPrediction(alert.Table, "quality_score")
			}
			return m, nil
		}
	}

	return m, nil
}

func (m Model) View() string {
	sections := []string{renderHeader(m.handle.Scope, m.view)}

	if m.detail != nil {
		sections = append(sections, renderDetail(m.detail))
	} else {
		sections = append(sections,
			renderScoreCard(m.view.Score),
			renderQuickStats(m.view.Stats),
			renderAlerts(m.visibleAlerts(), m.cursor, m.filter.Value()),
		)
		if preds := renderPredictions(m.view.Predictions); preds != "" {
			sections = append(sections, preds)
		}
		if m.filtering {
			sections = append(sections, m.filter.View())
		}
	}

	if m.status != "" {
		sections = append(sections, faintStyle.Render(m.status))
	}
	if errLine := renderError(m.view.LastError); errLine != "" {
		sections = append(sections, errLine)
	}
	sections = append(sections, renderFooter(m.detail != nil))
	return strings.Join(sections, "\n")
}

func (m Model) visibleAlerts() []models.ActiveAlert {
	return m.index.Filter(m.view.Alerts, m.filter.Value())
}

func (m Model) selectedAlert() (models.ActiveAlert, bool) {
	visible := m.visibleAlerts()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return models.ActiveAlert{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) clampCursor() {
	visible := len(m.visibleAlerts())
	if visible == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= visible {
		m.cursor = visible - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/grindlemire/go-lucene"
	"github.com/grindlemire/go-lucene/pkg/lucene/expr"

	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// alertDoc is the indexed projection of an active alert. Field names
// here are what filter strings address, e.g. severity:critical.
type alertDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Table       string `json:"table"`
	Severity    string `json:"severity"`
}

// AlertIndex filters the alert feed. The index lives in memory and is
// rebuilt from the projector's alert list on every update; the feed is
// small by definition (active alerts only).
type AlertIndex struct {
	mu     sync.Mutex
	index  bleve.Index
	logger logger.Logger
}

func NewAlertIndex(log logger.Logger) (*AlertIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create alert index: %w", err)
	}
	return &AlertIndex{index: idx, logger: log}, nil
}

// Reindex replaces the index contents with the given alerts.
func (ai *AlertIndex) Reindex(alerts []models.ActiveAlert) error {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to rebuild alert index: %w", err)
	}

	batch := idx.NewBatch()
	for _, a := range alerts {
		doc := alertDoc{
			Title:       a.Title,
			Description: a.Description,
			Table:       a.Table,
			Severity:    string(a.Severity),
		}
		if err := batch.Index(a.ID, doc); err != nil {
			return fmt.Errorf("failed to index alert %s: %w", a.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply alert index batch: %w", err)
	}

	ai.mu.Lock()
	old := ai.index
	ai.index = idx
	ai.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Filter returns the alerts matching the filter string, in their
// original order. Field-scoped queries (severity:critical AND
// table:orders) are parsed as lucene; anything unparsable falls back to
// a plain match across all fields. An empty filter matches everything.
func (ai *AlertIndex) Filter(alerts []models.ActiveAlert, filter string) []models.ActiveAlert {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return alerts
	}

	q := ai.buildQuery(filter)
	req := bleve.NewSearchRequest(q)
	req.Size = len(alerts)

	ai.mu.Lock()
	idx := ai.index
	ai.mu.Unlock()

	res, err := idx.Search(req)
	if err != nil {
		ai.logger.Warn("alert search failed", "filter", filter, "error", err)
		return nil
	}

	matched := make(map[string]bool, len(res.Hits))
	for _, hit := range res.Hits {
		matched[hit.ID] = true
	}

	out := make([]models.ActiveAlert, 0, len(res.Hits))
	for _, a := range alerts {
		if matched[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func (ai *AlertIndex) buildQuery(filter string) query.Query {
	if strings.Contains(filter, ":") {
		parsed, err := lucene.Parse(filter)
		if err == nil {
			if q := toBleveQuery(parsed); q != nil {
				return q
			}
		}
		ai.logger.Debug("filter not parseable as lucene, matching verbatim", "filter", filter)
	}
	return bleve.NewMatchQuery(filter)
}

// toBleveQuery converts the supported subset of lucene expressions.
// Returns nil on anything it does not understand, which sends the whole
// filter down the plain-match path.
func toBleveQuery(e *expr.Expression) query.Query {
	switch e.Op {
	case expr.And:
		left, right := operandQueries(e)
		if left == nil || right == nil {
			return nil
		}
		return bleve.NewConjunctionQuery(left, right)

	case expr.Or:
		left, right := operandQueries(e)
		if left == nil || right == nil {
			return nil
		}
		return bleve.NewDisjunctionQuery(left, right)

	case expr.Equals:
		field := literalString(e.Left)
		value := literalString(e.Right)
		if field == "" || value == "" {
			return nil
		}
		q := bleve.NewMatchQuery(value)
		q.SetField(strings.ToLower(field))
		return q

	case expr.Literal:
		if s := literalString(e); s != "" {
			return bleve.NewMatchQuery(s)
		}
		return nil

	default:
		return nil
	}
}

func operandQueries(e *expr.Expression) (query.Query, query.Query) {
	var left, right query.Query
	if le, ok := e.Left.(*expr.Expression); ok {
		left = toBleveQuery(le)
	}
	if re, ok := e.Right.(*expr.Expression); ok {
		right = toBleveQuery(re)
	}
	return left, right
}

func literalString(v interface{}) string {
	switch t := v.(type) {
	case *expr.Expression:
		if t.Op == expr.Literal {
			return literalString(t.Left)
		}
		return ""
	case expr.Column:
		return string(t)
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}

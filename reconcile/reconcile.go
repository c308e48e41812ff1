package reconcile

import (
	"math"
	"strings"
	"time"

	"medicao/catalog"
	"medicao/models"
)

// MatchStore is the learned-match memory: normalized description keys
// mapped to previously confirmed catalog codes. Entries are overwritten
// on every confirmation and never expire.
type MatchStore interface {
	Get(key string) (string, bool, error)
	Put(key, code string) error
	Keys() ([]string, error)
}

// Match sources reported on a draft, in resolution order.
const (
	SourceCode        = "code"
	SourceLearned     = "learned"
	SourceDescription = "description"
)

// Occurrence is one extracted or manually entered service occurrence to
// be priced.
type Occurrence struct {
	Description string
	Quantity    float64
	Unit        string
	RawCode     string
}

// Draft is the reconciliation outcome before operator confirmation.
type Draft struct {
	Occurrence  Occurrence
	Matched     bool
	MatchSource string
	Item        *models.PriceItem
	Flags       []string
}

// Engine matches service occurrences against the price catalog, using the
// learned-match history for recurring free-text phrasing. The history is
// only ever written on operator confirmation — matching never learns by
// itself.
type Engine struct {
	catalog *catalog.Catalog
	history MatchStore
}

func NewEngine(cat *catalog.Catalog, history MatchStore) *Engine {
	return &Engine{catalog: cat, history: history}
}

// NormalizeDescription produces the learned-match key for a free-text
// service description.
func NormalizeDescription(desc string) string {
	return strings.Join(catalog.Tokenize(desc), " ")
}

// Reconcile resolves one occurrence: extracted raw code first, then the
// learned history, then unmatched. Quantity <= 0 is recorded but flagged
// so the caller can warn the operator.
func (e *Engine) Reconcile(occ Occurrence) Draft {
	draft := Draft{Occurrence: occ}
	if occ.Quantity <= 0 {
		draft.Flags = append(draft.Flags, "quantidade zerada ou negativa")
	}

	if occ.RawCode != "" {
		if item := e.catalog.FindExact(occ.RawCode); item != nil {
			draft.Matched = true
			draft.MatchSource = SourceCode
			draft.Item = item
			return draft
		}
	}

	key := NormalizeDescription(occ.Description)
	if key != "" && e.history != nil {
		if code, ok := e.lookupLearned(key); ok {
			if item := e.catalog.FindByCode(code); item != nil {
				draft.Matched = true
				draft.MatchSource = SourceLearned
				draft.Item = item
				return draft
			}
		}
	}

	return draft
}

// Suggest falls back to keyword description matching when Reconcile left
// the occurrence unmatched. Kept separate because a keyword hit is a
// suggestion for the operator, not an auto-accepted match.
func (e *Engine) Suggest(occ Occurrence) *models.PriceItem {
	return e.catalog.FindByDescription(occ.Description)
}

// lookupLearned tries the exact key, then any stored key that contains or
// is contained by the query. First such key wins.
func (e *Engine) lookupLearned(key string) (string, bool) {
	if code, ok, err := e.history.Get(key); err == nil && ok {
		return code, true
	}
	keys, err := e.history.Keys()
	if err != nil {
		return "", false
	}
	for _, stored := range keys {
		if stored == "" {
			continue
		}
		if strings.Contains(stored, key) || strings.Contains(key, stored) {
			if code, ok, err := e.history.Get(stored); err == nil && ok {
				return code, true
			}
		}
	}
	return "", false
}

// Confirm applies the operator's choice: the learned mapping is written
// (or overwritten) and the entry is priced. TotalValue is computed here,
// once, and is never re-derived if the catalog price changes later.
func (e *Engine) Confirm(occ Occurrence, chosenCode string) (models.ServiceEntry, error) {
	entry := models.ServiceEntry{
		Description: occ.Description,
		Quantity:    occ.Quantity,
		Unit:        occ.Unit,
		Code:        chosenCode,
		CreatedAt:   time.Now(),
	}

	item := e.catalog.FindByCode(chosenCode)
	if item != nil {
		entry.Code = item.Code
		entry.UnitPrice = item.UnitPrice
		itemID := item.ID
		entry.PriceItemID = &itemID
		if entry.Unit == "" {
			entry.Unit = item.Unit
		}
	}
	entry.TotalValue = round2(entry.Quantity * entry.UnitPrice)

	if e.history != nil && chosenCode != "" {
		if key := NormalizeDescription(occ.Description); key != "" {
			if err := e.history.Put(key, entry.Code); err != nil {
				return entry, err
			}
		}
	}
	return entry, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

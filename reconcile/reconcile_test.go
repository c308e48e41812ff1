package reconcile

import (
	"testing"

	"medicao/catalog"
	"medicao/models"
)

type memoryMatchStore struct {
	entries map[string]string
}

func newMemoryMatchStore() *memoryMatchStore {
	return &memoryMatchStore{entries: map[string]string{}}
}

func (m *memoryMatchStore) Get(key string) (string, bool, error) {
	code, ok := m.entries[key]
	return code, ok, nil
}

func (m *memoryMatchStore) Put(key, code string) error {
	m.entries[key] = code
	return nil
}

func (m *memoryMatchStore) Keys() ([]string, error) {
	out := make([]string, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}
	return out, nil
}

func testEngine() (*Engine, *memoryMatchStore) {
	cat := catalog.New([]models.PriceItem{
		{ID: 1, Code: "BSO-01", Description: "Revestimento em argamassa", Unit: "m²", UnitPrice: 45.50},
		{ID: 2, Code: "BSO-02", Description: "Pintura acrílica", Unit: "m²", UnitPrice: 18.20},
	})
	store := newMemoryMatchStore()
	return NewEngine(cat, store), store
}

func TestReconcileByRawCode(t *testing.T) {
	e, _ := testEngine()

	draft := e.Reconcile(Occurrence{Description: "Revestimento em argamassa", Quantity: 10, RawCode: "BSO-01"})
	if !draft.Matched || draft.MatchSource != SourceCode {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if draft.Item == nil || draft.Item.UnitPrice != 45.50 {
		t.Fatalf("wrong item: %+v", draft.Item)
	}
}

func TestReconcileUnmatched(t *testing.T) {
	e, _ := testEngine()

	draft := e.Reconcile(Occurrence{Description: "Serviço desconhecido de drenagem", Quantity: 3})
	if draft.Matched {
		t.Fatalf("expected unmatched draft, got %+v", draft)
	}
	if draft.Item != nil {
		t.Fatalf("unmatched draft must carry no item")
	}
}

func TestConfirmThenLearnedMatch(t *testing.T) {
	e, store := testEngine()

	occ := Occurrence{Description: "Execução de revestimento argamassado", Quantity: 10, Unit: "m²"}
	if d := e.Reconcile(occ); d.Matched {
		t.Fatalf("expected no match before confirmation: %+v", d)
	}

	entry, err := e.Confirm(occ, "BSO-01")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Code != "BSO-01" || entry.UnitPrice != 45.50 {
		t.Fatalf("confirmed entry wrong: %+v", entry)
	}
	if entry.TotalValue != 455.00 {
		t.Fatalf("total = %v, want 455.00", entry.TotalValue)
	}
	if len(store.entries) != 1 {
		t.Fatalf("match history not written: %+v", store.entries)
	}

	// the same phrasing now auto-resolves without operator input
	draft := e.Reconcile(Occurrence{Description: "Execução de revestimento argamassado", Quantity: 4})
	if !draft.Matched || draft.MatchSource != SourceLearned {
		t.Fatalf("learned match did not resolve: %+v", draft)
	}
	if draft.Item == nil || draft.Item.Code != "BSO-01" {
		t.Fatalf("learned match picked wrong item: %+v", draft.Item)
	}
}

func TestLearnedMatchSubstring(t *testing.T) {
	e, store := testEngine()
	_ = store.Put(NormalizeDescription("pintura acrílica sobre reboco"), "BSO-02")

	// query is a token-subset of the stored key
	draft := e.Reconcile(Occurrence{Description: "Pintura acrílica", Quantity: 2})
	if !draft.Matched || draft.MatchSource != SourceLearned {
		t.Fatalf("substring learned match failed: %+v", draft)
	}
}

func TestConfirmOverridesLearnedMapping(t *testing.T) {
	e, store := testEngine()

	occ := Occurrence{Description: "Pintura de parede", Quantity: 1}
	if _, err := e.Confirm(occ, "BSO-01"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Confirm(occ, "BSO-02"); err != nil {
		t.Fatal(err)
	}

	key := NormalizeDescription(occ.Description)
	if code := store.entries[key]; code != "BSO-02" {
		t.Fatalf("correction not stored, key %q holds %q", key, code)
	}
}

func TestQuantityZeroFlaggedNotRejected(t *testing.T) {
	e, _ := testEngine()

	draft := e.Reconcile(Occurrence{Description: "Revestimento", Quantity: 0, RawCode: "BSO-01"})
	if !draft.Matched {
		t.Fatalf("zero quantity must still match: %+v", draft)
	}
	if len(draft.Flags) == 0 {
		t.Fatal("zero quantity should be flagged")
	}

	entry, err := e.Confirm(Occurrence{Description: "Revestimento", Quantity: 0}, "BSO-01")
	if err != nil {
		t.Fatal(err)
	}
	if entry.TotalValue != 0 {
		t.Fatalf("total = %v, want 0", entry.TotalValue)
	}
}

func TestTotalValueFrozenAtConfirmation(t *testing.T) {
	cat := catalog.New([]models.PriceItem{
		{ID: 1, Code: "BSO-01", Description: "Revestimento", Unit: "m²", UnitPrice: 45.50},
	})
	e := NewEngine(cat, newMemoryMatchStore())

	entry, err := e.Confirm(Occurrence{Description: "Revestimento", Quantity: 10}, "BSO-01")
	if err != nil {
		t.Fatal(err)
	}
	if entry.TotalValue != 455.00 {
		t.Fatalf("total = %v", entry.TotalValue)
	}

	// a later price change must not affect the recorded entry
	cat.Upsert(models.PriceItem{ID: 1, Code: "BSO-01", Description: "Revestimento", Unit: "m²", UnitPrice: 99})
	if entry.TotalValue != 455.00 {
		t.Fatalf("total drifted to %v after price change", entry.TotalValue)
	}
}

package catalog

import (
	"testing"

	"medicao/models"
)

func testItems() []models.PriceItem {
	return []models.PriceItem{
		{ID: 1, Code: "BSO-01", Description: "Revestimento em argamassa", Unit: "m²", UnitPrice: 45.50},
		{ID: 2, Code: "BSO-02", Description: "Pintura acrílica sobre reboco", Unit: "m²", UnitPrice: 18.20},
		{ID: 3, Code: "TP-1", Description: "Tapa buraco com CBUQ", Unit: "t", UnitPrice: 830},
	}
}

func TestFindByCode(t *testing.T) {
	c := New(testItems())

	if item := c.FindByCode("bso-01"); item == nil || item.ID != 1 {
		t.Fatalf("exact normalized lookup failed: %+v", item)
	}
	if item := c.FindByCode("BSO 02"); item == nil || item.ID != 2 {
		t.Fatalf("separator-insensitive lookup failed: %+v", item)
	}
	// substring containment: query longer than the stored code
	if item := c.FindByCode("TP-1a"); item == nil || item.ID != 3 {
		t.Fatalf("substring lookup failed: %+v", item)
	}
	if item := c.FindByCode("ZZZ-99"); item != nil {
		t.Fatalf("expected nil for unknown code, got %+v", item)
	}
}

func TestFindByDescription(t *testing.T) {
	c := New(testItems())

	if item := c.FindByDescription("pintura acrilica"); item == nil || item.ID != 2 {
		t.Fatalf("keyword lookup failed: %+v", item)
	}
	// below the relevance floor: only short/no tokens match
	if item := c.FindByDescription("em de"); item != nil {
		t.Fatalf("expected nil below relevance floor, got %+v", item)
	}
	if item := c.FindByDescription(""); item != nil {
		t.Fatalf("expected nil for empty query, got %+v", item)
	}
}

func TestUpsertMergesByNormalizedCode(t *testing.T) {
	c := New(testItems())
	before := c.Len()

	c.Upsert(models.PriceItem{ID: 9, Code: "bso 01", Description: "Revestimento atualizado", UnitPrice: 52})

	if c.Len() != before {
		t.Fatalf("catalog grew from %d to %d on re-ingest of same code", before, c.Len())
	}
	item := c.FindByCode("BSO-01")
	if item == nil || item.UnitPrice != 52 || item.Description != "Revestimento atualizado" {
		t.Fatalf("merge did not overwrite: %+v", item)
	}
}

func TestLooksLikeServiceCode(t *testing.T) {
	valid := []string{"BSO-01", "TP-1", "A1", "DREN.02", "SERV 9"}
	for _, s := range valid {
		if !LooksLikeServiceCode(s) {
			t.Errorf("%q should be accepted as a service code", s)
		}
	}
	invalid := []string{"", "PAVIMENTAÇÃO", "Subtotal", "12345", "ITEMCODE-1"}
	for _, s := range invalid {
		if LooksLikeServiceCode(s) {
			t.Errorf("%q should be rejected as a service code", s)
		}
	}
}

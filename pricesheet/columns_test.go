package pricesheet

import "testing"

func TestInferColumnsHeaderPattern(t *testing.T) {
	grid := [][]string{
		{"Código", "Descrição", "Unidade", "Qtd", "P.Unit", "Valor"},
		{"BSO-01", "Revestimento em argamassa", "m²", "10", "45,50", "455,00"},
	}

	m := InferColumns(grid)
	if m == nil {
		t.Fatal("expected a column map, got nil")
	}
	if m.HeaderRow != 0 {
		t.Fatalf("header row = %d, want 0", m.HeaderRow)
	}
	want := []struct {
		name string
		got  int
		col  int
	}{
		{"code", m.Code, 0},
		{"description", m.Description, 1},
		{"unit", m.Unit, 2},
		{"quantity", m.Quantity, 3},
		{"price", m.Price, 4},
		{"total", m.Total, 5},
	}
	for _, w := range want {
		if w.got != w.col {
			t.Errorf("%s column = %d, want %d", w.name, w.got, w.col)
		}
	}
	if len(m.PriceCandidates) != 1 || m.PriceCandidates[0] != 4 {
		t.Errorf("price candidates = %v, want [4]", m.PriceCandidates)
	}
}

func TestInferColumnsMultiplePriceCandidates(t *testing.T) {
	grid := [][]string{
		{"Item", "Especificação", "Und", "Preço Unitário", "Preço Unit. Reajustado", "Total"},
	}

	m := InferColumns(grid)
	if m == nil {
		t.Fatal("expected a column map, got nil")
	}
	if len(m.PriceCandidates) != 2 {
		t.Fatalf("price candidates = %v, want two entries", m.PriceCandidates)
	}
	if m.Price != 3 {
		t.Fatalf("primary price column = %d, want 3", m.Price)
	}
	if m.Total != 5 {
		t.Fatalf("total column = %d, want 5", m.Total)
	}
}

func TestInferColumnsDescriptionOnly(t *testing.T) {
	// code column is inferred as description-1 when only the description
	// header is present
	grid := [][]string{
		{"", "Descrição dos Serviços", "Un", "Quant.", "Preço Unit."},
	}

	m := InferColumns(grid)
	if m == nil {
		t.Fatal("expected a column map, got nil")
	}
	if m.Code != 0 || m.Description != 1 {
		t.Fatalf("code/description = %d/%d, want 0/1", m.Code, m.Description)
	}
}

func TestInferColumnsKnownTemplate(t *testing.T) {
	grid := [][]string{
		{"PLANILHA DE MEDIÇÃO"},
		{"", "DESCRIÇÃO SERVIÇO", "", "", "", ""},
		{"TP-1", "Tapa buraco", "t", "2,5", "830,00", "2.075,00"},
	}

	m := InferColumns(grid)
	if m == nil {
		t.Fatal("expected a column map, got nil")
	}
	if m.HeaderRow != 1 {
		t.Fatalf("header row = %d, want 1", m.HeaderRow)
	}
	if m.Description != 1 || m.Price != 4 || m.Total != 5 {
		t.Fatalf("unexpected layout: %+v", m)
	}
}

func TestInferColumnsNumericShapeFallback(t *testing.T) {
	grid := [][]string{
		{"Planilha obra 2024", "", "", ""},
		{"X1", "Some text here", "3.50", "12.00"},
	}

	m := InferColumns(grid)
	if m == nil {
		t.Fatal("expected numeric-shape pass to produce a column map")
	}
	if m.Total != 3 {
		t.Fatalf("total column = %d, want 3 (rightmost numeric)", m.Total)
	}
	if m.Price != 2 {
		t.Fatalf("price column = %d, want 2", m.Price)
	}
}

func TestInferColumnsNoMatch(t *testing.T) {
	grid := [][]string{
		{"a", "b"},
		{"c", "d"},
	}
	if m := InferColumns(grid); m != nil {
		t.Fatalf("expected nil, got %+v", m)
	}
}

func TestNaiveLayout(t *testing.T) {
	code, desc, price := NaiveLayout([]string{"BSO-01", "Revestimento", "m²", "45,50"}, DefaultInferConfig())
	if code != "BSO-01" || desc != "Revestimento" {
		t.Fatalf("code/desc = %q/%q", code, desc)
	}
	if ParsePrice(price) != 45.5 {
		t.Fatalf("price cell = %q, want 45,50", price)
	}
}

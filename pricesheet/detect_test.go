package pricesheet

import "testing"

func TestDetectContractor(t *testing.T) {
	grid := [][]string{
		{"PLANILHA DE PREÇOS"},
		{"Contratada: Construtora Horizonte Ltda"},
		{"Contrato: 071/2023"},
		{"Código", "Descrição", "Und", "Preço Unit."},
	}

	contractor, contract := DetectContractor(grid)
	if contractor != "Construtora Horizonte Ltda" {
		t.Fatalf("contractor = %q", contractor)
	}
	if contract != "071/2023" {
		t.Fatalf("contract = %q", contract)
	}
}

func TestDetectContractorSameRow(t *testing.T) {
	grid := [][]string{
		{"Contratada: Pavimenta SA", "Contrato Nº 12/2024"},
	}

	contractor, contract := DetectContractor(grid)
	if contractor != "Pavimenta SA" {
		t.Fatalf("contractor = %q", contractor)
	}
	if contract != "12/2024" {
		t.Fatalf("contract = %q", contract)
	}
}

func TestDetectContractorEmpty(t *testing.T) {
	grid := [][]string{
		{"Código", "Descrição"},
		{"BSO-01", "Revestimento"},
	}
	contractor, contract := DetectContractor(grid)
	if contractor != "" || contract != "" {
		t.Fatalf("expected empty detection, got %q / %q", contractor, contract)
	}
}

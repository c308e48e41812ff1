package catalog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"medicao/models"
)

type memoryStore struct {
	sheetCount int
	saved      []models.PriceItem
	savedFiles []models.PriceSheetFile
	failSave   bool
}

func (m *memoryStore) CountSheetFiles(contractor string) (int, error) {
	return m.sheetCount, nil
}

func (m *memoryStore) SaveSheetBatch(file *models.PriceSheetFile, items []models.PriceItem) error {
	if m.failSave {
		return errors.New("insert failed")
	}
	m.savedFiles = append(m.savedFiles, *file)
	m.saved = append(m.saved, items...)
	return nil
}

const sampleCSV = `Contratada: Construtora Horizonte Ltda;;;;;
Contrato: 071/2023;;;;;
Código;Descrição;Unidade;Qtd;P.Unit;Valor
BSO-01;Revestimento em argamassa;m²;10;45,50;455,00
BSO-02;Pintura acrílica sobre reboco;m²;20;18,20;364,00
;Subtotal;;;;819,00
BSO-01;Revestimento em argamassa (repetido);m²;5;45,50;227,50
`

func TestIngestCSV(t *testing.T) {
	store := &memoryStore{}
	ing := NewIngestor(store)

	res, err := ing.Ingest("planilha.csv", []byte(sampleCSV), IngestOptions{FileID: "f-1", FilePath: "/tmp/f-1.csv"})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if res.Contractor != "Construtora Horizonte Ltda" {
		t.Errorf("contractor = %q", res.Contractor)
	}
	if res.Contract != "071/2023" {
		t.Errorf("contract = %q", res.Contract)
	}
	if res.Added != 2 {
		t.Fatalf("added = %d, want 2 (duplicate and subtotal rows skipped)", res.Added)
	}
	if len(res.Errors) == 0 {
		t.Error("expected skip reasons for the malformed rows")
	}

	if len(store.saved) != 2 {
		t.Fatalf("store has %d items", len(store.saved))
	}
	first := store.saved[0]
	if first.Code != "BSO-01" || first.UnitPrice != 45.5 || first.Unit != "m²" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.Contractor != "Construtora Horizonte Ltda" {
		t.Errorf("item contractor = %q", first.Contractor)
	}
	if first.SheetFileID == nil || *first.SheetFileID != "f-1" {
		t.Errorf("item not linked to sheet file: %+v", first.SheetFileID)
	}
}

func TestIngestWorkbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := "Pavimentação"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		t.Fatal(err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	rows := [][]interface{}{
		{"Contratada: Pavimenta SA", "", "", "", ""},
		{"Item", "Descrição dos Serviços", "Und", "Preço Unitário", "Total"},
		{"TP-1", "Tapa buraco com CBUQ", "t", "830,00", "2.075,00"},
		{"TP-2", "Selagem de trincas", "m", "12,40", "620,00"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	store := &memoryStore{}
	ing := NewIngestor(store)
	res, err := ing.Ingest("pavimenta.xlsx", buf.Bytes(), IngestOptions{FileID: "f-2", FilePath: "/tmp/f-2.xlsx"})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if res.Contractor != "Pavimenta SA" {
		t.Errorf("contractor = %q", res.Contractor)
	}
	if res.Added != 2 {
		t.Fatalf("added = %d, want 2", res.Added)
	}
	if store.saved[0].UnitPrice != 830 {
		t.Errorf("unit price = %v, want 830", store.saved[0].UnitPrice)
	}
	if store.saved[0].Category != sheet {
		t.Errorf("category = %q, want tab name", store.saved[0].Category)
	}
}

func TestIngestSheetCapRejected(t *testing.T) {
	store := &memoryStore{sheetCount: DefaultMaxSheetsPerContractor}
	ing := NewIngestor(store)

	_, err := ing.Ingest("planilha.csv", []byte(sampleCSV), IngestOptions{FileID: "f-3"})
	if !errors.Is(err, ErrSheetLimit) {
		t.Fatalf("err = %v, want ErrSheetLimit", err)
	}
	if len(store.saved) != 0 || len(store.savedFiles) != 0 {
		t.Fatal("rejected ingestion must not mutate the store")
	}
}

func TestIngestNoItems(t *testing.T) {
	store := &memoryStore{}
	ing := NewIngestor(store)

	empty := "apenas texto;sem preços\noutra linha;aqui\n"
	_, err := ing.Ingest("vazio.csv", []byte(empty), IngestOptions{FileID: "f-4"})
	if !errors.Is(err, ErrNoItems) {
		t.Fatalf("err = %v, want ErrNoItems", err)
	}
}

func TestIngestFileTooLarge(t *testing.T) {
	store := &memoryStore{}
	ing := NewIngestor(store)
	ing.SetLimits(0, 16)

	_, err := ing.Ingest("grande.csv", []byte(strings.Repeat("x", 64)), IngestOptions{})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}

package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"medicao/models"
	"medicao/pricesheet"
)

// Ingestion failure modes the caller is expected to surface verbatim.
var (
	ErrFileTooLarge = errors.New("price sheet file exceeds the size limit")
	ErrSheetLimit   = errors.New("price sheet limit reached for this contractor")
	ErrNoItems      = errors.New("no valid price items found in file")
)

const (
	DefaultMaxSheetsPerContractor = 20
	DefaultMaxFileSize            = 10 << 20

	minDescriptionLen = 3
)

// SheetStore persists an ingestion batch. SaveSheetBatch must be
// transactional: either the file record and every item land, or nothing
// does.
type SheetStore interface {
	CountSheetFiles(contractor string) (int, error)
	SaveSheetBatch(file *models.PriceSheetFile, items []models.PriceItem) error
}

// IngestOptions carries per-upload inputs that are not derived from the
// sheet contents.
type IngestOptions struct {
	FileID   string
	FilePath string
	// Contractor/Contract override the detected values when set
	Contractor string
	Contract   string
}

// IngestResult reports what one ingestion produced. Errors lists skipped
// rows for visibility; they are not fatal.
type IngestResult struct {
	Added      int
	Contractor string
	Contract   string
	Errors     []string
	File       *models.PriceSheetFile
}

// Ingestor parses uploaded price sheets into PriceItem batches and hands
// them to the store. The sheet-count cap is a check-then-act read against
// current state, so ingestion is serialized per contractor.
type Ingestor struct {
	store       SheetStore
	cfg         pricesheet.InferConfig
	maxSheets   int
	maxFileSize int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewIngestor(store SheetStore) *Ingestor {
	return &Ingestor{
		store:       store,
		cfg:         pricesheet.DefaultInferConfig(),
		maxSheets:   DefaultMaxSheetsPerContractor,
		maxFileSize: DefaultMaxFileSize,
		locks:       map[string]*sync.Mutex{},
	}
}

// SetLimits overrides the default caps (used by env configuration).
func (ing *Ingestor) SetLimits(maxSheets int, maxFileSize int64) {
	if maxSheets > 0 {
		ing.maxSheets = maxSheets
	}
	if maxFileSize > 0 {
		ing.maxFileSize = maxFileSize
	}
}

func (ing *Ingestor) contractorLock(contractor string) *sync.Mutex {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(contractor))
	if _, ok := ing.locks[key]; !ok {
		ing.locks[key] = &sync.Mutex{}
	}
	return ing.locks[key]
}

type sheetGrid struct {
	name string
	rows [][]string
}

// Ingest parses the uploaded workbook (xlsx) or delimited text file,
// detects contractor/contract, infers columns per tab, validates rows and
// persists the batch. The whole ingestion is rejected when the file is too
// large, the contractor's sheet cap would be exceeded, or no valid item
// was extracted from any tab.
func (ing *Ingestor) Ingest(fileName string, data []byte, opts IngestOptions) (*IngestResult, error) {
	if int64(len(data)) > ing.maxFileSize {
		return nil, ErrFileTooLarge
	}

	grids, err := loadGrids(fileName, data)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", fileName, err)
	}

	res := &IngestResult{Contractor: opts.Contractor, Contract: opts.Contract}

	// first non-empty detection wins across tabs
	for _, grid := range grids {
		if res.Contractor != "" && res.Contract != "" {
			break
		}
		contractor, contract := pricesheet.DetectContractor(grid.rows)
		if res.Contractor == "" {
			res.Contractor = contractor
		}
		if res.Contract == "" {
			res.Contract = contract
		}
	}

	batch := map[string]models.PriceItem{}
	var order []string
	for _, grid := range grids {
		ing.extractTab(grid, res, batch, &order)
	}
	if len(order) == 0 {
		return nil, ErrNoItems
	}

	lock := ing.contractorLock(res.Contractor)
	lock.Lock()
	defer lock.Unlock()

	count, err := ing.store.CountSheetFiles(res.Contractor)
	if err != nil {
		return nil, fmt.Errorf("sheet count check failed: %w", err)
	}
	if count >= ing.maxSheets {
		return nil, ErrSheetLimit
	}

	file := &models.PriceSheetFile{
		ID:         opts.FileID,
		FileName:   fileName,
		FilePath:   opts.FilePath,
		FileSize:   int64(len(data)),
		Contractor: res.Contractor,
		Contract:   res.Contract,
		ItemsCount: len(order),
		UploadedAt: time.Now(),
	}

	items := make([]models.PriceItem, 0, len(order))
	for _, key := range order {
		item := batch[key]
		item.Contractor = res.Contractor
		item.Contract = res.Contract
		item.Source = fileName
		item.SheetFileID = &file.ID
		items = append(items, item)
	}

	if err := ing.store.SaveSheetBatch(file, items); err != nil {
		return nil, err
	}

	res.Added = len(items)
	res.File = file
	return res, nil
}

// extractTab runs column inference over one tab and turns its data rows
// into batch items. Malformed rows are skipped and counted, not fatal.
// Duplicate codes within the batch keep the first occurrence.
func (ing *Ingestor) extractTab(grid sheetGrid, res *IngestResult, batch map[string]models.PriceItem, order *[]string) {
	if len(grid.rows) == 0 {
		return
	}

	cols := pricesheet.InferColumnsWith(grid.rows, ing.cfg)
	start := 0
	if cols != nil {
		start = cols.HeaderRow + 1
	}

	for r := start; r < len(grid.rows); r++ {
		row := grid.rows[r]
		if len(row) == 0 {
			continue
		}

		var code, desc, unit string
		var price float64
		if cols != nil {
			code = cellAt(row, cols.Code)
			desc = cellAt(row, cols.Description)
			unit = cellAt(row, cols.Unit)
			price = ing.rowPrice(row, cols)
		} else {
			var priceCell string
			code, desc, priceCell = pricesheet.NaiveLayout(row, ing.cfg)
			price = pricesheet.ParsePrice(priceCell)
		}

		if code == "" && desc == "" {
			continue
		}
		if !LooksLikeServiceCode(code) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: %q is not a service code", grid.name, r+1, code))
			continue
		}
		if len(strings.TrimSpace(desc)) < minDescriptionLen {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: description missing or too short", grid.name, r+1))
			continue
		}

		key := NormalizeCode(code)
		if _, dup := batch[key]; dup {
			res.Errors = append(res.Errors, fmt.Sprintf("%s row %d: duplicate code %s", grid.name, r+1, code))
			continue
		}

		now := time.Now()
		batch[key] = models.PriceItem{
			Code:        strings.TrimSpace(code),
			CodeNorm:    key,
			Description: strings.TrimSpace(desc),
			Unit:        strings.TrimSpace(unit),
			UnitPrice:   price,
			Category:    grid.name,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		*order = append(*order, key)
	}
}

// rowPrice tries the primary price column, then the remaining price
// candidates, then a rightmost numeric scan. 0 when everything fails.
func (ing *Ingestor) rowPrice(row []string, cols *pricesheet.ColumnMap) float64 {
	if v := pricesheet.ParsePrice(cellAt(row, cols.Price)); v > 0 {
		return v
	}
	for _, c := range cols.PriceCandidates {
		if c == cols.Price {
			continue
		}
		if v := pricesheet.ParsePrice(cellAt(row, c)); v > 0 {
			return v
		}
	}
	for c := len(row) - 1; c >= 2; c-- {
		v := pricesheet.ParsePrice(row[c])
		if v > ing.cfg.NumericMin && v < ing.cfg.NumericMax {
			return v
		}
	}
	return 0
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// loadGrids reads every tab of an xlsx workbook, or a single grid from a
// delimited text file.
func loadGrids(fileName string, data []byte) ([]sheetGrid, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".xlsx" || ext == ".xlsm" || ext == ".xls" {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var grids []sheetGrid
		for _, sheet := range f.GetSheetList() {
			rows, err := f.GetRows(sheet)
			if err != nil {
				continue
			}
			if len(rows) == 0 {
				continue
			}
			grids = append(grids, sheetGrid{name: sheet, rows: rows})
		}
		return grids, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	return []sheetGrid{{name: name, rows: rows}}, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	semis := bytes.Count(line, []byte{';'})
	tabs := bytes.Count(line, []byte{'\t'})
	commas := bytes.Count(line, []byte{','})
	if semis >= commas && semis >= tabs && semis > 0 {
		return ';'
	}
	if tabs > commas {
		return '\t'
	}
	return ','
}

package pricesheet

import (
	"regexp"
	"strings"
)

// ColumnMap is the result of column inference over one sheet. A value of
// -1 means the column could not be located.
type ColumnMap struct {
	HeaderRow       int
	Code            int
	Description     int
	Unit            int
	Quantity        int
	Price           int
	Total           int
	PriceCandidates []int
}

// InferConfig carries the tunable thresholds of the numeric fallback pass.
// The defaults match the values the sheets we receive were tuned against;
// they are deliberately not hard-coded so they can be adjusted per client.
type InferConfig struct {
	MaxHeaderScanRows int
	MinNumericCols    int
	MinHeaderCellLen  int
	NumericMin        float64
	NumericMax        float64
}

func DefaultInferConfig() InferConfig {
	return InferConfig{
		MaxHeaderScanRows: 25,
		MinNumericCols:    2,
		MinHeaderCellLen:  5,
		NumericMin:        0,
		NumericMax:        1_000_000,
	}
}

var (
	reCodeHeader  = regexp.MustCompile(`^(COD(IGO)?\.?|ITEM|ID|REF\.?|SERVICO?S?)$|^COD\.? `)
	reDescHeader  = regexp.MustCompile(`DESCRICAO|DESCRIPTION|DISCRIMINACAO|ESPECIFICACAO|DESCR\.`)
	reUnitHeader  = regexp.MustCompile(`^(UNID(ADE)?\.?|UND\.?|UN\.?|UNIT)$|UNIDADE`)
	reQtyHeader   = regexp.MustCompile(`^(QTDE?\.?|QUANT\.?|QUANTIDADE|QTY)$|QUANTIDADE`)
	rePriceHeader = regexp.MustCompile(`PRECO|P\.? ?UNIT|VALOR UNIT|VLR\.? ?UNIT|UNITARIO|TARIFA|RATE|UNIT PRICE|CUSTO UNIT`)
	reTotalHeader = regexp.MustCompile(`TOTAL|VALOR TOTAL|VLR\.? ?TOTAL`)
)

// Fixed layouts for sheet templates we have seen enough times to trust
// without pattern matching. Keyed by a phrase that appears verbatim in the
// template's header row.
var knownTemplates = []struct {
	phrase string
	layout ColumnMap
}{
	{
		phrase: "DESCRICAO SERVICO",
		layout: ColumnMap{Code: 0, Description: 1, Unit: 2, Quantity: 3, Price: 4, Total: 5, PriceCandidates: []int{4}},
	},
	{
		phrase: "DISCRIMINACAO DOS SERVICOS",
		layout: ColumnMap{Code: 0, Description: 1, Unit: 2, Quantity: 3, Price: 4, Total: 5, PriceCandidates: []int{4}},
	},
}

type detector func(grid [][]string, cfg InferConfig) *ColumnMap

// InferColumns locates the header row and the code/description/unit/
// quantity/price/total columns of a raw sheet grid. Detection degrades
// through passes of decreasing confidence: explicit header patterns,
// known fixed templates, then a numeric-shape scan. Returns nil when
// nothing works; callers fall back to NaiveLayout.
func InferColumns(grid [][]string) *ColumnMap {
	return InferColumnsWith(grid, DefaultInferConfig())
}

func InferColumnsWith(grid [][]string, cfg InferConfig) *ColumnMap {
	detectors := []detector{headerPatternPass, knownTemplatePass, numericShapePass}
	for _, d := range detectors {
		if m := d(grid, cfg); m != nil {
			return m
		}
	}
	return nil
}

func headerPatternPass(grid [][]string, cfg InferConfig) *ColumnMap {
	limit := cfg.MaxHeaderScanRows
	if limit > len(grid) {
		limit = len(grid)
	}

	for r := 0; r < limit; r++ {
		m := ColumnMap{HeaderRow: r, Code: -1, Description: -1, Unit: -1, Quantity: -1, Price: -1, Total: -1}

		for c, cell := range grid[r] {
			norm := NormalizeText(cell)
			if norm == "" {
				continue
			}
			if m.Code < 0 && reCodeHeader.MatchString(norm) {
				m.Code = c
			}
			if m.Description < 0 && reDescHeader.MatchString(norm) {
				m.Description = c
			}
			if m.Unit < 0 && reUnitHeader.MatchString(norm) {
				m.Unit = c
			}
			if m.Quantity < 0 && reQtyHeader.MatchString(norm) {
				m.Quantity = c
			}
			if rePriceHeader.MatchString(norm) && !reTotalHeader.MatchString(norm) {
				m.PriceCandidates = append(m.PriceCandidates, c)
			}
			if m.Total < 0 && reTotalHeader.MatchString(norm) {
				m.Total = c
			}
		}

		if (m.Code < 0 && m.Description < 0) || len(m.PriceCandidates) == 0 {
			continue
		}

		// code and description are always adjacent in the sheets we get,
		// so the missing one is inferred from the other
		if m.Code < 0 && m.Description > 0 {
			m.Code = m.Description - 1
		}
		if m.Description < 0 && m.Code >= 0 {
			m.Description = m.Code + 1
		}
		if m.Unit < 0 && m.Description >= 0 {
			m.Unit = m.Description + 1
		}
		if m.Quantity < 0 && m.Description >= 0 {
			m.Quantity = m.Description + 2
		}

		m.Price = m.PriceCandidates[0]
		if m.Total < 0 {
			m.Total = m.Price + 1
		}
		return &m
	}
	return nil
}

func knownTemplatePass(grid [][]string, cfg InferConfig) *ColumnMap {
	limit := cfg.MaxHeaderScanRows
	if limit > len(grid) {
		limit = len(grid)
	}

	for r := 0; r < limit; r++ {
		rowText := NormalizeText(strings.Join(grid[r], " "))
		for _, tpl := range knownTemplates {
			if strings.Contains(rowText, tpl.phrase) {
				m := tpl.layout
				m.HeaderRow = r
				return &m
			}
		}
	}
	return nil
}

// numericShapePass is the last resort: a row followed by a row whose cells
// parse into a plausible price range is taken as the header, and the
// numeric columns are assigned positionally from the right.
func numericShapePass(grid [][]string, cfg InferConfig) *ColumnMap {
	limit := cfg.MaxHeaderScanRows
	if limit > len(grid)-1 {
		limit = len(grid) - 1
	}

	for r := 0; r < limit; r++ {
		longCell := false
		for _, cell := range grid[r] {
			if len(strings.TrimSpace(cell)) > cfg.MinHeaderCellLen {
				longCell = true
				break
			}
		}
		if !longCell {
			continue
		}

		var numeric []int
		for c, cell := range grid[r+1] {
			v := ParsePrice(cell)
			if v > cfg.NumericMin && v < cfg.NumericMax {
				numeric = append(numeric, c)
			}
		}
		if len(numeric) < cfg.MinNumericCols {
			continue
		}

		m := ColumnMap{HeaderRow: r, Code: -1, Description: -1, Unit: -1, Quantity: -1, Price: -1, Total: -1}
		m.Total = numeric[len(numeric)-1]
		m.Price = numeric[len(numeric)-2]
		m.PriceCandidates = []int{m.Price}
		if len(numeric) >= 3 {
			m.Quantity = numeric[len(numeric)-3]
		}

		// leftmost non-numeric columns: code then description
		first := numeric[0]
		if first >= 2 {
			m.Code = 0
			m.Description = 1
		} else if first == 1 {
			m.Description = 0
		}
		if m.Description >= 0 && m.Unit < 0 && m.Description+1 < first {
			m.Unit = m.Description + 1
		}
		return &m
	}
	return nil
}

// NaiveLayout is the fixed fallback used when no pass succeeds: first
// column is the code, second the description, and the price is the first
// plausible value scanning the remaining columns right to left.
func NaiveLayout(row []string, cfg InferConfig) (code, desc, price string) {
	if len(row) > 0 {
		code = strings.TrimSpace(row[0])
	}
	if len(row) > 1 {
		desc = strings.TrimSpace(row[1])
	}
	for c := len(row) - 1; c >= 2; c-- {
		if v := ParsePrice(row[c]); v > cfg.NumericMin && v < cfg.NumericMax {
			price = row[c]
			return
		}
	}
	return
}

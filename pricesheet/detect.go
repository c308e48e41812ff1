package pricesheet

import (
	"regexp"
	"strings"
)

const contractorScanRows = 15

var (
	reContractorLabel = regexp.MustCompile(`(?i)(CONTRATADA?|EMPREITEIRA|EXECUTORA?)\s*[:\-]\s*(.+)`)
	reContractLabel   = regexp.MustCompile(`(?i)CONTRATO\s*(?:N[ºO°.]*\s*)?[:\-]?\s*([A-Z0-9][A-Z0-9./\-]{2,})`)
	reContractNumber  = regexp.MustCompile(`\b\d{2,4}[./-]\d{2,4}(?:[./-]\d{2,4})?\b`)
)

// DetectContractor scans the leading rows of a sheet for free-text
// "Contratada:" and "Contrato:" labels. It works over the concatenated
// row text, independent of column inference, and returns empty strings
// when nothing is found.
func DetectContractor(grid [][]string) (contractor, contract string) {
	limit := contractorScanRows
	if limit > len(grid) {
		limit = len(grid)
	}

	for r := 0; r < limit; r++ {
		rowText := strings.TrimSpace(strings.Join(grid[r], " "))
		if rowText == "" {
			continue
		}

		if contractor == "" {
			if m := reContractorLabel.FindStringSubmatch(rowText); m != nil {
				contractor = cleanLabelValue(m[2])
			}
		}
		if contract == "" {
			if m := reContractLabel.FindStringSubmatch(StripAccents(strings.ToUpper(rowText))); m != nil {
				contract = cleanLabelValue(m[1])
			} else if strings.Contains(NormalizeText(rowText), "CONTRATO") {
				if m := reContractNumber.FindString(rowText); m != "" {
					contract = m
				}
			}
		}
		if contractor != "" && contract != "" {
			break
		}
	}
	return contractor, contract
}

// cleanLabelValue trims the captured value up to the next label on the
// same row, if any.
func cleanLabelValue(v string) string {
	v = strings.TrimSpace(v)
	for _, stop := range []string{"Contrato", "CONTRATO", "Contratada", "CONTRATADA", "Obra", "OBRA"} {
		if i := strings.Index(v, stop); i > 0 {
			v = strings.TrimSpace(v[:i])
		}
	}
	return strings.Trim(v, " -:;")
}

package measurement

import (
	"sort"
	"strings"

	"medicao/models"
)

// Summarize rolls service entries up into one MeasurementSummary per
// contractor. contractorFilter narrows by case-insensitive substring;
// from/to are inclusive ISO date strings ("" means unbounded). The period
// of each summary is the explicit filter bounds when given, otherwise the
// min/max entry dates of that group. Output is sorted by total value,
// highest first.
func Summarize(entries []models.ServiceEntry, contractorFilter, from, to string) []models.MeasurementSummary {
	filter := strings.ToLower(strings.TrimSpace(contractorFilter))

	groups := map[string][]models.ServiceEntry{}
	var order []string
	for _, e := range entries {
		if filter != "" && !strings.Contains(strings.ToLower(e.Contractor), filter) {
			continue
		}
		if from != "" && e.Date < from {
			continue
		}
		if to != "" && e.Date > to {
			continue
		}
		if _, ok := groups[e.Contractor]; !ok {
			order = append(order, e.Contractor)
		}
		groups[e.Contractor] = append(groups[e.Contractor], e)
	}

	out := make([]models.MeasurementSummary, 0, len(order))
	for _, contractor := range order {
		group := groups[contractor]

		total := 0.0
		minDate, maxDate := "", ""
		for _, e := range group {
			total += e.TotalValue
			if e.Date != "" && (minDate == "" || e.Date < minDate) {
				minDate = e.Date
			}
			if e.Date > maxDate {
				maxDate = e.Date
			}
		}

		start, end := from, to
		if start == "" {
			start = minDate
		}
		if end == "" {
			end = maxDate
		}

		out = append(out, models.MeasurementSummary{
			Contractor:  contractor,
			TotalValue:  total,
			PeriodStart: start,
			PeriodEnd:   end,
			EntryCount:  len(group),
			Entries:     group,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue > out[j].TotalValue
	})
	return out
}

// GroupByCode is the second aggregation level: quantity and value summed
// per service code within one summary. Used for the on-screen rollup and
// the exported report tables. Codes keep first-seen order.
func GroupByCode(entries []models.ServiceEntry) []models.CodeSummary {
	byCode := map[string]*models.CodeSummary{}
	var order []string

	for _, e := range entries {
		code := e.Code
		if code == "" {
			code = "(sem código)"
		}
		s, ok := byCode[code]
		if !ok {
			s = &models.CodeSummary{
				Code:        code,
				Description: e.Description,
				Unit:        e.Unit,
				UnitPrice:   e.UnitPrice,
			}
			byCode[code] = s
			order = append(order, code)
		}
		s.Quantity += e.Quantity
		s.TotalValue += e.TotalValue
		s.EntryCount++
	}

	out := make([]models.CodeSummary, 0, len(order))
	for _, code := range order {
		out = append(out, *byCode[code])
	}
	return out
}

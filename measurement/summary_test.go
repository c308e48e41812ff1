package measurement

import (
	"testing"

	"medicao/models"
)

func sampleEntries() []models.ServiceEntry {
	return []models.ServiceEntry{
		{Code: "BSO-01", Description: "Revestimento", Unit: "m²", Quantity: 10, UnitPrice: 45.5, TotalValue: 455, Date: "2024-03-01", Contractor: "Horizonte"},
		{Code: "BSO-01", Description: "Revestimento", Unit: "m²", Quantity: 5, UnitPrice: 45.5, TotalValue: 227.5, Date: "2024-03-10", Contractor: "Horizonte"},
		{Code: "TP-1", Description: "Tapa buraco", Unit: "t", Quantity: 2, UnitPrice: 830, TotalValue: 1660, Date: "2024-03-05", Contractor: "Pavimenta"},
	}
}

func TestSummarizeGroupsByContractor(t *testing.T) {
	summaries := Summarize(sampleEntries(), "", "", "")
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}

	// sorted descending by total value
	if summaries[0].Contractor != "Pavimenta" || summaries[0].TotalValue != 1660 {
		t.Fatalf("first summary wrong: %+v", summaries[0])
	}
	if summaries[1].Contractor != "Horizonte" || summaries[1].TotalValue != 682.5 {
		t.Fatalf("second summary wrong: %+v", summaries[1])
	}

	// unbounded period falls back to min/max entry dates
	if summaries[1].PeriodStart != "2024-03-01" || summaries[1].PeriodEnd != "2024-03-10" {
		t.Fatalf("period = %s..%s", summaries[1].PeriodStart, summaries[1].PeriodEnd)
	}
}

func TestSummarizeContractorFilter(t *testing.T) {
	summaries := Summarize(sampleEntries(), "horiz", "", "")
	if len(summaries) != 1 || summaries[0].Contractor != "Horizonte" {
		t.Fatalf("filter failed: %+v", summaries)
	}
}

func TestSummarizeDateRange(t *testing.T) {
	summaries := Summarize(sampleEntries(), "", "2024-03-05", "2024-03-31")
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	for _, s := range summaries {
		// explicit bounds are reported even when entries cover less
		if s.PeriodStart != "2024-03-05" || s.PeriodEnd != "2024-03-31" {
			t.Fatalf("period = %s..%s", s.PeriodStart, s.PeriodEnd)
		}
	}
	for _, s := range summaries {
		if s.Contractor == "Horizonte" && s.TotalValue != 227.5 {
			t.Fatalf("date filter kept wrong entries: %+v", s)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil, "", "", ""); len(got) != 0 {
		t.Fatalf("expected no summaries, got %+v", got)
	}
}

func TestGroupByCode(t *testing.T) {
	rollup := GroupByCode(sampleEntries())
	if len(rollup) != 2 {
		t.Fatalf("got %d code groups, want 2", len(rollup))
	}
	if rollup[0].Code != "BSO-01" || rollup[0].Quantity != 15 || rollup[0].TotalValue != 682.5 {
		t.Fatalf("BSO-01 rollup wrong: %+v", rollup[0])
	}
	if rollup[0].EntryCount != 2 {
		t.Fatalf("entry count = %d", rollup[0].EntryCount)
	}
	if rollup[1].Code != "TP-1" || rollup[1].TotalValue != 1660 {
		t.Fatalf("TP-1 rollup wrong: %+v", rollup[1])
	}
}

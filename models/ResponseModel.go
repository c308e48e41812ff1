package models

// Request/response shapes used by the HTTP handlers.

// ErrorResponse is the error body every handler returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// IngestResponse is returned by the price sheet upload endpoint.
type IngestResponse struct {
	SheetFileID string   `json:"sheet_file_id"`
	Added       int      `json:"added" example:"87"`
	Contractor  string   `json:"contractor" example:"Construtora Horizonte"`
	Contract    string   `json:"contract" example:"071/2023"`
	Errors      []string `json:"errors,omitempty"`
}

// ServiceOccurrence is one extracted or manually entered service to be
// reconciled against the price catalog.
type ServiceOccurrence struct {
	Description string  `json:"description" example:"Revestimento em argamassa"`
	Quantity    float64 `json:"quantity" example:"10"`
	Unit        string  `json:"unit" example:"m²"`
	RawCode     string  `json:"raw_code,omitempty" example:"BSO-01"`
}

// ReconcilePreview is the draft line produced for one occurrence before
// operator confirmation.
type ReconcilePreview struct {
	Occurrence  ServiceOccurrence `json:"occurrence"`
	Matched     bool              `json:"matched"`
	MatchSource string            `json:"match_source,omitempty" example:"code"`
	Code        string            `json:"code,omitempty"`
	Description string            `json:"description,omitempty"`
	Unit        string            `json:"unit,omitempty"`
	UnitPrice   float64           `json:"unit_price,omitempty"`
	TotalValue  float64           `json:"total_value,omitempty"`
	PriceItemID *int              `json:"price_item_id,omitempty"`
	Flags       []string          `json:"flags,omitempty"`
}

// ConfirmEntryRequest is one confirmed service line to persist. When
// ChosenCode differs from the suggested match the correction is written
// into the learned-match history.
type ConfirmEntryRequest struct {
	Occurrence ServiceOccurrence `json:"occurrence"`
	ChosenCode string            `json:"chosen_code" example:"BSO-01"`
	ReportID   *int              `json:"report_id,omitempty"`
	Date       string            `json:"date" example:"2024-03-18"`
	Contractor string            `json:"contractor"`
	Fiscal     string            `json:"fiscal,omitempty"`
	JobSite    string            `json:"job_site,omitempty"`
	Location   string            `json:"location,omitempty"`
	Notes      string            `json:"notes,omitempty"`
}

// ExtractResponse carries the loosely-typed field bag returned by the
// document AI service for one daily report document.
type ExtractResponse struct {
	Fields      map[string]string   `json:"fields"`
	Occurrences []ServiceOccurrence `json:"occurrences"`
	Warnings    []string            `json:"warnings,omitempty"`
}
